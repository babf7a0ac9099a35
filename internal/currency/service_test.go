package currency

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "currency.db")})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	svc := NewService(db, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, db
}

func TestCreate_NormalizesCode(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: " usd ", Name: "US Dollar", Rate: decimal.NewFromInt(10950)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Code != "USD" {
		t.Errorf("Code = %q, want USD", c.Code)
	}
	if c.LastUpdate.IsZero() {
		t.Error("LastUpdate not set")
	}

	_, err = svc.Create(ctx, Input{Code: "Usd", Rate: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicateCode", err)
	}
}

func TestCreate_Invalid(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"empty code", Input{Code: "", Rate: decimal.NewFromInt(1)}, ErrInvalidCode},
		{"digits", Input{Code: "U5D", Rate: decimal.NewFromInt(1)}, ErrInvalidCode},
		{"zero rate", Input{Code: "EUR"}, ErrInvalidRate},
		{"negative rate", Input{Code: "EUR", Rate: decimal.NewFromInt(-3)}, ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdate_RateChangeWritesDiff(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "USD", Name: "US Dollar", Rate: decimal.NewFromInt(10950)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	eng := ledger.New(ledger.NewGormStore(db))
	if _, _, err := eng.RecordAdjustment(ctx, ledger.AdjustmentInput{CurrencyID: c.ID, Amount: decimal.NewFromInt(2000)}); err != nil {
		t.Fatalf("RecordAdjustment() error = %v", err)
	}

	// warm the cache so the update has to invalidate it
	if _, err := svc.Get(ctx, c.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	updated, diff, err := svc.Update(ctx, c.ID, Input{Code: "USD", Name: "US Dollar", Rate: decimal.NewFromInt(11000)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if diff == nil {
		t.Fatal("Update() returned no diff for a rate change")
	}
	if want := decimal.NewFromInt(100000); !diff.DifferenceValue.Equal(want) {
		t.Errorf("DifferenceValue = %s, want %s", diff.DifferenceValue, want)
	}
	if !updated.Rate.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("Rate = %s, want 11000", updated.Rate)
	}

	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Rate.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("cached Rate = %s, want 11000", got.Rate)
	}

	diffs, err := svc.Diffs(ctx, c.ID)
	if err != nil {
		t.Fatalf("Diffs() error = %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("len(Diffs) = %d, want 1", len(diffs))
	}
}

func TestUpdate_SameRateNoDiff(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	c, _ := svc.Create(ctx, Input{Code: "EUR", Rate: decimal.NewFromInt(10200)})
	_, diff, err := svc.Update(ctx, c.ID, Input{Code: "EUR", Name: "Euro", Rate: decimal.RequireFromString("10200.00")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if diff != nil {
		t.Errorf("diff = %+v, want nil", diff)
	}

	if _, _, err := svc.Update(ctx, 999, Input{Code: "EUR", Rate: decimal.NewFromInt(1)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDelete_RefusedWhileReferenced(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	iqd, _ := svc.Create(ctx, Input{Code: "IQD", Rate: decimal.NewFromInt(1)})
	gbp, _ := svc.Create(ctx, Input{Code: "GBP", Rate: decimal.NewFromInt(14000)})

	debt := models.Debt{PersonName: "Karwan", Amount: decimal.NewFromInt(50), CurrencyID: iqd.ID, Date: time.Now()}
	if err := db.Create(&debt).Error; err != nil {
		t.Fatalf("create debt: %v", err)
	}

	if err := svc.Delete(ctx, iqd.ID); !errors.Is(err, ErrInUse) {
		t.Errorf("Delete(referenced) error = %v, want ErrInUse", err)
	}
	if err := svc.Delete(ctx, gbp.ID); err != nil {
		t.Errorf("Delete(unused) error = %v", err)
	}
	if _, err := svc.Get(ctx, gbp.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}
