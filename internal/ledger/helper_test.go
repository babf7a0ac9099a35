package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "ledger_test.db"),
	})
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupEngine(t *testing.T, opts ...Option) (*Engine, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	opts = append([]Option{WithClock(newStepClock().Now)}, opts...)
	return New(NewGormStore(db), opts...), db
}

func createCurrency(t *testing.T, db *gorm.DB, code string, rate int64) *models.Currency {
	t.Helper()
	c := models.Currency{Code: code, Name: code, Rate: decimal.NewFromInt(rate), LastUpdate: time.Now().UTC()}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create currency %s: %v", code, err)
	}
	return &c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balanceOf(t *testing.T, e *Engine, currencyID uint) decimal.Decimal {
	t.Helper()
	bal, err := e.LatestBalance(context.Background(), currencyID)
	if err != nil {
		t.Fatalf("LatestBalance(%d) error = %v", currencyID, err)
	}
	return bal
}

func assertBalance(t *testing.T, e *Engine, currencyID uint, want string) {
	t.Helper()
	if got := balanceOf(t, e, currencyID); !got.Equal(dec(want)) {
		t.Errorf("balance of currency %d = %s, want %s", currencyID, got, want)
	}
}

// chainBalances lists balance_after of the currency's rows, oldest first.
func chainBalances(t *testing.T, db *gorm.DB, currencyID uint) []string {
	t.Helper()
	entries, err := NewGormStore(db).Entries(context.Background(), currencyID, time.Time{})
	if err != nil {
		t.Fatalf("Entries error = %v", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.BalanceAfter.String())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
