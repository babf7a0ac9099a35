package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "seed.db")})
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
	return &Seeder{
		DB:         db,
		Ledger:     ledger.New(ledger.NewGormStore(db)),
		Currencies: currency.NewService(db, nil),
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	}, db
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Currencies) != 3 || f.Currencies[0].Code != "USD" || f.Currencies[0].Rate != "10950" {
		t.Errorf("Currencies = %+v", f.Currencies)
	}
	if len(f.Users) != 1 || f.Users[0].Username != "admin" {
		t.Errorf("Users = %+v", f.Users)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	doc := "currencies:\n  - code: gbp\n    name: Pound\n    rate: \"14000\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Currencies) != 1 || f.Currencies[0].Code != "gbp" {
		t.Errorf("Currencies = %+v", f.Currencies)
	}

	if _, err := Parse([]byte("currencies: [")); err == nil {
		t.Error("Parse(broken) error = nil, want error")
	}
}

func TestRun_DefaultSeed(t *testing.T) {
	s, db := setupSeeder(t)
	ctx := context.Background()

	f, err := Parse(defaultSeed)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	res, err := s.Run(ctx, f)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Result{Users: 1, Currencies: 3, Adjustments: 3, Expenses: 3, Transactions: 3}
	if *res != want {
		t.Errorf("Result = %+v, want %+v", *res, want)
	}

	balances, err := s.Ledger.Balances(ctx)
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	for code, want := range map[string]string{
		"USD": "4096425",
		"EUR": "-3043500",
		"IQD": "4380000",
	} {
		if !balances[code].Equal(decimal.RequireFromString(want)) {
			t.Errorf("balance %s = %s, want %s", code, balances[code], want)
		}
	}

	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("admin role = %q", admin.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")) != nil {
		t.Error("admin password hash does not match admin123")
	}

	// every seeded currency chain must be consistent
	for _, c := range []string{"USD", "EUR", "IQD"} {
		var cur models.Currency
		db.Where("code = ?", c).First(&cur)
		if err := s.Ledger.Verify(ctx, cur.ID); err != nil {
			t.Errorf("Verify(%s) error = %v", c, err)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	s, db := setupSeeder(t)
	ctx := context.Background()
	f, _ := Parse(defaultSeed)

	if _, err := s.Run(ctx, f); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	res, err := s.Run(ctx, f)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if *res != (Result{}) {
		t.Errorf("second Result = %+v, want zero", *res)
	}

	var n int64
	db.Model(&models.CashboxEntry{}).Count(&n)
	if n != 9 {
		t.Errorf("cashbox rows = %d, want 9", n)
	}
}

func TestRun_UnknownCurrency(t *testing.T) {
	s, _ := setupSeeder(t)
	f := &File{Expenses: []Expense{{Category: "x", Currency: "XYZ", Amount: "1"}}}
	if _, err := s.Run(context.Background(), f); err == nil {
		t.Error("Run() error = nil, want unknown currency error")
	}
}
