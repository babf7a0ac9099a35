package handler

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "handler.db")})
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
	return db
}

// captureLog routes the default logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestReload_LogsMissingCurrency(t *testing.T) {
	db := setupTestDB(t)
	logs := captureLog(t)

	tx := &models.Transaction{ID: 7, CurrencyID: 404}
	(&TransactionHandler{DB: db}).reload(tx)
	if tx.Currency.Code != "" {
		t.Errorf("Currency.Code = %q, want empty", tx.Currency.Code)
	}

	exp := &models.Expense{ID: 8, CurrencyID: 404}
	(&ExpenseHandler{DB: db}).reload(exp)

	out := logs.String()
	for _, want := range []string{
		"load transaction currency failed", "transaction_id=7",
		"load expense currency failed", "expense_id=8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestReload_FillsCurrency(t *testing.T) {
	db := setupTestDB(t)
	logs := captureLog(t)

	cur := models.Currency{Code: "USD", Name: "US Dollar"}
	if err := db.Create(&cur).Error; err != nil {
		t.Fatalf("create currency: %v", err)
	}
	tx := &models.Transaction{ID: 1, CurrencyID: cur.ID}
	(&TransactionHandler{DB: db}).reload(tx)
	if tx.Currency.Code != "USD" {
		t.Errorf("Currency.Code = %q, want USD", tx.Currency.Code)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output: %s", logs.String())
	}
}
