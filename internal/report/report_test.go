package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// setupReport builds a small ledger: USD opening 2000, a USD sale of 100 at
// 11000 (buy 10950), and a 50000 IQD expense.
func setupReport(t *testing.T) *Service {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "report.db")})
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

	usd := models.Currency{Code: "USD", Name: "US Dollar", Rate: decimal.NewFromInt(10950), LastUpdate: time.Now()}
	iqd := models.Currency{Code: "IQD", Name: "Iraqi Dinar", Rate: decimal.NewFromInt(1), LastUpdate: time.Now()}
	if err := db.Create(&usd).Error; err != nil {
		t.Fatalf("create USD: %v", err)
	}
	if err := db.Create(&iqd).Error; err != nil {
		t.Fatalf("create IQD: %v", err)
	}

	ctx := context.Background()
	eng := ledger.New(ledger.NewGormStore(db))
	if _, _, err := eng.RecordAdjustment(ctx, ledger.AdjustmentInput{CurrencyID: usd.ID, Amount: decimal.NewFromInt(2000), Note: "opening"}); err != nil {
		t.Fatalf("RecordAdjustment() error = %v", err)
	}
	if _, _, err := eng.RecordTransaction(ctx, ledger.TransactionInput{
		Type:       models.KindSell,
		CurrencyID: usd.ID,
		Quantity:   decimal.NewFromInt(100),
		BuyRate:    decimal.NewFromInt(10950),
		SellRate:   decimal.NewFromInt(11000),
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if _, _, err := eng.RecordExpense(ctx, ledger.ExpenseInput{Category: "rent", Amount: decimal.NewFromInt(50000), CurrencyID: iqd.ID, Notes: "march"}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if err := db.Create(&models.Settings{CompanyName: "Erbil Exchange"}).Error; err != nil {
		t.Fatalf("create settings: %v", err)
	}
	return NewService(db, eng)
}

func TestSummary(t *testing.T) {
	svc := setupReport(t)

	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !got.TotalProfit.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("TotalProfit = %s, want 5000", got.TotalProfit)
	}
	if !got.TotalExpenses.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("TotalExpenses = %s, want 50000", got.TotalExpenses)
	}
	if !got.Balances["USD"].Equal(decimal.NewFromInt(1102000)) {
		t.Errorf("USD balance = %s, want 1102000", got.Balances["USD"])
	}
	if !got.Balances["IQD"].Equal(decimal.NewFromInt(-50000)) {
		t.Errorf("IQD balance = %s, want -50000", got.Balances["IQD"])
	}
	if got.TransactionCount != 1 || got.ExpenseCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", got.TransactionCount, got.ExpenseCount)
	}
}

func TestDashboard(t *testing.T) {
	svc := setupReport(t)

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.CurrencyCount != 2 {
		t.Errorf("CurrencyCount = %d, want 2", d.CurrencyCount)
	}
	if len(d.Latest) != 1 || d.Latest[0].Currency != "USD" {
		t.Errorf("Latest = %+v, want one USD transaction", d.Latest)
	}
	if svc.CompanyName(context.Background()) != "Erbil Exchange" {
		t.Errorf("CompanyName() = %q", svc.CompanyName(context.Background()))
	}
}

func TestWriteTransactionsXLSX(t *testing.T) {
	svc := setupReport(t)

	var buf bytes.Buffer
	if err := svc.WriteTransactionsXLSX(context.Background(), &buf); err != nil {
		t.Fatalf("WriteTransactionsXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][4] != "total_local" || rows[1][1] != "sell" || rows[1][2] != "USD" {
		t.Errorf("rows = %v", rows)
	}
	if rows[1][4] != "1100000" {
		t.Errorf("total_local cell = %q, want 1100000", rows[1][4])
	}
}

func TestWriteExpensesXLSX(t *testing.T) {
	svc := setupReport(t)

	var buf bytes.Buffer
	if err := svc.WriteExpensesXLSX(context.Background(), &buf); err != nil {
		t.Fatalf("WriteExpensesXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Expenses")
	if len(rows) != 2 || rows[1][1] != "rent" || rows[1][4] != "march" {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteCashboxCSV(t *testing.T) {
	svc := setupReport(t)

	var buf bytes.Buffer
	if err := svc.WriteCashboxCSV(context.Background(), &buf); err != nil {
		t.Fatalf("WriteCashboxCSV() error = %v", err)
	}
	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("missing UTF-8 BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3", len(records))
	}
	// USD was created first, so its two rows come before IQD's
	if records[2][1] != "USD" || records[2][2] != "transaction" || records[2][6] != "1102000" {
		t.Errorf("second USD row = %v", records[2])
	}
	if records[3][1] != "IQD" || records[3][5] != "50000" {
		t.Errorf("IQD row = %v", records[3])
	}
}

func TestWriteSummaryPDF(t *testing.T) {
	svc := setupReport(t)

	var buf bytes.Buffer
	if err := svc.WriteSummaryPDF(context.Background(), &buf); err != nil {
		t.Fatalf("WriteSummaryPDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header")
	}
}
