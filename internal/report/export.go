package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Content types of the exports.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypePDF  = "application/pdf"
)

// WriteTransactionsXLSX writes every transaction, newest first, as a
// single-sheet workbook.
func (s *Service) WriteTransactionsXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.Transactions(ctx, 0)
	if err != nil {
		return err
	}
	header := []interface{}{"date", "type", "currency", "quantity", "total_local", "profit"}
	return writeSheet(w, "Transactions", header, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{
			r.Date.Format("2006-01-02 15:04"), r.Type, r.Currency,
			r.Quantity.InexactFloat64(), r.TotalValueLocal.InexactFloat64(), r.Profit.InexactFloat64(),
		}
	})
}

// WriteExpensesXLSX writes every expense, newest first, as a single-sheet
// workbook.
func (s *Service) WriteExpensesXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.Expenses(ctx)
	if err != nil {
		return err
	}
	header := []interface{}{"date", "category", "currency", "amount", "notes"}
	return writeSheet(w, "Expenses", header, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{
			r.Date.Format("2006-01-02"), r.Category, r.Currency, r.Amount.InexactFloat64(), r.Notes,
		}
	})
}

func writeSheet(w io.Writer, sheet string, header []interface{}, n int, row func(i int) []interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "F", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteCashboxCSV writes the full cashbox history grouped by currency, in
// chain order. A UTF-8 BOM is written first so spreadsheet tools pick the
// right encoding.
func (s *Service) WriteCashboxCSV(ctx context.Context, w io.Writer) error {
	var entries []models.CashboxEntry
	if err := s.db.WithContext(ctx).Preload("Currency").
		Order("currency_id ASC, occurred_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return err
	}

	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "currency", "event", "event_id", "inflow", "outflow", "balance_after"})
	for _, e := range entries {
		_ = cw.Write([]string{
			e.OccurredAt.Format("2006-01-02 15:04:05"),
			e.Currency.Code,
			e.EventKind,
			fmt.Sprint(e.EventID),
			e.Inflow.String(),
			e.Outflow.String(),
			e.BalanceAfter.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryPDF renders the summary figures on one A4 page.
func (s *Service) WriteSummaryPDF(ctx context.Context, w io.Writer) error {
	summary, err := s.Summary(ctx)
	if err != nil {
		return err
	}
	company := s.CompanyName(ctx)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(company+" - cashbox summary", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Exchange cashbox summary", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	line := func(label, value string) {
		pdf.CellFormat(70, 8, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, value, "B", 1, "R", false, 0, "")
	}
	line("Total profit", FormatMoney(summary.TotalProfit))
	line("Total expenses", FormatMoney(summary.TotalExpenses))
	line("Transactions", fmt.Sprint(summary.TransactionCount))
	line("Expenses", fmt.Sprint(summary.ExpenseCount))

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Currency balances", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, code := range SortedCodes(summary.Balances) {
		line(code, FormatMoney(summary.Balances[code]))
	}

	return pdf.Output(w)
}

// SortedCodes returns the currency codes of m in alphabetical order.
func SortedCodes(m map[string]decimal.Decimal) []string {
	codes := make([]string, 0, len(m))
	for k := range m {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}
