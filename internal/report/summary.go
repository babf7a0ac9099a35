// Package report computes the summary figures and writes the exports.
package report

import (
	"context"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultCompanyName = "Default Company"
	dashboardLatest    = 10
)

// Summary holds the headline figures shown on the reports page.
type Summary struct {
	TotalProfit      decimal.Decimal            `json:"total_profit"`
	TotalExpenses    decimal.Decimal            `json:"total_expenses"`
	Balances         map[string]decimal.Decimal `json:"balances"`
	TransactionCount int                        `json:"transaction_count"`
	ExpenseCount     int                        `json:"expense_count"`
}

// TransactionRow is a transaction joined with its currency code.
type TransactionRow struct {
	ID              uint            `json:"id"`
	Date            time.Time       `json:"date"`
	Type            string          `json:"type"`
	Currency        string          `json:"currency"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalValueLocal decimal.Decimal `json:"total_value_local"`
	Profit          decimal.Decimal `json:"profit"`
}

// ExpenseRow is an expense joined with its currency code.
type ExpenseRow struct {
	ID       uint            `json:"id"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Notes    string          `json:"notes"`
}

// Dashboard is the landing page payload.
type Dashboard struct {
	Summary
	CurrencyCount int              `json:"currency_count"`
	Latest        []TransactionRow `json:"latest_transactions"`
}

// Service reads report data. It never writes.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Engine
}

// NewService returns a report Service.
func NewService(db *gorm.DB, engine *ledger.Engine) *Service {
	return &Service{db: db, ledger: engine}
}

// Summary sums profit and expenses and collects the latest balances.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	db := s.db.WithContext(ctx)

	var profits, amounts []decimal.Decimal
	if err := db.Model(&models.Transaction{}).Pluck("profit", &profits).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Expense{}).Pluck("amount", &amounts).Error; err != nil {
		return nil, err
	}
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalProfit:      sum(profits),
		TotalExpenses:    sum(amounts),
		Balances:         balances,
		TransactionCount: len(profits),
		ExpenseCount:     len(amounts),
	}, nil
}

// Dashboard is Summary plus the currency count and the latest transactions.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.Transactions(ctx, dashboardLatest)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Summary:       *summary,
		CurrencyCount: len(summary.Balances),
		Latest:        latest,
	}, nil
}

// Transactions returns transactions newest first; limit <= 0 means all.
func (s *Service) Transactions(ctx context.Context, limit int) ([]TransactionRow, error) {
	q := s.db.WithContext(ctx).Preload("Currency").Order("occurred_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []models.Transaction
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	rows := make([]TransactionRow, 0, len(list))
	for _, t := range list {
		rows = append(rows, TransactionRow{
			ID:              t.ID,
			Date:            t.OccurredAt,
			Type:            t.Type,
			Currency:        t.Currency.Code,
			Quantity:        t.Quantity,
			TotalValueLocal: t.TotalValueLocal,
			Profit:          t.Profit,
		})
	}
	return rows, nil
}

// Expenses returns all expenses newest first.
func (s *Service) Expenses(ctx context.Context) ([]ExpenseRow, error) {
	var list []models.Expense
	if err := s.db.WithContext(ctx).Preload("Currency").
		Order("occurred_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	rows := make([]ExpenseRow, 0, len(list))
	for _, e := range list {
		rows = append(rows, ExpenseRow{
			ID:       e.ID,
			Date:     e.OccurredAt,
			Category: e.Category,
			Currency: e.Currency.Code,
			Amount:   e.Amount,
			Notes:    e.Notes,
		})
	}
	return rows, nil
}

// CompanyName returns the configured company name or a default.
func (s *Service) CompanyName(ctx context.Context) string {
	var st models.Settings
	if err := s.db.WithContext(ctx).Order("id ASC").Limit(1).Find(&st).Error; err != nil || st.CompanyName == "" {
		return defaultCompanyName
	}
	return st.CompanyName
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
