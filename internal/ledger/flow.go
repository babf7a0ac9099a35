package ledger

import (
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
)

// TotalValueLocal is the local-unit value of a transaction: the quantity at
// the sell rate for sales and at the buy rate for purchases.
func TotalValueLocal(kind string, quantity, buyRate, sellRate decimal.Decimal) decimal.Decimal {
	if kind == models.KindSell {
		return quantity.Mul(sellRate)
	}
	return quantity.Mul(buyRate)
}

// Profit is the spread earned on a transaction. It is zero when either rate
// is missing.
func Profit(quantity, buyRate, sellRate decimal.Decimal) decimal.Decimal {
	if buyRate.IsZero() || sellRate.IsZero() {
		return decimal.Zero
	}
	return sellRate.Sub(buyRate).Mul(quantity)
}

// Event is the ledger view of a Transaction, Expense or Adjustment: the one
// signed flow it applies to its currency's cashbox.
type Event struct {
	Kind       string
	ID         uint
	CurrencyID uint
	OccurredAt time.Time
	CreatedAt  time.Time
	Flow       decimal.Decimal
}

// TransactionEvent maps a transaction to its flow: sales bring local cash in,
// purchases pay it out.
func TransactionEvent(tx *models.Transaction) Event {
	flow := tx.TotalValueLocal
	if tx.Type != models.KindSell {
		flow = flow.Neg()
	}
	return Event{
		Kind:       models.EventTransaction,
		ID:         tx.ID,
		CurrencyID: tx.CurrencyID,
		OccurredAt: tx.OccurredAt,
		CreatedAt:  tx.CreatedAt,
		Flow:       flow,
	}
}

// ExpenseEvent maps an expense to its flow, always an outflow.
func ExpenseEvent(e *models.Expense) Event {
	return Event{
		Kind:       models.EventExpense,
		ID:         e.ID,
		CurrencyID: e.CurrencyID,
		OccurredAt: e.OccurredAt,
		CreatedAt:  e.CreatedAt,
		Flow:       e.Amount.Neg(),
	}
}

// AdjustmentEvent maps a manual cash movement to its flow.
func AdjustmentEvent(a *models.Adjustment) Event {
	return Event{
		Kind:       models.EventAdjustment,
		ID:         a.ID,
		CurrencyID: a.CurrencyID,
		OccurredAt: a.OccurredAt,
		CreatedAt:  a.CreatedAt,
		Flow:       a.Amount,
	}
}

// newEntry builds the cashbox row that applies ev on top of prev.
func newEntry(ev Event, prev decimal.Decimal, at time.Time) models.CashboxEntry {
	entry := models.CashboxEntry{
		CurrencyID:   ev.CurrencyID,
		OccurredAt:   at,
		EventKind:    ev.Kind,
		EventID:      ev.ID,
		Inflow:       decimal.Zero,
		Outflow:      decimal.Zero,
		BalanceAfter: prev.Add(ev.Flow),
	}
	if ev.Flow.IsPositive() {
		entry.Inflow = ev.Flow
	} else {
		entry.Outflow = ev.Flow.Neg()
	}
	return entry
}

// kindRank orders events that share a timestamp and creation time.
func kindRank(kind string) int {
	switch kind {
	case models.EventAdjustment:
		return 0
	case models.EventTransaction:
		return 1
	default:
		return 2
	}
}

// chronological reports whether a replays before b.
func chronological(a, b Event) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		return ra < rb
	}
	return a.ID < b.ID
}
