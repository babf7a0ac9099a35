package ledger

import (
	"context"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
)

// recompute rewrites the currency's chain from `from` on: rows at or after
// from are dropped and the remaining events in that range are replayed on
// top of the last row before it. The written segment is read back and
// checked before the unit of work commits.
func (e *Engine) recompute(ctx context.Context, s Store, currencyID uint, from time.Time) error {
	base, err := s.EntryBefore(ctx, currencyID, from)
	if err != nil {
		return err
	}
	start := decimal.Zero
	if base != nil {
		start = base.BalanceAfter
	}

	if err := s.DeleteEntriesFrom(ctx, currencyID, from); err != nil {
		return err
	}
	events, err := s.EventsFrom(ctx, currencyID, from)
	if err != nil {
		return err
	}

	balance := start
	for _, ev := range events {
		entry := newEntry(ev, balance, ev.OccurredAt)
		if err := s.InsertEntry(ctx, &entry); err != nil {
			return err
		}
		balance = entry.BalanceAfter
	}

	written, err := s.Entries(ctx, currencyID, from)
	if err != nil {
		return err
	}
	if err := checkChain(currencyID, start, written); err != nil {
		return err
	}
	e.log.Debug("cashbox chain replayed",
		"currency_id", currencyID, "from", from, "events", len(events), "balance", balance.String())
	return nil
}

// checkChain verifies entries (oldest first) against the running balance
// starting at start.
func checkChain(currencyID uint, start decimal.Decimal, entries []models.CashboxEntry) error {
	balance := start
	for i := range entries {
		row := &entries[i]
		expected := balance.Add(row.Inflow).Sub(row.Outflow)
		if !row.BalanceAfter.Equal(expected) {
			return &ConsistencyError{
				CurrencyID: currencyID,
				EntryID:    row.ID,
				Expected:   expected,
				Actual:     row.BalanceAfter,
			}
		}
		balance = row.BalanceAfter
	}
	return nil
}
