package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// reconcileLatest is the latest-only repair: the flow difference is booked
// on the currency's most recent row, whichever event that row belongs to.
// A move to another currency reverses the old flow on the old currency and
// applies the new flow on the new one.
func (e *Engine) reconcileLatest(ctx context.Context, s Store, before Event, after *Event) error {
	switch {
	case after == nil:
		return adjustLatest(ctx, s, before.CurrencyID, before.Flow, decimal.Zero)
	case after.CurrencyID == before.CurrencyID:
		return adjustLatest(ctx, s, before.CurrencyID, before.Flow, after.Flow)
	default:
		if err := adjustLatest(ctx, s, before.CurrencyID, before.Flow, decimal.Zero); err != nil {
			return err
		}
		return adjustLatest(ctx, s, after.CurrencyID, decimal.Zero, after.Flow)
	}
}

// adjustLatest replaces oldFlow by newFlow on the latest row: the balance
// moves by newFlow-oldFlow, the old magnitude leaves the inflow or outflow
// column it was booked in and the new magnitude enters the column matching
// its direction. Nothing happens when the currency has no row.
func adjustLatest(ctx context.Context, s Store, currencyID uint, oldFlow, newFlow decimal.Decimal) error {
	latest, err := s.LatestEntry(ctx, currencyID)
	if err != nil || latest == nil {
		return err
	}

	latest.BalanceAfter = latest.BalanceAfter.Add(newFlow.Sub(oldFlow))

	if oldFlow.IsPositive() {
		latest.Inflow = latest.Inflow.Sub(oldFlow)
	} else {
		latest.Outflow = latest.Outflow.Add(oldFlow)
	}
	if newFlow.IsPositive() {
		latest.Inflow = latest.Inflow.Add(newFlow)
	} else {
		latest.Outflow = latest.Outflow.Sub(newFlow)
	}

	return s.UpdateEntry(ctx, latest)
}
