package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LatestBalance returns the balance_after of the currency's latest row, or
// zero when it has none. It does not write.
func (e *Engine) LatestBalance(ctx context.Context, currencyID uint) (decimal.Decimal, error) {
	latest, err := e.store.LatestEntry(ctx, currencyID)
	if err != nil {
		return decimal.Zero, err
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.BalanceAfter, nil
}

// Balances returns the latest balance of every currency keyed by code.
func (e *Engine) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	currencies, err := e.store.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		bal, err := e.LatestBalance(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", c.Code, err)
		}
		out[c.Code] = bal
	}
	return out, nil
}

// Verify walks the currency's full chain and returns a *ConsistencyError
// for the first row that breaks it.
func (e *Engine) Verify(ctx context.Context, currencyID uint) error {
	if _, err := e.store.GetCurrency(ctx, currencyID); err != nil {
		return err
	}
	entries, err := e.store.Entries(ctx, currencyID, time.Time{})
	if err != nil {
		return err
	}
	return checkChain(currencyID, decimal.Zero, entries)
}

// Rebuild replays the currency's whole history, replacing every cashbox row.
// It repairs chains written by the latest-only strategy.
func (e *Engine) Rebuild(ctx context.Context, currencyID uint) error {
	unlock := e.locks.lock(currencyID)
	defer unlock()

	err := e.store.Atomic(ctx, func(s Store) error {
		return e.RebuildWithin(ctx, s, currencyID)
	})
	if err != nil {
		return err
	}
	e.log.Info("cashbox chain rebuilt", "currency_id", currencyID)
	return nil
}

// RebuildWithin is Rebuild on the caller's unit of work s, for callers that
// rewrite event tables wholesale. The caller holds the currencies' locks
// (LockCurrencies) and commits or rolls back s.
func (e *Engine) RebuildWithin(ctx context.Context, s Store, currencyIDs ...uint) error {
	for _, id := range currencyIDs {
		if _, err := s.GetCurrency(ctx, id); err != nil {
			return fmt.Errorf("rebuild currency %d: %w", id, err)
		}
		if err := e.recompute(ctx, s, id, time.Time{}); err != nil {
			return fmt.Errorf("rebuild currency %d: %w", id, err)
		}
	}
	return nil
}

// LockCurrencies takes the mutation locks of ids in ascending order and
// returns the matching unlock.
func (e *Engine) LockCurrencies(ids ...uint) (unlock func()) {
	return e.locks.lock(ids...)
}
