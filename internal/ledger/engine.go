// Package ledger keeps the per-currency cashbox chain consistent while
// transactions, expenses and adjustments are recorded, edited and deleted.
//
// Every event writes exactly one cashbox row. For each currency, ordered by
// (occurred_at, id), the rows satisfy
//
//	balance_after[n] = balance_after[n-1] + inflow[n] - outflow[n]
//
// with an empty chain meaning a balance of zero.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/shopspring/decimal"
)

// Strategy selects how edits and deletes repair the chain.
type Strategy string

const (
	// StrategyRecompute deletes the rows from the earliest affected
	// timestamp on and replays the remaining events.
	StrategyRecompute Strategy = "recompute"
	// StrategyLatestOnly patches only the currency's latest row. It matches
	// data written by the legacy system and leaves intermediate rows stale
	// when an older event changes.
	StrategyLatestOnly Strategy = "latest-only"
)

const maxMoveRetries = 3

// Engine is the ledger core. It is safe for concurrent use; mutations of one
// currency are serialized.
type Engine struct {
	store    Store
	strategy Strategy
	now      func() time.Time
	log      *slog.Logger
	locks    keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy sets the repair strategy. The default is StrategyRecompute.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an Engine on store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		strategy: StrategyRecompute,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy reports the configured repair strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

func (e *Engine) clock() time.Time { return e.now().UTC() }

// TransactionInput is a validated buy/sell request. Zero rates default to the
// currency's current rate; a zero OccurredAt means now on create and
// "unchanged" on edit.
type TransactionInput struct {
	Type       string
	CurrencyID uint
	Quantity   decimal.Decimal
	BuyRate    decimal.Decimal
	SellRate   decimal.Decimal
	Notes      string
	OccurredAt time.Time
}

func (in TransactionInput) validate() error {
	if in.Type != models.KindBuy && in.Type != models.KindSell {
		return fmt.Errorf("%q: %w", in.Type, ErrInvalidKind)
	}
	if in.CurrencyID == 0 {
		return ErrInvalidCurrency
	}
	if in.Quantity.IsNegative() || in.BuyRate.IsNegative() || in.SellRate.IsNegative() {
		return fmt.Errorf("quantity and rates must not be negative: %w", ErrInvalidAmount)
	}
	return nil
}

func (in TransactionInput) applyTo(tx *models.Transaction, cur *models.Currency, now time.Time) {
	buy, sell := in.BuyRate, in.SellRate
	if buy.IsZero() {
		buy = cur.Rate
	}
	if sell.IsZero() {
		sell = cur.Rate
	}
	tx.Type = in.Type
	tx.CurrencyID = cur.ID
	tx.Quantity = in.Quantity
	tx.BuyRate = buy
	tx.SellRate = sell
	tx.TotalValueLocal = TotalValueLocal(in.Type, in.Quantity, buy, sell)
	tx.Profit = Profit(in.Quantity, buy, sell)
	tx.Notes = in.Notes
	tx.OccurredAt = eventTime(in.OccurredAt, tx.OccurredAt, now)
}

// ExpenseInput is a validated expense request.
type ExpenseInput struct {
	Category   string
	Amount     decimal.Decimal
	CurrencyID uint
	Notes      string
	OccurredAt time.Time
}

func (in ExpenseInput) validate() error {
	if in.CurrencyID == 0 {
		return ErrInvalidCurrency
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("expense amount %s: %w", in.Amount, ErrInvalidAmount)
	}
	return nil
}

func (in ExpenseInput) applyTo(e *models.Expense, cur *models.Currency, now time.Time) {
	e.Category = in.Category
	e.Amount = in.Amount
	e.CurrencyID = cur.ID
	e.Notes = in.Notes
	e.OccurredAt = eventTime(in.OccurredAt, e.OccurredAt, now)
}

// AdjustmentInput is a manual cash movement; positive amounts are deposits.
type AdjustmentInput struct {
	CurrencyID uint
	Amount     decimal.Decimal
	Note       string
	OccurredAt time.Time
}

func (in AdjustmentInput) validate() error {
	if in.CurrencyID == 0 {
		return ErrInvalidCurrency
	}
	if in.Amount.IsZero() {
		return fmt.Errorf("adjustment amount is zero: %w", ErrInvalidAmount)
	}
	return nil
}

func (in AdjustmentInput) applyTo(a *models.Adjustment, cur *models.Currency, now time.Time) {
	a.CurrencyID = cur.ID
	a.Amount = in.Amount
	a.Note = in.Note
	a.OccurredAt = eventTime(in.OccurredAt, a.OccurredAt, now)
}

func eventTime(requested, current, now time.Time) time.Time {
	switch {
	case !requested.IsZero():
		return requested.UTC()
	case !current.IsZero():
		return current
	default:
		return now
	}
}

// RecordTransaction stores a new transaction and its cashbox row atomically.
func (e *Engine) RecordTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, *models.CashboxEntry, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	var tx models.Transaction
	entry, err := e.record(ctx, in.CurrencyID, func(s Store, cur *models.Currency) (Event, error) {
		in.applyTo(&tx, cur, e.clock())
		if err := s.SaveTransaction(ctx, &tx); err != nil {
			return Event{}, err
		}
		return TransactionEvent(&tx), nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record transaction: %w", err)
	}
	return &tx, entry, nil
}

// RecordExpense stores a new expense and its cashbox row atomically.
func (e *Engine) RecordExpense(ctx context.Context, in ExpenseInput) (*models.Expense, *models.CashboxEntry, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	var exp models.Expense
	entry, err := e.record(ctx, in.CurrencyID, func(s Store, cur *models.Currency) (Event, error) {
		in.applyTo(&exp, cur, e.clock())
		if err := s.SaveExpense(ctx, &exp); err != nil {
			return Event{}, err
		}
		return ExpenseEvent(&exp), nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record expense: %w", err)
	}
	return &exp, entry, nil
}

// RecordAdjustment stores a manual cash movement and its cashbox row.
func (e *Engine) RecordAdjustment(ctx context.Context, in AdjustmentInput) (*models.Adjustment, *models.CashboxEntry, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	var adj models.Adjustment
	entry, err := e.record(ctx, in.CurrencyID, func(s Store, cur *models.Currency) (Event, error) {
		in.applyTo(&adj, cur, e.clock())
		if err := s.SaveAdjustment(ctx, &adj); err != nil {
			return Event{}, err
		}
		return AdjustmentEvent(&adj), nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record adjustment: %w", err)
	}
	return &adj, entry, nil
}

// record validates the currency, lets save persist the event and applies
// the event's flow, all under the currency lock and in one unit of work.
func (e *Engine) record(ctx context.Context, currencyID uint, save func(s Store, cur *models.Currency) (Event, error)) (*models.CashboxEntry, error) {
	unlock := e.locks.lock(currencyID)
	defer unlock()

	var entry *models.CashboxEntry
	err := e.store.Atomic(ctx, func(s Store) error {
		cur, err := s.GetCurrency(ctx, currencyID)
		if err != nil {
			return err
		}
		ev, err := save(s, cur)
		if err != nil {
			return err
		}
		entry, err = e.applyEvent(ctx, s, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("ledger event recorded",
		"kind", entry.EventKind, "event_id", entry.EventID,
		"currency_id", entry.CurrencyID, "balance_after", entry.BalanceAfter.String())
	return entry, nil
}

// applyEvent appends the cashbox row for a new event on top of the latest
// balance. Under StrategyRecompute an event older than the latest row is
// slotted into place by replaying from its timestamp.
func (e *Engine) applyEvent(ctx context.Context, s Store, ev Event) (*models.CashboxEntry, error) {
	latest, err := s.LatestEntry(ctx, ev.CurrencyID)
	if err != nil {
		return nil, err
	}

	at := e.clock()
	if e.strategy == StrategyRecompute {
		if latest != nil && ev.OccurredAt.Before(latest.OccurredAt) {
			if err := e.recompute(ctx, s, ev.CurrencyID, ev.OccurredAt); err != nil {
				return nil, err
			}
			entry, err := s.EntryForEvent(ctx, ev.Kind, ev.ID)
			if err == nil && entry == nil {
				err = fmt.Errorf("no cashbox row for %s %d after replay: %w", ev.Kind, ev.ID, ErrConsistencyViolation)
			}
			return entry, err
		}
		at = ev.OccurredAt
	}

	prev := decimal.Zero
	if latest != nil {
		prev = latest.BalanceAfter
	}
	entry := newEntry(ev, prev, at)
	if err := s.InsertEntry(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// EditTransaction applies in to an existing transaction and repairs the chain.
func (e *Engine) EditTransaction(ctx context.Context, id uint, in TransactionInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var tx *models.Transaction
	err := e.mutate(ctx, models.EventTransaction, id, in.CurrencyID, func(s Store) (*Event, error) {
		cur, err := s.GetCurrency(ctx, in.CurrencyID)
		if err != nil {
			return nil, err
		}
		if tx, err = s.GetTransaction(ctx, id); err != nil {
			return nil, err
		}
		in.applyTo(tx, cur, e.clock())
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return nil, err
		}
		ev := TransactionEvent(tx)
		return &ev, nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit transaction %d: %w", id, err)
	}
	return tx, nil
}

// EditExpense applies in to an existing expense and repairs the chain.
func (e *Engine) EditExpense(ctx context.Context, id uint, in ExpenseInput) (*models.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var exp *models.Expense
	err := e.mutate(ctx, models.EventExpense, id, in.CurrencyID, func(s Store) (*Event, error) {
		cur, err := s.GetCurrency(ctx, in.CurrencyID)
		if err != nil {
			return nil, err
		}
		if exp, err = s.GetExpense(ctx, id); err != nil {
			return nil, err
		}
		in.applyTo(exp, cur, e.clock())
		if err := s.SaveExpense(ctx, exp); err != nil {
			return nil, err
		}
		ev := ExpenseEvent(exp)
		return &ev, nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit expense %d: %w", id, err)
	}
	return exp, nil
}

// EditAdjustment applies in to an existing adjustment and repairs the chain.
func (e *Engine) EditAdjustment(ctx context.Context, id uint, in AdjustmentInput) (*models.Adjustment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var adj *models.Adjustment
	err := e.mutate(ctx, models.EventAdjustment, id, in.CurrencyID, func(s Store) (*Event, error) {
		cur, err := s.GetCurrency(ctx, in.CurrencyID)
		if err != nil {
			return nil, err
		}
		if adj, err = s.GetAdjustment(ctx, id); err != nil {
			return nil, err
		}
		in.applyTo(adj, cur, e.clock())
		if err := s.SaveAdjustment(ctx, adj); err != nil {
			return nil, err
		}
		ev := AdjustmentEvent(adj)
		return &ev, nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit adjustment %d: %w", id, err)
	}
	return adj, nil
}

// DeleteTransaction removes a transaction and reverses its flow.
func (e *Engine) DeleteTransaction(ctx context.Context, id uint) error {
	return e.deleteEvent(ctx, models.EventTransaction, id)
}

// DeleteExpense removes an expense and reverses its flow.
func (e *Engine) DeleteExpense(ctx context.Context, id uint) error {
	return e.deleteEvent(ctx, models.EventExpense, id)
}

// DeleteAdjustment removes an adjustment and reverses its flow.
func (e *Engine) DeleteAdjustment(ctx context.Context, id uint) error {
	return e.deleteEvent(ctx, models.EventAdjustment, id)
}

func (e *Engine) deleteEvent(ctx context.Context, kind string, id uint) error {
	err := e.mutate(ctx, kind, id, 0, func(s Store) (*Event, error) {
		return nil, s.DeleteEvent(ctx, kind, id)
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

// mutate runs change under the locks of the event's current currency and
// newCurrency (0 on delete), then reconciles the chain from the event's old
// state to the state change returns (nil for a deletion).
func (e *Engine) mutate(ctx context.Context, kind string, id, newCurrency uint, change func(s Store) (*Event, error)) error {
	for attempt := 0; ; attempt++ {
		peek, err := e.store.GetEvent(ctx, kind, id)
		if err != nil {
			return err
		}

		ids := []uint{peek.CurrencyID}
		if newCurrency != 0 {
			ids = append(ids, newCurrency)
		}
		unlock := e.locks.lock(ids...)
		err = e.store.Atomic(ctx, func(s Store) error {
			before, err := s.GetEvent(ctx, kind, id)
			if err != nil {
				return err
			}
			if before.CurrencyID != peek.CurrencyID {
				return errEventMoved
			}
			after, err := change(s)
			if err != nil {
				return err
			}
			return e.reconcile(ctx, s, before, after)
		})
		unlock()

		if errors.Is(err, errEventMoved) && attempt < maxMoveRetries {
			continue
		}
		if err == nil {
			e.log.Info("ledger event changed", "kind", kind, "event_id", id,
				"deleted", newCurrency == 0, "strategy", string(e.strategy))
		}
		return err
	}
}

// reconcile repairs the chain after an event went from before to after.
func (e *Engine) reconcile(ctx context.Context, s Store, before Event, after *Event) error {
	if e.strategy == StrategyLatestOnly {
		return e.reconcileLatest(ctx, s, before, after)
	}

	if after == nil {
		return e.recompute(ctx, s, before.CurrencyID, before.OccurredAt)
	}
	if after.CurrencyID == before.CurrencyID {
		if after.Flow.Equal(before.Flow) && after.OccurredAt.Equal(before.OccurredAt) {
			return nil
		}
		from := before.OccurredAt
		if after.OccurredAt.Before(from) {
			from = after.OccurredAt
		}
		return e.recompute(ctx, s, before.CurrencyID, from)
	}
	if err := e.recompute(ctx, s, before.CurrencyID, before.OccurredAt); err != nil {
		return err
	}
	return e.recompute(ctx, s, after.CurrencyID, after.OccurredAt)
}
