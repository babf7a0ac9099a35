package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) conn(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// Atomic runs fn inside a database transaction. Nested calls use savepoints.
func (g *GormStore) Atomic(ctx context.Context, fn func(s Store) error) error {
	return g.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (g *GormStore) GetCurrency(ctx context.Context, id uint) (*models.Currency, error) {
	var c models.Currency
	if err := g.conn(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("currency %d: %w", id, ErrInvalidCurrency)
		}
		return nil, fmt.Errorf("get currency %d: %w", id, err)
	}
	return &c, nil
}

func (g *GormStore) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var list []models.Currency
	if err := g.conn(ctx).Order("code ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return list, nil
}

func (g *GormStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return g.save(ctx, tx)
}

func (g *GormStore) SaveExpense(ctx context.Context, e *models.Expense) error {
	return g.save(ctx, e)
}

func (g *GormStore) SaveAdjustment(ctx context.Context, a *models.Adjustment) error {
	return g.save(ctx, a)
}

func (g *GormStore) save(ctx context.Context, v interface{}) error {
	if err := g.conn(ctx).Omit(clause.Associations).Save(v).Error; err != nil {
		return fmt.Errorf("save %T: %w", v, err)
	}
	return nil
}

func (g *GormStore) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := g.first(ctx, &tx, id); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (g *GormStore) GetExpense(ctx context.Context, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := g.first(ctx, &e, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (g *GormStore) GetAdjustment(ctx context.Context, id uint) (*models.Adjustment, error) {
	var a models.Adjustment
	if err := g.first(ctx, &a, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (g *GormStore) first(ctx context.Context, dst interface{}, id uint) error {
	if err := g.conn(ctx).First(dst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%T %d: %w", dst, id, ErrNotFound)
		}
		return fmt.Errorf("get %T %d: %w", dst, id, err)
	}
	return nil
}

func (g *GormStore) GetEvent(ctx context.Context, kind string, id uint) (Event, error) {
	switch kind {
	case models.EventTransaction:
		tx, err := g.GetTransaction(ctx, id)
		if err != nil {
			return Event{}, err
		}
		return TransactionEvent(tx), nil
	case models.EventExpense:
		e, err := g.GetExpense(ctx, id)
		if err != nil {
			return Event{}, err
		}
		return ExpenseEvent(e), nil
	case models.EventAdjustment:
		a, err := g.GetAdjustment(ctx, id)
		if err != nil {
			return Event{}, err
		}
		return AdjustmentEvent(a), nil
	}
	return Event{}, fmt.Errorf("event kind %q: %w", kind, ErrInvalidKind)
}

func (g *GormStore) DeleteEvent(ctx context.Context, kind string, id uint) error {
	var model interface{}
	switch kind {
	case models.EventTransaction:
		model = &models.Transaction{}
	case models.EventExpense:
		model = &models.Expense{}
	case models.EventAdjustment:
		model = &models.Adjustment{}
	default:
		return fmt.Errorf("event kind %q: %w", kind, ErrInvalidKind)
	}
	res := g.conn(ctx).Delete(model, id)
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (g *GormStore) EventsFrom(ctx context.Context, currencyID uint, from time.Time) ([]Event, error) {
	db := g.conn(ctx)
	where := "currency_id = ? AND occurred_at >= ?"

	var txs []models.Transaction
	if err := db.Where(where, currencyID, from).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	var exps []models.Expense
	if err := db.Where(where, currencyID, from).Find(&exps).Error; err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	var adjs []models.Adjustment
	if err := db.Where(where, currencyID, from).Find(&adjs).Error; err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}

	events := make([]Event, 0, len(txs)+len(exps)+len(adjs))
	for i := range txs {
		events = append(events, TransactionEvent(&txs[i]))
	}
	for i := range exps {
		events = append(events, ExpenseEvent(&exps[i]))
	}
	for i := range adjs {
		events = append(events, AdjustmentEvent(&adjs[i]))
	}
	sort.Slice(events, func(i, j int) bool { return chronological(events[i], events[j]) })
	return events, nil
}

func (g *GormStore) LatestEntry(ctx context.Context, currencyID uint) (*models.CashboxEntry, error) {
	return g.oneEntry(g.conn(ctx).
		Where("currency_id = ?", currencyID).
		Order("occurred_at DESC, id DESC"))
}

func (g *GormStore) EntryBefore(ctx context.Context, currencyID uint, t time.Time) (*models.CashboxEntry, error) {
	return g.oneEntry(g.conn(ctx).
		Where("currency_id = ? AND occurred_at < ?", currencyID, t).
		Order("occurred_at DESC, id DESC"))
}

func (g *GormStore) EntryForEvent(ctx context.Context, kind string, id uint) (*models.CashboxEntry, error) {
	return g.oneEntry(g.conn(ctx).
		Where("event_kind = ? AND event_id = ?", kind, id).
		Order("id DESC"))
}

// oneEntry returns the first row of q, or nil when there is none.
func (g *GormStore) oneEntry(q *gorm.DB) (*models.CashboxEntry, error) {
	var entries []models.CashboxEntry
	if err := q.Limit(1).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load cashbox entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (g *GormStore) Entries(ctx context.Context, currencyID uint, from time.Time) ([]models.CashboxEntry, error) {
	var entries []models.CashboxEntry
	if err := g.conn(ctx).
		Where("currency_id = ? AND occurred_at >= ?", currencyID, from).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load cashbox entries: %w", err)
	}
	return entries, nil
}

func (g *GormStore) InsertEntry(ctx context.Context, entry *models.CashboxEntry) error {
	if err := g.conn(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		return fmt.Errorf("insert cashbox entry: %w", err)
	}
	return nil
}

func (g *GormStore) UpdateEntry(ctx context.Context, entry *models.CashboxEntry) error {
	if err := g.conn(ctx).Omit(clause.Associations).Save(entry).Error; err != nil {
		return fmt.Errorf("update cashbox entry %d: %w", entry.ID, err)
	}
	return nil
}

func (g *GormStore) DeleteEntriesFrom(ctx context.Context, currencyID uint, from time.Time) error {
	if err := g.conn(ctx).
		Where("currency_id = ? AND occurred_at >= ?", currencyID, from).
		Delete(&models.CashboxEntry{}).Error; err != nil {
		return fmt.Errorf("delete cashbox entries: %w", err)
	}
	return nil
}
