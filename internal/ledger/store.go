package ledger

import (
	"context"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"
)

// Store is the persistence the Engine works against. A Store handed to the
// callback of Atomic is bound to one unit of work: everything written through
// it commits or rolls back together.
type Store interface {
	Atomic(ctx context.Context, fn func(s Store) error) error

	GetCurrency(ctx context.Context, id uint) (*models.Currency, error)
	ListCurrencies(ctx context.Context) ([]models.Currency, error)

	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	SaveExpense(ctx context.Context, e *models.Expense) error
	SaveAdjustment(ctx context.Context, a *models.Adjustment) error
	GetTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	GetExpense(ctx context.Context, id uint) (*models.Expense, error)
	GetAdjustment(ctx context.Context, id uint) (*models.Adjustment, error)
	GetEvent(ctx context.Context, kind string, id uint) (Event, error)
	DeleteEvent(ctx context.Context, kind string, id uint) error
	// EventsFrom returns the currency's events at or after from, in replay order.
	EventsFrom(ctx context.Context, currencyID uint, from time.Time) ([]Event, error)

	// LatestEntry returns nil when the currency has no cashbox row.
	LatestEntry(ctx context.Context, currencyID uint) (*models.CashboxEntry, error)
	// EntryBefore returns the last row strictly before t, or nil.
	EntryBefore(ctx context.Context, currencyID uint, t time.Time) (*models.CashboxEntry, error)
	EntryForEvent(ctx context.Context, kind string, id uint) (*models.CashboxEntry, error)
	// Entries returns the rows at or after from, oldest first.
	Entries(ctx context.Context, currencyID uint, from time.Time) ([]models.CashboxEntry, error)
	InsertEntry(ctx context.Context, entry *models.CashboxEntry) error
	UpdateEntry(ctx context.Context, entry *models.CashboxEntry) error
	DeleteEntriesFrom(ctx context.Context, currencyID uint, from time.Time) error
}
