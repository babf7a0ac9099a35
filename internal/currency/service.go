// Package currency is the currency registry: codes, names and the current
// rate against the local unit.
package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("currency not found")
	ErrInvalidCode   = errors.New("currency code must be 2-10 letters")
	ErrInvalidRate   = errors.New("currency rate must be positive")
	ErrDuplicateCode = errors.New("currency code already exists")
	// ErrInUse is returned by Delete while events, cashbox rows or debts
	// still reference the currency.
	ErrInUse = errors.New("currency is in use")
)

var codeRe = regexp.MustCompile(`^[A-Z]{2,10}$`)

// Input carries the editable fields of a currency.
type Input struct {
	Code string
	Name string
	Rate decimal.Decimal
}

func (in *Input) normalize() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if !codeRe.MatchString(in.Code) {
		return fmt.Errorf("%q: %w", in.Code, ErrInvalidCode)
	}
	if !in.Rate.IsPositive() {
		return fmt.Errorf("%s: %w", in.Rate, ErrInvalidRate)
	}
	if in.Name == "" {
		in.Name = in.Code
	}
	return nil
}

// Service manages currencies on top of gorm. Lookups by id are cached.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
	now   func() time.Time
}

// NewService returns a Service. A nil c gets a fresh cache.
func NewService(db *gorm.DB, c *cache.Cache) *Service {
	if c == nil {
		c = cache.New(10*time.Minute, 20*time.Minute)
	}
	return &Service{db: db, cache: c, now: time.Now}
}

// Invalidate drops every cached currency, e.g. after a restore.
func (s *Service) Invalidate() { s.cache.Flush() }

func cacheKey(id uint) string { return fmt.Sprintf("currency:%d", id) }

// List returns all currencies ordered by code.
func (s *Service) List(ctx context.Context) ([]models.Currency, error) {
	var list []models.Currency
	if err := s.db.WithContext(ctx).Order("code ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Get returns one currency, from cache when possible.
func (s *Service) Get(ctx context.Context, id uint) (*models.Currency, error) {
	if v, ok := s.cache.Get(cacheKey(id)); ok {
		c := v.(models.Currency)
		return &c, nil
	}
	var c models.Currency
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.SetDefault(cacheKey(id), c)
	return &c, nil
}

// Create adds a currency. Codes are stored uppercase and must be unique.
func (s *Service) Create(ctx context.Context, in Input) (*models.Currency, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := models.Currency{
		Code:       in.Code,
		Name:       in.Name,
		Rate:       in.Rate,
		LastUpdate: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(tx, in.Code, 0); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	slog.Info("currency created", "code", c.Code, "rate", c.Rate.String())
	return &c, nil
}

// Update changes code, name and rate. A rate change stamps last_update and
// records an ExchangeDiff valuing the cash currently held at the new rate.
func (s *Service) Update(ctx context.Context, id uint, in Input) (*models.Currency, *models.ExchangeDiff, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	var (
		c    models.Currency
		diff *models.ExchangeDiff
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := s.checkUnique(tx, in.Code, id); err != nil {
			return err
		}

		now := s.now().UTC()
		if !c.Rate.Equal(in.Rate) {
			latest, err := ledger.NewGormStore(tx).LatestEntry(ctx, id)
			if err != nil {
				return err
			}
			balance := decimal.Zero
			if latest != nil {
				balance = latest.BalanceAfter
			}
			diff = &models.ExchangeDiff{
				CurrencyID:      id,
				OldRate:         c.Rate,
				NewRate:         in.Rate,
				DifferenceValue: in.Rate.Sub(c.Rate).Mul(balance),
				Date:            now,
			}
			if err := tx.Create(diff).Error; err != nil {
				return err
			}
			c.LastUpdate = now
		}

		c.Code = in.Code
		c.Name = in.Name
		c.Rate = in.Rate
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, nil, err
	}
	s.cache.Delete(cacheKey(id))
	if diff != nil {
		slog.Info("currency rate changed", "code", c.Code,
			"old_rate", diff.OldRate.String(), "new_rate", diff.NewRate.String(),
			"difference", diff.DifferenceValue.String())
	}
	return &c, diff, nil
}

// Delete removes a currency that nothing references.
func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Currency
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		for _, m := range []interface{}{
			&models.Transaction{}, &models.Expense{}, &models.Adjustment{},
			&models.CashboxEntry{}, &models.Debt{},
		} {
			var n int64
			if err := tx.Model(m).Where("currency_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%s: %w", c.Code, ErrInUse)
			}
		}
		if err := tx.Where("currency_id = ?", id).Delete(&models.ExchangeDiff{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return err
	}
	s.cache.Delete(cacheKey(id))
	return nil
}

// Diffs returns the currency's exchange-difference history, newest first.
func (s *Service) Diffs(ctx context.Context, id uint) ([]models.ExchangeDiff, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var list []models.ExchangeDiff
	err := s.db.WithContext(ctx).
		Where("currency_id = ?", id).
		Order("date DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (s *Service) checkUnique(tx *gorm.DB, code string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Currency{}).Where("code = ?", code)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%s: %w", code, ErrDuplicateCode)
	}
	return nil
}
