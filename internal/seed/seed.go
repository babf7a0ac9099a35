// Package seed loads bootstrap data (users, currencies, opening balances and
// optional demo activity) from a YAML file.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed default.yaml
var defaultSeed []byte

// openingDaysAgo places opening balances before any demo activity.
const openingDaysAgo = 30

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Currency struct {
	Code           string `yaml:"code"`
	Name           string `yaml:"name"`
	Rate           string `yaml:"rate"`
	OpeningBalance string `yaml:"opening_balance"`
}

type Expense struct {
	Category string `yaml:"category"`
	Currency string `yaml:"currency"`
	Amount   string `yaml:"amount"`
	Notes    string `yaml:"notes"`
	DaysAgo  int    `yaml:"days_ago"`
}

type Transaction struct {
	Type     string `yaml:"type"`
	Currency string `yaml:"currency"`
	Quantity string `yaml:"quantity"`
	BuyRate  string `yaml:"buy_rate"`
	SellRate string `yaml:"sell_rate"`
	Notes    string `yaml:"notes"`
	DaysAgo  int    `yaml:"days_ago"`
}

// File is the seed document.
type File struct {
	Company      string        `yaml:"company"`
	Users        []User        `yaml:"users"`
	Currencies   []Currency    `yaml:"currencies"`
	Expenses     []Expense     `yaml:"expenses"`
	Transactions []Transaction `yaml:"transactions"`
}

// Load reads the seed file at path. A missing file yields the built-in
// defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("seed file not found, using built-in defaults", "path", path)
		data = defaultSeed
	} else if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Result counts what Run inserted.
type Result struct {
	Users        int
	Currencies   int
	Adjustments  int
	Expenses     int
	Transactions int
}

// Seeder inserts seed data. Every step skips rows that already exist, so
// running it twice is harmless.
type Seeder struct {
	DB         *gorm.DB
	Ledger     *ledger.Engine
	Currencies *currency.Service
	BcryptCost int
	Now        func() time.Time
}

// Run applies f.
func (s *Seeder) Run(ctx context.Context, f *File) (*Result, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := now().UTC()
	res := &Result{}

	if err := s.seedSettings(ctx, f.Company); err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		created, err := s.seedUser(ctx, u)
		if err != nil {
			return nil, err
		}
		if created {
			res.Users++
		}
	}

	codes, err := s.seedCurrencies(ctx, f.Currencies, res)
	if err != nil {
		return nil, err
	}

	// opening balances and demo activity only go into an empty ledger
	var rows int64
	if err := s.DB.WithContext(ctx).Model(&models.CashboxEntry{}).Count(&rows).Error; err != nil {
		return nil, err
	}
	if rows > 0 {
		slog.Info("cashbox not empty, skipping opening balances and demo data")
		return res, nil
	}

	openingAt := today.AddDate(0, 0, -openingDaysAgo)
	for _, c := range f.Currencies {
		if c.OpeningBalance == "" {
			continue
		}
		amount, err := decimal.NewFromString(c.OpeningBalance)
		if err != nil {
			return nil, fmt.Errorf("opening balance of %s: %w", c.Code, err)
		}
		if amount.IsZero() {
			continue
		}
		_, _, err = s.Ledger.RecordAdjustment(ctx, ledger.AdjustmentInput{
			CurrencyID: codes[strings.ToUpper(c.Code)],
			Amount:     amount,
			Note:       "opening balance",
			OccurredAt: openingAt,
		})
		if err != nil {
			return nil, err
		}
		res.Adjustments++
	}

	for _, e := range f.Expenses {
		id, ok := codes[strings.ToUpper(e.Currency)]
		if !ok {
			return nil, fmt.Errorf("expense %q: unknown currency %q", e.Category, e.Currency)
		}
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("expense %q amount: %w", e.Category, err)
		}
		_, _, err = s.Ledger.RecordExpense(ctx, ledger.ExpenseInput{
			Category:   e.Category,
			Amount:     amount,
			CurrencyID: id,
			Notes:      e.Notes,
			OccurredAt: today.AddDate(0, 0, -e.DaysAgo),
		})
		if err != nil {
			return nil, err
		}
		res.Expenses++
	}

	for _, t := range f.Transactions {
		in, err := t.input(codes, today)
		if err != nil {
			return nil, err
		}
		if _, _, err := s.Ledger.RecordTransaction(ctx, in); err != nil {
			return nil, err
		}
		res.Transactions++
	}
	return res, nil
}

func (t Transaction) input(codes map[string]uint, today time.Time) (ledger.TransactionInput, error) {
	id, ok := codes[strings.ToUpper(t.Currency)]
	if !ok {
		return ledger.TransactionInput{}, fmt.Errorf("transaction %q: unknown currency %q", t.Notes, t.Currency)
	}
	in := ledger.TransactionInput{
		Type:       t.Type,
		CurrencyID: id,
		Notes:      t.Notes,
		OccurredAt: today.AddDate(0, 0, -t.DaysAgo),
	}
	var err error
	if in.Quantity, err = decimal.NewFromString(t.Quantity); err != nil {
		return in, fmt.Errorf("transaction %q quantity: %w", t.Notes, err)
	}
	if t.BuyRate != "" {
		if in.BuyRate, err = decimal.NewFromString(t.BuyRate); err != nil {
			return in, fmt.Errorf("transaction %q buy rate: %w", t.Notes, err)
		}
	}
	if t.SellRate != "" {
		if in.SellRate, err = decimal.NewFromString(t.SellRate); err != nil {
			return in, fmt.Errorf("transaction %q sell rate: %w", t.Notes, err)
		}
	}
	return in, nil
}

func (s *Seeder) seedSettings(ctx context.Context, company string) error {
	if company == "" {
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Settings{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Create(&models.Settings{CompanyName: company, CompanyLogo: "bi-bank2"}).Error
}

func (s *Seeder) seedUser(ctx context.Context, u User) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", u.Username).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	role := u.Role
	switch role {
	case models.RoleAdmin, models.RoleEditor, models.RoleViewer:
	case "":
		role = models.RoleViewer
	default:
		return false, fmt.Errorf("user %q: unknown role %q", u.Username, u.Role)
	}
	hash, err := util.HashPassword(u.Password, s.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("user %q: %w", u.Username, err)
	}
	user := models.User{Username: u.Username, PasswordHash: hash, Role: role}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return false, err
	}
	slog.Info("seeded user", "username", user.Username, "role", user.Role)
	return true, nil
}

// seedCurrencies creates missing currencies and returns the id of every
// currency by code.
func (s *Seeder) seedCurrencies(ctx context.Context, list []Currency, res *Result) (map[string]uint, error) {
	existing, err := s.Currencies.List(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]uint, len(existing)+len(list))
	for _, c := range existing {
		codes[c.Code] = c.ID
	}
	for _, c := range list {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if _, ok := codes[code]; ok {
			continue
		}
		rate, err := decimal.NewFromString(c.Rate)
		if err != nil {
			return nil, fmt.Errorf("rate of %s: %w", code, err)
		}
		created, err := s.Currencies.Create(ctx, currency.Input{Code: code, Name: c.Name, Rate: rate})
		if err != nil {
			return nil, err
		}
		codes[created.Code] = created.ID
		res.Currencies++
	}
	return codes, nil
}
