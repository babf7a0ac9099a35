package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	KindBuy  = "buy"
	KindSell = "sell"
)

// Event kinds stored on cashbox entries.
const (
	EventTransaction = "transaction"
	EventExpense     = "expense"
	EventAdjustment  = "adjustment"
)

// Transaction is a buy or sell of foreign currency against the local unit.
// Buying pays local cash out, selling takes local cash in.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Type            string          `gorm:"size:10;not null" json:"type"`
	CurrencyID      uint            `gorm:"index;not null" json:"currency_id"`
	Quantity        decimal.Decimal `gorm:"type:text;not null" json:"quantity"`
	BuyRate         decimal.Decimal `gorm:"type:text" json:"buy_rate"`
	SellRate        decimal.Decimal `gorm:"type:text" json:"sell_rate"`
	TotalValueLocal decimal.Decimal `gorm:"type:text" json:"total_value_local"`
	Profit          decimal.Decimal `gorm:"type:text" json:"profit"`
	Notes           string          `gorm:"size:255" json:"notes"`
	OccurredAt      time.Time       `gorm:"index;not null" json:"occurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Currency Currency `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Expense is an operating cost paid out of the cashbox.
type Expense struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Category   string          `gorm:"size:64;not null" json:"category"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	CurrencyID uint            `gorm:"index;not null" json:"currency_id"`
	Notes      string          `gorm:"size:255" json:"notes"`
	OccurredAt time.Time       `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Currency Currency `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Adjustment is a manual cash movement: opening capital, deposit or
// withdrawal. Amount is signed.
type Adjustment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CurrencyID uint            `gorm:"index;not null" json:"currency_id"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	Note       string          `gorm:"size:255" json:"note"`
	OccurredAt time.Time       `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Currency Currency `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
