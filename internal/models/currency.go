// Package models holds the gorm models. Decimal columns are stored as text
// so sqlite keeps them exact.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is a tradable currency. Rate is expressed in the local base unit
// (e.g. 1 USD = 10950 IQD).
type Currency struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Code       string          `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Name       string          `gorm:"size:64;not null" json:"name"`
	Rate       decimal.Decimal `gorm:"type:text;not null" json:"rate"`
	LastUpdate time.Time       `json:"last_update"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ExchangeDiff records the revaluation of cash held in a currency when its
// rate changes.
type ExchangeDiff struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CurrencyID      uint            `gorm:"index;not null" json:"currency_id"`
	OldRate         decimal.Decimal `gorm:"type:text" json:"old_rate"`
	NewRate         decimal.Decimal `gorm:"type:text" json:"new_rate"`
	DifferenceValue decimal.Decimal `gorm:"type:text" json:"difference_value"`
	Date            time.Time       `gorm:"index" json:"date"`
}
