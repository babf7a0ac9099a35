package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency is returned when the referenced currency does not exist.
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrInvalidAmount is returned for negative quantities, rates or amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidKind is returned for a transaction type other than buy/sell.
	ErrInvalidKind = errors.New("invalid transaction type")
	// ErrNotFound is returned when the event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrConsistencyViolation marks a cashbox chain that breaks
	// balance_after[n] = balance_after[n-1] + inflow[n] - outflow[n].
	ErrConsistencyViolation = errors.New("cashbox consistency violation")

	// errEventMoved means the event changed currency between the lock-free
	// read and the locked read; the caller retries.
	errEventMoved = errors.New("event moved to another currency")
)

// ConsistencyError describes the first cashbox row that breaks the chain.
type ConsistencyError struct {
	CurrencyID uint
	EntryID    uint
	Expected   decimal.Decimal
	Actual     decimal.Decimal
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("currency %d entry %d: balance_after %s, expected %s",
		e.CurrencyID, e.EntryID, e.Actual, e.Expected)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistencyViolation }
