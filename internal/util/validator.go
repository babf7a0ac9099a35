package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxAmount caps a single quantity or amount.
var maxAmount = decimal.New(1, 12)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.]{3,32}$`)

// ValidateAmount checks a quantity or amount: positive and below 10^12.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateRate checks an optional rate: zero (use the currency rate) or positive.
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return fmt.Errorf("rate must not be negative, got %s", rate)
	}
	if rate.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("rate too large, got %s", rate)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD date.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ParseEventTime accepts RFC 3339, "2006-01-02 15:04" or a bare date and
// returns the instant in UTC. An empty string yields the zero time.
func ParseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// ValidateCategory checks an expense category: non-empty, at most 64 characters.
func ValidateCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("category is empty")
	}
	if len([]rune(category)) > 64 {
		return fmt.Errorf("category too long, max 64 characters")
	}
	return nil
}

// ValidateUsername allows 3-32 letters, digits, underscores and dots.
func ValidateUsername(name string) error {
	if !usernameRe.MatchString(name) {
		return fmt.Errorf("username must be 3-32 letters, digits, '_' or '.'")
	}
	return nil
}

// ValidatePassword requires 6-72 bytes (bcrypt ignores anything longer).
func ValidatePassword(pwd string) error {
	if len(pwd) < 6 || len(pwd) > 72 {
		return fmt.Errorf("password must be 6-72 characters")
	}
	return nil
}
