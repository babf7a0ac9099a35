package report

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12", "12.00"},
		{"999.999", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"4950000", "4,950,000.00"},
		{"-1000", "-1,000.00"},
		{"-0.001", "0.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1100000", "1,100,000"},
		{"-25000.4", "-25,000"},
		{"123456.6", "123,457"},
	}
	for _, tt := range tests {
		if got := FormatNumber(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatNumber(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
