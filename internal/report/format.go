package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders d with thousands separators and two decimals,
// e.g. 1234567.5 -> "1,234,567.50".
func FormatMoney(d decimal.Decimal) string {
	return group(d.StringFixed(2))
}

// FormatNumber renders d rounded to a whole number with thousands
// separators, e.g. 4950000 -> "4,950,000".
func FormatNumber(d decimal.Decimal) string {
	return group(d.StringFixed(0))
}

func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if intPart == "0" && strings.Trim(frac, ".0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(frac)
	return b.String()
}
