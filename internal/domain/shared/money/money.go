package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("money: invalid amount")
	// ErrAmbiguousAmount is returned for "1.500": a dot followed by exactly
	// three digits reads as a thousands separator in BRL.
	ErrAmbiguousAmount = fmt.Errorf("%w: use a comma for decimals", ErrInvalidAmount)
)

// Amounts are kept as exact decimals and only rounded when rendered.
const displayPlaces = 2

// Parse reads an amount as sent by forms or the PMS API ("150.5", "150,50",
// "1.234,56"). A comma is required when the decimal part has three digits.
func Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	} else if _, frac, ok := strings.Cut(raw, "."); ok && len(frac) == 3 && isDigits(frac) {
		return decimal.Decimal{}, ErrAmbiguousAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders an amount in BRL display form, e.g. "R$ 1.234,56".
func Format(amount decimal.Decimal) string {
	fixed := amount.Round(displayPlaces).StringFixed(displayPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	if sign == "-" && strings.Trim(whole+frac, "0") == "" {
		sign = ""
	}
	return sign + "R$ " + groupThousands(whole) + "," + frac
}

// FormatNullable renders an optional amount; absent values render as "".
func FormatNullable(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return Format(amount.Decimal)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
