package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has more than two decimal places")
)

// ParsePaise converts a rupee string such as "25000.50" to paise. Amounts with
// more than two decimal places are rejected rather than rounded.
func ParsePaise(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return 0, ErrTooManyDecimals
	}
	paise := amount.Mul(decimal.NewFromInt(100))
	if !paise.IsInteger() {
		return 0, ErrTooManyDecimals
	}
	return paise.IntPart(), nil
}

// FormatPaise renders paise as a rupee string with two decimal places.
func FormatPaise(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	formatted := fmt.Sprintf("%d.%02d", value/100, value%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}
