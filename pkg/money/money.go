package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrBadAmount = errors.New("bad amount")

// ParsePrice converts a decimal string like "12.50" to integer cents. All
// arithmetic downstream stays in cents; floats never touch money.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrBadAmount
	}
	if d.IsNegative() {
		return 0, ErrBadAmount
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrBadAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders integer cents as a two-decimal string.
func FormatCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}
