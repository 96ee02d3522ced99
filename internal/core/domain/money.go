package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit (e.g. cents). All ledger
// and budget arithmetic is integer-only.
type Money int64

// Decimal returns the amount in major units, e.g. 1250 -> 12.50.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount in major units with two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// ParseMoney converts a decimal string in major units ("12.5") into Money.
// Amounts with more precision than one minor unit are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrValidation, s, err)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts a major-unit decimal into Money.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has fractional cents", ErrValidation, d.String())
	}
	if minor.Abs().GreaterThan(decimal.New(1, 17)) {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrValidation, d.String())
	}
	return Money(minor.IntPart()), nil
}

// MarshalJSON encodes the amount as a major-unit decimal string, e.g. "12.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a major-unit decimal as a JSON string or number.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: amount %s: %v", ErrValidation, b, err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
