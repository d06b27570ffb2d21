// Package money implements fixed-point monetary amounts with two decimal places.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (hundredths).
type Amount int64

// MaxAmount mirrors a DECIMAL(10,2) column.
const MaxAmount Amount = 99_999_999_99

var ErrInvalidAmount = errors.New("invalid_amount")

// parseLimit bounds the whole part so IntPart never overflows.
var parseLimit = decimal.New(1, 15)

// FromMinor builds an Amount from hundredths.
func FromMinor(v int64) Amount { return Amount(v) }

// Minor returns the amount in hundredths.
func (a Amount) Minor() int64 { return int64(a) }

// Parse reads a plain decimal string such as "49.99", "100" or "-3.5".
// Digits past the second decimal place are rounded half away from zero.
func Parse(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if !plainDecimal(s) {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return fromDecimal(d)
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(raw string) Amount {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func fromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Abs().GreaterThanOrEqual(parseLimit) {
		return 0, ErrInvalidAmount
	}
	return Amount(d.Round(2).Shift(2).IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -2) }

func (a Amount) String() string { return a.Decimal().StringFixed(2) }

func (a Amount) IsNegative() bool { return a < 0 }

// Float64 returns the value in major units. Use it only for reporting.
func (a Amount) Float64() float64 { return a.Decimal().InexactFloat64() }

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return ErrInvalidAmount
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// plainDecimal accepts an optional sign, digits and at most one point.
// Exponents, thousands separators and a bare sign or point are rejected.
func plainDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
