// Package money provides the fixed-scale decimal type used for every
// monetary and share quantity in predictionx. No value in this package ever
// touches binary floating point.
package money

import (
	"database/sql/driver"
	"fmt"

	"cosmossdk.io/math"
)

// Amount is a non-negative-or-signed fixed-scale decimal. It wraps
// math.LegacyDec, which carries 18 decimal digits of precision backed by a
// big.Int, and is compared on the exact decimal grid (no rounding).
type Amount struct {
	dec math.LegacyDec
}

// Zero is the additive identity.
var Zero = Amount{dec: math.LegacyZeroDec()}

// New wraps a math.LegacyDec directly.
func New(d math.LegacyDec) Amount {
	return Amount{dec: d}
}

// Parse parses a decimal string such as "0.50" or "150.0000" exactly.
func Parse(s string) (Amount, error) {
	d, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustParse panics on an invalid literal; used only for compile-time
// constants inside tests and default configuration.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Dec() math.LegacyDec { return a.dec }

func (a Amount) String() string { return a.dec.String() }

func (a Amount) IsZero() bool { return a.dec.IsNil() || a.dec.IsZero() }

func (a Amount) IsPositive() bool { return !a.dec.IsNil() && a.dec.IsPositive() }

func (a Amount) IsNegative() bool { return !a.dec.IsNil() && a.dec.IsNegative() }

func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }

func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }

func (a Amount) Mul(b Amount) Amount { return Amount{dec: a.dec.Mul(b.dec)} }

func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }

func (a Amount) GTE(b Amount) bool { return a.dec.GTE(b.dec) }

func (a Amount) GT(b Amount) bool { return a.dec.GT(b.dec) }

func (a Amount) LT(b Amount) bool { return a.dec.LT(b.dec) }

func (a Amount) LTE(b Amount) bool { return a.dec.LTE(b.dec) }

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a.LTE(b) {
		return a
	}
	return b
}

// MarshalJSON renders the amount as a decimal string, never a JSON number,
// so no intermediate float64 conversion can occur on either side of the wire.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.dec.String() + `"`), nil
}

// Value implements database/sql/driver.Valuer so an Amount can be passed
// directly as a query argument against a decimal column: pgx falls back to
// this interface for Go types it has no native codec for.
func (a Amount) Value() (driver.Value, error) {
	if a.dec.IsNil() {
		return nil, nil
	}
	return a.dec.String(), nil
}

// Scan implements database/sql.Scanner so an Amount can be a direct Scan
// destination for a decimal/numeric column.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.dec = math.LegacyZeroDec()
		return nil
	case string:
		d, err := math.LegacyNewDecFromStr(v)
		if err != nil {
			return fmt.Errorf("money: scanning amount %q: %w", v, err)
		}
		a.dec = d
		return nil
	case []byte:
		d, err := math.LegacyNewDecFromStr(string(v))
		if err != nil {
			return fmt.Errorf("money: scanning amount %q: %w", v, err)
		}
		a.dec = d
		return nil
	default:
		return fmt.Errorf("money: cannot scan %T into Amount", src)
	}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	a.dec = d
	return nil
}
