// Package types provides value types shared by the ledger and documents.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
// Stored as BIGINT (scaled integer) so ledger arithmetic in SQL stays exact.
type Quantity int64

const (
	QuantityScale  int64 = 10_000
	quantityDigits int32 = 4
)

// ErrQuantityOutOfRange is returned for values the scaled int64 cannot hold.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

var (
	minScaled = decimal.NewFromInt(math.MinInt64)
	maxScaled = decimal.NewFromInt(math.MaxInt64)
)

// NewQuantityFromFloat64 rounds v to 4 fractional digits.
func NewQuantityFromFloat64(v float64) (Quantity, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("quantity %v: %w", v, ErrQuantityOutOfRange)
	}
	return fromScaled(decimal.NewFromFloat(v).Shift(quantityDigits).Round(0))
}

// NewQuantity creates a whole-unit quantity.
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

// ParseQuantity parses a decimal string, truncating beyond 4 fractional digits.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	// "1,5" is how users type fractions in the admin forms
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	q, err := fromScaled(d.Shift(quantityDigits).Truncate(0))
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", s, err)
	}
	return q, nil
}

func fromScaled(d decimal.Decimal) (Quantity, error) {
	if d.LessThan(minScaled) || d.GreaterThan(maxScaled) {
		return 0, ErrQuantityOutOfRange
	}
	return Quantity(d.IntPart()), nil
}

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), -quantityDigits) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// String renders the shortest exact form: whole amounts have no fractional part.
func (q Quantity) String() string {
	return q.Decimal().String()
}

// MarshalJSON encodes Quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	raw := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	parsed, err := ParseQuantity(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
