package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCents converts a decimal currency amount to integer cents, rounding half
// away from zero at two decimal places.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer cents back to a two-decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Money is an immutable USD amount held as integer cents.
// Every monetary value in the engine passes through Money so there is a
// single rounding policy and no binary floating point comparison.
type Money struct {
	cents int64
}

// NewMoney rounds a decimal amount to the nearest cent
func NewMoney(amount decimal.Decimal) Money {
	return Money{cents: ToCents(amount)}
}

// NewMoneyFromCents wraps an integer number of cents
func NewMoneyFromCents(cents int64) Money {
	return Money{cents: cents}
}

// NewMoneyFromString parses a decimal string such as "1234.56"
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// NewMoneyFromFloat converts a float amount, typically a value decoded from
// an untyped JSON payload, to Money.
func NewMoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Zero returns a zero amount
func Zero() Money {
	return Money{}
}

// Cents returns the amount in cents
func (m Money) Cents() int64 {
	return m.cents
}

// Amount returns the amount as a two-decimal value for storage and display
func (m Money) Amount() decimal.Decimal {
	return FromCents(m.cents)
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Subtract returns m - other. The result may be negative.
func (m Money) Subtract(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// MultiplyQuantity returns round(m × qty) to the nearest cent
func (m Money) MultiplyQuantity(qty decimal.Decimal) Money {
	return Money{cents: decimal.NewFromInt(m.cents).Mul(qty).Round(0).IntPart()}
}

// MultiplyRate returns round(m × rate) to the nearest cent, used for tax
func (m Money) MultiplyRate(rate decimal.Decimal) Money {
	return m.MultiplyQuantity(rate)
}

// Percentage returns round(m × pct / 100) to the nearest cent
func (m Money) Percentage(pct decimal.Decimal) Money {
	return Money{cents: decimal.NewFromInt(m.cents).Mul(pct).Div(hundred).Round(0).IntPart()}
}

// NonNegative clamps negative amounts to zero
func (m Money) NonNegative() Money {
	if m.cents < 0 {
		return Money{}
	}
	return m
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive returns true if the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative returns true if the amount is less than zero
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Equals returns true if both amounts are the same number of cents
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents
}

// GreaterThan returns true if m > other
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// LessThan returns true if m < other
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// String returns the plain two-decimal representation, e.g. "1234.50"
func (m Money) String() string {
	return m.Amount().StringFixed(2)
}

// Display formats the amount for humans, e.g. "$1,234.50"
func (m Money) Display() string {
	cents := m.cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// MarshalJSON encodes money as a two-decimal string to avoid float drift in
// clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("failed to unmarshal money: %w", err)
	}
	m.cents = ToCents(d)
	return nil
}

// Value implements driver.Valuer; money is stored as integer cents
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		m.cents = 0
	case int64:
		m.cents = v
	case int32:
		m.cents = int64(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("failed to scan money: %w", err)
		}
		m.cents = d.IntPart()
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("failed to scan money: %w", err)
		}
		m.cents = d.IntPart()
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

// Sum adds a list of amounts in cents
func Sum(amounts ...Money) Money {
	var total int64
	for _, a := range amounts {
		total += a.cents
	}
	return Money{cents: total}
}
