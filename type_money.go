package taxlots

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value in a single currency.
//
// Arithmetic is exact, rounding only happens when the value is persisted or displayed.
type Money struct {
	value      decimal.Decimal // as major unit value
	cur        string
	fractional bool // true to persist in full digits
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

func (m Money) Currency() string                { return m.cur }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(amount Money) bool      { return m.value.LessThan(amount.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value), cur: m.cur} }
func (m Money) DivPrice(n Money) Quantity       { return Quantity{value: m.value.Div(n.value)} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Round returns the money rounded to the currency's minor unit (cents).
func (m Money) Round() Money {
	return Money{value: m.value.Round(int32(m.currency().Fraction)), cur: m.cur}
}

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// maxMoney returns the largest of a and b.
func maxMoney(a, b Money) Money {
	if a.LessThan(b) {
		return b
	}
	return a
}

// minMoney returns the smallest of a and b.
func minMoney(a, b Money) Money {
	if b.LessThan(a) {
		return b
	}
	return a
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// exact return a copy of money that will be persisted with all the digits.
func (m Money) exact() Money {
	m.fractional = true
	return m
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	// unit prices and per share values can carry more digits than the currency.
	rounded := m.value
	if !m.fractional {
		rounded = m.value.Round(int32(m.currency().Fraction))
	}
	w.Append("amount", rounded)
	return w.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var jm struct {
		Currency string          `json:"currency"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(data, &jm); err != nil {
		return fmt.Errorf("invalid money %s: %w", data, err)
	}
	*m = Money{value: jm.Amount, cur: jm.Currency}
	return nil
}
