package taxlots

import (
	"fmt"
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultLookback is the number of days a rate lookup may walk back to skip weekends and bank holidays.
const DefaultLookback = 7

// Quotation tells how a RateTable quotes its rates.
type Quotation int

const (
	// PerForeign quotes reporting currency units per one foreign unit (EUR per USD). Amounts are multiplied.
	PerForeign Quotation = iota
	// PerReporting quotes foreign units per one reporting unit (USD per EUR, the ECB and Bundesbank convention). Amounts are divided.
	PerReporting
)

func (q Quotation) String() string {
	switch q {
	case PerForeign:
		return "per-foreign"
	case PerReporting:
		return "per-reporting"
	default:
		return "unknown"
	}
}

// ParseQuotation parses a string into a Quotation.
func ParseQuotation(s string) (Quotation, error) {
	switch s {
	case "per-foreign":
		return PerForeign, nil
	case "per-reporting":
		return PerReporting, nil
	default:
		return 0, fmt.Errorf("unknown quotation: %q", s)
	}
}

// Converter converts amounts in a foreign currency into the reporting currency on a given day.
type Converter interface {
	// Currency returns the reporting currency.
	Currency() string
	// Rate returns the rate in effect on a day, as quoted by the source, and the day it was published.
	Rate(on Date) (decimal.Decimal, Date, error)
	// Convert converts amount on the given day.
	Convert(amount Money, on Date) (Money, error)
}

// RateTable is a sparse daily exchange rate series for one currency pair.
//
// The table is filled with Add before a run and only read afterwards.
type RateTable struct {
	foreign   string
	reporting string
	quotation Quotation
	lookback  int

	days  []Date // sorted
	rates []decimal.Decimal
}

// NewRateTable returns an empty table converting foreign into reporting.
// A negative lookback means DefaultLookback.
func NewRateTable(foreign, reporting string, quotation Quotation, lookback int) *RateTable {
	if lookback < 0 {
		lookback = DefaultLookback
	}
	return &RateTable{foreign: foreign, reporting: reporting, quotation: quotation, lookback: lookback}
}

func (t *RateTable) Foreign() string      { return t.foreign }
func (t *RateTable) Currency() string     { return t.reporting }
func (t *RateTable) Quotation() Quotation { return t.quotation }
func (t *RateTable) Lookback() int        { return t.lookback }
func (t *RateTable) Len() int             { return len(t.days) }

// Add sets the rate published on a day. An existing rate for that day is replaced.
func (t *RateTable) Add(on Date, rate decimal.Decimal) *RateTable {
	i, found := slices.BinarySearchFunc(t.days, on, Date.Compare)
	if found {
		t.rates[i] = rate
		return t
	}
	t.days = slices.Insert(t.days, i, on)
	t.rates = slices.Insert(t.rates, i, rate)
	return t
}

// Values iterates over the known rates in chronological order.
func (t *RateTable) Values() iter.Seq2[Date, decimal.Decimal] {
	return func(yield func(Date, decimal.Decimal) bool) {
		for i, d := range t.days {
			if !yield(d, t.rates[i]) {
				return
			}
		}
	}
}

// Rate returns the rate published on the day, or else the closest earlier one within the lookback window.
func (t *RateTable) Rate(on Date) (decimal.Decimal, Date, error) {
	i, found := slices.BinarySearchFunc(t.days, on, Date.Compare)
	if found {
		return t.rates[i], on, nil
	}
	// i is the insertion point, i-1 the closest earlier day.
	if i > 0 && !t.days[i-1].Before(on.Add(-t.lookback)) {
		return t.rates[i-1], t.days[i-1], nil
	}
	return decimal.Zero, Date{}, &MissingRateError{Currency: t.foreign, Date: on, Lookback: t.lookback}
}

// Convert converts an amount in the foreign currency into the reporting currency.
// Amounts already in the reporting currency are returned unchanged.
func (t *RateTable) Convert(amount Money, on Date) (Money, error) {
	switch amount.Currency() {
	case t.reporting:
		return amount, nil
	case t.foreign:
	default:
		return Money{}, fmt.Errorf("cannot convert %s amount with a %s/%s rate table", amount.Currency(), t.foreign, t.reporting)
	}
	rate, _, err := t.Rate(on)
	if err != nil {
		return Money{}, err
	}
	if t.quotation == PerReporting {
		if rate.IsZero() {
			return Money{}, fmt.Errorf("zero %s rate on %s", t.foreign, on)
		}
		return M(amount.value.Div(rate), t.reporting), nil
	}
	return M(amount.value.Mul(rate), t.reporting), nil
}

// NoConversion is the Converter of the currency-only mode: amounts stay in their trading currency.
type NoConversion string

func (c NoConversion) Currency() string { return string(c) }

func (c NoConversion) Rate(on Date) (decimal.Decimal, Date, error) { return decimal.NewFromInt(1), on, nil }

func (c NoConversion) Convert(amount Money, on Date) (Money, error) {
	if amount.Currency() != string(c) {
		return Money{}, fmt.Errorf("cannot report %s amount in %s without a rate table", amount.Currency(), string(c))
	}
	return amount, nil
}

var (
	_ Converter = (*RateTable)(nil)
	_ Converter = NoConversion("")
)
