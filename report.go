package taxlots

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Config is the caller's configuration of a report run.
type Config struct {
	Classification Classification
	Assignment     AssignmentRule
	Rules          Rules
	CurrencyOnly   bool // CurrencyOnly reports in the trading currency: no conversion and no currency gains.
	Parallel       bool // Parallel matches independent securities concurrently.
	Logger         *zap.Logger
}

// Report is the outcome of a run: realized events, yearly summaries and what is left open.
type Report struct {
	Currency     string
	Year         int             // Year is the target tax year, zero for all years.
	Events       []TaxEvent      // Events of the target year, classified.
	Summaries    []YearlySummary // Summaries of the target year.
	Carryforward Carryforward    // Carryforward after the target year.
	Open         []Lot           // Open lots after the last transaction.
}

// NewReport runs the whole pipeline: lot matching, classification and aggregation.
//
// txs must be in chronological order. rates may be nil in currency-only mode. prior is the
// carryforward into the first year of txs. Any error aborts the run and no report is returned.
func NewReport(txs []Transaction, rates *RateTable, cfg Config, prior Carryforward) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var conv Converter
	switch {
	case cfg.CurrencyOnly:
		conv = NoConversion(TradingCurrency(txs, rates))
	case rates == nil:
		return nil, errors.New("a rate table is required to report in another currency")
	default:
		conv = rates
	}

	matcher := NewMatcher(conv,
		WithLogger(logger),
		WithParallel(cfg.Parallel),
		WithCurrencyTracking(!cfg.CurrencyOnly),
	)
	events, err := matcher.Process(txs)
	if err != nil {
		return nil, fmt.Errorf("cannot match lots: %w", err)
	}

	events, err = NewClassifier(cfg.Classification, cfg.Assignment).ClassifyAll(events)
	if err != nil {
		return nil, fmt.Errorf("cannot classify: %w", err)
	}

	summaries, carry, err := NewAggregator(cfg.Rules).Aggregate(events, prior)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate: %w", err)
	}

	if year := cfg.Rules.Year; year != 0 {
		kept := events[:0:0]
		for _, ev := range events {
			if ev.Year() == year {
				kept = append(kept, ev)
			}
		}
		events = kept
	}

	logger.Info("report computed",
		zap.String("currency", conv.Currency()),
		zap.Int("year", cfg.Rules.Year),
		zap.Int("transactions", len(txs)),
		zap.Int("events", len(events)),
		zap.Int("summaries", len(summaries)),
	)
	return &Report{
		Currency:     conv.Currency(),
		Year:         cfg.Rules.Year,
		Events:       events,
		Summaries:    summaries,
		Carryforward: carry,
		Open:         matcher.Open(),
	}, nil
}

// TradingCurrency returns the currency of a currency-only report: the foreign currency of rates,
// or the currency of the first priced transaction.
func TradingCurrency(txs []Transaction, rates *RateTable) string {
	if rates != nil {
		return rates.Foreign()
	}
	for _, tx := range txs {
		if c := tx.Currency(); c != "" {
			return c
		}
	}
	return "USD"
}

// Total returns the sum of the net taxable results of the summaries of a year.
func (r *Report) Total(year int) Money {
	total := M(0, r.Currency)
	for _, s := range r.Summaries {
		if s.Year == year {
			total = total.Add(s.Net)
		}
	}
	return total
}

// Years returns the years that have a summary, in ascending order.
func (r *Report) Years() []int {
	var years []int
	for _, s := range r.Summaries {
		if len(years) == 0 || years[len(years)-1] != s.Year {
			years = append(years, s.Year)
		}
	}
	return years
}

// MarshalJSON implements the json.Marshaler interface for Report.
func (r *Report) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("currency", r.Currency)
	w.Optional("year", r.Year)
	w.Append("summaries", r.Summaries)
	w.Append("carryforward", r.Carryforward)
	w.Append("events", r.Events)
	w.Append("open", r.Open)
	return w.MarshalJSON()
}
