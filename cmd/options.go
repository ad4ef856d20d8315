package cmd

import (
	"flag"
	"fmt"

	"github.com/etnz/taxlots"
	"go.uber.org/zap"
)

// taxOptions are the flags shared by the commands that compute taxes.
type taxOptions struct {
	year         int
	currencyOnly bool
	unknown      string
	assign       string
	stocks       string
	funds        string
	lookback     int
	exemption    float64
	lossCap      float64
	parallel     bool
}

func (o *taxOptions) SetFlags(f *flag.FlagSet) {
	f.IntVar(&o.year, "year", 0, "Tax year to report. Earlier years are still computed for the carried losses. All years by default.")
	f.BoolVar(&o.currencyOnly, "currency-only", false, "Report in the trading currency, without conversion nor currency gains")
	f.StringVar(&o.unknown, "unknown", "none", "Classification of unknown equity symbols (none, stock, fund)")
	f.StringVar(&o.assign, "assign", "derivative", "Category of assigned options (derivative, underlying)")
	f.StringVar(&o.stocks, "stock", "", "Comma separated symbols to classify as individual stocks")
	f.StringVar(&o.funds, "fund", "", "Comma separated symbols to classify as funds")
	f.IntVar(&o.lookback, "lookback", taxlots.DefaultLookback, "Maximum number of days to look back for a missing exchange rate")
	f.Float64Var(&o.exemption, "exemption", 600, "Yearly exemption of currency and crypto gains")
	f.Float64Var(&o.lossCap, "loss-cap", 20000, "Yearly cap of deductible derivative losses, 0 for no cap")
	f.BoolVar(&o.parallel, "parallel", false, "Match securities concurrently")
}

// config returns the report configuration in currency.
func (o *taxOptions) config(currency string) (taxlots.Config, error) {
	override, err := taxlots.ParseOverride(o.unknown)
	if err != nil {
		return taxlots.Config{}, err
	}
	rule, err := taxlots.ParseAssignmentRule(o.assign)
	if err != nil {
		return taxlots.Config{}, err
	}
	if o.exemption < 0 || o.lossCap < 0 {
		return taxlots.Config{}, fmt.Errorf("exemption and loss cap must be positive")
	}

	classification := taxlots.DefaultClassification(override)
	for _, s := range symbols(o.stocks) {
		classification = classification.With(s, taxlots.Equity)
	}
	for _, s := range symbols(o.funds) {
		classification = classification.With(s, taxlots.Fund)
	}

	rules := taxlots.DefaultRules(currency).ForYear(o.year)
	rules.CurrencyExemption = taxlots.M(o.exemption, currency)
	rules.CryptoExemption = taxlots.M(o.exemption, currency)
	rules.DerivativeLossCap = taxlots.M(o.lossCap, currency)

	return taxlots.Config{
		Classification: classification,
		Assignment:     rule,
		Rules:          rules,
		CurrencyOnly:   o.currencyOnly,
		Parallel:       o.parallel,
		Logger:         zap.L(),
	}, nil
}

// report loads the inputs and computes the report.
func (o *taxOptions) report() (*taxlots.Report, error) {
	txs, rates, prior, err := loadInputs(o.lookback, o.currencyOnly)
	if err != nil {
		return nil, err
	}
	currency := "EUR"
	switch {
	case o.currencyOnly:
		currency = taxlots.TradingCurrency(txs, rates)
	case rates != nil:
		currency = rates.Currency()
	}
	cfg, err := o.config(currency)
	if err != nil {
		return nil, err
	}
	return taxlots.NewReport(txs, rates, cfg, prior)
}
