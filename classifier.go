package taxlots

import (
	"fmt"
	"maps"
	"slices"
)

// Override decides how equities missing from the symbol table are classified.
type Override int

const (
	// OverrideNone makes an unknown equity an error.
	OverrideNone Override = iota
	// OverrideIndividualStock treats unknown equities as individual stocks.
	OverrideIndividualStock
	// OverrideFund treats unknown equities as funds.
	OverrideFund
)

func (o Override) String() string {
	switch o {
	case OverrideNone:
		return "none"
	case OverrideIndividualStock:
		return "stock"
	case OverrideFund:
		return "fund"
	default:
		return "unknown"
	}
}

// ParseOverride parses a string into an Override.
func ParseOverride(s string) (Override, error) {
	switch s {
	case "", "none":
		return OverrideNone, nil
	case "stock":
		return OverrideIndividualStock, nil
	case "fund":
		return OverrideFund, nil
	default:
		return 0, fmt.Errorf("unknown classification override: %q", s)
	}
}

// AssignmentRule decides where the result of an assigned or exercised option is reported.
type AssignmentRule int

const (
	// AssignAsDerivative reports the option leg as a Termingeschäft like any other close.
	AssignAsDerivative AssignmentRule = iota
	// AssignIntoUnderlying reports the option leg in the category of its underlying, as a
	// cost basis adjustment of the shares delivered.
	AssignIntoUnderlying
)

func (r AssignmentRule) String() string {
	switch r {
	case AssignAsDerivative:
		return "derivative"
	case AssignIntoUnderlying:
		return "underlying"
	default:
		return "unknown"
	}
}

// ParseAssignmentRule parses a string into an AssignmentRule.
func ParseAssignmentRule(s string) (AssignmentRule, error) {
	switch s {
	case "", "derivative":
		return AssignAsDerivative, nil
	case "underlying":
		return AssignIntoUnderlying, nil
	default:
		return 0, fmt.Errorf("unknown assignment rule: %q", s)
	}
}

// Classification tells individual stocks from funds. It is immutable.
type Classification struct {
	symbols  map[string]AssetClass
	override Override
}

// NewClassification returns a classification of symbols as Equity (individual stock) or Fund.
// The map is copied.
func NewClassification(symbols map[string]AssetClass, override Override) Classification {
	return Classification{symbols: maps.Clone(symbols), override: override}
}

// well known symbols of US listed funds and stocks.
var (
	knownFunds = []string{"DXJ", "EEM", "EFA", "EWZ", "FEZ", "FXB", "FXE", "FXI",
		"GDX", "GDXJ", "GLD", "HYG", "IEF", "IWM", "IYR", "KRE", "OIH", "QQQ",
		"RSX", "SLV", "SMH", "SPY", "TLT", "UNG", "USO", "VXX", "XBI", "XHB", "XLB",
		"XLE", "XLF", "XLI", "XLK", "XLP", "XLU", "XLV", "XME", "XOP", "XRT"}
	knownStocks = []string{"M", "AAPL", "TSLA"}
)

// DefaultClassification returns the well known US funds and stocks with the given override.
func DefaultClassification(override Override) Classification {
	symbols := make(map[string]AssetClass, len(knownFunds)+len(knownStocks))
	for _, s := range knownFunds {
		symbols[s] = Fund
	}
	for _, s := range knownStocks {
		symbols[s] = Equity
	}
	return Classification{symbols: symbols, override: override}
}

// With returns a copy of c where symbol is classified as class.
func (c Classification) With(symbol string, class AssetClass) Classification {
	symbols := maps.Clone(c.symbols)
	if symbols == nil {
		symbols = make(map[string]AssetClass)
	}
	symbols[symbol] = class
	return Classification{symbols: symbols, override: c.override}
}

// Override returns the rule for unknown symbols.
func (c Classification) Override() Override { return c.override }

// Symbols returns the classified symbols in alphabetical order.
func (c Classification) Symbols() []string { return slices.Sorted(maps.Keys(c.symbols)) }

// Lookup returns the class of an equity symbol.
func (c Classification) Lookup(symbol string) (AssetClass, error) {
	if class, ok := c.symbols[symbol]; ok {
		return class, nil
	}
	switch c.override {
	case OverrideIndividualStock:
		return Equity, nil
	case OverrideFund:
		return Fund, nil
	default:
		return 0, &UnknownSymbolClassificationError{Symbol: symbol}
	}
}

// Classifier assigns a German tax category to realized events.
type Classifier struct {
	classification Classification
	assignment     AssignmentRule
}

// NewClassifier returns a Classifier.
func NewClassifier(c Classification, rule AssignmentRule) *Classifier {
	return &Classifier{classification: c, assignment: rule}
}

// Classify returns the category of an event and whether it is tax free.
//
// Currency and crypto results are tax free after more than one year of holding. Everything else
// is taxable whatever the holding period.
func (c *Classifier) Classify(ev TaxEvent) (Category, bool, error) {
	// a closed currency lot, even when the cash went to a withholding tax or a debit interest.
	if ev.Class == Cash && !ev.OpenDate.IsZero() {
		return Waehrungsgewinne, heldOverAYear(ev), nil
	}
	switch ev.Kind {
	case Dividend:
		return Dividenden, false, nil
	case Interest:
		return Zinsen, false, nil
	}

	switch ev.Class {
	case Equity:
		return c.equity(ev.Security)
	case Fund:
		return Investmentfonds, false, nil
	case Option, Future:
		if ev.Kind == Assign && c.assignment == AssignIntoUnderlying && ev.Underlying != "" {
			return c.equity(ev.Underlying)
		}
		return Termingeschaefte, false, nil
	case Cash:
		return Waehrungsgewinne, heldOverAYear(ev), nil
	case Crypto:
		return PrivateVeraeusserung, heldOverAYear(ev), nil
	default:
		return Uncategorized, false, fmt.Errorf("cannot classify %s of asset class %s", ev.Security, ev.Class)
	}
}

// equity classifies an equity symbol.
func (c *Classifier) equity(symbol string) (Category, bool, error) {
	class, err := c.classification.Lookup(symbol)
	if err != nil {
		return Uncategorized, false, err
	}
	if class == Fund {
		return Investmentfonds, false, nil
	}
	return Aktiengewinne, false, nil
}

// heldOverAYear reports whether the event was held for more than a year.
func heldOverAYear(ev TaxEvent) bool {
	return !ev.OpenDate.IsZero() && ev.CloseDate.After(ev.OpenDate.AddYears(1))
}

// ClassifyAll returns a copy of events with their category and tax free flag set.
func (c *Classifier) ClassifyAll(events []TaxEvent) ([]TaxEvent, error) {
	classified := make([]TaxEvent, len(events))
	for i, ev := range events {
		category, taxFree, err := c.Classify(ev)
		if err != nil {
			return nil, fmt.Errorf("event #%d %s on %s: %w", i, ev.Security, ev.CloseDate, err)
		}
		ev.Category, ev.TaxFree = category, taxFree
		classified[i] = ev
	}
	return classified, nil
}
