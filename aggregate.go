package taxlots

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Rules are the yearly allowances and caps applied by the Aggregator.
type Rules struct {
	CurrencyExemption Money // CurrencyExemption is deducted from net taxable currency gains.
	CryptoExemption   Money // CryptoExemption is deducted from net taxable crypto gains.
	DerivativeLossCap Money // DerivativeLossCap limits the derivative losses deductible per year. Zero means no cap.
	Year              int   // Year restricts the summaries to one tax year. Zero means every year.
}

// DefaultRules returns the German allowances expressed in currency: 600 exemption for
// private sales and a 20,000 cap on derivative losses.
func DefaultRules(currency string) Rules {
	return Rules{
		CurrencyExemption: M(600, currency),
		CryptoExemption:   M(600, currency),
		DerivativeLossCap: M(20000, currency),
	}
}

// ForYear returns a copy of r restricted to one tax year.
func (r Rules) ForYear(year int) Rules {
	r.Year = year
	return r
}

// Carryforward holds the unused losses per category carried into the next tax year, as positive amounts.
type Carryforward map[Category]Money

// Get returns the carried loss of a category.
func (c Carryforward) Get(category Category) Money { return c[category] }

// Clone returns a copy of c that is never nil.
func (c Carryforward) Clone() Carryforward {
	clone := make(Carryforward, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

// MarshalJSON implements the json.Marshaler interface, categories are written in summary order.
func (c Carryforward) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	for _, category := range Categories {
		if v, ok := c[category]; ok && !v.IsZero() {
			w.Append(category.String(), v)
		}
	}
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Carryforward) UnmarshalJSON(data []byte) error {
	var jc map[string]Money
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}
	carry := make(Carryforward, len(jc))
	for label, amount := range jc {
		category, err := ParseCategory(label)
		if err != nil {
			return err
		}
		if amount.IsNegative() {
			return fmt.Errorf("carried %s loss must be positive, got %s", category, amount)
		}
		carry[category] = amount
	}
	*c = carry
	return nil
}

// YearlySummary is the result of one category in one tax year.
type YearlySummary struct {
	Year       int
	Category   Category
	Events     int   // Events is the number of events in the group.
	Gains      Money // Gains is the sum of taxable gains.
	Losses     Money // Losses is the sum of taxable losses, as a positive amount.
	TaxFree    Money // TaxFree is the net result of tax free events.
	Exemption  Money // Exemption is the allowance used.
	CarriedIn  Money // CarriedIn is the loss carried from previous years.
	Deductible Money // Deductible is the loss actually offset this year, carried losses included. Net = Gains - Deductible - Exemption.
	Net        Money // Net is the taxable result after exemption, caps and carried losses.
	CarriedOut Money // CarriedOut is the loss carried into the next year.
}

// MarshalJSON implements the json.Marshaler interface for YearlySummary.
func (s YearlySummary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("year", s.Year)
	w.Append("category", s.Category)
	w.Append("schedule", s.Category.Schedule())
	w.Append("events", s.Events)
	w.Append("gains", s.Gains)
	w.Append("losses", s.Losses)
	w.Append("taxFree", s.TaxFree)
	w.Append("exemption", s.Exemption)
	w.Append("carriedIn", s.CarriedIn)
	w.Append("deductible", s.Deductible)
	w.Append("net", s.Net)
	w.Append("carriedOut", s.CarriedOut)
	return w.MarshalJSON()
}

// Aggregator sums classified events per tax year and category.
type Aggregator struct {
	rules Rules
}

// NewAggregator returns an Aggregator applying rules.
func NewAggregator(rules Rules) *Aggregator {
	return &Aggregator{rules: rules}
}

type yearCategory struct {
	year     int
	category Category
}

// Aggregate returns the summaries in year then category order, and the carryforward after the last
// year aggregated. prior is the carryforward into the first year of events, it is not modified.
//
// When Rules.Year is set, earlier years are still aggregated to compute the carried losses, but only
// the summaries of that year are returned.
func (a *Aggregator) Aggregate(events []TaxEvent, prior Carryforward) ([]YearlySummary, Carryforward, error) {
	carry := prior.Clone()
	if len(events) == 0 {
		return nil, carry, nil
	}
	currency := events[0].Gain.Currency()
	zero := M(0, currency)
	for _, limit := range []Money{a.rules.CurrencyExemption, a.rules.CryptoExemption, a.rules.DerivativeLossCap} {
		if limit.Currency() != "" && limit.Currency() != currency {
			return nil, nil, fmt.Errorf("rules are in %s but events are in %s", limit.Currency(), currency)
		}
	}
	for category, amount := range carry {
		if amount.Currency() != "" && amount.Currency() != currency {
			return nil, nil, fmt.Errorf("carried %s loss is in %s but events are in %s", category, amount.Currency(), currency)
		}
	}

	groups := make(map[yearCategory]*YearlySummary)
	var years []int
	for i, ev := range events {
		if ev.Category == Uncategorized {
			return nil, nil, fmt.Errorf("event #%d %s on %s is not classified", i, ev.Security, ev.CloseDate)
		}
		if ev.Gain.Currency() != currency {
			return nil, nil, fmt.Errorf("event #%d %s on %s is in %s, expected %s", i, ev.Security, ev.CloseDate, ev.Gain.Currency(), currency)
		}
		key := yearCategory{ev.Year(), ev.Category}
		s, exists := groups[key]
		if !exists {
			s = &YearlySummary{Year: key.year, Category: key.category, Gains: zero, Losses: zero, TaxFree: zero}
			groups[key] = s
			years = append(years, key.year)
		}
		s.Events++
		switch {
		case ev.TaxFree:
			s.TaxFree = s.TaxFree.Add(ev.Gain)
		case ev.Gain.IsNegative():
			s.Losses = s.Losses.Sub(ev.Gain)
		default:
			s.Gains = s.Gains.Add(ev.Gain)
		}
	}
	slices.Sort(years)
	years = slices.Compact(years)

	var summaries []YearlySummary
	for _, year := range years {
		if a.rules.Year != 0 && year > a.rules.Year {
			break
		}
		for _, category := range Categories {
			s, exists := groups[yearCategory{year, category}]
			if !exists {
				continue
			}
			carriedIn := carry[category]
			if carriedIn.Currency() == "" {
				carriedIn = zero
			}
			s.CarriedIn = carriedIn
			out := a.settle(s, zero)
			s.CarriedOut = out
			if out.IsZero() {
				delete(carry, category)
			} else {
				carry[category] = out
			}
			if a.rules.Year == 0 || year == a.rules.Year {
				summaries = append(summaries, *s)
			}
		}
	}
	return summaries, carry, nil
}

// settle computes the taxable result of a group and returns the loss carried out.
func (a *Aggregator) settle(s *YearlySummary, zero Money) Money {
	s.Exemption, s.Deductible = zero, zero
	switch s.Category {
	case Waehrungsgewinne, PrivateVeraeusserung:
		exemption := a.rules.CurrencyExemption
		if s.Category == PrivateVeraeusserung {
			exemption = a.rules.CryptoExemption
		}
		net := s.Gains.Sub(s.Losses)
		s.Exemption = minMoney(maxMoney(exemption, zero), maxMoney(net, zero))
		// losses beyond the gains of the year are lost: nothing is carried.
		s.Deductible = minMoney(s.Losses, s.Gains)
		s.Net = maxMoney(net.Sub(s.Exemption), zero)
		return s.CarriedIn

	case Termingeschaefte:
		capped := !a.rules.DerivativeLossCap.IsZero()
		deductible := s.Losses
		if capped {
			deductible = minMoney(deductible, a.rules.DerivativeLossCap)
		}
		// carried losses only offset this year's remaining gains, within what is left of the cap.
		usePrior := minMoney(s.CarriedIn, maxMoney(s.Gains.Sub(deductible), zero))
		if capped {
			usePrior = minMoney(usePrior, a.rules.DerivativeLossCap.Sub(deductible))
		}
		s.Deductible = deductible.Add(usePrior)
		s.Net = s.Gains.Sub(s.Deductible)
		return s.Losses.Sub(deductible).Add(s.CarriedIn.Sub(usePrior))

	case Aktiengewinne:
		// stock losses only offset stock gains, without limit in time.
		total := s.Gains.Sub(s.Losses).Sub(s.CarriedIn)
		if total.IsNegative() {
			s.Deductible = s.Gains
			s.Net = zero
			return total.Neg()
		}
		s.Deductible = s.Losses.Add(s.CarriedIn)
		s.Net = total
		return zero

	default:
		s.Deductible = s.Losses
		s.Net = s.Gains.Sub(s.Losses)
		return s.CarriedIn
	}
}
