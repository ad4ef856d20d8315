package taxlots

import "github.com/shopspring/decimal"

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// D is a helper for test to create a decimal from a string const.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// day is a helper for test to create a date from a string const.
func day(s string) Date { return MustParse(s) }

// eurPerUSD returns a rate table quoted in EUR per USD from (date, rate) pairs.
func eurPerUSD(pairs ...string) *RateTable {
	t := NewRateTable("USD", "EUR", PerForeign, DefaultLookback)
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Add(day(pairs[i]), D(pairs[i+1]))
	}
	return t
}

// buy is a helper for test to open a long position.
func buy(on, security string, class AssetClass, qty, price, fee float64) Transaction {
	return NewTrade(day(on), Open, security, class, Q(qty), USD(price), USD(fee))
}

// sell is a helper for test to close a long position.
func sell(on, security string, class AssetClass, qty, price, fee float64) Transaction {
	return NewTrade(day(on), Close, security, class, Q(-qty), USD(price), USD(fee))
}
