// Package frankfurter fetches the ECB euro reference rates from the frankfurter.app API.
package frankfurter

import (
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/taxlots"
	"github.com/shopspring/decimal"
)

// Source is the name of the provider, as written in rates files.
const Source = "frankfurter"

// BaseURL is the frankfurter API endpoint.
var BaseURL = "https://api.frankfurter.app"

/*
	{
	    "amount": 1.0,
	    "base": "USD",
	    "start_date": "2023-01-02",
	    "end_date": "2023-01-06",
	    "rates": {
	        "2023-01-02": {"EUR": 0.93668},
	        "2023-01-03": {"EUR": 0.94877}
	    }
	}
*/

// Fetch returns the daily rates between from and to (inclusive) to convert foreign amounts into
// reporting, quoted in reporting currency per foreign unit.
func Fetch(client *http.Client, foreign, reporting string, from, to taxlots.Date, lookback int) (*taxlots.RateTable, error) {
	if client == nil {
		client = http.DefaultClient
	}
	addr := fmt.Sprintf("%s/%s..%s?from=%s&to=%s", BaseURL, from, to, foreign, reporting)
	var jobj any
	if err := taxlots.GetJSON(client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("error in wget %s/%s: %w", foreign, reporting, err)
	}
	return parse(jobj, foreign, reporting, lookback)
}

// parse extracts the rates of a decoded time series response.
func parse(jobj any, foreign, reporting string, lookback int) (*taxlots.RateTable, error) {
	base, err := jsonpath.Get("$.base", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s/%s: %w", foreign, reporting, err)
	}
	if base != foreign {
		return nil, fmt.Errorf("series is based on %v, expected %s", base, foreign)
	}
	jrates, err := jsonpath.Get("$.rates", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s/%s: %w", foreign, reporting, err)
	}
	days, ok := jrates.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %s/%s: rates is not an object", foreign, reporting)
	}

	table := taxlots.NewRateTable(foreign, reporting, taxlots.PerForeign, lookback)
	for key, v := range days {
		on, err := taxlots.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s/%s: %w", foreign, reporting, err)
		}
		jval, err := jsonpath.Get("$."+reporting, v)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s/%s on %s: %w", foreign, reporting, on, err)
		}
		val, ok := jval.(float64)
		if !ok || val <= 0 {
			return nil, fmt.Errorf("error parsing %s/%s on %s: invalid rate %v", foreign, reporting, on, jval)
		}
		table.Add(on, decimal.NewFromFloat(val))
	}
	return table, nil
}
