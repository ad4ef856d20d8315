// Package bundesbank loads the official daily euro reference rates published by the Deutsche
// Bundesbank (time series BBEX3.D.<currency>.EUR.BB.AC.000).
//
// The series are quoted in foreign currency per euro.
package bundesbank

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/etnz/taxlots"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source is the name of the provider, as written in rates files.
const Source = "bundesbank"

// BaseURL is the download endpoint of the Bundesbank statistics API.
var BaseURL = "https://api.statistiken.bundesbank.de/rest/download/BBEX3"

// SeriesID returns the Bundesbank identifier of the daily euro rate of currency.
func SeriesID(currency string) string {
	return fmt.Sprintf("BBEX3.D.%s.EUR.BB.AC.000", currency)
}

// Fetch downloads the complete series of currency and returns it as a rate table to convert
// currency amounts into euros.
func Fetch(ctx context.Context, client *http.Client, currency string, lookback int) (*taxlots.RateTable, error) {
	if client == nil {
		client = http.DefaultClient
	}
	addr := fmt.Sprintf("%s/D.%s.EUR.BB.AC.000?format=csv&lang=en", BaseURL, currency)
	zap.L().Info("downloading from bundesbank", zap.String("url", addr))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", SeriesID(currency), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: received status %s", SeriesID(currency), resp.Status)
	}
	return Parse(resp.Body, currency, lookback)
}

// Parse reads a series in the Bundesbank CSV format.
//
// The file starts with a few metadata lines, then one line per day with the date, the rate
// and a comment. Days without a rate (weekends, TARGET holidays) are marked with a '.'.
func Parse(r io.Reader, currency string, lookback int) (*taxlots.RateTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table := taxlots.NewRateTable(currency, "EUR", taxlots.PerReporting, lookback)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		key, value := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if key == "unit" && value != "" && value != currency {
			return nil, fmt.Errorf("series is quoted in %s, expected %s", value, currency)
		}
		on, err := taxlots.ParseDate(key)
		if err != nil {
			continue // metadata or footer
		}
		if value == "." || value == "" {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse value %q for date %q on line %d: %w", value, key, line, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("invalid rate %s for date %q on line %d", rate, key, line)
		}
		table.Add(on, rate)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("no rate found in %s series", SeriesID(currency))
	}
	return table, nil
}
