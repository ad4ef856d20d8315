package taxlots

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const journal = `
# 2023 activity of a USD account
{"date":"2023-01-10","kind":"deposit","security":"USD","class":"cash","quantity":"1","price":"2000","currency":"USD"}
{"date":"2023-01-10","kind":"open","security":"AAPL","class":"equity","quantity":"100","price":"10","fee":"1","currency":"USD"}
{"date":"2023-06-01","kind":"close","security":"AAPL","class":"equity","quantity":"-50","price":"12","fee":"1","currency":"USD"}
{"date":"2023-11-01","kind":"open","security":"SPY 231215P400","class":"option","quantity":"-1","price":"250","fee":"1","currency":"USD","underlying":"SPY"}
{"date":"2023-12-15","kind":"expire","security":"SPY 231215P400","class":"option","quantity":"1","price":"0","currency":"USD","underlying":"SPY"}
`

const usdRates = `
{"foreign":"USD","reporting":"EUR","quotation":"per-foreign","source":"test"}
{"date":"2023-01-10","rate":"0.90"}
{"date":"2023-06-01","rate":"0.95"}
{"date":"2023-11-01","rate":"0.90"}
{"date":"2023-12-15","rate":"0.92"}
`

func loadJournal(t *testing.T) ([]Transaction, *RateTable) {
	t.Helper()
	txs, err := DecodeTransactions("journal.jsonl", strings.NewReader(journal))
	if err != nil {
		t.Fatal(err)
	}
	rates, err := DecodeRates("rates.jsonl", strings.NewReader(usdRates), DefaultLookback)
	if err != nil {
		t.Fatal(err)
	}
	return txs, rates
}

func defaultConfig() Config {
	return Config{
		Classification: DefaultClassification(OverrideNone),
		Rules:          DefaultRules("EUR"),
	}
}

func TestNewReport(t *testing.T) {
	txs, rates := loadJournal(t)
	r, err := NewReport(txs, rates, defaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", r.Currency)
	}

	net := make(map[Category]Money)
	for _, s := range r.Summaries {
		net[s.Category] = s.Net
	}
	if got, want := net[Aktiengewinne], EUR(118.60); !got.Equal(want) {
		t.Errorf("Aktiengewinne = %v, want %v", got, want)
	}
	if got, want := net[Termingeschaefte], EUR(224.10); !got.Equal(want) {
		t.Errorf("Termingeschäfte = %v, want %v", got, want)
	}
	// the currency gains of the year are below the exemption.
	if got := net[Waehrungsgewinne]; !got.IsZero() {
		t.Errorf("Währungsgewinne = %v, want 0", got)
	}
	if got, want := r.Total(2023), EUR(342.70); !got.Equal(want) {
		t.Errorf("Total(2023) = %v, want %v", got, want)
	}
	if len(r.Years()) != 1 || r.Years()[0] != 2023 {
		t.Errorf("Years() = %v, want [2023]", r.Years())
	}

	var stock []Lot
	for _, lot := range r.Open {
		if lot.Class == Equity {
			stock = append(stock, lot)
		}
	}
	if len(stock) != 1 || !stock[0].Quantity.Equal(Q(50)) {
		t.Errorf("open stock lots = %+v, want 50 AAPL", stock)
	}
}

func TestNewReport_Idempotent(t *testing.T) {
	txs, rates := loadJournal(t)
	var previous []byte
	for i := range 3 {
		cfg := defaultConfig()
		cfg.Parallel = i%2 == 1
		r, err := NewReport(txs, rates, cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		if previous != nil && string(data) != string(previous) {
			t.Fatalf("run #%d differs:\n got %s\nwant %s", i, data, previous)
		}
		previous = data
	}
}

func TestNewReport_CurrencyOnly(t *testing.T) {
	txs, _ := loadJournal(t)
	cfg := defaultConfig()
	cfg.CurrencyOnly = true
	cfg.Rules = DefaultRules("USD")
	r, err := NewReport(txs, nil, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", r.Currency)
	}
	for _, s := range r.Summaries {
		if s.Category == Waehrungsgewinne {
			t.Error("a currency-only report has no currency gains")
		}
	}
	// 50 shares sold for 599 USD, bought for 500.5 USD.
	if got, want := r.Total(2023), USD(98.5+249); !got.Equal(want) {
		t.Errorf("Total(2023) = %v, want %v", got, want)
	}
}

func TestNewReport_Year(t *testing.T) {
	txs, rates := loadJournal(t)
	txs = append(txs, NewTrade(day("2024-01-02"), Close, "AAPL", Equity, Q(-50), USD(14), USD(1)))
	rates.Add(day("2024-01-02"), D("0.91"))

	cfg := defaultConfig()
	cfg.Rules = cfg.Rules.ForYear(2024)
	r, err := NewReport(txs, rates, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Events) != 1 || r.Events[0].Year() != 2024 {
		t.Fatalf("Events = %d, want the single 2024 event", len(r.Events))
	}
	if len(r.Summaries) != 1 || r.Summaries[0].Year != 2024 {
		t.Errorf("Summaries = %+v, want 2024 only", r.Summaries)
	}
}

func TestNewReport_Errors(t *testing.T) {
	txs, rates := loadJournal(t)

	t.Run("missing rates", func(t *testing.T) {
		r, err := NewReport(txs, nil, defaultConfig(), nil)
		if err == nil || r != nil {
			t.Errorf("NewReport() = %v, %v, want no report and an error", r, err)
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		bad := append(txs[:len(txs):len(txs)],
			NewTrade(day("2023-12-20"), Open, "ACME", Equity, Q(1), USD(10), USD(0)),
			NewTrade(day("2023-12-20"), Close, "ACME", Equity, Q(-1), USD(11), USD(0)),
		)
		rates := eurPerUSD("2023-01-10", "0.90", "2023-06-01", "0.95", "2023-11-01", "0.90", "2023-12-15", "0.92", "2023-12-20", "0.92")
		r, err := NewReport(bad, rates, defaultConfig(), nil)
		var unknown *UnknownSymbolClassificationError
		if !errors.As(err, &unknown) || r != nil {
			t.Errorf("NewReport() = %v, %v, want an UnknownSymbolClassificationError", r, err)
		}
	})

	t.Run("missing rate", func(t *testing.T) {
		late := append(txs[:len(txs):len(txs)], NewIncome(day("2024-03-01"), Dividend, "AAPL", USD(10)))
		r, err := NewReport(late, rates, defaultConfig(), nil)
		var missing *MissingRateError
		if !errors.As(err, &missing) || r != nil {
			t.Errorf("NewReport() = %v, %v, want a MissingRateError", r, err)
		}
	})
}
