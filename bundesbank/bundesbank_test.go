package bundesbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/taxlots"
	"github.com/shopspring/decimal"
)

const series = `,BBEX3.D.USD.EUR.BB.AC.000,BBEX3.D.USD.EUR.BB.AC.000_FLAGS
,Euro foreign exchange reference rate of the ECB / EUR 1 = USD ... / United States,
unit,USD,
unit multiplier,one,
last update,2023-07-03 16:04:51,
2023-01-05,1.0599,
2023-01-06,1.0500,
2023-01-07,.,No value available
2023-01-08,.,No value available
2023-01-09,1.0652,
General: Data on the exchange rates of the Deutsche Bundesbank,,
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(series), "USD", 3)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if got, want := table.Len(), 3; got != want {
		t.Errorf("got %d rates, want %d", got, want)
	}
	if table.Foreign() != "USD" || table.Currency() != "EUR" || table.Quotation() != taxlots.PerReporting {
		t.Errorf("table = %s/%s %v, want USD per EUR", table.Foreign(), table.Currency(), table.Quotation())
	}

	// the weekend uses the friday rate.
	rate, used, err := table.Rate(taxlots.MustParse("2023-01-08"))
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Equal(decimal.RequireFromString("1.05")) || used != taxlots.MustParse("2023-01-06") {
		t.Errorf("Rate(2023-01-08) = %s from %s, want 1.05 from 2023-01-06", rate, used)
	}

	got, err := table.Convert(taxlots.M(105, "USD"), taxlots.MustParse("2023-01-07"))
	if err != nil {
		t.Fatal(err)
	}
	if want := taxlots.M(100, "EUR"); !got.Equal(want) {
		t.Errorf("Convert() = %v, want %v", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		csvData string
		wantErr string
	}{
		{
			name:    "bad value",
			csvData: "unit,USD,\n2023-01-05,1.0599,\n2023-01-06,one,\n",
			wantErr: "failed to parse value",
		},
		{
			name:    "negative value",
			csvData: "2023-01-05,-1,\n",
			wantErr: "invalid rate",
		},
		{
			name:    "other currency",
			csvData: "unit,GBP,\n2023-01-05,0.88,\n",
			wantErr: "quoted in GBP",
		},
		{
			name:    "no rate",
			csvData: "unit,USD,\n2023-01-07,.,No value available\n",
			wantErr: "no rate found",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.csvData), "USD", taxlots.DefaultLookback)
			if err == nil {
				t.Fatalf("Parse() expected an error, but got none")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Parse() error = %q, want to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/D.USD.EUR.BB.AC.000" || r.URL.Query().Get("format") != "csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(series))
	}))
	defer srv.Close()
	defer func(base string) { BaseURL = base }(BaseURL)
	BaseURL = srv.URL

	table, err := Fetch(context.Background(), srv.Client(), "USD", taxlots.DefaultLookback)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("got %d rates, want 3", table.Len())
	}

	_, err = Fetch(context.Background(), srv.Client(), "JPY", taxlots.DefaultLookback)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Fetch() of an unknown series error = %v, want a 404", err)
	}
}
