package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/etnz/taxlots"
	"github.com/etnz/taxlots/bundesbank"
	"github.com/etnz/taxlots/frankfurter"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// httpClient returns the client used by the providers.
var httpClient = func() *http.Client { return taxlots.DailyClient(zap.L()) }

// ratesCmd holds the flags for the 'rates' subcommand.
type ratesCmd struct {
	source   string
	currency string
	from     string
	to       string
	output   string
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "download the daily euro exchange rates" }
func (*ratesCmd) Usage() string {
	return `taxlots rates [-source bundesbank|frankfurter] [-currency USD] [-from <date>] [-to <date>] [-o <file>]

  Downloads the daily euro reference rates of a currency and writes them in the rates file format.
  The rates file is overwritten, "-o -" prints to the standard output.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", bundesbank.Source, "Rates provider (bundesbank, frankfurter)")
	f.StringVar(&c.currency, "currency", "USD", "Foreign currency")
	f.StringVar(&c.from, "from", "2015-01-01", "First day to download (frankfurter only, bundesbank always sends the whole series)")
	f.StringVar(&c.to, "to", taxlots.Today().String(), "Last day to download (frankfurter only)")
	f.StringVar(&c.output, "o", "", "Output file, the global -rates file by default")
}

func (c *ratesCmd) fetch(ctx context.Context) (*taxlots.RateTable, error) {
	currency := strings.ToUpper(c.currency)
	switch c.source {
	case bundesbank.Source:
		return bundesbank.Fetch(ctx, httpClient(), currency, taxlots.DefaultLookback)
	case frankfurter.Source:
		from, err := taxlots.ParseDate(c.from)
		if err != nil {
			return nil, err
		}
		to, err := taxlots.ParseDate(c.to)
		if err != nil {
			return nil, err
		}
		return frankfurter.Fetch(httpClient(), currency, "EUR", from, to, taxlots.DefaultLookback)
	default:
		return nil, fmt.Errorf("unknown rates source %q", c.source)
	}
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	table, err := c.fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not download rates from %s: %v\n", c.source, err)
		return subcommands.ExitFailure
	}

	output := c.output
	if output == "" {
		output = *ratesFile
	}
	var w io.Writer = stdout
	if output != "-" {
		file, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}
	if err := taxlots.EncodeRates(w, table, c.source); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing rates: %v\n", err)
		return subcommands.ExitFailure
	}
	if output != "-" {
		fmt.Fprintf(os.Stderr, "%d rates from %s written to %s\n", table.Len(), c.source, output)
	}
	return subcommands.ExitSuccess
}
