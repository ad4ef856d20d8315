// Package cmd implements the CLI application computing German taxes of a brokerage account.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/taxlots"
	"github.com/google/subcommands"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "taxes")
	c.Register(&eventsCmd{}, "taxes")
	c.Register(&ratesCmd{}, "data")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	transactionsFile = flag.String("transactions", "transactions.jsonl", "Path to the transactions file (JSONL format)")
	ratesFile        = flag.String("rates", "rates.jsonl", "Path to the exchange rates file (JSONL format)")
	carryFile        = flag.String("carryforward", "", "Path to the losses carried from previous years (JSON format)")
	plain            = flag.Bool("plain", false, "Print markdown as is, without terminal styling")
	Verbose          = flag.Bool("v", false, "Log every lot opened and matched")
)

// stdout is where commands print their results.
var stdout io.Writer = os.Stdout

// NewLogger returns the application logger. TAXLOTS_LOG_ENV=production logs JSON at info level,
// otherwise a development logger logs warnings, or everything in verbose mode.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if os.Getenv(EnvLogEnv) == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// loadInputs reads the transactions, the rates and the prior carryforward.
// Rates are optional in currency-only mode.
func loadInputs(lookback int, currencyOnly bool) ([]taxlots.Transaction, *taxlots.RateTable, taxlots.Carryforward, error) {
	txs, err := taxlots.LoadTransactions(*transactionsFile)
	if err != nil {
		return nil, nil, nil, err
	}

	rates, err := taxlots.LoadRates(*ratesFile, lookback)
	if errors.Is(err, fs.ErrNotExist) && currencyOnly {
		rates, err = nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	prior := taxlots.Carryforward{}
	if *carryFile != "" {
		prior, err = taxlots.LoadCarryforward(*carryFile)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return txs, rates, prior, nil
}

// printMarkdown prints markdown styled for the terminal.
func printMarkdown(md string) {
	if *plain {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := renderMarkdown(md)
	if err != nil {
		zap.L().Warn("cannot style markdown", zap.Error(err))
		out = md
	}
	fmt.Fprint(stdout, out)
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// symbols splits a comma separated list of symbols.
func symbols(list string) []string {
	var s []string
	for _, sym := range strings.Split(list, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			s = append(s, strings.ToUpper(sym))
		}
	}
	return s
}
