package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/taxlots/renderer"
	"github.com/google/subcommands"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	taxOptions
	json bool
	save string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "yearly taxable results per category" }
func (*reportCmd) Usage() string {
	return `taxlots report [-year <year>] [-json] [-save <carryforward.json>] [-currency-only] [-unknown stock|fund] [-assign underlying]

  Matches every closing trade against the oldest open lot, converts both legs with the rate of
  their own day, and sums the results per tax year and German tax category.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.taxOptions.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the report as JSON")
	f.StringVar(&c.save, "save", "", "Write the losses carried into the next year to this file")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := c.report()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.save != "" {
		data, err := json.MarshalIndent(report.Carryforward, "", "  ")
		if err == nil {
			err = os.WriteFile(c.save, append(data, '\n'), 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing carryforward file %q: %v\n", c.save, err)
			return subcommands.ExitFailure
		}
	}

	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
