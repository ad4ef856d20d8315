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

// eventsCmd holds the flags for the 'events' subcommand.
type eventsCmd struct {
	taxOptions
	jsonl bool
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "list every realized gain and loss" }
func (*eventsCmd) Usage() string {
	return `taxlots events [-year <year>] [-jsonl]

  Lists the realized events: one line per lot part closed, and per dividend or interest payment.
`
}

func (c *eventsCmd) SetFlags(f *flag.FlagSet) {
	c.taxOptions.SetFlags(f)
	f.BoolVar(&c.jsonl, "jsonl", false, "Print one JSON object per event")
}

func (c *eventsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := c.report()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !c.jsonl {
		printMarkdown(renderer.EventsMarkdown(report.Events))
		return subcommands.ExitSuccess
	}
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	for _, ev := range report.Events {
		if err := enc.Encode(ev); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
