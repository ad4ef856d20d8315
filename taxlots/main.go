// Command taxlots computes the German taxes of a foreign brokerage account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/etnz/taxlots/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// a local .env file may hold the TAXLOTS_* defaults.
	_ = godotenv.Load()
	if err := cmd.ApplyEnv(flag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	cmd.Completion().Complete("taxlots")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()

	logger, err := cmd.NewLogger(*cmd.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	os.Exit(run(commander, logger))
}

func run(commander *subcommands.Commander, logger *zap.Logger) int {
	defer logger.Sync()

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			return code
		}
	}
	return int(commander.Execute(context.Background()))
}

// registered reports whether name is a subcommand of commander.
func registered(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		found = found || c.Name() == name
	})
	return found
}
