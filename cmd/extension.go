package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// Environment variables providing the defaults of the global flags. They are also passed to
// extensions.
const (
	EnvTransactionsFile = "TAXLOTS_TRANSACTIONS_FILE"
	EnvRatesFile        = "TAXLOTS_RATES_FILE"
	EnvCarryforwardFile = "TAXLOTS_CARRYFORWARD_FILE"
	EnvPlain            = "TAXLOTS_PLAIN"
	EnvVerbose          = "TAXLOTS_VERBOSE"
	EnvLogEnv           = "TAXLOTS_LOG_ENV"
)

// envFlags maps the global flags to their environment variable.
var envFlags = map[string]string{
	"transactions": EnvTransactionsFile,
	"rates":        EnvRatesFile,
	"carryforward": EnvCarryforwardFile,
	"plain":        EnvPlain,
	"v":            EnvVerbose,
}

// ApplyEnv sets the flags of f that have an environment variable set. It must be called before
// parsing the command line, which still has the last word.
func ApplyEnv(f *flag.FlagSet) error {
	var errs error
	for name, env := range envFlags {
		value, ok := os.LookupEnv(env)
		if !ok || f.Lookup(name) == nil {
			continue
		}
		if err := f.Set(name, value); err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid %s=%q: %w", env, value, err))
		}
	}
	return errs
}

// RunExtension attempts to find and execute an external taxlots-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "taxlots-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		zap.L().Debug("no extension found", zap.String("command", externalCmdName), zap.Error(err))
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	// global flags are passed as environment variables.
	cmd.Env = append(os.Environ(),
		EnvTransactionsFile+"="+*transactionsFile,
		EnvRatesFile+"="+*ratesFile,
		EnvCarryforwardFile+"="+*carryFile,
		EnvPlain+"="+strconv.FormatBool(*plain),
		EnvVerbose+"="+strconv.FormatBool(*Verbose),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
