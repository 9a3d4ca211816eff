package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess        = 0
	ExitConfigError    = 1
	ExitUsageError     = 2
	ExitValidatorError = 3
	ExitRuntimeError   = 4
)

var rootCmd = &cobra.Command{
	Use:   "redact [FILE|DIR|-]...",
	Short: "Replace secrets in text with stable placeholders",
	Long: `Redact finds secrets in text files (hostnames, addresses, user names, keys)
and replaces each distinct secret with a placeholder such as "ipv40", keeping
the same placeholder for the same secret across every input of a run.

Secret types are read from configuration directories (--conf, ~/.redact,
/etc/redact). Redacted text goes to stdout, or to --out-dir.`,
	Args: cobra.ArbitraryArgs,
	Run:  runRedact,
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print redact version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "redact version %s\n", version)
	},
}

func init() {
	addCatalogFlags(rootCmd)
	addRedactFlags(rootCmd)

	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
