package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/redact/internal/mapping"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect saved secret mappings",
}

var mappingShowCmd = &cobra.Command{
	Use:   "show <dir>",
	Short: "Show statistics for a mapping saved with --write-substitutions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := mapping.GetStats(args[0])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: reading mapping: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	mappingCmd.AddCommand(mappingShowCmd)
}
