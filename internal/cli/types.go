package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/redact/internal/redact"
)

var flagTypesJSON bool

// typeInfo describes a resolved secret type without revealing substitutions.
type typeInfo struct {
	Name          string   `json:"name"`
	Patterns      []string `json:"patterns"`
	Substitutions int      `json:"substitutions"`
	Validator     string   `json:"validator,omitempty"`
	Finder        bool     `json:"finder"`
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the secret types resolved from the configuration directories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}
		logger, _ := setupLogging(cfg, cmd.ErrOrStderr())
		types, err := loadCatalog(cfg, logger)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}

		infos := describeTypes(types)
		if flagTypesJSON {
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return
		}
		writeTypesTable(cmd.OutOrStdout(), infos)
	},
}

func describeTypes(types []redact.SecretType) []typeInfo {
	infos := make([]typeInfo, 0, len(types))
	for _, st := range types {
		info := typeInfo{
			Name:          st.Name,
			Patterns:      []string{},
			Substitutions: len(st.Substitutions),
			Finder:        st.Finder != nil,
		}
		for _, p := range st.Patterns {
			info.Patterns = append(info.Patterns, p.String())
		}
		switch v := st.Validator.(type) {
		case nil:
		case *redact.ExecValidator:
			info.Validator = v.Path
		default:
			info.Validator = "builtin"
		}
		infos = append(infos, info)
	}
	return infos
}

func writeTypesTable(w io.Writer, infos []typeInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPATTERNS\tSUBSTITUTIONS\tVALIDATOR\tFINDER")
	for _, info := range infos {
		validator := info.Validator
		if validator == "" {
			validator = "-"
		}
		finder := "-"
		if info.Finder {
			finder = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", info.Name, len(info.Patterns), info.Substitutions, validator, finder)
	}
	tw.Flush()
}

func init() {
	typesCmd.Flags().BoolVar(&flagTypesJSON, "json", false, "Print JSON")
}
