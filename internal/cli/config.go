package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/redact/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage redact settings",
}

// settingsPath returns --config or the default settings file.
func settingsPath() (string, error) {
	if flagConfigFile != "" {
		return flagConfigFile, nil
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default settings file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := settingsPath()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
			return
		}

		if err := config.Save(path, config.Default()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: writing config: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a settings value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := settingsPath()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			// If the file is unreadable, start from defaults
			cfg = config.Default()
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}
		if err := config.Save(path, cfg); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: saving config: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(flagConfigFile, cmd.Flags())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitConfigError
			return
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
