package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/redact/internal/catalog"
	"github.com/dshills/redact/internal/config"
	"github.com/dshills/redact/internal/logging"
	"github.com/dshills/redact/internal/redact"
)

// Settings flags. Values flow through config.Load, which only honors flags
// the user changed, so these variables are never read directly.
var (
	flagConfigFile         string
	flagConf               []string
	flagNoDefault          bool
	flagSecrets            []string
	flagGitleaks           bool
	flagGitleaksType       string
	flagValidatorTimeout   time.Duration
	flagLogLevel           string
	flagLogFormat          string
	flagWriteSubstitutions string
	flagOutDir             string
	flagValidatorFailure   string
	flagInclude            []string
	flagExclude            []string
	flagWorkers            int
	flagReport             string
)

// addCatalogFlags registers the flags every catalog-reading command shares.
func addCatalogFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfigFile, "config", "", "Settings file (default: user config dir)")
	pf.StringArrayVarP(&flagConf, "conf", "c", nil, "Configuration directory, highest precedence first (repeatable)")
	pf.BoolVarP(&flagNoDefault, "no-default", "n", false, "Do not read ~/.redact and /etc/redact")
	pf.StringArrayVarP(&flagSecrets, "secrets", "s", nil, "Only use these secret types (repeatable)")
	pf.BoolVar(&flagGitleaks, "gitleaks", false, "Add the built-in gitleaks credential detector")
	pf.StringVar(&flagGitleaksType, "gitleaks-type", "", "Secret type name for gitleaks findings")
	pf.DurationVar(&flagValidatorTimeout, "validator-timeout", 0, "Time bound for one validator run")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (auto, console, json)")
}

func addRedactFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&flagWriteSubstitutions, "write-substitutions", "w", "", "Save the secret mapping to this directory")
	f.StringVarP(&flagOutDir, "out-dir", "o", "", "Write redacted files here instead of stdout")
	f.StringVar(&flagValidatorFailure, "validator-failure", "", "On validator failure: warn or fatal")
	f.StringArrayVar(&flagInclude, "include", nil, "Glob of files to take from directories (repeatable)")
	f.StringArrayVar(&flagExclude, "exclude", nil, "Glob of files to skip in directories (repeatable)")
	f.IntVar(&flagWorkers, "workers", 0, "Parallel scans")
	f.StringVar(&flagReport, "report", "", "Run summary on stderr (none, text, json)")
}

// loadConfig layers the settings file, environment and changed flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfigFile, cmd.Flags())
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// setupLogging configures the global logger on stderr and returns a logger
// tagged with a fresh run id.
func setupLogging(cfg config.Config, w io.Writer) (zerolog.Logger, string) {
	logging.Setup(cfg.LogLevel, cfg.LogFormat, w)
	runID := uuid.NewString()
	return logging.WithRun(runID), runID
}

// loadCatalog resolves the secret types for cfg.
func loadCatalog(cfg config.Config, logger zerolog.Logger) ([]redact.SecretType, error) {
	opts := catalog.Options{
		Only:             cfg.Secrets,
		ValidatorTimeout: cfg.ValidatorTimeout,
		Logger:           logger,
	}
	if cfg.Gitleaks {
		finder, err := redact.NewGitleaksFinder()
		if err != nil {
			return nil, err
		}
		opts.Finders = map[string]redact.Finder{cfg.GitleaksType: finder}
	}

	dirs := catalog.Dirs(cfg.Conf, cfg.NoDefault)
	logger.Debug().Strs("dirs", dirs).Msg("loading catalog")
	types, err := catalog.Load(dirs, opts)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("no usable secret types found in %v", dirs)
	}
	return types, nil
}
