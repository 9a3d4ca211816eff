package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/redact/internal/catalog"
	"github.com/dshills/redact/internal/logging"
	"github.com/dshills/redact/internal/redact"
)

// Setting keys.
const (
	KeyConf               = "conf"
	KeyNoDefault          = "no_default"
	KeySecrets            = "secrets"
	KeyWriteSubstitutions = "write_substitutions"
	KeyOutDir             = "out_dir"
	KeyValidatorTimeout   = "validator_timeout"
	KeyValidatorFailure   = "validator_failure"
	KeyGitleaks           = "gitleaks"
	KeyGitleaksType       = "gitleaks_type"
	KeyInclude            = "include"
	KeyExclude            = "exclude"
	KeyWorkers            = "workers"
	KeyReport             = "report"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
)

const envPrefix = "REDACT"

// Config represents the redact settings.
type Config struct {
	Conf               []string      `mapstructure:"conf"`
	NoDefault          bool          `mapstructure:"no_default"`
	Secrets            []string      `mapstructure:"secrets"`
	WriteSubstitutions string        `mapstructure:"write_substitutions"`
	OutDir             string        `mapstructure:"out_dir"`
	ValidatorTimeout   time.Duration `mapstructure:"validator_timeout"`
	ValidatorFailure   string        `mapstructure:"validator_failure"`
	Gitleaks           bool          `mapstructure:"gitleaks"`
	GitleaksType       string        `mapstructure:"gitleaks_type"`
	Include            []string      `mapstructure:"include"`
	Exclude            []string      `mapstructure:"exclude"`
	Workers            int           `mapstructure:"workers"`
	Report             string        `mapstructure:"report"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
}

// fileConfig is the on-disk shape written by Save.
type fileConfig struct {
	Conf               []string `yaml:"conf,omitempty"`
	NoDefault          bool     `yaml:"no_default"`
	Secrets            []string `yaml:"secrets,omitempty"`
	WriteSubstitutions string   `yaml:"write_substitutions,omitempty"`
	OutDir             string   `yaml:"out_dir,omitempty"`
	ValidatorTimeout   string   `yaml:"validator_timeout"`
	ValidatorFailure   string   `yaml:"validator_failure"`
	Gitleaks           bool     `yaml:"gitleaks"`
	GitleaksType       string   `yaml:"gitleaks_type"`
	Include            []string `yaml:"include,omitempty"`
	Exclude            []string `yaml:"exclude,omitempty"`
	Workers            int      `yaml:"workers"`
	Report             string   `yaml:"report"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
}

// MarshalYAML writes durations in their string form.
func (c Config) MarshalYAML() (any, error) {
	return fileConfig{
		Conf:               c.Conf,
		NoDefault:          c.NoDefault,
		Secrets:            c.Secrets,
		WriteSubstitutions: c.WriteSubstitutions,
		OutDir:             c.OutDir,
		ValidatorTimeout:   c.ValidatorTimeout.String(),
		ValidatorFailure:   c.ValidatorFailure,
		Gitleaks:           c.Gitleaks,
		GitleaksType:       c.GitleaksType,
		Include:            c.Include,
		Exclude:            c.Exclude,
		Workers:            c.Workers,
		Report:             c.Report,
		LogLevel:           c.LogLevel,
		LogFormat:          c.LogFormat,
	}, nil
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		ValidatorTimeout: 10 * time.Second,
		ValidatorFailure: "warn",
		GitleaksType:     "credential",
		Include:          []string{"**"},
		Workers:          4,
		Report:           "none",
		LogLevel:         "info",
		LogFormat:        logging.FormatAuto,
	}
}

// ConfigDir returns the platform-appropriate config directory for redact.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "redact"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "redact"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "redact"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "redact"), nil
	default:
		return filepath.Join(home, ".config", "redact"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// FlagKeys maps command-line flag names to setting keys.
var FlagKeys = map[string]string{
	"conf":                KeyConf,
	"no-default":          KeyNoDefault,
	"secrets":             KeySecrets,
	"write-substitutions": KeyWriteSubstitutions,
	"out-dir":             KeyOutDir,
	"validator-timeout":   KeyValidatorTimeout,
	"validator-failure":   KeyValidatorFailure,
	"gitleaks":            KeyGitleaks,
	"gitleaks-type":       KeyGitleaksType,
	"include":             KeyInclude,
	"exclude":             KeyExclude,
	"workers":             KeyWorkers,
	"report":              KeyReport,
	"log-level":           KeyLogLevel,
	"log-format":          KeyLogFormat,
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault(KeyConf, []string{})
	v.SetDefault(KeyNoDefault, d.NoDefault)
	v.SetDefault(KeySecrets, []string{})
	v.SetDefault(KeyWriteSubstitutions, d.WriteSubstitutions)
	v.SetDefault(KeyOutDir, d.OutDir)
	v.SetDefault(KeyValidatorTimeout, d.ValidatorTimeout)
	v.SetDefault(KeyValidatorFailure, d.ValidatorFailure)
	v.SetDefault(KeyGitleaks, d.Gitleaks)
	v.SetDefault(KeyGitleaksType, d.GitleaksType)
	v.SetDefault(KeyInclude, d.Include)
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyReport, d.Report)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// Load builds the effective config: defaults <- file <- env <- flags. An
// empty path means the default config file, which may be absent. flags may be
// nil; only flags listed in FlagKeys and changed by the user take effect.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Conf = cleanList(cfg.Conf)
	cfg.Secrets = cleanList(cfg.Secrets)
	cfg.Include = cleanList(cfg.Include)
	cfg.Exclude = cleanList(cfg.Exclude)
	return cfg, nil
}

// LoadFile loads only the config file at path (the default path when
// empty). Returns Default() and nil error if the file doesn't exist.
func LoadFile(path string) (Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path (the default path when empty).
func Save(path string, cfg Config) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that cannot be enforced by types alone.
func (c Config) Validate() error {
	if c.NoDefault && len(c.Conf) == 0 {
		return errors.New("cannot use --no-default without --conf")
	}
	if c.ValidatorTimeout <= 0 {
		return fmt.Errorf("validator_timeout must be positive, got %s", c.ValidatorTimeout)
	}
	if _, err := redact.ParseFailurePolicy(c.ValidatorFailure); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.Report {
	case "", "none", "text", "json":
	default:
		return fmt.Errorf("unsupported report format: %s", c.Report)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	if c.LogLevel != "" {
		if err := logging.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.Gitleaks && c.GitleaksType == "" {
		return errors.New("gitleaks_type must not be empty when gitleaks is enabled")
	}
	if c.Gitleaks && !catalog.ValidTypeName(c.GitleaksType) {
		return fmt.Errorf("invalid gitleaks_type %q: must be usable as a file name", c.GitleaksType)
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case KeyConf:
		cfg.Conf = splitComma(value)
	case KeyNoDefault:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		cfg.NoDefault = b
	case KeySecrets:
		cfg.Secrets = splitComma(value)
	case KeyWriteSubstitutions:
		cfg.WriteSubstitutions = value
	case KeyOutDir:
		cfg.OutDir = value
	case KeyValidatorTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", key, err)
		}
		cfg.ValidatorTimeout = d
	case KeyValidatorFailure:
		cfg.ValidatorFailure = value
	case KeyGitleaks:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		cfg.Gitleaks = b
	case KeyGitleaksType:
		cfg.GitleaksType = value
	case KeyInclude:
		cfg.Include = splitComma(value)
	case KeyExclude:
		cfg.Exclude = splitComma(value)
	case KeyWorkers:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Workers = n
	case KeyReport:
		cfg.Report = value
	case KeyLogLevel:
		cfg.LogLevel = value
	case KeyLogFormat:
		cfg.LogFormat = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return cfg.Validate()
}

func splitComma(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
