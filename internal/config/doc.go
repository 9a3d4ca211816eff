// Package config loads redact's settings.
//
// Settings are layered with viper: built-in defaults, then config.yaml from
// the platform config directory (or an explicit --config file), then REDACT_*
// environment variables, then command-line flags. Keys use snake_case in the
// file and in the environment (REDACT_VALIDATOR_TIMEOUT=30s) and kebab-case on
// the command line (--validator-timeout 30s).
//
// These settings are distinct from the secret-type catalog, which lives in
// configuration directories and is loaded by package catalog.
package config
