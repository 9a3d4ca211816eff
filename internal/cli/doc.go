// Package cli wires together the Cobra command tree for the redact binary.
//
// The root command redacts its inputs. Subcommands list the resolved secret
// types (types), summarize a saved mapping (mapping show), manage the
// settings file (config) and print the version. Settings are layered by
// the config package and every command returns a deterministic exit code.
package cli
