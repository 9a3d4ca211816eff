// Package mapping persists the secret-to-placeholder mapping of a run.
//
// The mapping is written in the same layout the catalog reads substitutions
// from, <dir>/substitutions/<type> with one "secret = placeholder" line per
// secret, so a saved mapping can be passed back as a configuration directory
// to keep placeholders stable across runs.
//
// Mapping files hold the original secrets in clear text. They are created
// with owner-only permissions.
package mapping
