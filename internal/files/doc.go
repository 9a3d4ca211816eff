// Package files expands command-line arguments into the ordered list of
// inputs to redact.
package files
