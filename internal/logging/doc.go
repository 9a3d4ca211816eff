// Package logging configures the process-wide zerolog logger.
//
// Logs always go to stderr so that stdout carries nothing but redacted text.
// Secret values must never be passed to the logger; log secret-type names,
// placeholders and counts instead.
package logging
