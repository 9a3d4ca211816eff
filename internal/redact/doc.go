// Package redact replaces secrets in text documents with stable placeholders.
//
// A run is driven by a catalog of secret types. Each type contributes
// predefined substitutions, pattern rules, an optional candidate finder and an
// optional validator. Identification and substitution are two separate phases:
//
//  1. Identify scans a document with every secret type, confirms pattern
//     candidates through the validator [Gateway] and records them in the
//     run's [Registry]. Predefined substitutions are registered before any
//     scanning and are never validated.
//  2. [Rewrite] replaces every occurrence of every registered secret in the
//     original text, longest secrets first, so an occurrence that precedes
//     the identifying match is still replaced.
//
// Placeholders assigned to pattern matches are the secret-type name followed
// by a per-type counter starting at 0, in first-registration order. The same
// secret text always maps to the same placeholder for the lifetime of a
// [Redactor], across all documents it processes.
package redact
