// Package output formats run reports for display or machine consumption.
//
// Two formats are supported:
//   - text: human-readable summary
//   - json: the full structured report
//
// Reports carry secret types, placeholders counts and file names only. The
// text of a secret never appears in a report.
package output
