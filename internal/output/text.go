package output

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter outputs a human-readable summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("%s %s (run %s)\n", report.Tool, report.Version, report.RunID)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d processed, %d changed", report.Summary.Files, report.Summary.Changed)
	if report.Summary.Failed > 0 {
		ew.printf(", %d failed", report.Summary.Failed)
	}
	ew.println("")
	ew.printf("Secrets: %d\n", report.Summary.Secrets)
	if report.Mapping != "" {
		ew.printf("Mapping: %s\n", report.Mapping)
	}
	ew.println(strings.Repeat("─", 60))

	if len(report.Types) > 0 {
		ew.printf("\n  %-20s %10s %10s  %s\n", "TYPE", "PREDEFINED", "VALIDATED", "VALIDATOR")
		for _, ts := range report.Types {
			ew.printf("  %-20s %10d %10d  %s\n", ts.Type, ts.Predefined, ts.Validated, validatorLine(ts.Validator))
		}
	}

	var failed []FileResult
	for _, f := range report.Files {
		if f.Error != "" {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		ew.println("\n[!] Failed inputs")
		for _, f := range failed {
			ew.printf("  %s: %s\n", f.Path, f.Error)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms\n", report.Timing.TotalMs)
	return ew.err
}

func validatorLine(v *ValidatorSummary) string {
	if v == nil {
		return "-"
	}
	s := fmt.Sprintf("%d run, %d cached, %d confirmed, %d rejected",
		v.Invocations, v.CacheHits, v.Confirmed, v.Rejected)
	if v.Timeouts > 0 {
		s += fmt.Sprintf(", %d timed out", v.Timeouts)
	}
	if v.Failures > 0 {
		s += fmt.Sprintf(", %d failed", v.Failures)
	}
	return s
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
