package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Tool:    "redact",
		Version: "1.0",
		RunID:   "run-1",
		Summary: Summary{Files: 2, Failed: 1, Changed: 1, Secrets: 3},
		Files: []FileResult{
			{Path: "a.log", Bytes: 10, Changed: true},
			{Path: "b.log", Error: "permission denied"},
		},
		Types: []TypeSummary{
			{Type: "hostname", Predefined: 2},
			{Type: "ipv4", Validated: 1, Validator: &ValidatorSummary{Invocations: 2, Confirmed: 1, Rejected: 1, Timeouts: 1}},
		},
		Timing: Timing{TotalMs: 42},
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, sampleReport()))

	out := buf.String()
	for _, want := range []string{
		"redact 1.0 (run run-1)",
		"Files: 2 processed, 1 changed, 1 failed",
		"Secrets: 3",
		"hostname",
		"2 run, 0 cached, 1 confirmed, 1 rejected, 1 timed out",
		"b.log: permission denied",
		"Completed in 42ms",
	} {
		assert.Contains(t, out, want)
	}
}

func TestTextWriter_NoFailures(t *testing.T) {
	r := sampleReport()
	r.Files = r.Files[:1]
	r.Summary.Failed = 0

	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, r))
	assert.NotContains(t, buf.String(), "Failed inputs")
	assert.NotContains(t, buf.String(), "failed")
}

func TestGetWriter(t *testing.T) {
	for _, f := range []string{FormatText, FormatJSON} {
		_, err := GetWriter(f)
		assert.NoError(t, err, f)
	}
	_, err := GetWriter("sarif")
	assert.Error(t, err)
}

func TestWriteReport_None(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(sampleReport(), FormatNone, &buf))
	assert.Zero(t, buf.Len())
}
