package output

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redact/internal/redact"
)

func TestReport_Finish(t *testing.T) {
	rd, err := redact.New([]redact.SecretType{
		{Name: "hostname", Substitutions: map[string]string{"db01": "DB"}},
		{
			Name:     "token",
			Patterns: []*redact.Pattern{redact.MustCompilePattern(`tok_\w+`)},
			Validator: redact.ValidatorFunc(func(_ context.Context, text string) (bool, error) {
				return strings.HasSuffix(text, "ok"), nil
			}),
		},
	})
	require.NoError(t, err)
	_, err = rd.RedactAll(context.Background(), []string{"db01 tok_aok tok_bad", "tok_aok"})
	require.NoError(t, err)

	r := &Report{Files: []FileResult{
		{Path: "one", Changed: true},
		{Path: "two", Changed: true},
		{Path: "three", Error: "boom"},
	}}
	r.Finish(rd, 1500*time.Millisecond)

	assert.Equal(t, Summary{Files: 3, Failed: 1, Changed: 2, Secrets: 2}, r.Summary)
	assert.Equal(t, int64(1500), r.Timing.TotalMs)
	require.Len(t, r.Types, 2)

	host, tok := r.Types[0], r.Types[1]
	assert.Equal(t, TypeSummary{Type: "hostname", Predefined: 1}, host)
	assert.Equal(t, 1, tok.Validated)
	require.NotNil(t, tok.Validator)
	assert.Equal(t, ValidatorSummary{Invocations: 2, Confirmed: 1, Rejected: 1}, *tok.Validator)
}
