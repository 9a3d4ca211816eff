package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFinder []string

func (f staticFinder) Find(string) []string { return f }

func texts(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Text)
	}
	return out
}

func TestScan_RuleOrderThenPosition(t *testing.T) {
	st := SecretType{
		Name: "host",
		Patterns: []*Pattern{
			MustCompilePattern(`db\d+`),
			MustCompilePattern(`web\d+`),
		},
	}
	got := Scan(st, "web1 db2 web3 db4")
	assert.Equal(t, []string{"db2", "db4", "web1", "web3"}, texts(got))
	for _, c := range got {
		assert.Equal(t, "host", c.Type)
		require.NotNil(t, c.Pattern)
		assert.Equal(t, c.Pattern.String(), c.Source)
	}
}

func TestScan_DuplicatesAcrossRulesKept(t *testing.T) {
	st := SecretType{
		Name: "user",
		Patterns: []*Pattern{
			MustCompilePattern(`user=(\w+)`),
			MustCompilePattern(`alice`),
		},
	}
	got := Scan(st, "user=alice")
	assert.Equal(t, []string{"alice", "alice"}, texts(got))
}

func TestScan_CaptureGroup(t *testing.T) {
	st := SecretType{
		Name:     "username",
		Patterns: []*Pattern{MustCompilePattern(`user "(.+)": login (?:successful|failed)`)},
	}
	got := Scan(st, `user "alice": login successful`)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Text)
}

func TestScan_FinderAfterPatterns(t *testing.T) {
	st := SecretType{
		Name:     "credential",
		Patterns: []*Pattern{MustCompilePattern(`tok_\w+`)},
		Finder:   staticFinder{"AKIA0000", ""},
	}
	got := Scan(st, "tok_1 AKIA0000")
	require.Len(t, got, 2)
	assert.Equal(t, "tok_1", got[0].Text)
	assert.Equal(t, "AKIA0000", got[1].Text)
	assert.Nil(t, got[1].Pattern)
	assert.Equal(t, sourceFinder, got[1].Source)
}

func TestScan_SubstitutionsOnly(t *testing.T) {
	st := SecretType{Name: "hostname", Substitutions: map[string]string{"db01": "DB"}}
	assert.Empty(t, Scan(st, "db01 db01"))
}
