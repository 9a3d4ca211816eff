package output

import (
	"time"

	"github.com/dshills/redact/internal/redact"
)

// FileResult is the outcome for one input.
type FileResult struct {
	Path   string `json:"path"`
	Output string `json:"output,omitempty"`
	Bytes  int    `json:"bytes"`
	// Changed reports whether any secret was replaced.
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// ValidatorSummary mirrors redact.ValidatorStats without the type name.
type ValidatorSummary struct {
	Invocations int `json:"invocations"`
	CacheHits   int `json:"cacheHits"`
	Confirmed   int `json:"confirmed"`
	Rejected    int `json:"rejected"`
	Timeouts    int `json:"timeouts"`
	Failures    int `json:"failures"`
}

// TypeSummary counts the secrets of one type.
type TypeSummary struct {
	Type       string            `json:"type"`
	Predefined int               `json:"predefined"`
	Validated  int               `json:"validated"`
	Validator  *ValidatorSummary `json:"validator,omitempty"`
}

// Summary aggregates the run.
type Summary struct {
	Files   int `json:"files"`
	Failed  int `json:"failed"`
	Changed int `json:"changed"`
	Secrets int `json:"secrets"`
}

// Timing contains performance metrics.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string        `json:"tool"`
	Version string        `json:"version"`
	RunID   string        `json:"runId"`
	Mapping string        `json:"mapping,omitempty"`
	Summary Summary       `json:"summary"`
	Files   []FileResult  `json:"files"`
	Types   []TypeSummary `json:"types"`
	Timing  Timing        `json:"timing"`
}

// Finish fills Summary, Types and Timing from the redactor's final state.
func (r *Report) Finish(rd *redact.Redactor, elapsed time.Duration) {
	r.Timing.TotalMs = elapsed.Milliseconds()
	r.Types = TypeSummaries(rd)

	r.Summary = Summary{Files: len(r.Files)}
	for _, f := range r.Files {
		if f.Error != "" {
			r.Summary.Failed++
		}
		if f.Changed {
			r.Summary.Changed++
		}
	}
	r.Summary.Secrets = rd.Registry().Len()
}

// TypeSummaries returns one summary per catalog type, in catalog order.
func TypeSummaries(rd *redact.Redactor) []TypeSummary {
	counts := rd.Registry().Counts()
	stats := make(map[string]redact.ValidatorStats)
	for _, s := range rd.Stats() {
		stats[s.Type] = s
	}

	var out []TypeSummary
	for _, st := range rd.Types() {
		ts := TypeSummary{
			Type:       st.Name,
			Predefined: counts[st.Name][redact.Predefined],
			Validated:  counts[st.Name][redact.Validated],
		}
		if s, ok := stats[st.Name]; ok {
			ts.Validator = &ValidatorSummary{
				Invocations: s.Invocations,
				CacheHits:   s.CacheHits,
				Confirmed:   s.Confirmed,
				Rejected:    s.Rejected,
				Timeouts:    s.Timeouts,
				Failures:    s.Failures,
			}
		}
		out = append(out, ts)
	}
	return out
}
