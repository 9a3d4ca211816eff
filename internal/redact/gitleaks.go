package redact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// GitleaksFinder produces candidates from gitleaks' default rule set.
type GitleaksFinder struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewGitleaksFinder loads the default gitleaks configuration.
func NewGitleaksFinder() (*GitleaksFinder, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	return &GitleaksFinder{detector: d}, nil
}

// Find returns the secret values gitleaks detects in doc, in document order.
func (f *GitleaksFinder) Find(doc string) []string {
	f.mu.Lock()
	findings := f.detector.DetectString(doc)
	f.mu.Unlock()

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].StartLine != findings[j].StartLine {
			return findings[i].StartLine < findings[j].StartLine
		}
		return findings[i].StartColumn < findings[j].StartColumn
	})
	out := make([]string, 0, len(findings))
	for _, fd := range findings {
		if fd.Secret != "" {
			out = append(out, fd.Secret)
		}
	}
	return out
}
