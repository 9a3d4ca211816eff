package redact

import (
	"sort"
	"strings"
)

type span struct {
	start, end  int
	placeholder string
}

// Rewrite replaces every occurrence of every secret in doc with its
// placeholder. secrets must be ordered longest first (see Registry.Secrets).
// Matching always runs against the original text, and a byte claimed by a
// longer secret is never matched by a shorter one.
func Rewrite(doc string, secrets []Secret) string {
	if doc == "" || len(secrets) == 0 {
		return doc
	}

	claimed := make([]bool, len(doc))
	var spans []span
	for _, s := range secrets {
		n := len(s.Text)
		if n == 0 || n > len(doc) {
			continue
		}
		for from := 0; from+n <= len(doc); {
			i := strings.Index(doc[from:], s.Text)
			if i < 0 {
				break
			}
			start := from + i
			end := start + n
			if isFree(claimed, start, end) {
				for k := start; k < end; k++ {
					claimed[k] = true
				}
				spans = append(spans, span{start: start, end: end, placeholder: s.Placeholder})
				from = end
			} else {
				from = start + 1
			}
		}
	}
	if len(spans) == 0 {
		return doc
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var b strings.Builder
	b.Grow(len(doc))
	prev := 0
	for _, sp := range spans {
		b.WriteString(doc[prev:sp.start])
		b.WriteString(sp.placeholder)
		prev = sp.end
	}
	b.WriteString(doc[prev:])
	return b.String()
}

func isFree(claimed []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if claimed[k] {
			return false
		}
	}
	return true
}
