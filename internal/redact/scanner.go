package redact

// sourceFinder is the Candidate.Source of finder-produced candidates.
const sourceFinder = "finder"

// Finder is a candidate source other than pattern rules.
type Finder interface {
	Find(doc string) []string
}

// Candidate is a substring extracted by a pattern rule or finder that has not
// been confirmed yet.
type Candidate struct {
	Text    string
	Type    string
	Pattern *Pattern // nil for finder candidates
	Source  string
}

// Scan applies st's pattern rules in declared order, then its finder, and
// returns every candidate found in doc. Nothing is validated or deduplicated.
func Scan(st SecretType, doc string) []Candidate {
	var out []Candidate
	for _, p := range st.Patterns {
		for _, text := range p.find(doc) {
			out = append(out, Candidate{Text: text, Type: st.Name, Pattern: p, Source: p.String()})
		}
	}
	if st.Finder != nil {
		for _, text := range st.Finder.Find(doc) {
			if text == "" {
				continue
			}
			out = append(out, Candidate{Text: text, Type: st.Name, Source: sourceFinder})
		}
	}
	return out
}
