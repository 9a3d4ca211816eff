package redact

import "regexp"

// Pattern is a compiled pattern rule. When the expression has a capturing
// group, the group's text is the candidate; otherwise the whole match is.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// CompilePattern compiles expr and rejects expressions with more than one
// capturing group. Patterns run in multi-line mode: ^ and $ match at line
// boundaries.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile("(?m)" + expr)
	if err != nil {
		return nil, &ConfigError{Pattern: expr, Reason: "invalid regular expression", Err: err}
	}
	if re.NumSubexp() > 1 {
		return nil, &ConfigError{Pattern: expr, Reason: "at most one capturing group is allowed"}
	}
	return &Pattern{expr: expr, re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.expr
}

// Captures reports whether the pattern declares a capturing group.
func (p *Pattern) Captures() bool {
	return p.re.NumSubexp() == 1
}

// find returns the candidate texts of all non-overlapping matches, left to
// right. Empty candidates are dropped.
func (p *Pattern) find(doc string) []string {
	var out []string
	if !p.Captures() {
		for _, m := range p.re.FindAllString(doc, -1) {
			if m != "" {
				out = append(out, m)
			}
		}
		return out
	}
	for _, m := range p.re.FindAllStringSubmatch(doc, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		}
	}
	return out
}
