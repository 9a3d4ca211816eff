package redact

import (
	"sort"
	"strconv"
	"sync"
)

// Origin records how a secret entered the registry.
type Origin int

const (
	// Predefined secrets come from a secret type's substitutions.
	Predefined Origin = iota
	// Validated secrets were found by a pattern or finder and confirmed.
	Validated
)

func (o Origin) String() string {
	if o == Predefined {
		return "predefined"
	}
	return "validated"
}

// Secret is a registered secret and its placeholder.
type Secret struct {
	Text        string
	Type        string
	Placeholder string
	Origin      Origin
}

// Entry is one exported row of the run's mapping.
type Entry struct {
	Type        string
	Secret      string
	Placeholder string
}

// Registry maps secret text to placeholder for one run. The text is the
// identity key: a text registered by one secret type is never registered
// again, by that type or any other.
type Registry struct {
	mu       sync.RWMutex
	byText   map[string]int
	secrets  []Secret
	counters map[string]int
	// placeholders in use, so generated ones never repeat a predefined one
	taken map[string]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byText:   make(map[string]int),
		counters: make(map[string]int),
		taken:    make(map[string]bool),
	}
}

// Predefine registers every predefined substitution of types, in catalog
// order and sorted by secret text within a type.
func (r *Registry) Predefine(types []SecretType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range types {
		keys := make([]string, 0, len(st.Substitutions))
		for k := range st.Substitutions {
			if k != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, text := range keys {
			if _, ok := r.byText[text]; ok {
				continue
			}
			r.add(Secret{Text: text, Type: st.Name, Placeholder: st.Substitutions[text], Origin: Predefined})
		}
	}
}

// Lookup returns the placeholder registered for text.
func (r *Registry) Lookup(text string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byText[text]
	if !ok {
		return "", false
	}
	return r.secrets[i].Placeholder, true
}

// Register records text as a validated secret of typeName and returns it.
// If text is already registered the existing secret is returned and created
// is false; no counter moves. Placeholders already taken by predefined
// substitutions are skipped.
func (r *Registry) Register(typeName, text string) (s Secret, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byText[text]; ok {
		return r.secrets[i], false
	}
	n := r.counters[typeName]
	for r.taken[typeName+strconv.Itoa(n)] {
		n++
	}
	r.counters[typeName] = n + 1
	s = Secret{Text: text, Type: typeName, Placeholder: typeName + strconv.Itoa(n), Origin: Validated}
	r.add(s)
	return s, true
}

// Secrets returns all secrets ordered for rewriting: longest text first,
// ties in registration order.
func (r *Registry) Secrets() []Secret {
	r.mu.RLock()
	out := make([]Secret, len(r.secrets))
	copy(out, r.secrets)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Text) > len(out[j].Text) })
	return out
}

// Export returns the mapping in registration order.
func (r *Registry) Export() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.secrets))
	for i, s := range r.secrets {
		out[i] = Entry{Type: s.Type, Secret: s.Text, Placeholder: s.Placeholder}
	}
	return out
}

// Len returns the number of registered secrets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.secrets)
}

// Counts returns the number of registered secrets per type and origin.
func (r *Registry) Counts() map[string]map[Origin]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[Origin]int)
	for _, s := range r.secrets {
		if out[s.Type] == nil {
			out[s.Type] = make(map[Origin]int)
		}
		out[s.Type][s.Origin]++
	}
	return out
}

func (r *Registry) add(s Secret) {
	r.taken[s.Placeholder] = true
	r.byText[s.Text] = len(r.secrets)
	r.secrets = append(r.secrets, s)
}
