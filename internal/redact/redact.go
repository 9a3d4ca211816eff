package redact

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// SecretType is a named category of secrets. Name doubles as the prefix of
// generated placeholders.
type SecretType struct {
	Name          string
	Patterns      []*Pattern
	Substitutions map[string]string
	Validator     Validator
	Finder        Finder
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Redactor) { r.log = l }
}

// WithFailurePolicy sets how validator invocation failures are handled.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(r *Redactor) { r.policy = p }
}

// WithWorkers bounds the number of documents scanned in parallel by RedactAll.
func WithWorkers(n int) Option {
	return func(r *Redactor) {
		if n > 0 {
			r.workers = n
		}
	}
}

// Redactor owns the registry and validator caches of one run. All documents
// redacted by the same Redactor share placeholders.
type Redactor struct {
	types    []SecretType
	registry *Registry
	gateway  *Gateway
	policy   FailurePolicy
	workers  int
	log      zerolog.Logger

	// serializes identification so numbering follows call order
	mu sync.Mutex
}

// New checks the catalog, registers its predefined substitutions and returns
// a Redactor ready to process documents.
func New(types []SecretType, opts ...Option) (*Redactor, error) {
	if err := checkCatalog(types); err != nil {
		return nil, err
	}
	r := &Redactor{
		types:   types,
		workers: defaultWorkers,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registry = NewRegistry()
	r.registry.Predefine(types)
	r.gateway = NewGateway(r.policy, r.log)

	r.log.Debug().Int("types", len(types)).Int("predefined", r.registry.Len()).Msg("redactor ready")
	return r, nil
}

func checkCatalog(types []SecretType) error {
	if len(types) == 0 {
		return &ConfigError{Reason: "no secret types configured"}
	}
	seen := make(map[string]bool, len(types))
	for _, st := range types {
		if st.Name == "" {
			return &ConfigError{Reason: "secret type without a name"}
		}
		if seen[st.Name] {
			return &ConfigError{Type: st.Name, Reason: "duplicate secret type name"}
		}
		seen[st.Name] = true
		for _, p := range st.Patterns {
			if p == nil {
				return &ConfigError{Type: st.Name, Reason: "nil pattern"}
			}
		}
	}
	return nil
}

// Identify scans doc with every secret type and registers the confirmed
// candidates. It does not rewrite anything.
func (r *Redactor) Identify(ctx context.Context, doc string) error {
	scans := make([][]Candidate, len(r.types))
	for i, st := range r.types {
		scans[i] = Scan(st, doc)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(ctx, scans)
}

// Redact identifies the secrets of doc and returns doc with every registered
// secret replaced, including secrets registered by earlier calls.
func (r *Redactor) Redact(ctx context.Context, doc string) (string, error) {
	if err := r.Identify(ctx, doc); err != nil {
		return "", err
	}
	return Rewrite(doc, r.registry.Secrets()), nil
}

// RedactAll redacts a batch. Documents are scanned in parallel, registered
// serially in document order, and rewritten only once every document has
// been registered, so numbering matches a serial run and a secret found in
// any document is replaced in all of them.
func (r *Redactor) RedactAll(ctx context.Context, docs []string) ([]string, error) {
	scans := make([][][]Candidate, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perType := make([][]Candidate, len(r.types))
			for j, st := range r.types {
				perType[j] = Scan(st, doc)
			}
			scans[i] = perType
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}

	r.mu.Lock()
	for i := range docs {
		if err := r.register(ctx, scans[i]); err != nil {
			r.mu.Unlock()
			return nil, err
		}
	}
	r.mu.Unlock()

	secrets := r.registry.Secrets()
	out := make([]string, len(docs))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, doc := range docs {
		sem <- struct{}{}
		wg.Go(func() {
			defer func() { <-sem }()
			out[i] = Rewrite(doc, secrets)
		})
	}
	wg.Wait()
	return out, nil
}

// register confirms and records candidates; scans is indexed like r.types.
// Callers hold r.mu.
func (r *Redactor) register(ctx context.Context, scans [][]Candidate) error {
	for i, st := range r.types {
		for _, c := range scans[i] {
			if _, ok := r.registry.Lookup(c.Text); ok {
				continue
			}
			ok, err := r.gateway.Confirm(ctx, st, c.Text)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			s, created := r.registry.Register(st.Name, c.Text)
			if created {
				r.log.Debug().Str("type", st.Name).Str("placeholder", s.Placeholder).
					Str("source", c.Source).Msg("secret registered")
			}
		}
	}
	return nil
}

// Export returns the run's mapping in registration order, suitable for
// persisting and re-supplying as predefined substitutions.
func (r *Redactor) Export() []Entry {
	return r.registry.Export()
}

// Registry returns the run's registry.
func (r *Redactor) Registry() *Registry {
	return r.registry
}

// Stats returns validator counters.
func (r *Redactor) Stats() []ValidatorStats {
	return r.gateway.Stats()
}

// Types returns the catalog the Redactor was built with.
func (r *Redactor) Types() []SecretType {
	return r.types
}
