package redact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

// FailurePolicy controls what happens when a validator cannot be invoked.
type FailurePolicy int

const (
	// FailWarn logs a warning and rejects the candidate.
	FailWarn FailurePolicy = iota
	// FailFatal aborts the run with the invocation error.
	FailFatal
)

// ParseFailurePolicy parses "warn" or "fatal".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "warn":
		return FailWarn, nil
	case "fatal":
		return FailFatal, nil
	default:
		return FailWarn, fmt.Errorf("unknown validator failure policy: %s", s)
	}
}

func (p FailurePolicy) String() string {
	if p == FailFatal {
		return "fatal"
	}
	return "warn"
}

// ValidatorStats counts validator activity for one secret type.
type ValidatorStats struct {
	Type        string `json:"type"`
	Invocations int    `json:"invocations"`
	CacheHits   int    `json:"cacheHits"`
	Confirmed   int    `json:"confirmed"`
	Rejected    int    `json:"rejected"`
	Timeouts    int    `json:"timeouts"`
	Failures    int    `json:"failures"`
}

// Gateway confirms candidates through each secret type's validator and
// remembers every decision for the rest of the run, per secret type.
type Gateway struct {
	policy FailurePolicy
	log    zerolog.Logger

	mu     sync.Mutex
	caches map[string]*ttlcache.Cache[string, bool]
	stats  map[string]*ValidatorStats
	warned map[string]bool
}

// NewGateway creates a Gateway with empty caches.
func NewGateway(policy FailurePolicy, logger zerolog.Logger) *Gateway {
	return &Gateway{
		policy: policy,
		log:    logger,
		caches: make(map[string]*ttlcache.Cache[string, bool]),
		stats:  make(map[string]*ValidatorStats),
		warned: make(map[string]bool),
	}
}

// Confirm reports whether text is a real secret of type st. Types without a
// validator accept every candidate. Each distinct text is passed to the
// validator at most once per type.
func (g *Gateway) Confirm(ctx context.Context, st SecretType, text string) (bool, error) {
	if st.Validator == nil {
		return true, nil
	}

	cache, stats := g.forType(st.Name)
	if item := cache.Get(text); item != nil {
		g.count(func() { stats.CacheHits++ })
		return item.Value(), nil
	}

	g.count(func() { stats.Invocations++ })
	ok, err := st.Validator.Validate(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return false, err
	case errors.Is(err, ErrValidatorTimeout) || errors.Is(err, context.DeadlineExceeded):
		g.count(func() { stats.Timeouts++ })
		g.log.Warn().Str("type", st.Name).Msg("validator timed out, candidate rejected")
		ok = false
	default:
		if !IsInvocationError(err) {
			err = &InvocationError{Err: err}
		}
		g.count(func() { stats.Failures++ })
		if g.policy == FailFatal {
			return false, fmt.Errorf("secret type %s: %w", st.Name, err)
		}
		g.warnOnce(st.Name, err)
		ok = false
	}

	cache.Set(text, ok, ttlcache.NoTTL)
	g.count(func() {
		if ok {
			stats.Confirmed++
		} else {
			stats.Rejected++
		}
	})
	return ok, nil
}

// Stats returns validator counters for every type that has a validator and
// was consulted, sorted by type name.
func (g *Gateway) Stats() []ValidatorStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ValidatorStats, 0, len(g.stats))
	for _, s := range g.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (g *Gateway) forType(name string) (*ttlcache.Cache[string, bool], *ValidatorStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.caches[name]
	if !ok {
		c = ttlcache.New[string, bool](
			ttlcache.WithDisableTouchOnHit[string, bool](),
		)
		g.caches[name] = c
		g.stats[name] = &ValidatorStats{Type: name}
	}
	return c, g.stats[name]
}

func (g *Gateway) count(fn func()) {
	g.mu.Lock()
	fn()
	g.mu.Unlock()
}

func (g *Gateway) warnOnce(name string, err error) {
	g.mu.Lock()
	seen := g.warned[name]
	g.warned[name] = true
	g.mu.Unlock()
	if !seen {
		g.log.Warn().Err(err).Str("type", name).
			Msg("validator unusable, candidates of this type are treated as unconfirmed")
	}
}
