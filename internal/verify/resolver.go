// Package verify resolves whether a claimed social handle is real. It walks
// an ordered chain of external lookup strategies, falls back to the local
// heuristic classifier when every strategy is inconclusive, and memoizes
// verdicts so each handle costs at most one external resolution per process
// lifetime.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pinmap/internal/platform/metrics"
	"pinmap/internal/verify/cache"
	"pinmap/internal/verify/classifier"
	"pinmap/internal/verify/providers"
)

// StrategyClassifier identifies the terminal heuristic strategy in verdicts.
const StrategyClassifier = "classifier"

// ErrEmptyHandle is returned when the handle normalizes to nothing.
var ErrEmptyHandle = errors.New("empty handle")

// Resolver runs the verification strategy chain.
type Resolver struct {
	chain   []providers.Provider
	cache   cache.Store
	delay   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithStrategyDelay inserts a pause between strategies to respect provider
// rate limits.
func WithStrategyDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.delay = d
	}
}

// NewResolver builds a resolver over the given ordered provider chain. The
// chain may be empty, in which case every handle goes straight to the
// classifier.
func NewResolver(store cache.Store, chain []providers.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		chain: chain,
		cache: store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize canonicalizes a raw handle for cache keys and classification:
// trim, strip one leading @, lowercase.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// Resolve returns the verdict for a raw handle. Provider failures never
// propagate; the only possible error is an empty handle.
func (r *Resolver) Resolve(ctx context.Context, raw string) (cache.Verdict, error) {
	handle := Normalize(raw)
	if handle == "" {
		return cache.Verdict{}, ErrEmptyHandle
	}

	if v, ok := r.cache.Get(ctx, handle); ok {
		if r.metrics != nil {
			r.metrics.VerdictCacheHits.Inc()
		}
		return v, nil
	}

	// Collapse concurrent resolutions of the same handle so a burst of
	// registrations costs one pass over the chain.
	v, err, _ := r.group.Do(handle, func() (any, error) {
		if cached, ok := r.cache.Get(ctx, handle); ok {
			return cached, nil
		}
		verdict := r.runChain(ctx, handle)
		r.cache.Put(ctx, handle, verdict)
		return verdict, nil
	})
	if err != nil {
		// The chain itself never errors; singleflight requires the branch.
		return cache.Verdict{}, err
	}
	return v.(cache.Verdict), nil
}

func (r *Resolver) runChain(ctx context.Context, handle string) cache.Verdict {
	for i, p := range r.chain {
		if i > 0 && r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
			}
		}

		outcome, err := p.Lookup(ctx, handle)
		if r.metrics != nil {
			r.metrics.IncLookup(p.Name(), outcome.String())
		}

		switch outcome {
		case providers.Affirmative:
			return cache.Verdict{
				Accepted:   true,
				Strategy:   p.Name(),
				ObservedAt: time.Now().Unix(),
			}
		case providers.Negative:
			return cache.Verdict{
				Accepted:   false,
				Strategy:   p.Name(),
				ObservedAt: time.Now().Unix(),
			}
		default:
			if r.logger != nil {
				r.logger.WarnContext(ctx, "handle lookup inconclusive",
					"strategy", p.Name(),
					"handle", handle,
					"category", string(providers.CategoryOf(err)),
					"error", err,
				)
			}
		}
	}

	cv := classifier.Classify(handle)
	if r.metrics != nil {
		r.metrics.IncLookup(StrategyClassifier, outcomeLabel(cv.Accepted))
	}
	return cache.Verdict{
		Accepted: cv.Accepted,
		Strategy: StrategyClassifier,
		// Exhausted only when external strategies existed and none answered.
		Exhausted:  len(r.chain) > 0,
		ObservedAt: time.Now().Unix(),
	}
}

func outcomeLabel(accepted bool) string {
	if accepted {
		return "affirmative"
	}
	return "negative"
}
