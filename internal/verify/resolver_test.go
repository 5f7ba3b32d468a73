package verify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinmap/internal/verify/cache"
	"pinmap/internal/verify/providers"
)

// scriptedProvider answers with a fixed outcome and counts invocations.
type scriptedProvider struct {
	name    string
	outcome providers.Outcome
	err     error
	delay   time.Duration
	calls   atomic.Int64
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Lookup(ctx context.Context, handle string) (providers.Outcome, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
		}
	}
	return p.outcome, p.err
}

func inconclusive(name string) *scriptedProvider {
	return &scriptedProvider{
		name:    name,
		outcome: providers.Inconclusive,
		err:     errors.New("boom"),
	}
}

func TestResolver_Normalize(t *testing.T) {
	assert.Equal(t, "alice", Normalize("  @Alice "))
	assert.Equal(t, "bob_99", Normalize("Bob_99"))
	assert.Equal(t, "", Normalize("  "))
}

func TestResolver_EmptyHandle(t *testing.T) {
	r := NewResolver(cache.NewInMemory(), nil)
	_, err := r.Resolve(context.Background(), " @ ")
	assert.ErrorIs(t, err, ErrEmptyHandle)
}

func TestResolver_AffirmativeShortCircuits(t *testing.T) {
	first := inconclusive("primary")
	second := &scriptedProvider{name: "secondary", outcome: providers.Affirmative}
	third := &scriptedProvider{name: "mirror", outcome: providers.Affirmative}
	r := NewResolver(cache.NewInMemory(), []providers.Provider{first, second, third})

	v, err := r.Resolve(context.Background(), "@Alice")
	require.NoError(t, err)

	assert.True(t, v.Accepted)
	assert.Equal(t, "secondary", v.Strategy)
	assert.False(t, v.Exhausted)
	assert.EqualValues(t, 1, first.calls.Load())
	assert.EqualValues(t, 1, second.calls.Load())
	assert.EqualValues(t, 0, third.calls.Load(), "later strategies must not run")
}

func TestResolver_AuthoritativeNegativeShortCircuits(t *testing.T) {
	first := &scriptedProvider{name: "primary", outcome: providers.Negative}
	second := &scriptedProvider{name: "secondary", outcome: providers.Affirmative}
	r := NewResolver(cache.NewInMemory(), []providers.Provider{first, second})

	// johnsmith22 would be accepted by the classifier; the provider's
	// explicit not-found must win without consulting anything else.
	v, err := r.Resolve(context.Background(), "johnsmith22")
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.Equal(t, "primary", v.Strategy)
	assert.EqualValues(t, 0, second.calls.Load())
}

func TestResolver_ClassifierFallback(t *testing.T) {
	first := inconclusive("primary")
	second := inconclusive("secondary")
	r := NewResolver(cache.NewInMemory(), []providers.Provider{first, second})

	v, err := r.Resolve(context.Background(), "johnsmith22")
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, StrategyClassifier, v.Strategy)
	assert.True(t, v.Exhausted)

	v, err = r.Resolve(context.Background(), "qwertyui")
	require.NoError(t, err)
	assert.False(t, v.Accepted)
	assert.Equal(t, StrategyClassifier, v.Strategy)
}

func TestResolver_NoProvidersGoesStraightToClassifier(t *testing.T) {
	r := NewResolver(cache.NewInMemory(), nil)

	v, err := r.Resolve(context.Background(), "0xAndrew123")
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, StrategyClassifier, v.Strategy)
	assert.False(t, v.Exhausted, "no external strategy was attempted")
}

func TestResolver_SecondResolveHitsCache(t *testing.T) {
	p := &scriptedProvider{name: "primary", outcome: providers.Affirmative}
	r := NewResolver(cache.NewInMemory(), []providers.Provider{p})

	first, err := r.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "@ALICE")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, p.calls.Load(), "cache hit must not trigger a lookup")
}

func TestResolver_ConcurrentResolutionsCollapse(t *testing.T) {
	p := &scriptedProvider{name: "primary", outcome: providers.Affirmative, delay: 50 * time.Millisecond}
	r := NewResolver(cache.NewInMemory(), []providers.Provider{p})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Resolve(context.Background(), "alice")
			assert.NoError(t, err)
			assert.True(t, v.Accepted)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, p.calls.Load(), "concurrent resolutions must share one lookup")
}
