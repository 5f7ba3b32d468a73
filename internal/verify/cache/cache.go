// Package cache memoizes handle verdicts. Verdicts are treated as effectively
// permanent within a process lifetime, so the default store is a plain map
// with last-writer-wins semantics and no expiry.
package cache

import (
	"context"
	"sync"
)

// Verdict is the cached resolution for one normalized handle.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Strategy string `json:"strategy"`
	// Exhausted marks verdicts reached only after every external strategy
	// was inconclusive; the admission layer reports those differently.
	Exhausted  bool  `json:"exhausted"`
	ObservedAt int64 `json:"observed_at"`
}

// Store is the verdict cache consumed by the resolver. Implementations must
// be safe for concurrent use; staleness is acceptable.
type Store interface {
	Get(ctx context.Context, handle string) (Verdict, bool)
	Put(ctx context.Context, handle string, v Verdict)
}

// InMemory is the process-lifetime verdict cache. Created at startup, never
// persisted, rebuilt empty on restart.
type InMemory struct {
	mu       sync.RWMutex
	verdicts map[string]Verdict
}

func NewInMemory() *InMemory {
	return &InMemory{verdicts: make(map[string]Verdict)}
}

func (c *InMemory) Get(_ context.Context, handle string) (Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.verdicts[handle]
	return v, ok
}

func (c *InMemory) Put(_ context.Context, handle string, v Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[handle] = v
}
