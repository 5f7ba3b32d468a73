// Package providers defines the external handle-lookup strategies the
// verification chain iterates over. Each provider answers one question — does
// this handle exist — and classifies every possible failure as inconclusive
// so the chain can move on.
package providers

import "context"

// Outcome is a provider's answer for one handle.
type Outcome int

const (
	// Inconclusive covers timeouts, transport errors, rate limiting and
	// unexpected response shapes. The chain tries the next strategy.
	Inconclusive Outcome = iota

	// Affirmative means the provider confirmed the handle exists.
	Affirmative

	// Negative means the provider explicitly reported not-found. This is
	// authoritative and short-circuits the chain.
	Negative
)

func (o Outcome) String() string {
	switch o {
	case Affirmative:
		return "affirmative"
	case Negative:
		return "negative"
	default:
		return "inconclusive"
	}
}

// Provider is one strategy for confirming a handle's existence.
type Provider interface {
	// Name identifies the strategy in verdicts, logs and metrics.
	Name() string

	// Lookup resolves the handle. The error is diagnostic only: callers
	// treat any non-nil error as Inconclusive and never propagate it.
	Lookup(ctx context.Context, handle string) (Outcome, error)
}
