package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes provider failures for logging and metrics.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned a payload we could not
	// interpret.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorRateLimited indicates the provider throttled us.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorOutage indicates the provider is unreachable or answering 5xx.
	ErrorOutage ErrorCategory = "provider_outage"

	// ErrorInternal indicates an unexpected local failure.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps a lookup failure with its normalized category. All
// ProviderErrors map to an Inconclusive outcome; the category only shapes
// logs and metrics.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Underlying }

// NewProviderError creates a normalized provider error.
func NewProviderError(category ErrorCategory, provider, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from an error.
func CategoryOf(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
