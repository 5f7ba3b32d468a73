package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider confirms a handle by fetching its profile resource.
//
// Status classification:
//   - 2xx        => Affirmative (the profile renders)
//   - 404 / 410  => Negative (the provider authoritatively says not found)
//   - 429        => Inconclusive, rate_limited
//   - everything else, malformed URLs, transport errors and timeouts
//     => Inconclusive
type HTTPProvider struct {
	name string
	// urlTemplate receives the normalized handle via fmt.Sprintf.
	urlTemplate string
	client      *http.Client
	timeout     time.Duration
}

// NewHTTPProvider builds a profile-lookup provider. A zero timeout defaults
// to 8s; every lookup is bounded by it regardless of the caller's context.
func NewHTTPProvider(name, urlTemplate string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPProvider{
		name:        name,
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: timeout},
		timeout:     timeout,
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Lookup(ctx context.Context, handle string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf(p.urlTemplate, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Inconclusive, NewProviderError(ErrorBadData, p.name, "build request", err)
	}
	req.Header.Set("User-Agent", "pinmap/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return Inconclusive, NewProviderError(ErrorTimeout, p.name, "lookup timed out", err)
		}
		return Inconclusive, NewProviderError(ErrorOutage, p.name, "lookup failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Affirmative, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return Negative, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Inconclusive, NewProviderError(ErrorRateLimited, p.name, "rate limited", nil)
	default:
		return Inconclusive, NewProviderError(ErrorOutage, p.name,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}
