// Package captcha gates the admission pipeline behind a human-proof
// challenge. It fails fast on a missing token so no provider or storage
// quota is spent on unverified requests.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "pinmap/pkg/domain-errors"
)

// Verifier validates a client-supplied proof token.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// Client verifies proof tokens against an external challenge-verification
// endpoint (reCAPTCHA-compatible wire shape).
type Client struct {
	verifyURL string
	secret    string
	http      *http.Client
}

// NewClient builds a captcha client. A zero timeout defaults to 10s.
func NewClient(verifyURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		verifyURL: verifyURL,
		secret:    secret,
		http:      &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token and shared secret to the challenge service. Any
// non-success verdict, transport failure or undecodable payload rejects the
// request; there is no retry.
func (c *Client) Verify(ctx context.Context, token string) error {
	if token == "" {
		return dErrors.New(dErrors.CodeCaptcha, "missing captcha token")
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeCaptcha, "captcha verification unavailable", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeCaptcha, "captcha verification unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dErrors.New(dErrors.CodeCaptcha,
			fmt.Sprintf("captcha service answered %d", resp.StatusCode))
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return dErrors.Wrap(dErrors.CodeCaptcha, "captcha verification unreadable", err)
	}
	if !body.Success {
		msg := "captcha rejected"
		if len(body.ErrorCodes) > 0 {
			msg = fmt.Sprintf("captcha rejected: %s", strings.Join(body.ErrorCodes, ", "))
		}
		return dErrors.New(dErrors.CodeCaptcha, msg)
	}
	return nil
}
