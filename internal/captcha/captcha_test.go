package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pinmap/pkg/domain-errors"
)

func TestVerify_MissingTokenFailsWithoutNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Verify(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeCaptcha, dErrors.CodeOf(err))
	assert.False(t, called, "missing token must not reach the challenge service")
}

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.Form.Get("secret"))
		assert.Equal(t, "tok", r.Form.Get("response"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret", time.Second)
	assert.NoError(t, c.Verify(context.Background(), "tok"))
}

func TestVerify_RejectedWithReasonCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     false,
			"error-codes": []string{"invalid-input-response"},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Verify(context.Background(), "tok")

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeCaptcha, dErrors.CodeOf(err))
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerify_ServiceFailureRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Verify(context.Background(), "tok")

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeCaptcha, dErrors.CodeOf(err))
}
