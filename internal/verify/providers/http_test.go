package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_StatusClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		want    Outcome
		wantErr bool
	}{
		{"ok is affirmative", http.StatusOK, Affirmative, false},
		{"not found is authoritative negative", http.StatusNotFound, Negative, false},
		{"gone is authoritative negative", http.StatusGone, Negative, false},
		{"rate limited is inconclusive", http.StatusTooManyRequests, Inconclusive, true},
		{"server error is inconclusive", http.StatusInternalServerError, Inconclusive, true},
		{"auth error is inconclusive", http.StatusUnauthorized, Inconclusive, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newStatusServer(t, tc.status)
			p := NewHTTPProvider("primary", srv.URL+"/users/%s", time.Second)

			got, err := p.Lookup(context.Background(), "alice")
			assert.Equal(t, tc.want, got)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPProvider_TimeoutIsInconclusive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	p := NewHTTPProvider("slow", srv.URL+"/%s", 20*time.Millisecond)
	got, err := p.Lookup(context.Background(), "alice")

	assert.Equal(t, Inconclusive, got)
	require.Error(t, err)
	assert.Equal(t, ErrorTimeout, CategoryOf(err))
}

func TestHTTPProvider_UnreachableIsInconclusive(t *testing.T) {
	srv := newStatusServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	p := NewHTTPProvider("dead", url+"/%s", time.Second)
	got, err := p.Lookup(context.Background(), "alice")

	assert.Equal(t, Inconclusive, got)
	assert.Error(t, err)
}
