package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinmap/internal/registration/models"
	dErrors "pinmap/pkg/domain-errors"
)

type stubService struct {
	admitted models.RegistrationRequest
	account  *models.Account
	admitErr error
	list     []models.Account
	listErr  error
}

func (s *stubService) Admit(_ context.Context, req models.RegistrationRequest) (*models.Account, error) {
	s.admitted = req
	if s.admitErr != nil {
		return nil, s.admitErr
	}
	return s.account, nil
}

func (s *stubService) List(context.Context) ([]models.Account, error) {
	return s.list, s.listErr
}

func newRouter(svc Service) chi.Router {
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func createBody(t *testing.T, mutate func(m map[string]any)) *bytes.Reader {
	t.Helper()
	m := map[string]any{
		"nickname":     "wanderer",
		"handle":       "@Alice",
		"country":      "NL",
		"lat":          52.37,
		"lng":          4.89,
		"captchaToken": "tok",
	}
	if mutate != nil {
		mutate(m)
	}
	body, err := json.Marshal(m)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestHandleCreate_Success(t *testing.T) {
	svc := &stubService{account: &models.Account{
		ID:            uuid.New(),
		Nickname:      "wanderer",
		Handle:        "alice",
		OriginAddress: "203.0.113.7",
		Country:       "NL",
		Lat:           52.37,
		Lng:           4.89,
		CreatedAt:     time.Now().UTC(),
	}}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users", createBody(t, nil))
	req.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "wanderer", got["nickname"])
	assert.Equal(t, "alice", got["handle"])
	assert.NotContains(t, got, "originAddress", "origin address must not be exposed")

	assert.Equal(t, "203.0.113.7", svc.admitted.OriginAddress)
	assert.Equal(t, "@Alice", svc.admitted.Handle)
	assert.Equal(t, "tok", svc.admitted.CaptchaToken)
}

func TestHandleCreate_ForwardedForWins(t *testing.T) {
	svc := &stubService{account: &models.Account{ID: uuid.New()}}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users", createBody(t, nil))
	req.RemoteAddr = "10.0.0.1:40000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "198.51.100.9", svc.admitted.OriginAddress)
}

func TestHandleCreate_ShapeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"missing nickname", func(m map[string]any) { delete(m, "nickname") }},
		{"nickname too long", func(m map[string]any) { m["nickname"] = "abcdefghijklmnopqrstu" }},
		{"missing country", func(m map[string]any) { delete(m, "country") }},
		{"missing lat", func(m map[string]any) { delete(m, "lat") }},
		{"missing lng", func(m map[string]any) { delete(m, "lng") }},
		{"lat out of range", func(m map[string]any) { m["lat"] = 123.4 }},
		{"avatar not a url", func(m map[string]any) { m["avatar"] = "not a url" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{}
			r := newRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/users", createBody(t, tc.mutate))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "validation_error", body["error"])
			assert.Empty(t, svc.admitted.Nickname, "service must not be reached")
		})
	}
}

func TestHandleCreate_MalformedJSON(t *testing.T) {
	r := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreate_ErrorEnvelope(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate nickname", dErrors.New(dErrors.CodeDuplicateNickname, "nickname already taken"), http.StatusConflict, "duplicate_nickname"},
		{"captcha rejected", dErrors.New(dErrors.CodeCaptcha, "captcha rejected"), http.StatusForbidden, "captcha_error"},
		{"unverified handle", dErrors.New(dErrors.CodeUnverifiedHandle, "handle could not be verified"), http.StatusUnprocessableEntity, "unverified_handle"},
		{"upstream unavailable", dErrors.New(dErrors.CodeUpstreamUnavailable, "handle could not be verified"), http.StatusUnprocessableEntity, "upstream_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&stubService{admitErr: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/users", createBody(t, nil))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body["error"])
		})
	}
}

func TestHandleList(t *testing.T) {
	t.Run("returns stored pins", func(t *testing.T) {
		svc := &stubService{list: []models.Account{
			{ID: uuid.New(), Nickname: "first", Country: "NL"},
			{ID: uuid.New(), Nickname: "second", Country: "DE"},
		}}
		r := newRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var got []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0]["nickname"])
	})

	t.Run("empty store returns empty array", func(t *testing.T) {
		r := newRouter(&stubService{})

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}
