// Package handler exposes the map-pin registration API over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pinmap/internal/platform/middleware"
	"pinmap/internal/registration/models"
	dErrors "pinmap/pkg/domain-errors"
	"pinmap/pkg/platform/httputil"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Admit(ctx context.Context, req models.RegistrationRequest) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// Handler wires registration endpoints to the admission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registration endpoints. createMiddleware wraps only the
// create route, so rate limiting never throttles reads.
func (h *Handler) Register(r chi.Router, createMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/api/users", h.HandleList)
	r.With(createMiddleware...).Post("/api/users", h.HandleCreate)
}

// HandleCreate handles POST /api/users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request body must be valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.Admit(ctx, models.RegistrationRequest{
		Nickname:      req.Nickname,
		Handle:        req.Handle,
		Country:       req.Country,
		Lat:           *req.Lat,
		Lng:           *req.Lng,
		AvatarRef:     req.Avatar,
		CaptchaToken:  req.CaptchaToken,
		OriginAddress: middleware.ClientIP(r),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"nickname", req.Nickname,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration created",
		"account_id", account.ID,
		"nickname", account.Nickname,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, account)
}

// HandleList handles GET /api/users.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}
