// Package service implements the registration admission controller: the
// ordered sequence of checks that decides whether a registration request
// becomes a stored account exactly once.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pinmap/internal/platform/metrics"
	"pinmap/internal/registration/models"
	"pinmap/internal/registration/store"
	"pinmap/internal/verify"
	"pinmap/internal/verify/cache"
	dErrors "pinmap/pkg/domain-errors"
	"pinmap/pkg/platform/audit"
	"pinmap/pkg/platform/sentinel"
)

// CaptchaVerifier is the human-proof gate.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

// HandleResolver runs the verification strategy chain.
type HandleResolver interface {
	Resolve(ctx context.Context, raw string) (cache.Verdict, error)
}

// AccountStore is the persistence surface the controller needs; see
// internal/registration/store for the contract.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByNickname(ctx context.Context, nickname string) (*models.Account, error)
	FindByHandle(ctx context.Context, handle string) (*models.Account, error)
	FindByOriginAddress(ctx context.Context, addr string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

const maxNicknameLen = 20

// Service sequences captcha validation, handle verification, uniqueness
// checks and the single insert.
type Service struct {
	accounts AccountStore
	captcha  CaptchaVerifier
	handles  HandleResolver

	// requireHandle makes a missing handle a validation error instead of
	// skipping verification.
	requireHandle bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithRequiredHandle() Option {
	return func(s *Service) {
		s.requireHandle = true
	}
}

func New(accounts AccountStore, captcha CaptchaVerifier, handles HandleResolver, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		captcha:  captcha,
		handles:  handles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every stored pin.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list accounts", err)
	}
	return accounts, nil
}

// Admit runs the admission pipeline. The first failing check short-circuits
// the whole request; every rejection returns before any write occurs. The
// one exception is the insert race, where the store's unique constraint
// picks the winner and the loser's violation is remapped to the matching
// duplicate error.
func (s *Service) Admit(ctx context.Context, req models.RegistrationRequest) (*models.Account, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.AdmissionDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if err := validate(req); err != nil {
		return nil, s.reject(err)
	}

	if err := s.captcha.Verify(ctx, req.CaptchaToken); err != nil {
		return nil, s.reject(err)
	}

	handle := verify.Normalize(req.Handle)
	if handle == "" && s.requireHandle {
		return nil, s.reject(dErrors.New(dErrors.CodeValidation, "handle is required"))
	}

	var strategy string
	if handle != "" {
		verdict, err := s.handles.Resolve(ctx, handle)
		if err != nil {
			return nil, s.reject(dErrors.Wrap(dErrors.CodeValidation, "invalid handle", err))
		}
		if !verdict.Accepted {
			code := dErrors.CodeUnverifiedHandle
			if verdict.Strategy == verify.StrategyClassifier && verdict.Exhausted {
				code = dErrors.CodeUpstreamUnavailable
			}
			return nil, s.reject(dErrors.New(code, "handle could not be verified"))
		}
		strategy = verdict.Strategy
	}

	// Advisory pre-checks. Origin uniqueness has no storage constraint, so
	// this lookup is the only enforcement and carries a known race window.
	if req.OriginAddress != "" {
		if err := s.checkAbsent(ctx, s.accounts.FindByOriginAddress, req.OriginAddress,
			dErrors.CodeDuplicateOrigin, "address already registered a pin"); err != nil {
			return nil, s.reject(err)
		}
	}
	if err := s.checkAbsent(ctx, s.accounts.FindByNickname, req.Nickname,
		dErrors.CodeDuplicateNickname, "nickname already taken"); err != nil {
		return nil, s.reject(err)
	}
	if handle != "" {
		if err := s.checkAbsent(ctx, s.accounts.FindByHandle, handle,
			dErrors.CodeDuplicateHandle, "handle already claimed"); err != nil {
			return nil, s.reject(err)
		}
	}

	account := &models.Account{
		ID:            uuid.New(),
		Nickname:      req.Nickname,
		Handle:        handle,
		OriginAddress: req.OriginAddress,
		Country:       req.Country,
		Lat:           req.Lat,
		Lng:           req.Lng,
		AvatarRef:     req.AvatarRef,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, store.ErrNicknameTaken):
			return nil, s.reject(dErrors.New(dErrors.CodeDuplicateNickname, "nickname already taken"))
		case errors.Is(err, store.ErrHandleTaken):
			return nil, s.reject(dErrors.New(dErrors.CodeDuplicateHandle, "handle already claimed"))
		default:
			return nil, s.reject(dErrors.Wrap(dErrors.CodeInternal, "store account", err))
		}
	}

	if s.metrics != nil {
		s.metrics.RegistrationsAdmitted.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "registration admitted",
			"account_id", account.ID,
			"nickname", account.Nickname,
			"handle", account.Handle,
			"strategy", strategy,
		)
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionAccountAdmitted,
		AccountID: account.ID.String(),
		Nickname:  account.Nickname,
		Handle:    account.Handle,
		Strategy:  strategy,
		Country:   account.Country,
	})

	return account, nil
}

// checkAbsent rejects with the given code when a record matching key exists.
func (s *Service) checkAbsent(
	ctx context.Context,
	find func(context.Context, string) (*models.Account, error),
	key string,
	code dErrors.Code,
	msg string,
) error {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return dErrors.New(code, msg)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "uniqueness pre-check", err)
	}
}

func (s *Service) reject(err error) error {
	if s.metrics != nil {
		s.metrics.IncRejected(string(dErrors.CodeOf(err)))
	}
	return err
}

func validate(req models.RegistrationRequest) error {
	if req.Nickname == "" || len(req.Nickname) > maxNicknameLen {
		return dErrors.New(dErrors.CodeValidation, "nickname must be 1-20 characters")
	}
	if req.Country == "" {
		return dErrors.New(dErrors.CodeValidation, "country is required")
	}
	if req.Lat < -90 || req.Lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude out of range")
	}
	if req.Lng < -180 || req.Lng > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude out of range")
	}
	return nil
}
