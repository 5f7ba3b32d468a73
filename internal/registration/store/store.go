// Package store persists accounts. Two implementations ship: an in-memory
// store for tests and single-node use, and a PostgreSQL store whose unique
// indexes are the serialization point for racing registrations.
package store

import (
	"context"
	"fmt"

	"pinmap/internal/registration/models"
	"pinmap/pkg/platform/sentinel"
)

// Conflict errors name the field whose uniqueness constraint fired. Both
// wrap sentinel.ErrConflict so callers can match generically.
var (
	ErrNicknameTaken = fmt.Errorf("nickname taken: %w", sentinel.ErrConflict)
	ErrHandleTaken   = fmt.Errorf("handle taken: %w", sentinel.ErrConflict)
)

// AccountStore is the document-store surface the admission pipeline needs.
// Find methods return sentinel.ErrNotFound when no record matches. Create
// must enforce nickname uniqueness and sparse handle uniqueness atomically —
// the pre-checks in the service are advisory only.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByNickname(ctx context.Context, nickname string) (*models.Account, error)
	FindByHandle(ctx context.Context, handle string) (*models.Account, error)
	FindByOriginAddress(ctx context.Context, addr string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}
