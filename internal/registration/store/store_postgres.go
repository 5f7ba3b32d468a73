package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pinmap/internal/registration/models"
	"pinmap/pkg/platform/sentinel"
)

// Schema carries the unique constraints that make the insert the
// serialization point for racing registrations. The handle index is partial
// so any number of accounts may omit a handle.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id             UUID PRIMARY KEY,
    nickname       TEXT NOT NULL,
    handle         TEXT NOT NULL DEFAULT '',
    origin_address TEXT NOT NULL DEFAULT '',
    country        TEXT NOT NULL,
    lat            DOUBLE PRECISION NOT NULL,
    lng            DOUBLE PRECISION NOT NULL,
    avatar_ref     TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_nickname_key ON accounts (nickname);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_handle_key ON accounts (handle) WHERE handle <> '';
`

const uniqueViolation = "23505"

// Postgres persists accounts in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the accounts table and its unique indexes.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, account *models.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, nickname, handle, origin_address, country, lat, lng, avatar_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.Nickname, account.Handle, account.OriginAddress,
		account.Country, account.Lat, account.Lng, account.AvatarRef, account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "accounts_nickname_key":
				return ErrNicknameTaken
			case "accounts_handle_key":
				return ErrHandleTaken
			}
			return fmt.Errorf("insert account: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByNickname(ctx context.Context, nickname string) (*models.Account, error) {
	return s.findOne(ctx, `nickname = $1`, nickname)
}

func (s *Postgres) FindByHandle(ctx context.Context, handle string) (*models.Account, error) {
	if handle == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `handle = $1`, handle)
}

func (s *Postgres) FindByOriginAddress(ctx context.Context, addr string) (*models.Account, error) {
	if addr == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `origin_address = $1`, addr)
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, nickname, handle, origin_address, country, lat, lng, avatar_ref, created_at
		FROM accounts WHERE `+where+` LIMIT 1`, arg)

	var account models.Account
	err := row.Scan(&account.ID, &account.Nickname, &account.Handle, &account.OriginAddress,
		&account.Country, &account.Lat, &account.Lng, &account.AvatarRef, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (s *Postgres) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nickname, handle, origin_address, country, lat, lng, avatar_ref, created_at
		FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.ID, &account.Nickname, &account.Handle, &account.OriginAddress,
			&account.Country, &account.Lat, &account.Lng, &account.AvatarRef, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, account)
	}
	return out, rows.Err()
}
