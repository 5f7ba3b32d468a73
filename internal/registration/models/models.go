// Package models holds the registration domain records.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one claimed map pin. Created exactly once on successful
// admission; this core never mutates or deletes it.
type Account struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	// Handle is the claimed social-network handle, stored normalized
	// (lowercase, no leading @). Empty means the pin was claimed without
	// one; uniqueness is sparse over non-empty values.
	Handle string `json:"handle,omitempty"`
	// OriginAddress is the normalized client network address at
	// registration time. Uniqueness is policy-level only (see store docs).
	OriginAddress string    `json:"-"`
	Country       string    `json:"country"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	AvatarRef     string    `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegistrationRequest is the admission pipeline input. Handle and Avatar are
// optional; everything else is required.
type RegistrationRequest struct {
	Nickname      string
	Handle        string
	Country       string
	Lat           float64
	Lng           float64
	AvatarRef     string
	CaptchaToken  string
	OriginAddress string
}
