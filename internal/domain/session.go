package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the validated proof of an installed shop: the offline access
// token obtained during the OAuth install handshake, keyed by shop domain.
// Every upstream Admin API call is scoped to exactly one Session.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	Shop        string     `json:"shop"`
	AccessToken string     `json:"-"` // Not exposed in API responses
	Scope       string     `json:"scope"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // nil for offline tokens
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Expired reports whether the session's access token has lapsed.
// Offline tokens carry no expiry and never lapse.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// SessionStore persists offline sessions per shop. Implementations live in
// internal/store; the gate consults the store on every request and never
// caches the outcome.
type SessionStore interface {
	GetByShop(ctx context.Context, shop string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, shop string) error
}
