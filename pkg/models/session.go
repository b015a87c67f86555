package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents the data stored for a single user session.
// A session moves through Active -> (Expired | Revoked); both end states
// are terminal and indistinguishable to callers of Validate.
type Session struct {
	Token     string     // Opaque unguessable identifier, also the cookie value
	UserID    uuid.UUID  // ID of the user associated with this session
	CreatedAt time.Time  // When the session was created
	ExpiresAt time.Time  // When the session becomes invalid
	RevokedAt *time.Time // Set when the session was explicitly revoked
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Revoked reports whether the session was explicitly revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Valid reports whether the session is active at the given time.
func (s *Session) Valid(now time.Time) bool {
	return !s.Revoked() && !s.Expired(now)
}
