// Package sessionstore manages session lifecycle and storage.
package sessionstore

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/pkg/models"
)

// Store defines the interface for a session store.
//
// A session moves through NonExistent -> Active -> (Expired | Revoked).
// Both end states are terminal: Validate folds them, together with
// never-existed, into models.ErrSessionInvalid so callers cannot tell
// the cases apart.
type Store interface {
	// Create generates and stores a new session for the user, returning
	// the new session model. The token is cryptographically random.
	Create(ctx context.Context, userID uuid.UUID) (*models.Session, error)

	// Validate returns the associated user id if the session exists, is
	// not expired and has not been revoked; otherwise it returns
	// models.ErrSessionInvalid. Expiry is evaluated lazily here, no
	// sweeper is needed for correctness.
	Validate(ctx context.Context, token string) (uuid.UUID, error)

	// Revoke transitions a session to Revoked. It is idempotent: revoking
	// twice, or revoking an unknown token, is a no-op rather than an error.
	Revoke(ctx context.Context, token string) error

	// RevokeUser revokes all sessions associated with a specific user ID.
	// Useful when a user changes password or logs out from all devices.
	RevokeUser(ctx context.Context, userID uuid.UUID) error

	// CleanupExpired removes sessions past their expiry from the store.
	// This is crucial for in-memory stores to prevent memory leaks and
	// runs periodically on the cleanup worker.
	CleanupExpired(ctx context.Context) error

	// Close stops the background cleanup worker.
	Close()

	// ExpireCookie invalidates a session cookie in the client response.
	// Used during logout or session invalidation.
	ExpireCookie(c *http.Cookie, w http.ResponseWriter)
}
