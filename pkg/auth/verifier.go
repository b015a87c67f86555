// Package auth verifies submitted credentials against the credential store.
package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/pkg/models"
	"github.com/parleyweb/parley/pkg/models/passwd"
)

// CredentialSource is the subset of the credential store the verifier
// needs: a single read-only lookup.
type CredentialSource interface {
	// GetUserByEmail returns (nil, nil) when the email is unknown.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Verifier validates email/password pairs. Its single failure mode for
// bad credentials is models.ErrInvalidCredentials: callers can never tell
// an unknown email from a wrong password, and the unknown-email path
// burns a dummy bcrypt comparison so the timing profile matches too.
type Verifier struct {
	creds CredentialSource
	log   *slog.Logger
}

// NewVerifier creates a verifier backed by the given credential source.
func NewVerifier(logger *slog.Logger, creds CredentialSource) *Verifier {
	return &Verifier{
		creds: creds,
		log:   logger,
	}
}

// Verify returns the user's id when the email/password pair is valid.
// Store failures propagate unchanged; every credential failure is
// models.ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, email, password string) (uuid.UUID, error) {
	user, err := v.creds.GetUserByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}

	if user == nil {
		// Equalize latency with the wrong-password path.
		passwd.CompareDummy(password)
		return uuid.Nil, models.ErrInvalidCredentials
	}

	if !passwd.Authenticate(password, user.PasswordHash) {
		return uuid.Nil, models.ErrInvalidCredentials
	}

	return user.ID, nil
}
