// Package credstore is the persistence boundary for user identity and
// hashed credentials.
package credstore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/pkg/models"
)

// Store defines a unified interface for interacting with the user
// credential datastore. It abstracts storage-specific implementations
// behind consistent, well-documented operations used by services.
//
// All methods must return meaningful error types as defined in the models
// package, including DuplicateEmailError, WeakCredentialError,
// ValidationError and StoreUnavailableError.
type Store interface {
	// Ping verifies the underlying datastore is reachable.
	Ping() error

	// CreateUser inserts a new user after checking the password policy and
	// deriving a salted bcrypt hash. The write is a single atomic insert;
	// the unique email index is enforced by the storage layer so two
	// concurrent registrations with the same email cannot both succeed.
	// Returns DuplicateEmailError or WeakCredentialError on policy failures.
	CreateUser(ctx context.Context, args models.CreateUserParams) (*models.User, error)

	// GetUserByEmail retrieves a user by email.
	// If no user is found, returns (nil, nil). Otherwise returns a pointer to the user.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by their UUID.
	// Returns a StoreUnavailableError if the query fails.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// CheckEmailExists returns true if a user with the specified email
	// exists in the datastore.
	CheckEmailExists(ctx context.Context, email string) (bool, error)
}

// NewSqlite returns a Store backed by the provided sqlite database.
// minPasswordLen is the minimum accepted password length; anything
// shorter fails registration with a WeakCredentialError.
func NewSqlite(db *sql.DB, logger *slog.Logger, minPasswordLen int) *sqliteCredStore {
	return &sqliteCredStore{
		db:             db,
		log:            logger,
		minPasswordLen: minPasswordLen,
	}
}
