package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/internal/logutil"
	"github.com/parleyweb/parley/pkg/models"
)

type sqliteSessionStore struct {
	*baseSessionStore
	db *sql.DB
}

const (
	defaultTokenLength    = 32 // bytes of entropy, 256 bits
	sqliteCleanupInterval = time.Minute
)

// NewSqlite returns a durable sqlite-backed session store with the given
// TTL and starts its cleanup worker.
func NewSqlite(logger *slog.Logger, db *sql.DB, ttl time.Duration) *sqliteSessionStore {
	s := &sqliteSessionStore{
		baseSessionStore: newBase(logger, defaultTokenLength, ttl),
		db:               db,
	}
	s.startCleanupWorker(s, sqliteCleanupInterval)
	return s
}

func (s *sqliteSessionStore) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "create session")()

	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session creation", "error", ctx.Err())
		return nil, ctx.Err()
	default:
	}

	sesh, err := s.newSession(userID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at, revoked_at)
		 VALUES (?, ?, ?, ?, NULL)`,
		sesh.Token, sesh.UserID.String(), sesh.CreatedAt.Unix(), sesh.ExpiresAt.Unix(),
	)
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewStoreUnavailableError(err))
	}

	return sesh, nil
}

func (s *sqliteSessionStore) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "validate session")()

	if token == "" {
		return uuid.Nil, models.ErrSessionInvalid
	}

	var (
		userID    string
		expiresAt int64
		revokedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM sessions WHERE token = ?`, token,
	).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, models.ErrSessionInvalid
		}
		return uuid.Nil, logutil.DebugAndWrapErr(s.log, "failed to validate session",
			models.NewStoreUnavailableError(err))
	}

	// Lazy expiry: a revoked or past-expiry row is treated exactly like a
	// row that never existed.
	if revokedAt.Valid || time.Now().Unix() >= expiresAt {
		return uuid.Nil, models.ErrSessionInvalid
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, models.ErrSessionInvalid
	}
	return id, nil
}

func (s *sqliteSessionStore) Revoke(ctx context.Context, token string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "revoke session")()

	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session revoke", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	// Tombstone rather than delete: the row stays until cleanup so a
	// revoke racing a validate converges on revoked, and a revoked token
	// can never be resurrected. Unknown tokens match zero rows, which is
	// the idempotent no-op the contract asks for.
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		time.Now().Unix(), token,
	)
	if err != nil {
		return logutil.DebugAndWrapErr(s.log, "failed to revoke session",
			models.NewStoreUnavailableError(err))
	}
	return nil
}

func (s *sqliteSessionStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "revoke user sessions", "user id", userID)()

	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session revoke", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().Unix(), userID.String(),
	)
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}
	return nil
}

func (s *sqliteSessionStore) CleanupExpired(ctx context.Context) error {
	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session cleanup", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL`,
		time.Now().Unix(),
	)
	return err
}
