package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/parleyweb/parley/internal/logutil"
)

type sqliteTokenStore struct {
	*baseTokenStore
	db *sql.DB
}

func NewSqlite(logger *slog.Logger, signingSecret string, accessTTL, refreshTTL time.Duration, db *sql.DB) *sqliteTokenStore {
	return &sqliteTokenStore{
		baseTokenStore: NewBase(logger, signingSecret, accessTTL, refreshTTL),
		db:             db,
	}
}

// ParseToken validates and parses a JWT string, returning the payload if valid.
func (t *sqliteTokenStore) ParseToken(ctx context.Context, tokenStr string) (*TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TokenPayload{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(t.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	payload, ok := token.Claims.(*TokenPayload)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return payload, nil
}

// ValidateAccessToken parses an access token and rejects refresh tokens
// and revoked tokens, returning the bearer's user id.
func (t *sqliteTokenStore) ValidateAccessToken(ctx context.Context, tokenStr string) (uuid.UUID, error) {
	payload, err := t.ParseToken(ctx, tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	if payload.TokenType != TokenTypeAccess {
		return uuid.Nil, ErrInvalidToken
	}

	revoked, err := t.IsRevoked(ctx, payload)
	if err != nil {
		return uuid.Nil, err
	}
	if revoked {
		return uuid.Nil, ErrTokenRevoked
	}

	userID := payload.UserID()
	if userID == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// IsRevoked checks if the token payload has been revoked.
func (t *sqliteTokenStore) IsRevoked(ctx context.Context, tokenPayload *TokenPayload) (bool, error) {
	defer logutil.NewTimingLogger(t.log, time.Now(), "executed sql query", "method", "is token revoked")()

	var exists int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE id = ?`, tokenPayload.ID,
	).Scan(&exists)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists > 0, err
}

// RevokeToken marks a token as revoked. Rows carry the original expiry so
// a sweeper can eventually drop entries that no live token could match.
func (t *sqliteTokenStore) RevokeToken(ctx context.Context, token *TokenPayload) error {
	defer logutil.NewTimingLogger(t.log, time.Now(), "executed sql query", "method", "revoke token")()

	_, err := t.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (id, user_id, original_expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		token.ID, token.Subject, token.ExpiresAt.Unix(),
	)
	return err
}

// RotateRefreshToken is the public-facing method. It calls the generic
// algorithm from the embedded baseTokenStore, passing itself as the
// implementation for the state checking.
func (t *sqliteTokenStore) RotateRefreshToken(ctx context.Context, oldTokenStr string) (*TokenPair, error) {
	return t.baseTokenStore.rotateRefreshToken(ctx, t, oldTokenStr)
}
