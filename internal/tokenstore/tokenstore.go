// Package tokenstore issues and validates the JWT pairs used by the API
// surface. Browser traffic uses opaque session cookies instead, see
// the sessionstore package.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/parleyweb/parley/internal/logutil"
	"github.com/parleyweb/parley/pkg/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

type baseTokenStore struct {
	log        *slog.Logger
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewBase(logger *slog.Logger, signingSecret string, accessTTL, refreshTTL time.Duration) *baseTokenStore {
	return &baseTokenStore{
		log:        logger,
		jwtSecret:  signingSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type TokenPayload struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim as a uuid, or uuid.Nil if it does not
// parse.
func (p *TokenPayload) UserID() uuid.UUID {
	id, err := uuid.Parse(p.Subject)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// TokenPair is what a successful API login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenStateChecker defines the methods the base rotation algorithm needs
// from its parent store. It's unexported because it's an internal
// implementation detail.
type tokenStateChecker interface {
	ParseToken(ctx context.Context, tokenStr string) (*TokenPayload, error)
	IsRevoked(ctx context.Context, tokenPayload *TokenPayload) (bool, error)
	RevokeToken(ctx context.Context, token *TokenPayload) error
}

func (t *baseTokenStore) signedToken(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	payload := TokenPayload{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID.String(),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString([]byte(t.jwtSecret))
}

// IssuePair generates a signed access/refresh token pair for the given user.
func (t *baseTokenStore) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := t.signedToken(user.ID, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.log, "failed to sign access token", err)
	}
	refresh, err := t.signedToken(user.ID, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.log, "failed to sign refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// rotateRefreshToken provides the generic algorithm for exchanging a
// refresh token for a fresh pair. It uses the provided checker to handle
// stateful operations (parsing, revoking). The old refresh token is
// revoked before the new pair is signed, so a stolen token can be used at
// most once.
func (t *baseTokenStore) rotateRefreshToken(ctx context.Context, checker tokenStateChecker, oldTokenStr string) (*TokenPair, error) {
	payload, err := checker.ParseToken(ctx, oldTokenStr)
	if err != nil {
		return nil, fmt.Errorf("could not parse token for refresh: %w", err)
	}

	if payload.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	revoked, err := checker.IsRevoked(ctx, payload)
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.log, "failed to check token revocation", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if err := checker.RevokeToken(ctx, payload); err != nil {
		return nil, logutil.LogAndWrapErr(t.log, "could not revoke old token", err)
	}

	userID := payload.UserID()
	if userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	access, err := t.signedToken(userID, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.signedToken(userID, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

type TokenStore interface {
	// Generate a new access/refresh JWT pair for a user
	IssuePair(user *models.User) (*TokenPair, error)

	// ParseToken validates and parses a JWT string, returning the payload
	// if the signature and expiry check out. Does not check revocation.
	ParseToken(ctx context.Context, tokenStr string) (*TokenPayload, error)

	// ValidateAccessToken parses an access token and checks it has not
	// been revoked, returning the bearer's user id.
	ValidateAccessToken(ctx context.Context, tokenStr string) (uuid.UUID, error)

	// Revoke a token before expiry
	RevokeToken(ctx context.Context, token *TokenPayload) error

	// Check if a token payload has been revoked
	IsRevoked(ctx context.Context, tokenPayload *TokenPayload) (bool, error)

	// Exchange a refresh token for a new pair, revoking the old one
	RotateRefreshToken(ctx context.Context, oldTokenStr string) (*TokenPair, error)
}
