package sessionstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/pkg/models"
)

const inMemoryCleanupInterval = 10 * time.Second

type inMemorySessionStore struct {
	*baseSessionStore
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewInMemory returns a session store held entirely in process memory.
// Sessions do not survive a restart, so this is only suitable for
// development and tests.
func NewInMemory(logger *slog.Logger, ttl time.Duration) *inMemorySessionStore {
	s := &inMemorySessionStore{
		baseSessionStore: newBase(logger, defaultTokenLength, ttl),
		sessions:         make(map[string]*models.Session),
	}
	s.startCleanupWorker(s, inMemoryCleanupInterval)
	return s
}

func (s *inMemorySessionStore) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sesh.Token] = sesh

	return sesh, nil
}

func (s *inMemorySessionStore) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, models.ErrSessionInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sesh, ok := s.sessions[token]
	if !ok || !sesh.Valid(time.Now()) {
		return uuid.Nil, models.ErrSessionInvalid
	}
	return sesh.UserID, nil
}

func (s *inMemorySessionStore) Revoke(ctx context.Context, token string) error {
	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session revoke", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Tombstone the entry instead of deleting it, so the token cannot be
	// resurrected before the cleanup worker removes it.
	sesh, ok := s.sessions[token]
	if !ok || sesh.Revoked() {
		return nil
	}
	now := time.Now()
	sesh.RevokedAt = &now
	return nil
}

func (s *inMemorySessionStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session revoke", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, sesh := range s.sessions {
		if sesh.UserID == userID && !sesh.Revoked() {
			sesh.RevokedAt = &now
		}
	}
	return nil
}

func (s *inMemorySessionStore) CleanupExpired(ctx context.Context) error {
	// Check for context cancellation/deadline early.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session cleanup", "error", ctx.Err())
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, sesh := range s.sessions {
		if sesh.Expired(now) || sesh.Revoked() {
			delete(s.sessions, token)
		}
	}
	return nil
}
