package sessionstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/internal/logutil"
	"github.com/parleyweb/parley/pkg/models"
)

type baseSessionStore struct {
	log         *slog.Logger
	tokenLength int           // number of bytes used when generating tokens
	ttl         time.Duration // amount of time sessions are active for
	stopCh      chan struct{} // channel used to stop the cleanup of expired sessions
	stopOnce    sync.Once
}

func newBase(logger *slog.Logger, tokenLength int, ttl time.Duration) *baseSessionStore {
	return &baseSessionStore{
		log:         logger,
		tokenLength: tokenLength,
		ttl:         ttl,
		stopCh:      make(chan struct{}),
	}
}

// Close stops the cleanup worker. Safe to call more than once.
func (s *baseSessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *baseSessionStore) ExpireCookie(c *http.Cookie, w http.ResponseWriter) {
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// newSession generates a models.Session for the given user. The token
// carries tokenLength random bytes (32 by default, 256 bits of entropy)
// hex encoded. Returns a wrapped error if generating the token fails.
func (s *baseSessionStore) newSession(userID uuid.UUID) (*models.Session, error) {
	now := time.Now()

	token, err := generateSecureToken(s.tokenLength)
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to generate secure token", err)
	}

	return &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// helper to generate secure token of a given length
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// expirable is implemented by session stores that support automatic
// cleanup of expired sessions. It allows the baseSessionStore to initiate
// cleanup logic without knowing how each store handles it.
type expirable interface {
	CleanupExpired(ctx context.Context) error
}

// startCleanupWorker starts a goroutine that periodically cleans up expired sessions.
// The interval specifies how often the cleanup should run.
func (s *baseSessionStore) startCleanupWorker(exp expirable, interval time.Duration) {
	s.log.Debug("starting session cleanup worker", "interval", interval)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop() // Ensure the ticker is stopped when the goroutine exits
		for {
			select {
			case <-ticker.C:
				cleanupCtx, cancel := context.WithTimeout(context.Background(), interval/2) // Give it a max half the interval
				err := exp.CleanupExpired(cleanupCtx)
				if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
					s.log.Error("failed to cleanup sessions", "err", err)
				}
				cancel() // Release resources associated with this context

			case <-s.stopCh:
				s.log.Info("stopping session cleanup worker")
				return // Exit the goroutine
			}
		}
	}()
}
