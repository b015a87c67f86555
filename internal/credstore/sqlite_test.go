package credstore

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyweb/parley/internal/db/dbtest"
	"github.com/parleyweb/parley/pkg/models"
	"github.com/parleyweb/parley/pkg/models/passwd"
)

func newTestStore(t *testing.T) *sqliteCredStore {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return NewSqlite(dbtest.New(t), logger, 8)
}

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, models.CreateUserParams{
		Email:    "a@x.com",
		Password: "longpw123",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "", user.ID.String())

	// The stored credential is a bcrypt digest, never the plaintext.
	assert.NotEqual(t, "longpw123", user.PasswordHash)
	assert.True(t, passwd.CheckPasswordHash("longpw123", user.PasswordHash))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, models.CreateUserParams{Email: "a@x.com", Password: "longpw123"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, models.CreateUserParams{Email: "a@x.com", Password: "otherpw456"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	// Email comparison is case-insensitive at the store boundary.
	_, err = s.CreateUser(ctx, models.CreateUserParams{Email: "A@X.com", Password: "otherpw456"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestCreateUser_WeakCredential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, models.CreateUserParams{Email: "b@x.com", Password: "short"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrWeakCredential)

	// Nothing was persisted for the failed attempt.
	exists, err := s.CheckEmailExists(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateUser_MalformedEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, email := range []string{"", "no-at-sign", "@x.com", "a@"} {
		_, err := s.CreateUser(ctx, models.CreateUserParams{Email: email, Password: "longpw123"})
		assert.ErrorIs(t, err, models.ErrValidation, "email %q", email)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, models.CreateUserParams{Email: "c@x.com", Password: "longpw123"})
	require.NoError(t, err)

	user, err := s.GetUserByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	// Miss is (nil, nil), not an error.
	user, err = s.GetUserByEmail(ctx, "missing@x.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetUserByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, models.CreateUserParams{Email: "d@x.com", Password: "longpw123"})
	require.NoError(t, err)

	user, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "d@x.com", user.Email)
}

func TestConcurrentRegistration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateUser(ctx, models.CreateUserParams{
				Email:    "race@x.com",
				Password: "longpw123",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.ErrorIs(t, err, models.ErrDuplicateEmail)
			duplicates++
		}
	}

	// The unique index in the schema guarantees exactly one winner.
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)
}
