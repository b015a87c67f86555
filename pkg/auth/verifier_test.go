package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyweb/parley/pkg/models"
	"github.com/parleyweb/parley/pkg/models/passwd"
)

type fakeCredSource struct {
	users map[string]*models.User
	err   error
}

func (f *fakeCredSource) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[email], nil
}

func newVerifierWithUser(t *testing.T, email, password string) (*Verifier, uuid.UUID) {
	t.Helper()

	hash, err := passwd.HashPassword(password)
	require.NoError(t, err)

	id := uuid.New()
	creds := &fakeCredSource{users: map[string]*models.User{
		email: {ID: id, Email: email, PasswordHash: hash},
	}}
	return NewVerifier(slog.New(slog.DiscardHandler), creds), id
}

func TestVerify_Success(t *testing.T) {
	v, id := newVerifierWithUser(t, "a@x.com", "longpw123")

	got, err := v.Verify(context.Background(), "a@x.com", "longpw123")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_WrongPassword(t *testing.T) {
	v, _ := newVerifierWithUser(t, "a@x.com", "longpw123")

	got, err := v.Verify(context.Background(), "a@x.com", "wrong")
	assert.Equal(t, uuid.Nil, got)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestVerify_UnknownEmail(t *testing.T) {
	v, _ := newVerifierWithUser(t, "a@x.com", "longpw123")

	got, err := v.Verify(context.Background(), "nobody@x.com", "longpw123")
	assert.Equal(t, uuid.Nil, got)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestVerify_SingleErrorKind(t *testing.T) {
	// Wrong password and unknown email must be the same error value, so
	// no caller can distinguish them.
	v, _ := newVerifierWithUser(t, "a@x.com", "longpw123")

	_, errWrongPw := v.Verify(context.Background(), "a@x.com", "wrong")
	_, errUnknown := v.Verify(context.Background(), "nobody@x.com", "wrong")

	assert.Equal(t, errWrongPw, errUnknown)
}

func TestVerify_StoreErrorPropagates(t *testing.T) {
	cause := models.NewStoreUnavailableError(errors.New("database is locked"))
	v := NewVerifier(slog.New(slog.DiscardHandler), &fakeCredSource{err: cause})

	_, err := v.Verify(context.Background(), "a@x.com", "longpw123")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, models.ErrInvalidCredentials)
}
