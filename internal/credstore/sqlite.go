package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/internal/db"
	"github.com/parleyweb/parley/internal/logutil"
	"github.com/parleyweb/parley/pkg/models"
	"github.com/parleyweb/parley/pkg/models/passwd"
)

type sqliteCredStore struct {
	db             *sql.DB
	log            *slog.Logger
	minPasswordLen int
}

func (s *sqliteCredStore) Ping() error {
	return s.db.Ping()
}

func (s *sqliteCredStore) CreateUser(ctx context.Context, args models.CreateUserParams) (*models.User, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "CreateUser")()
	errMsg := "failed to create user"

	email, err := normalizeEmail(args.Email)
	if err != nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg, err)
	}

	if err := s.checkPasswordPolicy(args.Password); err != nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg, err)
	}

	hash, err := passwd.HashPassword(args.Password)
	if err != nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewWeakCredentialError(err.Error()),
		)
	}

	// Check for context cancellation/deadline before the write. The insert
	// itself is a single statement, so a disconnect mid-request either
	// commits the whole row or nothing.
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during user creation", "error", ctx.Err())
		return nil, ctx.Err()
	default:
	}

	user := models.User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	user.UpdatedAt = user.CreatedAt
	user.PasswordHash = hash

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.PasswordHash,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		if dup, dupErr := db.WrapIfDuplicateConstraint(err); dup {
			return nil, logutil.DebugAndWrapErr(s.log, errMsg,
				models.NewDuplicateEmailError(dupErr))
		}
		return nil, logutil.LogAndWrapErr(s.log, errMsg,
			models.NewStoreUnavailableError(err))
	}

	return &user, nil
}

func (s *sqliteCredStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "GetUserByEmail")()
	errMsg := "failed to get user by email"

	normalized, err := normalizeEmail(email)
	if err != nil {
		// A malformed email can never match a stored row.
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`, normalized)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewStoreUnavailableError(err),
		)
	}
	return user, nil
}

func (s *sqliteCredStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "GetUserByID", "ID", id.String())()
	errMsg := "failed to get user by id"

	if id == uuid.Nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewValidationError("id not set"),
		)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`, id.String())

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewStoreUnavailableError(err),
		)
	}
	return user, nil
}

func (s *sqliteCredStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "CheckEmailExists")()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, nil
	}

	var i int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ?`, normalized).Scan(&i)
	if err != nil {
		return false, models.NewStoreUnavailableError(err)
	}
	return i != 0, nil
}

func (s *sqliteCredStore) checkPasswordPolicy(password string) error {
	if len(password) < s.minPasswordLen {
		return models.NewWeakCredentialError(
			fmt.Sprintf("password must be at least %d characters", s.minPasswordLen))
	}
	if len(password) > passwd.MaxPasswordLen {
		return models.NewWeakCredentialError(
			fmt.Sprintf("password must be at most %d bytes", passwd.MaxPasswordLen))
	}
	return nil
}

// normalizeEmail lower-cases and trims the address so lookups and the
// unique index agree on a canonical form.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.NewValidationError("email not set")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return "", models.NewValidationError("email is malformed")
	}
	return email, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		id        string
		user      models.User
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &user.Email, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	user.ID = parsed
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}
