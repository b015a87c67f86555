// Package services wires the storage backends together behind one struct.
package services

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/parleyweb/parley/database"
	"github.com/parleyweb/parley/internal/config"
	"github.com/parleyweb/parley/internal/credstore"
	"github.com/parleyweb/parley/internal/sessionstore"
	"github.com/parleyweb/parley/internal/tokenstore"
)

type Services struct {
	db       *sql.DB
	logger   *slog.Logger
	Creds    credstore.Store
	Sessions sessionstore.Store
	Tokens   tokenstore.TokenStore
	dbType   DBType
}

type DBType string

const (
	DBTypeSQLite DBType = "sqlite"
)

// New initializes and returns a Services struct with the appropriate
// subcomponents (Creds, Sessions, Tokens) based on the provided
// configuration.
//
// The dbType parameter determines the database backend used for storage,
// and cfg.SessionsInMemory controls whether session storage is in-memory
// or durable.
//
// Params:
//   - db: a live database connection
//   - dbType: the type of database (currently only SQLite) used to
//     determine how to initialize subcomponents like Creds
//   - logger: a slog.Logger pointer instance used for logging
//   - cfg: runtime configuration carrying TTLs, the signing secret and
//     the password policy
//
// Example:
//
//	svc := New(db, DBTypeSQLite, logger, cfg)
func New(db *sql.DB, dbType DBType, logger *slog.Logger, cfg *config.Config) *Services {
	svc := &Services{
		db:     db,
		logger: logger,
		dbType: dbType,
	}

	switch dbType {
	case DBTypeSQLite:
		svc.Creds = credstore.NewSqlite(db, logger, cfg.MinPasswordLength)
		if cfg.SessionsInMemory {
			svc.Sessions = sessionstore.NewInMemory(logger, cfg.SessionTTL)
		} else {
			svc.Sessions = sessionstore.NewSqlite(logger, db, cfg.SessionTTL)
		}
		svc.Tokens = tokenstore.NewSqlite(logger, cfg.SessionSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, db)
	}
	return svc
}

func (s *Services) RunMigrations() error {
	switch s.dbType {
	case DBTypeSQLite:
		return database.RunSqliteMigrations(s.db)
	default:
		return errors.New("unknown database type")
	}
}

// Close stops background workers owned by the services.
func (s *Services) Close() {
	if s.Sessions != nil {
		s.Sessions.Close()
	}
}
