// Package dbtest provides a migrated in-memory sqlite database for store tests.
package dbtest

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parleyweb/parley/database"
)

// New opens a fresh in-memory sqlite database with all migrations applied.
// The pool is pinned to a single connection: an in-memory database lives
// and dies with its connection, so the pool must never rotate it out.
func New(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	t.Cleanup(func() { _ = db.Close() })

	if err := database.RunSqliteMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}
