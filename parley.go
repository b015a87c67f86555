// Package parley is a small chat web application built around a
// session-backed authentication gate. The root package wires the storage
// backends, access gate and routes together behind a functional-options
// constructor.
package parley

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/parleyweb/parley/internal/config"
	"github.com/parleyweb/parley/pkg/access"
	"github.com/parleyweb/parley/pkg/services"
	"github.com/parleyweb/parley/web"
)

type Parley struct {
	logger   *slog.Logger
	config   *config.Config
	Services *services.Services
	Gate     *access.Gate

	// Hold information to initialize services after configuration
	db     *sql.DB
	dbType services.DBType
	router access.Router
}

type Option func(*Parley)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parley) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(p *Parley) {
		if cfg != nil {
			p.config = cfg
		}
	}
}

func WithSqliteDB(db *sql.DB) Option {
	return func(p *Parley) {
		p.db = db
		p.dbType = services.DBTypeSQLite
	}
}

func WithRouter(r access.Router) Option {
	return func(p *Parley) {
		p.router = r
	}
}

// New builds the application. The database is pinged and migrated before
// anything is served, a broken store should fail startup rather than the
// first request.
func New(opts ...Option) (*Parley, error) {
	p := &Parley{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.config == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("unable to load configuration: %w", err)
		}
		p.config = cfg
	}

	if p.db == nil {
		return nil, fmt.Errorf("no database configured, use WithSqliteDB")
	}

	if p.router == nil {
		p.router = http.NewServeMux()
	}

	p.logger.Info("starting parley")

	// load services now that logging and config are set
	p.Services = services.New(p.db, p.dbType, p.logger, p.config)
	p.logger.Debug("parley services loaded")

	// load gate
	p.Gate = access.NewGate(p.logger, p.router, p.Services.Creds, p.Services.Sessions, p.Services.Tokens, &access.Config{
		CookieName:              "session_token",
		CookiePath:              "/",
		CookieSecure:            p.config.SecureCookies,
		RedirectOnAuthErrorPath: "/login",
	})
	p.logger.Info("parley gate loaded")

	// check if database is pingable
	if err := p.db.Ping(); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	p.logger.Debug("successfully connected to database")

	if err := p.Services.RunMigrations(); err != nil {
		return nil, fmt.Errorf("unable to run migrations: %w", err)
	}
	p.logger.Debug("successfully run migrations")

	routes := web.New(p.logger, p.Gate, p.Services.Creds, p.Services.Sessions, p.Services.Tokens)
	if err := routes.LoadAll(); err != nil {
		return nil, fmt.Errorf("unable to register routes: %w", err)
	}
	p.logger.Debug("routes registered")

	return p, nil
}

// Handler returns the root http.Handler. Only valid when the router
// passed to (or defaulted by) New is itself an http.Handler.
func (p *Parley) Handler() http.Handler {
	if h, ok := p.router.(http.Handler); ok {
		return h
	}
	return nil
}

// Addr returns the listen address from configuration.
func (p *Parley) Addr() string {
	return p.config.Addr()
}

// Close releases background resources (session cleanup workers).
func (p *Parley) Close() {
	p.Services.Close()
}
