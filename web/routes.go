package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/parleyweb/parley/internal/credstore"
	"github.com/parleyweb/parley/internal/sessionstore"
	"github.com/parleyweb/parley/internal/tokenstore"
	"github.com/parleyweb/parley/pkg/access"
)

type Routes struct {
	gate    *access.Gate
	handler Handler
}

// New initializes and returns a new Routes instance ready to register the
// application's routes on the gate.
func New(logger *slog.Logger, gate *access.Gate, creds credstore.Store, sessions sessionstore.Store, tokens tokenstore.TokenStore) *Routes {
	return &Routes{
		gate:    gate,
		handler: *newHandler(logger, gate, creds, sessions, tokens),
	}
}

// LoadAll registers every route group (pages, auth, API). If any group
// fails to register its routes, the error(s) will be combined and
// returned as a single error via errors.Join.
func (rt *Routes) LoadAll() error {
	rt.LoadAllPolicies()

	errs := []error{
		rt.LoadPageRoutes(),
		rt.LoadAuthRoutes(),
		rt.LoadAPIRoutes(),
	}

	return errors.Join(errs...)
}

// LoadAllPolicies declares which routes are public. Everything not listed
// here requires a signed-in user, the gate fails closed.
func (rt *Routes) LoadAllPolicies() {
	rt.gate.SetPolicy("/", "GET", access.LevelPublic)
	rt.gate.SetPolicy("/login", "GET", access.LevelPublic)
	rt.gate.SetPolicy("/login", "POST", access.LevelPublic)
	rt.gate.SetPolicy("/register", "GET", access.LevelPublic)
	rt.gate.SetPolicy("/register", "POST", access.LevelPublic)
	rt.gate.SetPolicy("/logout", "POST", access.LevelUser)
	rt.gate.SetPolicy("/chatbot", "GET", access.LevelUser)
	rt.gate.SetPolicy("/profile", "GET", access.LevelUser)
	rt.gate.SetPolicy("/api/v1/login", "POST", access.LevelPublic)
	rt.gate.SetPolicy("/api/v1/token/refresh", "POST", access.LevelPublic)
	rt.gate.SetPolicy("/api/v1/token/verify", "GET", access.LevelUser)
}

// LoadPageRoutes configures the HTTP handlers for the content pages.
func (rt *Routes) LoadPageRoutes() error {
	return rt.registerRoutes(map[string]http.HandlerFunc{
		"GET /":        rt.handler.handleHomeGet(),
		"GET /chatbot": rt.handler.handleChatbotGet(),
		"GET /profile": rt.handler.handleProfileGet(),
	})
}

// LoadAuthRoutes configures the HTTP handlers for registration, login and
// logout.
//
// The login POST handler validates credentials, creates a session and
// sets the session cookie on success. The register POST handler creates
// the account and redirects to the login page without starting a session.
func (rt *Routes) LoadAuthRoutes() error {
	return rt.registerRoutes(map[string]http.HandlerFunc{
		"GET /register":  rt.handler.handleRegisterGet(),
		"POST /register": rt.handler.handleRegisterPost(),
		"GET /login":     rt.handler.handleLoginGet(),
		"POST /login":    rt.handler.handleLoginPost(),
		"POST /logout":   rt.handler.handleLogoutPost(),
	})
}

func (rt *Routes) LoadAPIRoutes() error {
	return rt.registerRoutes(map[string]http.HandlerFunc{
		"POST /api/v1/login":         rt.handler.handleAPILoginPost(),
		"GET /api/v1/token/verify":   rt.handler.handleAPITokenVerify(),
		"POST /api/v1/token/refresh": rt.handler.handleAPITokenRefresh(),
	})
}

// registerRoutes registers a set of HTTP routes with their corresponding handlers.
// It accepts a map where the keys are route patterns (e.g., "GET /login")
// and the values are the associated http.HandlerFunc implementations.
//
// If any calls to gate.Handle fail, all resulting errors are collected
// and returned as a single error using errors.Join. If all registrations
// succeed, the returned error will be nil.
func (rt *Routes) registerRoutes(routes map[string]http.HandlerFunc) error {
	var errs []error
	for pattern, handler := range routes {
		if err := rt.gate.Handle(pattern, handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
