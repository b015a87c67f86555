package access

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/parleyweb/parley/internal/logutil"
)

// Router defines an abstraction for registering routes and applying middleware.
// It allows the Gate to remain decoupled from specific HTTP frameworks.
type Router interface {
	Handle(pattern string, handler http.Handler)
}

// Handle registers an HTTP handler with the router for the given route pattern.
// The route string can be either:
//
//	"/path"          // matches all HTTP methods for /path
//	"METHOD /path"   // matches only HTTP requests with METHOD (GET, POST, etc.)
//
// If the method is omitted, it defaults to all methods.
// If the path is omitted, it defaults to the root path with the provided method.
// If the combination of method and path is already registered, an error is returned.
// The handler is automatically wrapped with authentication and
// authorization middlewares based on policies set with SetPolicy.
func (g *Gate) Handle(route string, handler http.Handler) error {
	g.log.Debug("gate handling route", "route", route)
	if handler == nil {
		err := fmt.Errorf("cannot register nil handler for route")
		g.log.Error("cannot register nil handler for route", "route", route)
		return err
	}

	method, path := parseRoute(route)

	// Initialize handler map if not already
	if g.handlers == nil {
		g.handlers = make(map[string]map[string]http.Handler)
	}

	// Initialize method map for the path if not already
	if _, exists := g.handlers[path]; !exists {
		g.handlers[path] = make(map[string]http.Handler)

		// Register the dispatching handler once
		g.router.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer logutil.NewTimingLogger(g.log, time.Now(), "access handled", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())()
			methodHandlers := g.handlers[path]

			// Try exact method match first
			if h, ok := methodHandlers[r.Method]; ok {
				wrapped := g.WrapHandler(path, r.Method, h)
				wrapped.ServeHTTP(w, r)
				return
			}

			// Try wildcard (no method specified during registration)
			if h, ok := methodHandlers[""]; ok {
				wrapped := g.WrapHandler(path, r.Method, h)
				wrapped.ServeHTTP(w, r)
				return
			}

			// Otherwise: method not allowed
			g.respondMethodNotAllowed(w, r)
		}))
	}

	// Check for duplicate route
	if _, exists := g.handlers[path][method]; exists {
		return logutil.LogAndWrapErr(g.log, "attempted to add duplicate path to gate",
			NewDuplicatePathAndMethodError(path, method))
	}

	// Store handler
	g.handlers[path][method] = handler
	return nil
}

// HandleFunc is a convenience wrapper around Handle that accepts
// an http.HandlerFunc instead of a full http.Handler.
func (g *Gate) HandleFunc(route string, handlerFunc http.HandlerFunc) error {
	return g.Handle(route, handlerFunc)
}

// parseRoute parses a route string into method and path components.
// Valid formats are:
//
//	"METHOD /path"   e.g. "GET /profile"
//	"/path"          e.g. "/profile"
//
// If the method is omitted, the returned method string is empty,
// meaning the route applies to all HTTP methods.
func parseRoute(route string) (method, path string) {
	parts := strings.Fields(route)
	switch len(parts) {
	case 0:
		return "", "/" // fallback to root
	case 1:
		// If it starts with "/" treat as path, otherwise treat as invalid
		if strings.HasPrefix(parts[0], "/") {
			return "", parts[0] // any method
		}
		// method but no path
		return "", "/"
	default:
		return strings.ToUpper(parts[0]), strings.ToLower(parts[1]) // e.g. GET /profile
	}
}

var ErrDuplicatePathAndMethod = &DuplicatePathAndMethodError{}

// errors
type DuplicatePathAndMethodError struct {
	Method string
	Path   string
}

func NewDuplicatePathAndMethodError(path, method string) *DuplicatePathAndMethodError {
	return &DuplicatePathAndMethodError{
		Method: method,
		Path:   path,
	}
}

func (e *DuplicatePathAndMethodError) Error() string {
	return fmt.Sprintf("gate: duplicate path: %s and method: %s attempted", e.Path, e.Method)
}

func (e *DuplicatePathAndMethodError) Is(target error) bool {
	_, ok := target.(*DuplicatePathAndMethodError)
	return ok
}
