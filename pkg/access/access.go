// Package access guards HTTP routes. It authenticates requests from
// session cookies or bearer tokens and enforces per-route access levels
// registered as policies.
package access

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/parleyweb/parley/pkg/models"
)

// Level is the access requirement attached to a route. There are exactly
// two: anyone may reach a public route, only an authenticated user may
// reach a user route.
type Level int

const (
	LevelPublic Level = iota
	LevelUser
)

func (l Level) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelUser:
		return "user"
	default:
		return "unknown"
	}
}

// Identity describes who is making a request. The zero value is the
// anonymous visitor.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

// Anonymous is the identity attached to requests with no valid session
// or token.
var Anonymous = Identity{}

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFromContext returns the identity the authentication middleware
// attached to the request, or Anonymous when there is none.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityContextKey).(Identity); ok {
		return id
	}
	return Anonymous
}

// SessionStore defines the minimal session-related functionality the
// Gate uses to validate requests.
type SessionStore interface {
	// Validate returns the user id for a live session token, or
	// models.ErrSessionInvalid.
	Validate(ctx context.Context, token string) (uuid.UUID, error)

	// ExpireCookie clears a session cookie on the client by writing
	// an expired cookie to the response. Used when a stale cookie is seen.
	ExpireCookie(c *http.Cookie, w http.ResponseWriter)
}

// UserSource defines the subset of the credential store the Gate
// requires to resolve an identity after session or token validation.
type UserSource interface {
	// GetUserByID retrieves a user by their unique identifier.
	// Returns (nil, nil) if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenParser defines the token validation capability required by the
// Gate for bearer-token authentication on the API surface.
type TokenParser interface {
	// ValidateAccessToken parses an access token, checks revocation and
	// returns the bearer's user id.
	ValidateAccessToken(ctx context.Context, tokenStr string) (uuid.UUID, error)
}

type Config struct {
	CookieName              string // name of the session cookie
	CookiePath              string // path set on the session cookie
	CookieSecure            bool   // marks the cookie Secure. Recommended always to be true in production environments
	RedirectOnAuthErrorPath string // where browser requests go when authentication is required
}

// new default config returns a pointer to Config with the default options
func newDefaultConfig() *Config {
	return &Config{
		CookieName:              "session_token",
		CookiePath:              "/",
		CookieSecure:            true,
		RedirectOnAuthErrorPath: "/login",
	}
}

// Gate manages access policies and wraps route handlers with
// authentication and authorization logic. Routes with no matching policy
// are treated as LevelUser, so forgetting to register a policy fails
// closed.
type Gate struct {
	log      *slog.Logger
	Policies map[string]map[string]Level        // e.g route: {GET: LevelUser, POST: LevelPublic}
	handlers map[string]map[string]http.Handler // path -> method -> handler internal mapping
	router   Router                             // used for middlewares and creating routes
	users    UserSource
	sessions SessionStore
	tokens   TokenParser
	Config
	mu sync.RWMutex // protects policies and handlers maps
}

// NewGate initializes and returns a new Gate instance.
//
// The Gate maintains a mapping of required access level per HTTP method
// and path, and enforces it through middleware applied when routes are
// registered with Handle.
//
// Params:
//   - logger: a slog.Logger for structured logging
//   - router: an implementation of the Router interface used to register routes
//   - users: a user source used to resolve identities
//   - sessions: a session store used to validate session cookies
//   - tokens: a token parser used to validate bearer tokens
//   - config: cookie and redirect settings, nil for defaults
//
// Example:
//
//	gate := NewGate(logger, mux, credStore, sessionStore, tokenStore, nil)
func NewGate(logger *slog.Logger, router Router, users UserSource, sessions SessionStore, tokens TokenParser, config *Config) *Gate {
	if config == nil {
		config = newDefaultConfig()
	}

	return &Gate{
		log:      logger,
		Policies: make(map[string]map[string]Level),
		handlers: make(map[string]map[string]http.Handler),
		router:   router,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		Config:   *config,
	}
}

// SetPolicy defines the access level for a given resource path and HTTP method.
// Use "*" as the method to apply the policy to all methods for that path.
func (g *Gate) SetPolicy(resourcePath string, method string, level Level) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	if _, ok := g.Policies[resourcePath]; !ok {
		g.Policies[resourcePath] = make(map[string]Level)
	}
	g.Policies[resourcePath][strings.ToUpper(method)] = level // Store method in uppercase
}

// FindMatchingPolicy finds the most specific policy for a given resource path and method.
// It prioritizes exact method matches over wildcard method matches. When
// nothing matches it returns LevelUser and false: unknown paths require
// authentication.
func (g *Gate) FindMatchingPolicy(resourcePath, method string) (Level, bool) {
	method = strings.ToUpper(method)

	// Build all prefixes from most specific to least
	pathsToCheck := buildPrefixes(resourcePath)

	g.log.Debug("gate is finding matching policy",
		"resource path", resourcePath,
		"method", method,
		"paths to check", pathsToCheck,
	)

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, p := range pathsToCheck {
		if methodPolicies, ok := g.Policies[p]; ok {

			// 1. Exact method match
			if level, methodOk := methodPolicies[method]; methodOk {
				g.log.Debug("gate matched policy for path", "path", p, "available_methods", methodPolicies)
				return level, true
			}

			// 2. Wildcard match
			if level, anyMethodOk := methodPolicies["*"]; anyMethodOk {
				g.log.Debug("gate matched wildcard policy for path", "path", p, "available_methods", methodPolicies)
				return level, true
			}
		}
	}

	// No match, fail closed
	return LevelUser, false
}

// buildPrefixes returns a list of paths to check from most specific to least specific.
// For "/a/b/c" it returns ["/a/b/c", "/a/b", "/a", "/"].
// Preserves the exact path format as specified in HTTP routes.
func buildPrefixes(path string) []string {
	// Handle empty path or root path
	if path == "" || path == "/" {
		return []string{"/"}
	}

	// Split path into segments, removing empty segments from splitting
	segments := strings.Split(strings.Trim(path, "/"), "/")

	// Handle the case where path was just "/" (segments would be [""])
	if len(segments) == 1 && segments[0] == "" {
		return []string{"/"}
	}

	prefixes := make([]string, 0, len(segments)+1)

	// Build prefixes from most specific to least specific
	for i := len(segments); i > 0; i-- {
		if i == 1 {
			// For single segment, just add leading slash
			prefixes = append(prefixes, "/"+segments[0])
		} else {
			// For multiple segments, join with slashes
			prefixes = append(prefixes, "/"+strings.Join(segments[:i], "/"))
		}
	}

	// Always ensure root "/" is last
	prefixes = append(prefixes, "/")

	return prefixes
}
