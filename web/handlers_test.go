package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyweb/parley/api"
	"github.com/parleyweb/parley/internal/credstore"
	"github.com/parleyweb/parley/internal/db/dbtest"
	"github.com/parleyweb/parley/internal/sessionstore"
	"github.com/parleyweb/parley/internal/tokenstore"
	"github.com/parleyweb/parley/pkg/access"
)

// newTestApp wires real stores over an in-memory database behind a mux,
// the same way the root package does at startup.
func newTestApp(t *testing.T) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	db := dbtest.New(t)

	creds := credstore.NewSqlite(db, logger, 8)
	sessions := sessionstore.NewSqlite(logger, db, time.Hour)
	t.Cleanup(sessions.Close)
	tokens := tokenstore.NewSqlite(logger, "test-secret", 15*time.Minute, 24*time.Hour, db)

	mux := http.NewServeMux()
	gate := access.NewGate(logger, mux, creds, sessions, tokens, &access.Config{
		CookieName:              "session_token",
		CookiePath:              "/",
		CookieSecure:            false,
		RedirectOnAuthErrorPath: "/login",
	})

	require.NoError(t, New(logger, gate, creds, sessions, tokens).LoadAll())
	return mux
}

func postForm(mux *http.ServeMux, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func registerForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}, "confirm": {password}}
}

func TestFullBrowserFlow(t *testing.T) {
	mux := newTestApp(t)

	// Register a@x.com.
	rec := postForm(mux, "/register", registerForm("a@x.com", "longpw123"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies(), "registration should not start a session")

	// Log in with the right password.
	rec = postForm(mux, "/login", registerForm("a@x.com", "longpw123"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/chatbot", rec.Header().Get("Location"))
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	// The cookie opens the protected pages.
	rec = get(mux, "/profile", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Result().Body)
	assert.Contains(t, string(body), "a@x.com")

	rec = get(mux, "/chatbot", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A wrong password re-renders the form without a cookie.
	rec = postForm(mux, "/login", registerForm("a@x.com", "wrongpw"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	// Without a cookie the protected pages redirect to login.
	rec = get(mux, "/chatbot")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogoutRevokesSession(t *testing.T) {
	mux := newTestApp(t)

	postForm(mux, "/register", registerForm("a@x.com", "longpw123"))
	rec := postForm(mux, "/login", registerForm("a@x.com", "longpw123"))
	cookie := sessionCookie(t, rec)

	rec = postForm(mux, "/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The old cookie no longer works.
	rec = get(mux, "/profile", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mux := newTestApp(t)

	rec := postForm(mux, "/register", registerForm("a@x.com", "longpw123"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(mux, "/register", registerForm("a@x.com", "otherpw456"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Case variants hit the same account.
	rec = postForm(mux, "/register", registerForm("A@X.com", "otherpw456"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	mux := newTestApp(t)

	form := url.Values{"email": {"a@x.com"}, "password": {"longpw123"}, "confirm": {"different1"}}
	rec := postForm(mux, "/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Nothing was created.
	rec = postForm(mux, "/login", registerForm("a@x.com", "longpw123"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterWeakPassword(t *testing.T) {
	mux := newTestApp(t)

	rec := postForm(mux, "/register", registerForm("a@x.com", "short"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The account was not created, so the login fails too.
	rec = postForm(mux, "/login", registerForm("a@x.com", "short"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownAndWrongCredentialsLookAlike(t *testing.T) {
	mux := newTestApp(t)

	postForm(mux, "/register", registerForm("a@x.com", "longpw123"))

	wrong := postForm(mux, "/login", registerForm("a@x.com", "wrongpw"))
	unknown := postForm(mux, "/login", registerForm("nobody@x.com", "wrongpw"))

	assert.Equal(t, wrong.Code, unknown.Code)
	wrongBody, _ := io.ReadAll(wrong.Result().Body)
	unknownBody, _ := io.ReadAll(unknown.Result().Body)
	assert.Equal(t, string(wrongBody), string(unknownBody))
}

func TestPublicPagesServeAnonymous(t *testing.T) {
	mux := newTestApp(t)

	for _, path := range []string{"/", "/login", "/register"} {
		rec := get(mux, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPILoginAndTokenFlow(t *testing.T) {
	mux := newTestApp(t)

	postForm(mux, "/register", registerForm("a@x.com", "longpw123"))

	// JSON login issues a token pair.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
		strings.NewReader(`{"email":"a@x.com","password":"longpw123"}`))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var login api.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Result().Body).Decode(&login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	// The access token opens the verify endpoint.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/token/verify", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without a token the endpoint denies with JSON.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/token/verify", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Refresh rotates the pair; the old refresh token dies with it.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/token/refresh",
		strings.NewReader(`{"refreshToken":"`+login.RefreshToken+`"}`))
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/token/refresh",
		strings.NewReader(`{"refreshToken":"`+login.RefreshToken+`"}`))
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPILoginBadCredentials(t *testing.T) {
	mux := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
		strings.NewReader(`{"email":"nobody@x.com","password":"whatever1"}`))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Result().Body).Decode(&resp))
	assert.Equal(t, "invalid credentials", resp.Error)
}
