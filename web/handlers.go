// Package web registers the browser and API routes and their handlers.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/parleyweb/parley/internal/credstore"
	"github.com/parleyweb/parley/internal/sessionstore"
	"github.com/parleyweb/parley/internal/tokenstore"
	"github.com/parleyweb/parley/pkg/access"
	"github.com/parleyweb/parley/pkg/auth"
	"github.com/parleyweb/parley/pkg/models"
	"github.com/parleyweb/parley/web/templates"
)

type Handler struct {
	log      *slog.Logger
	creds    credstore.Store
	verifier *auth.Verifier
	sessions sessionstore.Store
	tokens   tokenstore.TokenStore
	gate     *access.Gate
}

func newHandler(logger *slog.Logger, gate *access.Gate, creds credstore.Store, sessions sessionstore.Store, tokens tokenstore.TokenStore) *Handler {
	return &Handler{
		log:      logger,
		creds:    creds,
		verifier: auth.NewVerifier(logger, creds),
		sessions: sessions,
		tokens:   tokens,
		gate:     gate,
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page string, data templates.PageData) {
	if err := templates.Render(w, page, data); err != nil {
		h.log.Error("unable to render page", "page", page, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) renderServerError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusInternalServerError)
	h.renderPage(w, r, "error.html", templates.PageData{
		Title: "Error",
		Error: "We could not complete your request. Please try again later.",
	})
}

func (h *Handler) handleHomeGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		identity := access.IdentityFromContext(r.Context())
		h.renderPage(w, r, "home.html", templates.PageData{
			Title: "Parley",
			Email: identity.Email,
		})
	}
}

func (h *Handler) handleRegisterGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		h.renderPage(w, r, "register.html", templates.PageData{Title: "Register"})
	}
}

func (h *Handler) handleRegisterPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		if err := r.ParseForm(); err != nil {
			h.log.Error("parsing form from POST /register", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		confirm := r.FormValue("confirm")

		if password != confirm {
			w.WriteHeader(http.StatusUnprocessableEntity)
			h.renderPage(w, r, "register.html", templates.PageData{
				Title: "Register",
				Error: "Passwords do not match.",
			})
			return
		}

		_, err := h.creds.CreateUser(r.Context(), models.CreateUserParams{
			Email:    email,
			Password: password,
		})
		if err != nil {
			h.renderRegisterError(w, r, err)
			return
		}

		// New accounts sign in explicitly, no session is created here.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// renderRegisterError re-renders the registration form with a message the
// submitter can act on. Duplicate emails get the same wording as other
// rejections so the form does not confirm which addresses hold accounts.
func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	data := templates.PageData{Title: "Register"}

	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		data.Error = "Unable to register with these details."
	case errors.Is(err, models.ErrWeakCredential):
		var weak *models.WeakCredentialError
		errors.As(err, &weak)
		data.Error = "Password not accepted: " + weak.Reason
	case errors.Is(err, models.ErrValidation):
		data.Error = "Please enter a valid email address."
	default:
		h.log.Error("unable to create user", "err", err)
		h.renderServerError(w, r)
		return
	}

	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderPage(w, r, "register.html", data)
}

func (h *Handler) handleLoginGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		h.renderPage(w, r, "login.html", templates.PageData{Title: "Login"})
	}
}

func (h *Handler) handleLoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		if err := r.ParseForm(); err != nil {
			h.log.Error("parsing form from POST /login", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")

		userID, err := h.verifier.Verify(r.Context(), email, password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				w.WriteHeader(http.StatusUnauthorized)
				h.renderPage(w, r, "login.html", templates.PageData{
					Title: "Login",
					Error: "Invalid email or password.",
				})
				return
			}
			h.log.Error("verifying credentials", "err", err)
			h.renderServerError(w, r)
			return
		}

		session, err := h.sessions.Create(r.Context(), userID)
		if err != nil {
			h.log.Error("creating session", "err", err)
			h.renderServerError(w, r)
			return
		}

		h.gate.SetSessionCookie(w, session)
		http.Redirect(w, r, "/chatbot", http.StatusSeeOther)
	}
}

func (h *Handler) handleLogoutPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		if token := h.gate.SessionTokenFromRequest(r); token != "" {
			if err := h.sessions.Revoke(r.Context(), token); err != nil {
				h.log.Error("revoking session", "err", err)
			}
		}
		h.gate.ClearSessionCookie(w, r)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (h *Handler) handleChatbotGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		identity := access.IdentityFromContext(r.Context())
		h.renderPage(w, r, "chatbot.html", templates.PageData{
			Title: "Chatbot",
			Email: identity.Email,
		})
	}
}

func (h *Handler) handleProfileGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		identity := access.IdentityFromContext(r.Context())
		h.renderPage(w, r, "profile.html", templates.PageData{
			Title: "Profile",
			Email: identity.Email,
		})
	}
}
