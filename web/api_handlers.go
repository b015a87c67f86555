package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/parleyweb/parley/api"
	"github.com/parleyweb/parley/internal/tokenstore"
	"github.com/parleyweb/parley/pkg/models"
)

func (h *Handler) handleAPILoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		var creds api.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}

		userID, err := h.verifier.Verify(r.Context(), creds.Email, creds.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				api.ReturnError(w, h.log, api.UnauthorizedInvalidCredentials)
				return
			}
			h.log.Error("verifying credentials", "err", err)
			api.ReturnError(w, h.log, api.InternalServerError)
			return
		}

		user, err := h.creds.GetUserByID(r.Context(), userID)
		if err != nil || user == nil {
			h.log.Error("loading user after verification", "err", err)
			api.ReturnError(w, h.log, api.InternalServerError)
			return
		}

		pair, err := h.tokens.IssuePair(user)
		if err != nil {
			h.log.Error("issuing token pair", "err", err)
			api.ReturnError(w, h.log, api.InternalServerError)
			return
		}

		h.setRefreshCookie(w, pair.RefreshToken)
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.LoginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

// setRefreshCookie stores the refresh token in an HttpOnly cookie scoped
// to the refresh endpoint, so browser clients never have to hold it in
// script-reachable storage. The token is also returned in the body for
// non-browser clients.
func (h *Handler) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HttpOnly: true,
		Secure:   h.gate.CookieSecure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/api/v1/token/refresh",
	})
}

func (h *Handler) handleAPITokenVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		// The gate only admits authenticated identities here, so parsing
		// again is just to surface the expiry in the response body.
		authHeader := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			api.ReturnError(w, h.log, api.UnauthorizedInvalidToken)
			return
		}

		payload, err := h.tokens.ParseToken(r.Context(), strings.TrimSpace(authHeader[len(prefix):]))
		if err != nil {
			api.ReturnError(w, h.log, api.UnauthorizedInvalidToken)
			return
		}

		resp := api.TokenValidationResponse{Valid: true}
		if payload.ExpiresAt != nil {
			t := payload.ExpiresAt.Time
			resp.ExpiresAt = &t
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, resp)
	}
}

func (h *Handler) handleAPITokenRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())

		// Browser clients carry the refresh token in the HttpOnly cookie,
		// others send it in the JSON body.
		var refreshToken string
		if cookie, err := r.Cookie("refresh_token"); err == nil {
			refreshToken = cookie.Value
		} else {
			var req api.RefreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
				api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
				return
			}
			refreshToken = req.RefreshToken
		}

		pair, err := h.tokens.RotateRefreshToken(r.Context(), refreshToken)
		if err != nil {
			if errors.Is(err, tokenstore.ErrTokenRevoked) || errors.Is(err, tokenstore.ErrInvalidToken) {
				api.ReturnError(w, h.log, api.UnauthorizedInvalidToken)
				return
			}
			h.log.Error("rotating refresh token", "err", err)
			api.ReturnError(w, h.log, api.UnauthorizedInvalidToken)
			return
		}

		h.setRefreshCookie(w, pair.RefreshToken)
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.LoginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}
