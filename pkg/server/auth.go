package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/session"
)

type callbackRequest struct {
	AccessToken string `json:"access_token"`
}

type callbackResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCallback exchanges an access token for a session cookie and
// registers the user with the backend. A failed registration does not
// fail the sign-in.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "Falta el token de acceso")
		return
	}

	sess, err := session.FromToken(token, s.opts.JWTSecret, s.opts.SessionTTL)
	if err != nil {
		s.logger.Debug("rejected access token", "request_id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	if err := s.opts.Sessions.Set(r.Context(), sess); err != nil {
		s.fail(w, r, err, msgInternal)
		return
	}

	login := backend.LoginRequest{Email: sess.Email, UserID: sess.UserID}
	if err := s.backend.Login(backend.WithToken(r.Context(), token), login); err != nil {
		s.logger.Warn("backend login sync failed", "request_id", RequestID(r.Context()), "user", sess.UserID, "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, callbackResponse{UserID: sess.UserID, Email: sess.Email, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
		if err := s.opts.Sessions.Delete(r.Context(), c.Value); err != nil {
			s.logger.Warn("session delete failed", "request_id", RequestID(r.Context()), "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
