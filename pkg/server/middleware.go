package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/session"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionKey
)

// RequestID returns the ID assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// SessionFrom returns the caller's session, or nil for anonymous requests.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// requestID reuses a short client-supplied ID or assigns a UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// recoverer turns a panic into a JSON 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			s.logger.Error("panic", "request_id", RequestID(r.Context()), "path", r.URL.Path,
				"panic", rvr, "stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// resolveSession attaches the caller's session, if any, and forwards its
// access token to the backend. A bearer header wins over the cookie.
// Invalid credentials make the request anonymous.
func (s *Server) resolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := s.sessionOf(r)
		if sess != nil {
			ctx = context.WithValue(ctx, sessionKey, sess)
			ctx = backend.WithToken(ctx, sess.AccessToken)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) sessionOf(r *http.Request) *session.Session {
	if tok := bearerToken(r); tok != "" {
		sess, err := session.FromToken(tok, s.opts.JWTSecret, s.opts.SessionTTL)
		if err != nil {
			s.logger.Debug("rejected bearer token", "request_id", RequestID(r.Context()), "error", err)
			return nil
		}
		return sess
	}

	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := s.opts.Sessions.Get(r.Context(), c.Value)
	if err != nil {
		s.logger.Debug("session lookup failed", "request_id", RequestID(r.Context()), "error", err)
		return nil
	}
	if sess == nil || sess.IsExpired() {
		return nil
	}
	return sess
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireSession answers 401 for anonymous requests.
func requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		next(w, r)
	}
}

// requireOwner answers 401 for anonymous requests and 403 when the
// caller's session belongs to another user than the {id} path parameter.
func requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return requireSession(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).UserID != chi.URLParam(r, "id") {
			writeError(w, http.StatusForbidden, msgForbidden)
			return
		}
		next(w, r)
	})
}
