package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matzehuels/curricula/pkg/backend"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

const (
	msgInternal        = "Error interno del servidor"
	msgUnauthenticated = "No autenticado"
	msgForbidden       = "No autorizado"
	msgBadRequest      = "Solicitud inválida"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw forwards a backend JSON body unchanged.
func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fail answers with the status and message for err. Backend errors keep
// their status; reads answer with fallback, writes prefer the backend's
// detail. Input errors carry their own message. Anything else is a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		msg := fallback
		if r.Method != http.MethodGet && apiErr.Detail != "" {
			msg = apiErr.Detail
		}
		s.logger.Warn("backend error", "request_id", RequestID(r.Context()),
			"method", apiErr.Method, "path", apiErr.Path, "status", apiErr.Status, "detail", apiErr.Detail)
		writeError(w, apiErr.Status, msg)
		return
	}

	status := errs.HTTPStatus(err)
	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		writeError(w, status, msgInternal)
	case status == http.StatusBadRequest:
		writeError(w, status, errs.UserMessage(err))
	default:
		s.logger.Warn("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		writeError(w, status, fallback)
	}
}

// decodeBody reads a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.Wrap(errs.ErrCodeInvalidInput, err, msgBadRequest)
	}
	return nil
}
