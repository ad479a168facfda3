package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/curriculum"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/history"
)

func historyResponse(snap history.Snapshot) backend.HistoryResponse {
	out := backend.HistoryResponse{
		Courses:      make([]backend.HistoryCourse, len(snap.Entries)),
		TotalCredits: snap.TotalCredits,
	}
	for i, e := range snap.Entries {
		out.Courses[i] = backend.HistoryCourse(e)
	}
	return out
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snap, err := s.history.Load(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("carrera"))
	if err != nil {
		s.fail(w, r, err, "Error al obtener historial")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse(snap))
}

// invalidate drops every cached history of the user the write may touch.
func (s *Server) invalidate(r *http.Request, userID string, programs ...string) {
	for _, p := range append(programs, "") {
		if err := s.history.Invalidate(r.Context(), userID, p); err != nil {
			s.logger.Warn("history cache invalidation failed", "user", userID, "program", p, "error", err)
		}
	}
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var add backend.HistoryAdd
	if err := decodeBody(r, &add); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	raw, err := s.backend.AddHistory(r.Context(), userID, add)
	if err != nil {
		s.fail(w, r, err, "Error al agregar curso al historial")
		return
	}
	s.invalidate(r, userID, add.Program)
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleUpdateHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var update backend.HistoryUpdate
	if err := decodeBody(r, &update); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	raw, err := s.backend.UpdateHistory(r.Context(), userID, chi.URLParam(r, "codigo"), update)
	if err != nil {
		s.fail(w, r, err, "Error al actualizar curso en el historial")
		return
	}
	s.invalidate(r, userID, update.Program)
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	program := r.URL.Query().Get("carrera")
	raw, err := s.backend.DeleteHistory(r.Context(), userID, chi.URLParam(r, "codigo"), program)
	if err != nil {
		s.fail(w, r, err, "Error al eliminar curso del historial")
		return
	}
	s.invalidate(r, userID, program)
	writeRaw(w, http.StatusOK, raw)
}

// syncRequest is the desired history for one program.
type syncRequest struct {
	Program string                  `json:"carrera"`
	Courses []backend.HistoryCourse `json:"cursos"`
}

type syncFailure struct {
	Op      history.Op `json:"op"`
	Code    string     `json:"curso_codigo"`
	Program string     `json:"carrera"`
	Error   string     `json:"error"`
}

type syncResponse struct {
	Added         int                     `json:"agregados"`
	Updated       int                     `json:"actualizados"`
	Removed       int                     `json:"eliminados"`
	Failures      []syncFailure           `json:"fallos"`
	CreditsSynced bool                    `json:"creditos_sincronizados"`
	History       backend.HistoryResponse `json:"historial"`
}

// handleSyncHistory replaces the user's history for one program with the
// posted list, writing only the differences.
func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	req.Program = strings.TrimSpace(req.Program)
	if err := errs.ValidateProgram(req.Program); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}

	saved, err := s.history.Reload(r.Context(), userID, req.Program)
	if err != nil {
		s.fail(w, r, err, "Error al obtener historial")
		return
	}
	draft, err := desiredDraft(saved.Entries, req)
	if err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}

	res, err := s.syncer.Save(r.Context(), userID, req.Program, draft)
	if err != nil {
		s.fail(w, r, err, "Error al guardar historial")
		return
	}
	s.invalidate(r, userID)

	out := syncResponse{
		Added:         res.Added,
		Updated:       res.Updated,
		Removed:       res.Removed,
		Failures:      make([]syncFailure, len(res.Failures)),
		CreditsSynced: res.CreditsSynced,
		History:       historyResponse(res.Snapshot),
	}
	for i, f := range res.Failures {
		out.Failures[i] = syncFailure{Op: f.Op, Code: f.Entry.Code, Program: f.Entry.Program, Error: errs.UserMessage(f.Err)}
	}
	writeJSON(w, http.StatusOK, out)
}

// desiredDraft edits a draft of saved until it matches req. Courses
// without a program take the request's program; repeated courses are
// merged. Saved courses of other programs are left alone.
func desiredDraft(saved []history.Entry, req syncRequest) (*history.Draft, error) {
	d := history.NewDraft(saved)
	want := make(map[curriculum.Identity]bool, len(req.Courses))

	for _, c := range history.FromBackend(req.Courses) {
		c.Code = strings.TrimSpace(c.Code)
		c.Program = strings.TrimSpace(c.Program)
		if c.Program == "" {
			c.Program = req.Program
		}
		want[c.Key()] = true
		if !d.Has(c.Code, c.Program) {
			if err := d.Add(c); err != nil && !errors.Is(err, history.ErrDuplicate) {
				return nil, err
			}
			continue
		}
		if c.Level > 0 {
			_ = d.SetLevel(c.Code, c.Program, c.Level)
		}
		if c.ApprovedAt != "" {
			_ = d.SetApprovedAt(c.Code, c.Program, c.ApprovedAt)
		}
	}
	for _, e := range saved {
		if e.Program == req.Program && !want[e.Key()] {
			d.Remove(e.Code, e.Program)
		}
	}
	return d, nil
}
