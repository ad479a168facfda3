package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/curriculum/transform"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/graph"
	"github.com/matzehuels/curricula/pkg/overlay"
	"github.com/matzehuels/curricula/pkg/plans"
	"github.com/matzehuels/curricula/pkg/render/nodelink"
)

// =============================================================================
// Catalog
// =============================================================================

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.backend.Programs(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error al obtener carreras")
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.backend.Courses(r.Context(), r.URL.Query().Get("carrera"))
	if err != nil {
		s.fail(w, r, err, "Error al obtener cursos")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.backend.Graph(r.Context(), r.URL.Query().Get("carrera"))
	if err != nil {
		s.fail(w, r, err, "Error al obtener el grafo")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// =============================================================================
// Map
// =============================================================================

// dataset fetches, normalizes, and lays out the map for program.
func (s *Server) dataset(r *http.Request, program string) (*curriculum.Dataset, error) {
	g, err := s.backend.Graph(r.Context(), program)
	if err != nil {
		return nil, err
	}
	ds, report := graph.ToDataset(g, transform.NormalizeOptions{Program: program, Policy: s.opts.Policy})
	if len(report.Ambiguous) > 0 || report.Unresolved > 0 {
		s.logger.Debug("normalized with repairs", "program", program,
			"ambiguous", len(report.Ambiguous), "unresolved", report.Unresolved, "duplicates", report.Duplicates)
	}
	layout.Assign(ds, s.opts.Layout)
	return ds, nil
}

// selection applies the seleccion query parameter, a composite identity or
// a bare code, to a fresh overlay. Unknown selections are an error.
func selection(ds *curriculum.Dataset, sel, program string) (overlay.State, error) {
	m := overlay.New(ds)
	if sel == "" {
		return m.State(), nil
	}
	id := curriculum.Identity(sel)
	if !strings.Contains(sel, "|") {
		id = resolveCode(ds, sel, program)
	}
	if m.Click(id) == nil {
		return overlay.State{}, errs.New(errs.ErrCodeNotFound, "course %q not in map", sel)
	}
	return m.State(), nil
}

// resolveCode finds the node for a bare code, preferring program.
func resolveCode(ds *curriculum.Dataset, code, program string) curriculum.Identity {
	if program != "" {
		if id := curriculum.MakeIdentity(code, program); ds.Has(id) {
			return id
		}
	}
	for _, n := range ds.Nodes() {
		if n.Code == code {
			return n.ID
		}
	}
	return ""
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	program := r.URL.Query().Get("carrera")
	ds, err := s.dataset(r, program)
	if err != nil {
		s.fail(w, r, err, "Error al obtener la malla")
		return
	}
	state, err := selection(ds, r.URL.Query().Get("seleccion"), program)
	if err != nil {
		writeError(w, http.StatusNotFound, "Curso no encontrado en la malla")
		return
	}
	writeJSON(w, http.StatusOK, graph.FromDataset(ds, state))
}

func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	program := r.URL.Query().Get("carrera")
	ds, err := s.dataset(r, program)
	if err != nil {
		s.fail(w, r, err, "Error al obtener la malla")
		return
	}
	state, err := selection(ds, r.URL.Query().Get("seleccion"), program)
	if err != nil {
		writeError(w, http.StatusNotFound, "Curso no encontrado en la malla")
		return
	}
	svg, err := nodelink.RenderSVG(r.Context(), nodelink.ToDOT(ds, state, nodelink.Options{}))
	if err != nil {
		s.fail(w, r, err, msgInternal)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Planner
// =============================================================================

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req backend.PlanRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	if req.MaxCredits <= 0 {
		req.MaxCredits = s.opts.MaxCredits
	}
	req = req.WithDefaults()

	resp, err := s.backend.Plan(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Error al planificar")
		return
	}

	if sess := SessionFrom(r.Context()); sess != nil && s.opts.Plans != nil {
		rec := plans.NewRecord(sess.UserID, req, resp)
		if err := s.opts.Plans.Save(r.Context(), rec); err != nil {
			s.logger.Warn("could not archive plan", "request_id", RequestID(r.Context()), "user", sess.UserID, "error", err)
		}
	}
	writeRaw(w, http.StatusOK, resp.Raw)
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	if s.opts.Plans == nil {
		writeJSON(w, http.StatusOK, []plans.Record{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limite"))
	records, err := s.opts.Plans.List(r.Context(), SessionFrom(r.Context()).UserID, limit)
	if err != nil {
		s.fail(w, r, err, "Error al obtener planes")
		return
	}
	if records == nil {
		records = []plans.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// =============================================================================
// Users
// =============================================================================

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.backend.User(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error al obtener usuario")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var update backend.UserUpdate
	if err := decodeBody(r, &update); err != nil {
		s.fail(w, r, err, msgBadRequest)
		return
	}
	raw, err := s.backend.UpdateUser(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		s.fail(w, r, err, "Error al actualizar usuario")
		return
	}
	writeRaw(w, http.StatusOK, raw)
}
