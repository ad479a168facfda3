package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/matzehuels/curricula/pkg/cache"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/graph"
)

// =============================================================================
// Catalog
// =============================================================================

// Programs returns the program (carrera) names.
func (c *Client) Programs(ctx context.Context) ([]string, error) {
	return cached(ctx, c, "catalog", c.keys.ProgramsKey(), cache.TTLCatalog,
		func() ([]byte, error) {
			return c.do(ctx, request{method: http.MethodGet, path: "/api/carreras"})
		},
		func(data []byte) ([]string, error) {
			return decodeList[string](data, "program list", "carreras", "data")
		})
}

// Courses returns the course catalog, filtered to program when non-empty.
func (c *Client) Courses(ctx context.Context, program string) ([]Course, error) {
	return cached(ctx, c, "catalog", c.keys.CoursesKey(program), cache.TTLCatalog,
		func() ([]byte, error) {
			return c.do(ctx, request{method: http.MethodGet, path: "/api/cursos", query: programQuery(program)})
		},
		func(data []byte) ([]Course, error) {
			return decodeList[Course](data, "course list", "cursos", "data")
		})
}

// Graph returns the curriculum graph, filtered to program when non-empty.
// The payload is schema-checked; see [graph.UnmarshalGraph].
func (c *Client) Graph(ctx context.Context, program string) (graph.Graph, error) {
	return cached(ctx, c, "graph", c.keys.GraphKey(program), cache.TTLGraph,
		func() ([]byte, error) {
			return c.do(ctx, request{method: http.MethodGet, path: "/api/grafo", query: programQuery(program)})
		},
		graph.UnmarshalGraph)
}

// =============================================================================
// Planner
// =============================================================================

// Plan asks the planner for the next term. Defaults are applied to req.
func (c *Client) Plan(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	raw, err := c.send(ctx, http.MethodPost, "/api/planificar", nil, req.WithDefaults())
	if err != nil {
		return PlanResponse{}, err
	}
	var resp PlanResponse
	if err := decode(raw, "/api/planificar", &resp); err != nil {
		return PlanResponse{}, err
	}
	resp.Raw = raw
	return resp, nil
}

// =============================================================================
// Users
// =============================================================================

func userPath(id string, rest ...string) (string, error) {
	if err := errs.ValidateUserID(id); err != nil {
		return "", err
	}
	p := "/api/usuario/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p, nil
}

// User returns a profile. A missing user is a 404 [*APIError].
func (c *Client) User(ctx context.Context, id string) (User, error) {
	path, err := userPath(id)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := c.getJSON(ctx, path, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateUser applies a partial profile update and returns the backend's
// response body.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (json.RawMessage, error) {
	path, err := userPath(id)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPut, path, nil, update)
}

// Login registers a signed-in user with the backend.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	_, err := c.send(ctx, http.MethodPost, "/api/auth/login", nil, req)
	return err
}

// =============================================================================
// History
// =============================================================================

// History returns a user's approved courses, filtered to program when
// non-empty. It is never cached here; see the history package.
func (c *Client) History(ctx context.Context, userID, program string) (HistoryResponse, error) {
	path, err := userPath(userID, "historial")
	if err != nil {
		return HistoryResponse{}, err
	}
	var h HistoryResponse
	if err := c.getJSON(ctx, path, programQuery(program), &h); err != nil {
		return HistoryResponse{}, err
	}
	if h.Courses == nil {
		h.Courses = []HistoryCourse{}
	}
	return h, nil
}

// AddHistory adds one approved course.
func (c *Client) AddHistory(ctx context.Context, userID string, add HistoryAdd) (json.RawMessage, error) {
	if err := errs.ValidateCourseCode(add.Code); err != nil {
		return nil, err
	}
	if err := errs.ValidateProgram(add.Program); err != nil {
		return nil, err
	}
	path, err := userPath(userID, "historial")
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, path, nil, add)
}

// UpdateHistory changes one approved course.
func (c *Client) UpdateHistory(ctx context.Context, userID, code string, update HistoryUpdate) (json.RawMessage, error) {
	if err := errs.ValidateCourseCode(code); err != nil {
		return nil, err
	}
	path, err := userPath(userID, "historial", url.PathEscape(code))
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPut, path, nil, update)
}

// DeleteHistory removes one approved course. The program disambiguates
// codes shared between programs.
func (c *Client) DeleteHistory(ctx context.Context, userID, code, program string) (json.RawMessage, error) {
	if err := errs.ValidateCourseCode(code); err != nil {
		return nil, err
	}
	path, err := userPath(userID, "historial", url.PathEscape(code))
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodDelete, path, programQuery(program), nil)
}
