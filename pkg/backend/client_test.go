package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/curricula/pkg/cache"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetry(3, time.Millisecond), WithRateLimit(0, 0)}, opts...)
	c, err := NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "example.com"} {
		if _, err := NewClient(u); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("NewClient(%q) error = %v, want INVALID_INPUT", u, err)
		}
	}
}

func TestProgramsShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{"array", `["CS","EE"]`, []string{"CS", "EE"}, false},
		{"carreras", `{"carreras":["CS"]}`, []string{"CS"}, false},
		{"data", `{"data":["EE"]}`, []string{"EE"}, false},
		{"empty array", `[]`, []string{}, false},
		{"object without list", `{"a":"CS","b":"EE"}`, nil, true},
		{"null", `null`, nil, true},
		{"string", `"CS"`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/carreras" {
					t.Errorf("path = %s", r.URL.Path)
				}
				io.WriteString(w, tt.body)
			})
			got, err := c.Programs(context.Background())
			if tt.wantErr {
				if !errs.Is(err, errs.ErrCodeBackend) {
					t.Fatalf("Programs() error = %v, want BACKEND_ERROR", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Programs() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Programs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoursesShapesAndFilter(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("carrera")
		io.WriteString(w, `{"cursos":[
			{"id":7,"codigo":"CS101","nombre":"Intro","carrera":"CS","creditos":4,"impacto":0.5,"nivel":1},
			{"value":"MA101|CS","label":"Cálculo","creditos":5}
		]}`)
	})
	got, err := c.Courses(context.Background(), "Ingeniería de Software")
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if gotQuery != "Ingeniería de Software" {
		t.Errorf("carrera query = %q", gotQuery)
	}
	want := []Course{
		{ID: "7", Code: "CS101", Name: "Intro", Program: "CS", Credits: 4, Impact: 0.5, Level: 1},
		{Code: "MA101", Name: "Cálculo", Credits: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Courses() mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogIsCached(t *testing.T) {
	var hits atomic.Int32
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `["CS"]`)
	}, WithCache(fc, cache.NewDefaultKeyer()))

	for i := 0; i < 3; i++ {
		if _, err := c.Programs(context.Background()); err != nil {
			t.Fatalf("Programs() error = %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("backend hits = %d, want 1", n)
	}
}

func TestInvalidPayloadIsNotCached(t *testing.T) {
	var hits atomic.Int32
	fc, _ := cache.NewFileCache(t.TempDir())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"nodes":"nope"}`)
	}, WithCache(fc, cache.NewDefaultKeyer()))

	for i := 0; i < 2; i++ {
		if _, err := c.Graph(context.Background(), ""); !errs.Is(err, errs.ErrCodeInvalidGraph) {
			t.Fatalf("Graph() error = %v, want INVALID_GRAPH", err)
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("backend hits = %d, want 2", n)
	}
}

func TestGraph(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/grafo" || r.URL.Query().Get("carrera") != "CS" {
			t.Errorf("unexpected request %s", r.URL)
		}
		io.WriteString(w, `{"nodes":[{"id":"CS101","label":"Intro","nivel":1}],"edges":[]}`)
	})
	g, err := c.Graph(context.Background(), "CS")
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "CS101" {
		t.Errorf("Graph() nodes = %+v", g.Nodes)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `["CS"]`)
	})
	got, err := c.Programs(context.Background())
	if err != nil {
		t.Fatalf("Programs() error = %v", err)
	}
	if len(got) != 1 || hits.Load() != 3 {
		t.Errorf("got %v after %d hits", got, hits.Load())
	}
}

func TestRetryExhausted(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"detail":"warming up"}`)
	})
	_, err := c.Programs(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Detail != "warming up" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if cache.IsRetryable(err) {
		t.Error("exhausted error should be unwrapped from its retry marker")
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestMutationsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.AddHistory(context.Background(), "u1", HistoryAdd{Code: "CS101", Program: "CS"})
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
		code   errs.Code
	}{
		{"detail string", 404, `{"detail":"Usuario no encontrado"}`, "Usuario no encontrado", errs.ErrCodeNotFound},
		{"message", 400, `{"message":"bad"}`, "bad", errs.ErrCodeBackend},
		{"detail list", 422, `{"detail":[{"loc":["body"],"msg":"x"}]}`, `[{"loc":["body"],"msg":"x"}]`, errs.ErrCodeBackend},
		{"plain text", 401, `nope`, "nope", errs.ErrCodeUnauthorized},
		{"empty", 403, ``, "", errs.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.User(context.Background(), "u1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Detail != tt.detail {
				t.Errorf("APIError = %+v", apiErr)
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("GetCode = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	var auth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		io.WriteString(w, `{"id":"u1"}`)
	})
	ctx := context.Background()
	c.User(ctx, "u1")
	c.User(WithToken(ctx, "tok"), "u1")
	if diff := cmp.Diff([]string{"", "Bearer tok"}, auth); diff != "" {
		t.Errorf("Authorization headers (-want +got):\n%s", diff)
	}
}

func TestPlanDefaults(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/planificar" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"recomendacion_optima":[{"codigo":"CS102","nombre":"Data","creditos":4}],"cursos_disponibles":[],"extra":1}`)
	})
	resp, err := c.Plan(context.Background(), PlanRequest{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := map[string]any{"historial": []any{}, "max_creditos": float64(22), "carrera": nil}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("request body (-want +got):\n%s", diff)
	}
	if resp.Credits() != 4 || len(resp.Available) != 0 {
		t.Errorf("Plan() = %+v", resp)
	}
	var raw map[string]any
	json.Unmarshal(resp.Raw, &raw)
	if raw["extra"] != float64(1) {
		t.Errorf("Raw should keep unmodeled fields, got %s", resp.Raw)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	type call struct{ Method, Path, Query, Body string }
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery, string(b)})
		if r.Method == http.MethodGet {
			io.WriteString(w, `{"cursos":[{"curso_codigo":"CS101","carrera":"CS","creditos":4}],"total_creditos":4}`)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	})
	ctx := WithToken(context.Background(), "tok")

	h, err := c.History(ctx, "u1", "CS")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if h.TotalCredits != 4 || len(h.Courses) != 1 {
		t.Errorf("History() = %+v", h)
	}
	if _, err := c.AddHistory(ctx, "u1", HistoryAdd{Code: "CS102", Program: "CS"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UpdateHistory(ctx, "u1", "CS101", HistoryUpdate{Program: "CS", ApprovedAt: "2024-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.DeleteHistory(ctx, "u1", "CS101", "CS"); err != nil {
		t.Fatal(err)
	}
	total := 4
	if _, err := c.UpdateUser(ctx, "u1", UserUpdate{TotalCredits: &total}); err != nil {
		t.Fatal(err)
	}

	want := []call{
		{"GET", "/api/usuario/u1/historial", "carrera=CS", ""},
		{"POST", "/api/usuario/u1/historial", "", `{"curso_codigo":"CS102","carrera":"CS"}`},
		{"PUT", "/api/usuario/u1/historial/CS101", "", `{"carrera":"CS","aprobado_en":"2024-1"}`},
		{"DELETE", "/api/usuario/u1/historial/CS101", "carrera=CS", ""},
		{"PUT", "/api/usuario/u1", "", `{"creditos_totales":4}`},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestPathValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	ctx := context.Background()
	if _, err := c.User(ctx, "../admin"); !errs.Is(err, errs.ErrCodeInvalidUserID) {
		t.Errorf("User() error = %v", err)
	}
	if _, err := c.DeleteHistory(ctx, "u1", "CS/101", ""); !errs.Is(err, errs.ErrCodeInvalidCourseCode) {
		t.Errorf("DeleteHistory() error = %v", err)
	}
}

func TestLogin(t *testing.T) {
	var got LoginRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	})
	if err := c.Login(context.Background(), LoginRequest{Email: "a@b.c", UserID: "u1"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.Email != "a@b.c" || got.UserID != "u1" {
		t.Errorf("login body = %+v", got)
	}
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}), WithRetry(1, 0))
	_, err := c.Programs(context.Background())
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("error = %v, want TIMEOUT", err)
	}
}
