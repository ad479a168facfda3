package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/cache"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/curriculum/transform"
	"github.com/matzehuels/curricula/pkg/graph"
	"github.com/matzehuels/curricula/pkg/history"
	"github.com/matzehuels/curricula/pkg/plans"
	"github.com/matzehuels/curricula/pkg/session"
)

// Backend is the subset of [backend.Client] the server proxies to.
type Backend interface {
	history.Backend
	Programs(ctx context.Context) ([]string, error)
	Courses(ctx context.Context, program string) ([]backend.Course, error)
	Graph(ctx context.Context, program string) (graph.Graph, error)
	Plan(ctx context.Context, req backend.PlanRequest) (backend.PlanResponse, error)
	User(ctx context.Context, id string) (backend.User, error)
	Login(ctx context.Context, req backend.LoginRequest) error
}

// Options configures a [Server]. Zero values get defaults.
type Options struct {
	// Sessions holds cookie sessions. Default: in-memory.
	Sessions session.Store
	// Plans archives planner answers. Nil disables archiving.
	Plans plans.Store
	// Cache backs the history store. Nil disables history caching.
	Cache cache.Cache
	Keys  cache.Keyer

	// JWTSecret verifies bearer tokens. Empty accepts unverified tokens.
	JWTSecret     string
	SessionTTL    time.Duration
	CookieName    string
	SecureCookies bool

	MaxCredits int
	Policy     transform.Policy
	Layout     layout.Options
}

func (o Options) withDefaults() Options {
	if o.Sessions == nil {
		o.Sessions = session.NewMemoryStore()
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = session.DefaultTTL
	}
	if o.CookieName == "" {
		o.CookieName = "curricula_session"
	}
	if o.MaxCredits <= 0 {
		o.MaxCredits = backend.DefaultMaxCredits
	}
	if o.Layout == (layout.Options{}) {
		o.Layout = layout.DefaultOptions()
	}
	return o
}

// Server is the HTTP API. Create one with [New].
type Server struct {
	backend Backend
	history *history.Store
	syncer  *history.Syncer
	opts    Options
	logger  *log.Logger
	router  chi.Router
}

// New builds the server and its routes.
func New(b Backend, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	opts = opts.withDefaults()
	store := history.NewStore(b, opts.Cache, opts.Keys)
	s := &Server{
		backend: b,
		history: store,
		syncer:  history.NewSyncer(b, store, logger),
		opts:    opts,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(s.recoverer)
	r.Use(s.resolveSession)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "No encontrado")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/carreras", s.handlePrograms)
		r.Get("/cursos", s.handleCourses)
		r.Get("/grafo", s.handleGraph)
		r.Get("/malla", s.handleMap)
		r.Get("/malla.svg", s.handleMapSVG)
		r.Post("/planificar", s.handlePlan)
		r.Get("/planes", requireSession(s.handlePlans))

		r.Route("/usuario/{id}", func(r chi.Router) {
			r.Get("/", requireOwner(s.handleUser))
			r.Put("/", requireOwner(s.handleUpdateUser))
			r.Get("/historial", requireOwner(s.handleHistory))
			r.Post("/historial", requireOwner(s.handleAddHistory))
			r.Post("/historial/sync", requireOwner(s.handleSyncHistory))
			r.Put("/historial/{codigo}", s.handleUpdateHistory)
			r.Delete("/historial/{codigo}", s.handleDeleteHistory)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/callback", s.handleCallback)
		r.Post("/logout", s.handleLogout)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
