package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/policy"
	"github.com/MikeSquared-Agency/lure/internal/store"
)

type Responder interface {
	Respond(ctx context.Context, history []dialogue.Turn, personaName string, hint dialogue.Hint) dialogue.Record
}

type Selector interface {
	Select(ctx context.Context, message string) policy.Selection
}

type Rewarder interface {
	Reward(ctx context.Context, category, persona string, success bool) error
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Orchestrator Responder
	Selector     Selector
	Rewarder     Rewarder
	Store        store.ScoreStore
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
	APIToken     string
	CaptureLog   string

	// Status fields reported by /api/v1/lure/status.
	ScoreBackend string
	Epsilon      float64
	BusConnected func() bool
}

type Server struct {
	router *chi.Mux
	port   int
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		deps:   deps,
		logger: deps.Logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/lure/status", s.status)
	router.Get("/personas", s.personas)
	router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(deps.APIToken))
		r.Post("/interact", s.interact)
		r.Post("/select", s.selectPersona)
		r.Post("/reward", s.reward)
		r.Get("/scores", s.scores)
		r.Get("/captures", s.captures)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	bus := false
	if s.deps.BusConnected != nil {
		bus = s.deps.BusConnected()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":         "lure",
		"status":        "active",
		"score_backend": s.deps.ScoreBackend,
		"epsilon":       s.deps.Epsilon,
		"nats":          bus,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
