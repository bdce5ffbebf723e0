package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// MLService is the machine learning surface served under /v1/ml.
type MLService interface {
	Train(ctx context.Context, namespace, classification string, features domain.Features) ([]domain.LabeledRow, error)
	Classify(ctx context.Context, namespace string, features domain.Features) (string, error)
	Dump(ctx context.Context, namespace string) ([]domain.LabeledRow, error)
}

// Deps are the collaborators behind the routes. A nil Weather disables the
// weather proxy.
type Deps struct {
	ML      MLService
	Weather domain.WeatherProvider
	Ready   sharedobs.ReadinessChecker
	Metrics *observability.Metrics
}

// Options tune server behavior per environment.
type Options struct {
	// Production redirects plain-HTTP API traffic to HTTPS.
	Production    bool
	DeployVersion string
}

// Server exposes the REST API plus health, readiness, version and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API and operational routes.
func NewServer(addr string, deps Deps, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		deps:   deps,
		opts:   opts,
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	for _, prefix := range []string{"/v1/ml", "/v1/machinelearning"} {
		mux.HandleFunc("POST "+prefix+"/{namespace}/train/{classification}", s.handleTrain)
		mux.HandleFunc("GET "+prefix+"/{namespace}/train/{classification}", s.handleTrain)
		mux.HandleFunc("POST "+prefix+"/{namespace}/classify", s.handleClassify)
		mux.HandleFunc("GET "+prefix+"/{namespace}/classify", s.handleClassify)
		mux.HandleFunc("GET "+prefix+"/{namespace}", s.handleDump)
	}
	mux.HandleFunc("GET /v1/weather", s.handleWeather)

	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
