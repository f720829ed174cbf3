// Package server exposes the simulation and the advisory agent over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/crowagent/crowagent/internal/agent"
	"github.com/crowagent/crowagent/internal/cache"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/metrics"
	"github.com/crowagent/crowagent/internal/tools"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Options are the transport settings of a Server.
type Options struct {
	Addr        string
	CORSOrigins []string
	// Credential is sent to the model gateway when a turn request carries no
	// bearer token.
	Credential string
	Defaults   tools.Defaults
}

// Server routes HTTP requests to the catalogue, the result cache and the
// orchestrator.
type Server struct {
	catalog *catalog.Catalog
	cache   *cache.ResultCache
	orch    *agent.Orchestrator
	metrics *metrics.Metrics
	opts    Options
}

func New(cat *catalog.Catalog, rc *cache.ResultCache, orch *agent.Orchestrator, m *metrics.Metrics, opts Options) *Server {
	if opts.Defaults == (tools.Defaults{}) {
		opts.Defaults = tools.DefaultDefaults()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{catalog: cat, cache: rc, orch: orch, metrics: m, opts: opts}
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.opts.Addr }

// Handler returns the routed handler wrapped in CORS, access logging and
// panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.route(r, "/health", s.health, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	s.route(r, "/v1/segments", s.listSegments, http.MethodGet)
	s.route(r, "/v1/segments/{segment}", s.getSegment, http.MethodGet)
	s.route(r, "/v1/segments/{segment}/buildings/{building}", s.buildingInfo, http.MethodGet)
	s.route(r, "/v1/segments/{segment}/turn", s.turn, http.MethodPost)
	s.route(r, "/v1/evaluate", s.evaluate, http.MethodPost)
	s.route(r, "/v1/cache", s.cacheStats, http.MethodGet)
	s.route(r, "/v1/cache", s.purgeCache, http.MethodDelete)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	logged := handlers.CustomLoggingHandler(io.Discard, cors(r), logRequest)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(logged)
}

func (s *Server) route(r *mux.Router, path string, h http.HandlerFunc, method string) {
	r.Handle(path, s.metrics.WrapHandler(path, h)).Methods(method)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		slog.Info("HTTP server stopped")
		return nil
	}
}

// logRequest writes one access-log record per request through slog.
func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Debug("HTTP request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
		"remote", p.Request.RemoteAddr,
	)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("Handler panic", "err", fmt.Sprint(v...))
}
