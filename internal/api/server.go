// Package api exposes the analysis pipeline over HTTP for bots and other
// services.
//
// Routes:
//
//	POST /v1/analyze                                   analyse a mod list
//	GET  /v1/items/{id}                                inspect one workshop item
//	GET  /v1/submissions/{submitter}/{context}/last    rebuild the last submission
//	GET  /healthz                                      liveness
//	GET  /metrics                                      Prometheus metrics
//
// Errors are JSON objects carrying the machine-readable code from pkg/errors.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/pipeline"
)

// Analyzer is the part of pipeline.Runner the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	LastAnalysis(ctx context.Context, submitterID, contextID string) (*pipeline.History, error)
	Inspect(ctx context.Context, id string, refresh bool) (*mod.Metadata, error)
}

// Options configures a Server.
type Options struct {
	// Defaults applied to every analysis request. Document, submitter and
	// context come from the request.
	Analysis pipeline.Options

	// MaxDocumentBytes bounds uploaded mod lists. Default
	// errs.DefaultMaxDocumentBytes.
	MaxDocumentBytes int64

	// Top is the listing length returned with each analysis.
	Top int

	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server routes HTTP requests to an Analyzer.
type Server struct {
	runner Analyzer
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds a server.
func New(runner Analyzer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = errs.DefaultMaxDocumentBytes
	}
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/items/{id}", s.handleItem)
		r.Get("/submissions/{submitter}/{context}/last", s.handleLast)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
