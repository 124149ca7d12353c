package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/jobs"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/server/middleware"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/health"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/tracing"
)

// BuildInfo carries the build metadata served at /health/version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options are the optional collaborators of the server. Zero values get
// working defaults: a default logger, a disabled collector and an empty
// health checker.
type Options struct {
	Logger    *slog.Logger
	Collector *metrics.Collector
	Checker   *health.Checker
	Build     BuildInfo
}

// Server exposes the conversion service over HTTP.
type Server struct {
	config    config.ServerConfig
	store     *jobs.Store
	runner    *jobs.Runner
	execute   jobs.ExecuteFunc
	logger    *slog.Logger
	collector *metrics.Collector
	checker   *health.Checker
	build     BuildInfo

	httpServer   *http.Server
	shutdownChan chan struct{}
	requestOnce  sync.Once
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool

	openapiMu  sync.RWMutex
	openapiDoc []byte
}

// NewServer creates the server and generates the initial OpenAPI
// document. The store backs the job endpoints, the runner accepts
// asynchronous submissions and execute runs synchronous requests on the
// request goroutine.
func NewServer(cfg *config.Config, store *jobs.Store, runner *jobs.Runner, execute jobs.ExecuteFunc, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector(metrics.Config{}, nil)
	}
	if opts.Checker == nil {
		opts.Checker = health.New(5 * time.Second)
	}

	s := &Server{
		config:       cfg.Server,
		store:        store,
		runner:       runner,
		execute:      execute,
		logger:       opts.Logger.With("component", "server"),
		collector:    opts.Collector,
		checker:      opts.Checker,
		build:        opts.Build,
		shutdownChan: make(chan struct{}),
	}

	if err := s.RegenerateOpenAPI(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// RegenerateOpenAPI rebuilds the OpenAPI document from cfg, writes it
// to the configured artifact path and swaps the copy served at
// /openapi. The config watcher calls this on every config change.
func (s *Server) RegenerateOpenAPI(cfg *config.Config) error {
	doc, err := MarshalOpenAPI(BuildOpenAPI(cfg, s.build.Version))
	if err != nil {
		return err
	}

	if path := cfg.Server.OpenAPIPath; path != "" {
		if err := WriteOpenAPI(path, doc); err != nil {
			return err
		}
	}

	s.openapiMu.Lock()
	s.openapiDoc = doc
	s.openapiMu.Unlock()

	s.logger.Info("openapi document regenerated",
		"path", cfg.Server.OpenAPIPath,
		"bytes", len(doc),
	)
	return nil
}

// Start starts the HTTP server and blocks until the context is
// cancelled, a termination signal arrives or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains in-flight requests, bounded by the configured
// shutdown timeout. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// RequestShutdown asks a blocked Start to shut the server down, without
// delivering a signal. Used by tests and embedding commands.
func (s *Server) RequestShutdown() {
	s.requestOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// setupRoutes builds the mux and wraps it in the middleware chain. The
// metrics middleware sits innermost so the route pattern the mux stamps
// on the request is visible to it.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLandingPage)
	mux.HandleFunc("GET /conformance", s.handleConformance)
	mux.HandleFunc("GET /openapi", s.handleOpenAPI)

	mux.HandleFunc("GET /processes", s.handleProcessList)
	mux.HandleFunc("GET /processes/{processID}", s.handleProcessDescription)
	mux.HandleFunc("POST /processes/{processID}/execution", s.handleExecute)

	mux.HandleFunc("GET /jobs", s.handleJobList)
	mux.HandleFunc("GET /jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /jobs/{id}/results", s.handleJobResults)
	mux.HandleFunc("DELETE /jobs/{id}", s.handleJobDismiss)

	mux.HandleFunc("GET /health", s.checker.ReadinessHandler())
	mux.HandleFunc("GET /health/live", s.checker.LivenessHandler())
	mux.HandleFunc("GET /health/ready", s.checker.ReadinessHandler())
	mux.HandleFunc("GET /health/version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime))
	mux.Handle("GET /metrics", s.collector.Handler())

	// Everything unmatched gets a JSON exception instead of the plain
	// text default.
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = middleware.Metrics(s.collector)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
