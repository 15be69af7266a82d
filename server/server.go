// Package server implements the optional status HTTP server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/livefeed/pkg/scheduler"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/reporter.go -pkg mocks -skip-ensure -fmt goimports . Reporter

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	reporter Reporter
	metrics  MetricsProvider
	version  string
	debug    bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Reporter gives access to the last sweep
type Reporter interface {
	LastReport() *scheduler.Report
}

// MetricsProvider exposes and records prometheus metrics
type MetricsProvider interface {
	Handler() http.Handler
	InstrumentHandler(next http.Handler) http.Handler
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance, metrics is optional
func New(cfg ConfigProvider, reporter Reporter, metrics MetricsProvider, version string, debug bool) *Server {
	s := &Server{
		config:   cfg,
		reporter: reporter,
		metrics:  metrics,
		version:  version,
		debug:    debug,
		router:   routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting status server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down status server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("livefeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.metrics != nil {
		s.router.Use(s.metrics.InstrumentHandler)
	}
	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024))
}

// route paths served behind the middleware stack
const (
	statusPath  = "/api/v1/status"
	sweepPath   = "/api/v1/sweep"
	metricsPath = "/metrics"
)

// Routes lists the paths served by the status server, used to bound request metric labels
func Routes() []string {
	return []string{statusPath, sweepPath, metricsPath}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET "+statusPath, s.statusHandler)
	s.router.HandleFunc("GET "+sweepPath, s.sweepHandler)

	if s.metrics != nil {
		s.router.Handle("GET "+metricsPath, s.metrics.Handler())
	}
}

// statusHandler returns service status with a short summary of the last sweep
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	if rep := s.reporter.LastReport(); rep != nil {
		status["last_sweep"] = map[string]any{
			"id":        rep.ID,
			"started":   rep.Started,
			"duration":  rep.Duration.String(),
			"sources":   rep.Sources,
			"due":       rep.Due,
			"items":     rep.Items,
			"delivered": rep.Delivered,
		}
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// sweepHandler returns the full report of the last sweep
func (s *Server) sweepHandler(w http.ResponseWriter, r *http.Request) {
	rep := s.reporter.LastReport()
	if rep == nil {
		RenderError(w, r, errors.New("no sweep completed yet"), http.StatusNotFound)
		return
	}
	RenderJSON(w, r, http.StatusOK, rep)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
