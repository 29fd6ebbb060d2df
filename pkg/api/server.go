// Package api exposes the operational HTTP surface: liveness, runtime
// status, metrics and cache statistics. The decision workflow itself is
// a library surface, not an HTTP one.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spendpilot/pkg/logging"
	"spendpilot/pkg/metrics/memory"
	"spendpilot/pkg/store"
)

// Config configures the ops server.
type Config struct {
	// Addr to listen on, e.g. ":8080"
	Addr string

	// Ring provides the in-memory metrics snapshot for /metrics/json;
	// nil disables the endpoint
	Ring *memory.RingCollector

	// Registry backs /metrics; nil disables the endpoint
	Registry *prometheus.Registry

	// Cache backs /cache/stats; nil disables the endpoint
	Cache store.CacheStore

	Logger *logging.Logger

	// ReadTimeout and WriteTimeout default to 10s each
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the operational HTTP server.
type Server struct {
	config  Config
	logger  *logging.Logger
	http    *http.Server
	started time.Time
}

// NewServer builds the ops server and its routes.
func NewServer(config Config) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Global()
	}

	s := &Server{
		config:  config,
		logger:  logger.Named("api"),
		started: time.Now(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if config.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(config.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if config.Ring != nil {
		router.HandleFunc("/metrics/json", s.handleMetricsJSON).Methods(http.MethodGet)
	}
	if config.Cache != nil {
		router.HandleFunc("/cache/stats", s.handleCacheStats).Methods(http.MethodGet)
	}
	router.Use(s.logMiddleware)

	s.http = &http.Server{
		Addr:         config.Addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("ops server listening", zap.String("addr", s.config.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Ring.Snapshot())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":  s.config.Cache.Len(),
		"capacity": s.config.Cache.Capacity(),
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
