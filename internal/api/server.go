// Package api serves the read-only query surface over the indexed messages:
// keyword search, latest messages, health, and Prometheus metrics. It never
// writes to the sink and never talks to the ingestion engine directly; health
// is read from the snapshot file the engine maintains.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leefowlercu/chatwatcher/internal/metrics"
	"github.com/leefowlercu/chatwatcher/internal/monitor"
	"github.com/leefowlercu/chatwatcher/internal/sink"
	"github.com/leefowlercu/chatwatcher/internal/version"
)

// Result page size limits.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// minEpochMillis is the smallest accepted begin value for /latest. Anything
// below it is a seconds timestamp or garbage, both rejected.
const minEpochMillis = 1_000_000_000_000

// ServerConfig holds configuration for the query API server.
type ServerConfig struct {
	Host       string
	Port       int
	HealthFile string
}

// Server is the HTTP query API server. It is safe for concurrent use.
type Server struct {
	mu     sync.RWMutex
	store  sink.Querier
	config ServerConfig
	logger *slog.Logger
	server *http.Server
	router *chi.Mux
}

// NewServer creates a query API server backed by the given store.
func NewServer(store sink.Querier, config ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		config: config,
		logger: logger,
		router: chi.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(requestID(s.logger))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/latest", s.handleLatest)
	s.router.Handle("/metrics", metrics.Handler())
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// rootResponse describes the service for GET /.
type rootResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Service:   "chatwatcher",
		Version:   version.Get().Version,
		Endpoints: []string{"/health", "/search", "/latest", "/metrics"},
	})
}

// healthResponse combines sink connectivity with the engine's persisted
// snapshot. Monitor is null when no health file exists, which is normal when
// the API runs without a monitor on the same host.
type healthResponse struct {
	Status  string                  `json:"status"`
	Sink    string                  `json:"sink"`
	Monitor *monitor.HealthSnapshot `json:"monitor"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Sink: "connected"}

	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Sink = "unreachable"
		s.logger.Warn("sink ping failed", "error", err)
	}

	snap, err := monitor.ReadHealthFile(s.config.HealthFile)
	if err == nil {
		resp.Monitor = snap
		if resp.Status == "healthy" && snap.Status != "running" {
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keywords := r.URL.Query().Get("keywords")
	if keywords == "" {
		keywords = r.URL.Query().Get("q")
	}
	if keywords == "" {
		writeJSONError(w, http.StatusBadRequest, "keywords parameter is required")
		return
	}

	q := sink.SearchQuery{Keywords: keywords}

	var err error
	if q.Start, err = parseTimeParam(r, "start_time"); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.End, err = parseTimeParam(r, "end_time"); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	q.Limit, q.Offset, err = parsePaging(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.store.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	q := sink.LatestQuery{}

	if raw := r.URL.Query().Get("begin"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "begin must be an integer epoch in milliseconds")
			return
		}
		if ms < minEpochMillis {
			writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("begin must be an epoch in milliseconds (>= %d)", minEpochMillis))
			return
		}
		t := time.UnixMilli(ms).UTC()
		q.Begin = &t
	}

	var err error
	q.Limit, q.Offset, err = parsePaging(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.store.Latest(r.Context(), q)
	if err != nil {
		s.logger.Error("latest query failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "latest query failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parsePaging reads limit (size is accepted as an alias) and offset.
func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		raw = r.URL.Query().Get("size")
	}
	if raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			return 0, 0, fmt.Errorf("limit must be an integer between 1 and %d", maxPageSize)
		}
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}

// parseTimeParam reads an optional RFC 3339 timestamp query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// Start starts the HTTP server and blocks until it's stopped.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	server := s.server
	s.mu.Unlock()

	s.logger.Info("query api listening", "addr", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error; %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}

	return nil
}
