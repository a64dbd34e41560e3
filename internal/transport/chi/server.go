// Package chi serves the search API over HTTP.
package chi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/poemdex/internal/domain/search/request"
	"github.com/kailas-cloud/poemdex/internal/domain/search/result"
	"github.com/kailas-cloud/poemdex/internal/metrics"
	healthuc "github.com/kailas-cloud/poemdex/internal/usecase/health"
)

// Searcher executes a validated request.
type Searcher interface {
	Do(ctx context.Context, req request.Request) ([]result.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Health(ctx context.Context) healthuc.Report
}

// SearchResponse is the body of GET /v1/search.
type SearchResponse struct {
	Results []result.Result `json:"results"`
}

// Server holds the HTTP handlers.
type Server struct {
	search Searcher
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{search: search, health: health, logger: logger}
}

// Router mounts the API with its middleware stack. Empty apiKeys disables auth.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware)

	r.Get("/v1/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	return r
}

// Search handles GET /v1/search?q=&author=&limit=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	req, err := request.New(q.Get("q"), q.Get("author"), limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	res, err := s.search.Do(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if res == nil {
		res = []result.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: res})
}

// HealthCheck handles GET /health. Anything but healthy is a 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Health(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
