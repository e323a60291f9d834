package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/metrics"
	healthuc "github.com/kailas-cloud/veccoll/internal/usecase/health"
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
	"github.com/kailas-cloud/veccoll/internal/usecase/store"
)

const (
	defaultQueryLimit = 5
	maxQueryLimit     = 100
)

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeCollectionNotFound ErrorCode = "collection_not_found"
	ErrorCodeBindingConflict    ErrorCode = "binding_conflict"
	ErrorCodeUnsupported        ErrorCode = "unsupported_provider"
	ErrorCodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	ErrorCodeInternal           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Reporter builds the collections report.
type Reporter interface {
	Report(ctx context.Context) ([]reportuc.Row, error)
}

// Querier runs nearest-neighbour queries against a collection.
type Querier interface {
	Query(ctx context.Context, selector, text string, limit int) (string, []store.Match, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the read-only collections API.
type Server struct {
	report        Reporter
	query         Querier
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(report Reporter, query Querier, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		report: report,
		query:  query,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeCollectionNotFound),
		sentinelHandler(domain.ErrInvalidConfiguration, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrStoreConflict, http.StatusConflict, ErrorCodeBindingConflict),
		sentinelHandler(domain.ErrUnsupportedProvider, http.StatusUnprocessableEntity, ErrorCodeUnsupported),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProvider),
	}
	return s
}

// Routes builds the router with the standard middleware stack.
func (s *Server) Routes(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/report", s.Report)
		r.Get("/collections/{name}/query", s.Query)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	return r
}

// Report handles GET /v1/report.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	rows, err := s.report.Report(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": reportuc.JSONRows(rows)})
}

// queryResponse is the body of a successful query.
type queryResponse struct {
	Collection string        `json:"collection"`
	Query      string        `json:"query"`
	Results    []store.Match `json:"results"`
}

// Query handles GET /v1/collections/{name}/query?q=&limit=.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	if text == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "query parameter q is required")
		return
	}

	limit := defaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxQueryLimit {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	name, matches, err := s.query.Query(r.Context(), chi.URLParam(r, "name"), text, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if matches == nil {
		matches = []store.Match{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Collection: name, Query: text, Results: matches})
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status      healthuc.Status                 `json:"status"`
	Checks      map[string]healthuc.CheckResult `json:"checks"`
	Collections int                             `json:"collections"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:      report.Status,
		Checks:      report.Checks,
		Collections: report.Collections,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidConfiguration,
		domain.ErrStoreConflict,
		domain.ErrUnsupportedProvider,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
