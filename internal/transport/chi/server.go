// Package chi exposes the search use cases over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/iiifsearch/internal/logger"
	healthuc "github.com/kailas-cloud/iiifsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/iiifsearch/internal/usecase/search"
)

// Error codes reported in ErrorResponse.Code.
const (
	CodeInvalidParameter = "invalid_parameter"
	CodeSearchBackend    = "search_backend_error"
	CodeMalformedSnippet = "malformed_snippet"
	CodeInternal         = "internal_error"
)

// prettyParam turns on indented JSON output. It is not a search parameter,
// so the request layer still reports it as ignored.
const prettyParam = "pretty"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Parameter string `json:"parameter,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string, pretty bool) bool

// Server serves the IIIF search routes.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	maxRows       int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxRows caps the collection page size.
func NewServer(search *searchuc.Service, health *healthuc.Service, maxRows int, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		health:  health,
		maxRows: maxRows,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		invalidParameterHandler,
		sentinelHandler(domain.ErrSearchBackend, http.StatusBadGateway, CodeSearchBackend),
		sentinelHandler(domain.ErrMalformedSnippet, http.StatusInternalServerError, CodeMalformedSnippet),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/iiif/search/manifest/{id}", s.SearchManifest)
	r.Get("/iiif/search/collection/{id}", s.SearchCollection)
	r.Get("/iiif/search/collection/{id}/raw", s.SearchCollectionRaw)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchManifest handles GET /iiif/search/manifest/{id}.
func (s *Server) SearchManifest(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}
	pretty := params.Has(prettyParam)

	req, err := request.NewManifest(chi.URLParam(r, "id"), params)
	if err != nil {
		s.handleDomainError(w, r, err, pretty)
		return
	}

	resp, err := s.search.Manifest(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, pretty)
		return
	}

	writeJSON(w, http.StatusOK, resp, pretty)
}

// SearchCollection handles GET /iiif/search/collection/{id}.
func (s *Server) SearchCollection(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}
	pretty := params.Has(prettyParam)

	req, err := request.NewCollection(chi.URLParam(r, "id"), params, s.maxRows)
	if err != nil {
		s.handleDomainError(w, r, err, pretty)
		return
	}

	resp, err := s.search.Collection(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, pretty)
		return
	}

	writeJSON(w, http.StatusOK, resp, pretty)
}

// SearchCollectionRaw handles GET /iiif/search/collection/{id}/raw.
// The engine body is passed through untouched.
func (s *Server) SearchCollectionRaw(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}

	req, err := request.NewCollection(chi.URLParam(r, "id"), params, s.maxRows)
	if err != nil {
		s.handleDomainError(w, r, err, false)
		return
	}

	body, err := s.search.CollectionRaw(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, false)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	}, false)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) parseParams(w http.ResponseWriter, r *http.Request) (request.Params, bool) {
	params, err := request.ParseQuery(r.URL.RawQuery)
	if err != nil {
		s.handleDomainError(w, r, err, false)
		return request.Params{}, false
	}
	return params, true
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, pretty bool) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	}, pretty)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidParameter,
		domain.ErrSearchBackend,
		domain.ErrMalformedSnippet,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string, pretty bool) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg, pretty)
		return true
	}
}

// invalidParameterHandler names the offending parameter; its reason is client-facing.
func invalidParameterHandler(w http.ResponseWriter, err error, msg string, pretty bool) bool {
	if !errors.Is(err, domain.ErrInvalidParameter) {
		return false
	}
	var ipe *domain.InvalidParameterError
	if errors.As(err, &ipe) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:      CodeInvalidParameter,
			Message:   ipe.Error(),
			Parameter: ipe.Name,
		}, pretty)
		return true
	}
	writeError(w, http.StatusBadRequest, CodeInvalidParameter, msg, pretty)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, pretty bool) {
	log := logpkg.FromContextOr(r.Context(), s.logger).With(
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.String("url", r.URL.String()),
		zap.String("document_id", chi.URLParam(r, "id")),
		zap.String("query", r.URL.Query().Get("q")),
	)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg, pretty) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", pretty)
}
