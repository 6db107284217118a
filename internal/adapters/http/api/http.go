// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/snaptrust/internal/adapters/http/swagger"
	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/internal/domain/benchmark"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/snapshot"
	"github.com/okian/snaptrust/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Dashboard(ctx context.Context, kind model.Kind) (snapshot.Snapshot, error)
	List(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error)
	Averages(ctx context.Context, kind model.Kind) (model.Averages, error)
	Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error)
	Insights(ctx context.Context, kind model.Kind, id string) (service.Insights, error)
	Benchmark(ctx context.Context, kind model.Kind, id string) (benchmark.Report, error)
	Query(ctx context.Context, text string) (service.QueryResult, error)

	// Ready reports whether entity data can be served.
	Ready() bool
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	entityHandler    *EntityHandler
	dashboardHandler *DashboardHandler
	queryHandler     *QueryHandler
	logger           logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{logger: logger.Get().Named("api")}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.entityHandler = NewEntityHandler(deps, s.logger)
	s.dashboardHandler = NewDashboardHandler(deps, s.logger)
	s.queryHandler = NewQueryHandler(deps, s.logger)
	return s
}

// Routes returns the router with every API route attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/readyz", s.healthHandler.HandleReady)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Post("/query", s.queryHandler.HandleQuery)
	swagger.Register(r)

	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", s.entityHandler.HandleList)
		r.Get("/metrics/averages", s.entityHandler.HandleAverages)
		r.Get("/dashboard", s.dashboardHandler.HandleDashboard)
		r.Get("/{id}", s.entityHandler.HandleDetail)
		r.Get("/{id}/insights", s.entityHandler.HandleInsights)
		r.Get("/{id}/benchmark", s.entityHandler.HandleBenchmark)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor translates service errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnknownKind):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, ErrNotReady), errors.Is(err, service.ErrNoSource):
		return http.StatusServiceUnavailable, "not_ready"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status; server-side failures are logged.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// kindParam resolves the {kind} route segment.
func kindParam(r *http.Request) (model.Kind, error) {
	kind, ok := model.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		return "", service.ErrUnknownKind
	}
	return kind, nil
}
