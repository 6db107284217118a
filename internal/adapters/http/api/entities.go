package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/internal/domain/benchmark"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/pkg/logger"
)

// EntityDependencies defines the read operations over one entity population.
type EntityDependencies interface {
	List(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error)
	Averages(ctx context.Context, kind model.Kind) (model.Averages, error)
	Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error)
	Insights(ctx context.Context, kind model.Kind, id string) (service.Insights, error)
	Benchmark(ctx context.Context, kind model.Kind, id string) (benchmark.Report, error)
}

// EntityHandler handles list, averages, detail, insights and benchmark requests.
type EntityHandler struct {
	deps   EntityDependencies
	logger logger.Logger
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies, log logger.Logger) *EntityHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EntityHandler{deps: deps, logger: log}
}

// HandleList handles GET /{kind}?limit=N&sort_order=asc|desc requests.
func (h *EntityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}

	q := r.URL.Query()
	limit := 0
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			fail(r.Context(), h.logger, w, op, fmt.Errorf("%w: limit %q is not an integer", ErrBadRequest, s))
			return
		}
	}
	order, ok := model.ParseOrder(q.Get("sort_order"))
	if !ok {
		fail(r.Context(), h.logger, w, op, fmt.Errorf("%w: %q", service.ErrInvalidOrder, q.Get("sort_order")))
		return
	}

	entities, err := h.deps.List(r.Context(), kind, limit, order)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

// HandleAverages handles GET /{kind}/metrics/averages requests.
func (h *EntityHandler) HandleAverages(w http.ResponseWriter, r *http.Request) {
	const op = "api.averages"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	avg, err := h.deps.Averages(r.Context(), kind)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, avg)
}

// HandleDetail handles GET /{kind}/{id} requests.
func (h *EntityHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.detail"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	d, err := h.deps.Detail(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleInsights handles GET /{kind}/{id}/insights requests.
func (h *EntityHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "api.insights"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	in, err := h.deps.Insights(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// HandleBenchmark handles GET /{kind}/{id}/benchmark requests.
func (h *EntityHandler) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	const op = "api.benchmark"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	report, err := h.deps.Benchmark(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
