package api

import (
	"context"
	"net/http"

	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/snapshot"
	"github.com/okian/snaptrust/pkg/logger"
)

// DashboardDependencies defines the snapshot operation.
type DashboardDependencies interface {
	Dashboard(ctx context.Context, kind model.Kind) (snapshot.Snapshot, error)
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps   DashboardDependencies
	logger logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies, log logger.Logger) *DashboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardHandler{deps: deps, logger: log}
}

// HandleDashboard handles GET /{kind}/dashboard requests.
// Returns the freshly built metrics snapshot of the population.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	kind, err := kindParam(r)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	snap, err := h.deps.Dashboard(r.Context(), kind)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
