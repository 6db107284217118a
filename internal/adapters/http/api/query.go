package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/pkg/logger"
)

// maxQueryBody bounds the POST /query request body.
const maxQueryBody = 64 << 10

// QueryDependencies defines the free-text query operation.
type QueryDependencies interface {
	Query(ctx context.Context, text string) (service.QueryResult, error)
}

// QueryHandler handles natural-language queries.
type QueryHandler struct {
	deps   QueryDependencies
	logger logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps QueryDependencies, log logger.Logger) *QueryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryHandler{deps: deps, logger: log}
}

type queryRequest struct {
	Query string `json:"query"`
}

// HandleQuery handles POST /query requests with a {"query": "..."} body.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	const op = "api.query"
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		fail(r.Context(), h.logger, w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	out, err := h.deps.Query(r.Context(), req.Query)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
