package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"graphdesk-backend/application/services"
	"graphdesk-backend/pkg/common"
)

// GraphHandler exposes the constrained reachability query.
type GraphHandler struct {
	reach  *services.ReachabilityService
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(reach *services.ReachabilityService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{reach: reach, logger: logger}
}

// Reachable handles GET /nodes/{nodeID}/reachable.
// Query parameters: maxDepth, maxDistance (either may be absent), condition
// (AND or OR, defaults to AND).
func (h *GraphHandler) Reachable(w http.ResponseWriter, r *http.Request) {
	query := services.ReachabilityQuery{
		StartID:   chi.URLParam(r, "nodeID"),
		Condition: services.ConditionAnd,
	}

	if v := r.URL.Query().Get("maxDepth"); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "maxDepth must be an integer")
			return
		}
		query.MaxDepth = &depth
	}
	if v := r.URL.Query().Get("maxDistance"); v != "" {
		dist, err := strconv.ParseFloat(v, 64)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "maxDistance must be a number")
			return
		}
		query.MaxDistance = &dist
	}
	if v := r.URL.Query().Get("condition"); v != "" {
		query.Condition = services.BoundCondition(v)
	}

	results, err := h.reach.Reachable(query)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, results)
}
