package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"graphdesk-backend/application/services"
	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/common"
	"graphdesk-backend/pkg/utils"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	session *services.EditSession
	logger  *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(session *services.EditSession, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{session: session, logger: logger}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	ID       string  `json:"id,omitempty"`
	From     string  `json:"from" validate:"required"`
	To       string  `json:"to" validate:"required"`
	Weight   float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Category string  `json:"category,omitempty"`
}

// UpdateEdgeRequest represents the request body for updating an edge
type UpdateEdgeRequest struct {
	From     string  `json:"from" validate:"required"`
	To       string  `json:"to" validate:"required"`
	Weight   float64 `json:"weight" validate:"gt=0"`
	Category string  `json:"category,omitempty"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}

	edge := &entities.Edge{
		ID:       req.ID,
		From:     req.From,
		To:       req.To,
		Weight:   req.Weight,
		Category: req.Category,
	}
	created, err := h.session.CreateEdge(edge)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, created)
}

// GetEdge handles GET /edges/{edgeID}
func (h *EdgeHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	edge, err := h.session.GetEdge(chi.URLParam(r, "edgeID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, edge)
}

// UpdateEdge handles PUT /edges/{edgeID}
func (h *EdgeHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	var req UpdateEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}

	edge := &entities.Edge{
		ID:       chi.URLParam(r, "edgeID"),
		From:     req.From,
		To:       req.To,
		Weight:   req.Weight,
		Category: req.Category,
	}
	updated, err := h.session.UpdateEdge(edge)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteEdge(chi.URLParam(r, "edgeID")); err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pendingChanges": h.session.ChangeCount(),
	})
}

// ListEdges handles GET /edges with sequence-cursor pagination
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	edges := h.session.Edges()
	page, info := common.Paginate(edges, common.ParsePageRequest(r), func(e *entities.Edge) int64 {
		return e.SequenceID
	})
	common.RespondJSONWithMeta(w, http.StatusOK, page, &common.MetaInfo{Pagination: info})
}
