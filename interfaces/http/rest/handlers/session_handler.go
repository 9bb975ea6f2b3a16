package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"graphdesk-backend/application/services"
	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/common"
	"graphdesk-backend/pkg/utils"
)

// SessionHandler exposes the save/discard reconciler and the view/filter
// state of the active session.
type SessionHandler struct {
	session *services.EditSession
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session *services.EditSession, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger}
}

// GetChanges handles GET /session/changes
func (h *SessionHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pending": h.session.HasPendingChanges(),
		"count":   h.session.ChangeCount(),
	})
}

// Save handles POST /session/save
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.Save(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Discard handles POST /session/discard
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.Discard(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ViewStateRequest represents the request body for updating the viewport
type ViewStateRequest struct {
	Scale   float64 `json:"scale" validate:"gt=0"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// GetViewState handles GET /state/view
func (h *SessionHandler) GetViewState(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.session.ViewState())
}

// SetViewState handles PUT /state/view
func (h *SessionHandler) SetViewState(w http.ResponseWriter, r *http.Request) {
	var req ViewStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}
	view := entities.ViewState{Scale: req.Scale, OffsetX: req.OffsetX, OffsetY: req.OffsetY}
	if err := h.session.SetViewState(view); err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// FilterStateRequest represents the request body for updating the layer filter
type FilterStateRequest struct {
	Enabled      bool     `json:"enabled"`
	ActiveLayers []string `json:"activeLayers"`
	Mode         string   `json:"mode" validate:"required,oneof=include exclude"`
}

// GetFilterState handles GET /state/filter
func (h *SessionHandler) GetFilterState(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.session.FilterState())
}

// SetFilterState handles PUT /state/filter
func (h *SessionHandler) SetFilterState(w http.ResponseWriter, r *http.Request) {
	var req FilterStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}
	filter := entities.FilterState{
		Enabled:      req.Enabled,
		ActiveLayers: entities.NewLayerSet(req.ActiveLayers...),
		Mode:         entities.FilterMode(req.Mode),
	}
	if err := h.session.SetFilterState(filter); err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pendingChanges": h.session.ChangeCount(),
	})
}
