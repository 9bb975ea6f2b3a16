package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"graphdesk-backend/application/services"
	"graphdesk-backend/pkg/common"
	"graphdesk-backend/pkg/utils"
)

// MergeHandler exposes the cross-store merge engine.
type MergeHandler struct {
	merger *services.MergeService
	logger *zap.Logger
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(merger *services.MergeService, logger *zap.Logger) *MergeHandler {
	return &MergeHandler{merger: merger, logger: logger}
}

// MergeRequest represents the request body for a merge run
type MergeRequest struct {
	SourcePath         string `json:"sourcePath" validate:"required"`
	ConflictResolution string `json:"conflictResolution" validate:"required,oneof=skip replace rename"`
}

// Merge handles POST /merge
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}

	policy, err := services.ParseMergePolicy(req.ConflictResolution)
	if err != nil {
		respondAppError(w, err)
		return
	}
	stats, err := h.merger.Merge(r.Context(), req.SourcePath, policy)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}
