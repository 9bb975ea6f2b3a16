// Package handlers maps the consistency core's operations onto REST
// endpoints, 1:1 with the core contract.
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

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	session *services.EditSession
	logger  *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(session *services.EditSession, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{session: session, logger: logger}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	ID           string   `json:"id,omitempty"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Label        string   `json:"label" validate:"required,max=200"`
	ChineseLabel string   `json:"chineseLabel,omitempty" validate:"omitempty,max=200"`
	Color        string   `json:"color,omitempty"`
	Radius       float64  `json:"radius,omitempty" validate:"omitempty,gt=0"`
	Category     string   `json:"category,omitempty"`
	Layers       []string `json:"layers,omitempty"`
}

// UpdateNodeRequest represents the request body for updating a node
type UpdateNodeRequest struct {
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Label        string   `json:"label" validate:"required,max=200"`
	ChineseLabel string   `json:"chineseLabel,omitempty" validate:"omitempty,max=200"`
	Color        string   `json:"color,omitempty"`
	Radius       float64  `json:"radius,omitempty" validate:"omitempty,gt=0"`
	Category     string   `json:"category,omitempty"`
	Layers       []string `json:"layers,omitempty"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}

	node := &entities.Node{
		ID:           req.ID,
		X:            req.X,
		Y:            req.Y,
		Label:        req.Label,
		ChineseLabel: req.ChineseLabel,
		Color:        req.Color,
		Radius:       req.Radius,
		Category:     req.Category,
		Layers:       entities.NewLayerSet(req.Layers...),
	}
	created, err := h.session.CreateNode(node)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, created)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.session.GetNode(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, node)
}

// UpdateNode handles PUT /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Validation error: "+err.Error())
		return
	}

	node := &entities.Node{
		ID:           chi.URLParam(r, "nodeID"),
		X:            req.X,
		Y:            req.Y,
		Label:        req.Label,
		ChineseLabel: req.ChineseLabel,
		Color:        req.Color,
		Radius:       req.Radius,
		Category:     req.Category,
		Layers:       entities.NewLayerSet(req.Layers...),
	}
	updated, err := h.session.UpdateNode(node)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteNode handles DELETE /nodes/{nodeID}. Incident edges cascade.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteNode(chi.URLParam(r, "nodeID")); err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pendingChanges": h.session.ChangeCount(),
	})
}

// ListNodes handles GET /nodes with sequence-cursor pagination
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes := h.session.Nodes()
	page, info := common.Paginate(nodes, common.ParsePageRequest(r), func(n *entities.Node) int64 {
		return n.SequenceID
	})
	common.RespondJSONWithMeta(w, http.StatusOK, page, &common.MetaInfo{Pagination: info})
}

// GetConnections handles GET /nodes/{nodeID}/connections
func (h *NodeHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.session.Connections(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, conns)
}
