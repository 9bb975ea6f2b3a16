package entities

import (
	pkgerrors "graphdesk-backend/pkg/errors"
)

// DefaultEdgeWeight is applied when an edge is created without an explicit weight.
const DefaultEdgeWeight = 1.0

// Edge is a directed connection between two nodes. Traversal treats it as
// bidirectional; direction only matters for storage identity.
type Edge struct {
	ID         string  `json:"id" validate:"required"`
	From       string  `json:"from" validate:"required"`
	To         string  `json:"to" validate:"required"`
	Weight     float64 `json:"weight" validate:"gt=0"`
	Category   string  `json:"category,omitempty"`
	SequenceID int64   `json:"sequenceId"`
}

// Validate checks the edge's invariants.
func (e *Edge) Validate() error {
	if e.ID == "" {
		return pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if e.From == "" || e.To == "" {
		return pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if e.Weight <= 0 {
		return pkgerrors.NewValidationError("edge weight must be positive")
	}
	return nil
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Touches reports whether the edge is incident to the given node.
func (e *Edge) Touches(nodeID string) bool {
	return e.From == nodeID || e.To == nodeID
}

// IsSelfLoop reports whether both endpoints are the same node.
func (e *Edge) IsSelfLoop() bool {
	return e.From == e.To
}

// PairKey returns a symmetric key identifying the unordered endpoint pair.
// A forward and a reverse edge between the same two nodes share a key, which
// is how the connections query folds them into one bidirectional relation.
func (e *Edge) PairKey() string {
	if e.From < e.To {
		return e.From + "\x00" + e.To
	}
	return e.To + "\x00" + e.From
}
