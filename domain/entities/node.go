// Package entities holds the value types of the graph document: nodes, edges,
// and the view/filter state that travels with them. Entities carry data and
// invariants only; all coordination lives in the application layer.
package entities

import (
	pkgerrors "graphdesk-backend/pkg/errors"
)

// DefaultNodeRadius is applied when a node is created without an explicit radius.
const DefaultNodeRadius = 20.0

// Node is a single vertex of the graph document.
//
// SequenceID is assigned once at creation, never reused, and is the canonical
// ordering key for pagination and display. It is independent of ID.
type Node struct {
	ID           string   `json:"id" validate:"required"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Label        string   `json:"label"`
	ChineseLabel string   `json:"chineseLabel,omitempty"`
	Color        string   `json:"color"`
	Radius       float64  `json:"radius" validate:"gte=0"`
	Category     string   `json:"category,omitempty"`
	Layers       LayerSet `json:"layers"`
	SequenceID   int64    `json:"sequenceId"`
}

// Validate checks the node's invariants.
func (n *Node) Validate() error {
	if n.ID == "" {
		return pkgerrors.NewValidationError("node id cannot be empty")
	}
	if n.Radius < 0 {
		return pkgerrors.NewValidationError("node radius cannot be negative")
	}
	return nil
}

// Clone returns a deep copy of the node. Buffer snapshots and baseline entries
// must never alias the live entity.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Layers = n.Layers.Clone()
	return &c
}

// Equal reports whether two nodes have identical field values.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.ID == other.ID &&
		n.X == other.X &&
		n.Y == other.Y &&
		n.Label == other.Label &&
		n.ChineseLabel == other.ChineseLabel &&
		n.Color == other.Color &&
		n.Radius == other.Radius &&
		n.Category == other.Category &&
		n.SequenceID == other.SequenceID &&
		n.Layers.Equal(other.Layers)
}
