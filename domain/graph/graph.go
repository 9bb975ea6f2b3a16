// Package graph holds the live in-memory graph the user is actively editing.
// The aggregate is not synchronized; the owning session serializes all access.
package graph

import (
	"sort"

	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

// Graph is the mutable in-memory node/edge graph. It maintains an incident-edge
// index per node so cascade deletes and connection queries avoid full scans.
type Graph struct {
	nodes    map[string]*entities.Node
	edges    map[string]*entities.Edge
	incident map[string]map[string]struct{} // node id -> edge ids touching it
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*entities.Node),
		edges:    make(map[string]*entities.Edge),
		incident: make(map[string]map[string]struct{}),
	}
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *entities.Node {
	return g.nodes[id]
}

// Edge returns the edge with the given id, or nil.
func (g *Graph) Edge(id string) *entities.Edge {
	return g.edges[id]
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether an edge with the given id exists.
func (g *Graph) HasEdge(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// PutNode inserts or replaces a node.
func (g *Graph) PutNode(n *entities.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	g.nodes[n.ID] = n
	if g.incident[n.ID] == nil {
		g.incident[n.ID] = make(map[string]struct{})
	}
	return nil
}

// PutEdge inserts or replaces an edge. Both endpoints must already exist.
func (g *Graph) PutEdge(e *entities.Edge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !g.HasNode(e.From) {
		return pkgerrors.NewReferentialError("edge source node does not exist").
			WithDetail("edgeId", e.ID).WithDetail("nodeId", e.From)
	}
	if !g.HasNode(e.To) {
		return pkgerrors.NewReferentialError("edge target node does not exist").
			WithDetail("edgeId", e.ID).WithDetail("nodeId", e.To)
	}
	if old, ok := g.edges[e.ID]; ok {
		g.unindexEdge(old)
	}
	g.edges[e.ID] = e
	g.indexEdge(e)
	return nil
}

// RemoveNode removes a node. Incident edges are the caller's responsibility;
// the session computes the cascade before calling this.
func (g *Graph) RemoveNode(id string) *entities.Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	delete(g.nodes, id)
	delete(g.incident, id)
	return n
}

// RemoveEdge removes an edge and returns it, or nil if absent.
func (g *Graph) RemoveEdge(id string) *entities.Edge {
	e, ok := g.edges[id]
	if !ok {
		return nil
	}
	g.unindexEdge(e)
	delete(g.edges, id)
	return e
}

// IncidentEdges returns all edges touching the given node.
func (g *Graph) IncidentEdges(nodeID string) []*entities.Edge {
	ids := g.incident[nodeID]
	edges := make([]*entities.Edge, 0, len(ids))
	for id := range ids {
		if e, ok := g.edges[id]; ok {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].SequenceID < edges[j].SequenceID })
	return edges
}

// Nodes returns all nodes ordered by sequence id.
func (g *Graph) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].SequenceID < nodes[j].SequenceID })
	return nodes
}

// Edges returns all edges ordered by sequence id.
func (g *Graph) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].SequenceID < edges[j].SequenceID })
	return edges
}

// Replace swaps the graph contents for the given entities, used on load.
// Edges whose endpoints are missing are dropped.
func (g *Graph) Replace(nodes []*entities.Node, edges []*entities.Edge) {
	g.nodes = make(map[string]*entities.Node, len(nodes))
	g.edges = make(map[string]*entities.Edge, len(edges))
	g.incident = make(map[string]map[string]struct{}, len(nodes))
	for _, n := range nodes {
		g.nodes[n.ID] = n
		g.incident[n.ID] = make(map[string]struct{})
	}
	for _, e := range edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			continue
		}
		g.edges[e.ID] = e
		g.indexEdge(e)
	}
}

// Snapshot returns deep copies of all nodes and edges, sequence-ordered.
// Read computations run against snapshots so writers never race them.
func (g *Graph) Snapshot() ([]*entities.Node, []*entities.Edge) {
	nodes := g.Nodes()
	edges := g.Edges()
	nodeCopies := make([]*entities.Node, len(nodes))
	for i, n := range nodes {
		nodeCopies[i] = n.Clone()
	}
	edgeCopies := make([]*entities.Edge, len(edges))
	for i, e := range edges {
		edgeCopies[i] = e.Clone()
	}
	return nodeCopies, edgeCopies
}

func (g *Graph) indexEdge(e *entities.Edge) {
	for _, nodeID := range []string{e.From, e.To} {
		if g.incident[nodeID] == nil {
			g.incident[nodeID] = make(map[string]struct{})
		}
		g.incident[nodeID][e.ID] = struct{}{}
	}
}

func (g *Graph) unindexEdge(e *entities.Edge) {
	for _, nodeID := range []string{e.From, e.To} {
		if ids, ok := g.incident[nodeID]; ok {
			delete(ids, e.ID)
		}
	}
}
