package graph

import (
	"sort"

	"graphdesk-backend/domain/entities"
)

// Connection is one logical relation between a node and a neighbor. A forward
// and a reverse directed edge over the same endpoint pair fold into a single
// bidirectional connection.
type Connection struct {
	Node          *entities.Node   `json:"node"`
	Edges         []*entities.Edge `json:"edges"`
	Bidirectional bool             `json:"bidirectional"`
}

// Connections returns the logical relations of the given node, folded by
// symmetric endpoint pair and ordered by the neighbor's sequence id.
// Self-loops fold onto the node itself.
func (g *Graph) Connections(nodeID string) []Connection {
	byPair := make(map[string][]*entities.Edge)
	for _, e := range g.IncidentEdges(nodeID) {
		key := e.PairKey()
		byPair[key] = append(byPair[key], e)
	}

	conns := make([]Connection, 0, len(byPair))
	for _, edges := range byPair {
		neighborID := edges[0].From
		if neighborID == nodeID {
			neighborID = edges[0].To
		}
		neighbor := g.Node(neighborID)
		if neighbor == nil {
			continue
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].SequenceID < edges[j].SequenceID })
		conns = append(conns, Connection{
			Node:          neighbor,
			Edges:         edges,
			Bidirectional: isBidirectional(edges),
		})
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Node.SequenceID < conns[j].Node.SequenceID })
	return conns
}

// isBidirectional reports whether the pair's edges cover both directions.
func isBidirectional(edges []*entities.Edge) bool {
	var forward, reverse bool
	for _, e := range edges {
		if e.IsSelfLoop() {
			return true
		}
		if e.From < e.To {
			forward = true
		} else {
			reverse = true
		}
	}
	return forward && reverse
}
