package services

import (
	"container/heap"
	"sort"

	"go.uber.org/zap"

	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/errors"
)

// BoundCondition selects how the depth and distance bounds combine.
type BoundCondition string

const (
	ConditionAnd BoundCondition = "AND"
	ConditionOr  BoundCondition = "OR"
)

// ReachabilityQuery carries the constraints of one reachable() call. Nil
// bounds are unset; with both unset nothing qualifies.
type ReachabilityQuery struct {
	StartID     string
	MaxDepth    *int
	MaxDistance *float64
	Condition   BoundCondition
}

// ReachableNode is one query result: a node together with the weighted
// distance and hop count of its shortest-distance route, and the
// reconstructed route itself.
type ReachableNode struct {
	Node      *entities.Node   `json:"node"`
	Distance  float64          `json:"distance"`
	Depth     int              `json:"depth"`
	Path      []string         `json:"path"`
	PathEdges []*entities.Edge `json:"pathEdges"`
}

// ReachabilityService computes constrained reachability over an immutable
// snapshot of the live graph, so it can run concurrently with writers.
type ReachabilityService struct {
	session *EditSession
	logger  *zap.Logger
}

// NewReachabilityService creates the query service.
func NewReachabilityService(session *EditSession, logger *zap.Logger) *ReachabilityService {
	return &ReachabilityService{session: session, logger: logger}
}

// search tracks the relaxation state of one node.
type searchState struct {
	dist     float64
	depth    int
	prevNode string
	prevEdge *entities.Edge
	visited  bool
}

// frontierItem is a priority queue entry.
type frontierItem struct {
	nodeID string
	dist   float64
	index  int
}

type frontier []*frontierItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i]; f[i].index = i; f[j].index = j }
func (f *frontier) Push(x interface{}) { item := x.(*frontierItem); item.index = len(*f); *f = append(*f, item) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}

// Reachable returns every node satisfying the query's joint hop-count and
// weighted-distance constraints, sorted ascending by distance with depth as
// the tiebreaker. The start node is always excluded.
//
// Every stored directed edge is traversed in both directions with its weight
// applied symmetrically. The relaxation is Dijkstra-shaped: each node gets
// the minimum cumulative weighted distance, and its depth is the hop count
// along that minimum-distance route, not an independently minimized value.
func (r *ReachabilityService) Reachable(query ReachabilityQuery) ([]ReachableNode, error) {
	if query.Condition == "" {
		query.Condition = ConditionAnd
	}
	if query.Condition != ConditionAnd && query.Condition != ConditionOr {
		return nil, errors.NewValidationError("condition must be AND or OR").
			WithDetail("condition", string(query.Condition))
	}
	if query.MaxDepth != nil && *query.MaxDepth < 0 {
		return nil, errors.NewValidationError("maxDepth cannot be negative")
	}
	if query.MaxDistance != nil && *query.MaxDistance < 0 {
		return nil, errors.NewValidationError("maxDistance cannot be negative")
	}

	nodes, edges := r.session.Snapshot()

	nodeByID := make(map[string]*entities.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}
	if _, ok := nodeByID[query.StartID]; !ok {
		return nil, errors.NewNotFoundError("node", query.StartID)
	}

	// No constraint means nothing qualifies.
	if query.MaxDepth == nil && query.MaxDistance == nil {
		return []ReachableNode{}, nil
	}

	adjacency := make(map[string][]*entities.Edge, len(nodes))
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e)
		if !e.IsSelfLoop() {
			adjacency[e.To] = append(adjacency[e.To], e)
		}
	}

	states := map[string]*searchState{
		query.StartID: {dist: 0, depth: 0},
	}
	pq := &frontier{}
	heap.Init(pq)
	heap.Push(pq, &frontierItem{nodeID: query.StartID, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		state := states[item.nodeID]
		if state.visited {
			continue
		}
		state.visited = true

		for _, e := range adjacency[item.nodeID] {
			neighbor := e.To
			if neighbor == item.nodeID {
				neighbor = e.From
			}
			if _, ok := nodeByID[neighbor]; !ok {
				continue
			}
			candidate := state.dist + e.Weight
			next, ok := states[neighbor]
			if !ok || candidate < next.dist {
				states[neighbor] = &searchState{
					dist:     candidate,
					depth:    state.depth + 1,
					prevNode: item.nodeID,
					prevEdge: e,
				}
				heap.Push(pq, &frontierItem{nodeID: neighbor, dist: candidate})
			}
		}
	}

	results := make([]ReachableNode, 0, len(states))
	for id, state := range states {
		if id == query.StartID {
			continue
		}
		if !satisfiesBounds(state, query) {
			continue
		}
		path, pathEdges := reconstructRoute(states, query.StartID, id)
		results = append(results, ReachableNode{
			Node:      nodeByID[id],
			Distance:  state.dist,
			Depth:     state.depth,
			Path:      path,
			PathEdges: pathEdges,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Depth < results[j].Depth
	})
	return results, nil
}

// satisfiesBounds applies the AND/OR combination over the bounds that are set.
func satisfiesBounds(state *searchState, query ReachabilityQuery) bool {
	depthOK := query.MaxDepth != nil && state.depth <= *query.MaxDepth
	distOK := query.MaxDistance != nil && state.dist <= *query.MaxDistance

	if query.Condition == ConditionOr {
		return depthOK || distOK
	}
	if query.MaxDepth != nil && !depthOK {
		return false
	}
	if query.MaxDistance != nil && !distOK {
		return false
	}
	return true
}

// reconstructRoute walks predecessor links from target back to start.
func reconstructRoute(states map[string]*searchState, startID, targetID string) ([]string, []*entities.Edge) {
	var path []string
	var pathEdges []*entities.Edge
	for id := targetID; ; {
		path = append(path, id)
		state := states[id]
		if id == startID || state.prevNode == "" {
			break
		}
		pathEdges = append(pathEdges, state.prevEdge)
		id = state.prevNode
	}
	// Reverse both: reconstruction walked target -> start.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for i, j := 0, len(pathEdges)-1; i < j; i, j = i+1, j-1 {
		pathEdges[i], pathEdges[j] = pathEdges[j], pathEdges[i]
	}
	return path, pathEdges
}
