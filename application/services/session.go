// Package services implements the graph consistency core: the edit session
// that tracks pending changes against a durable baseline, the reconciler that
// saves or discards them, the cross-store merge engine, and the constrained
// reachability query.
package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/changes"
	"graphdesk-backend/domain/entities"
	"graphdesk-backend/domain/graph"
	"graphdesk-backend/pkg/errors"
	"graphdesk-backend/pkg/observability"
)

// baseline mirrors the last state known to be durable. It is advanced only by
// a successful save or merge, never by live edits.
type baseline struct {
	nodes  map[string]*entities.Node
	edges  map[string]*entities.Edge
	view   entities.ViewState
	filter entities.FilterState
}

func newBaseline() *baseline {
	return &baseline{
		nodes:  make(map[string]*entities.Node),
		edges:  make(map[string]*entities.Edge),
		view:   entities.DefaultViewState(),
		filter: entities.DefaultFilterState(),
	}
}

func (b *baseline) node(id string) *entities.Node { return b.nodes[id] }
func (b *baseline) edge(id string) *entities.Edge { return b.edges[id] }

// EditSession owns the three views of one graph document: the live graph the
// user mutates, the baseline snapshot of durable state, and the edit buffer
// of pending operations. One session exists per active document; all mutating
// calls are serialized by the session's lock, and save/discard/merge
// additionally hold an in-flight guard so only one runs at a time.
type EditSession struct {
	mu sync.RWMutex

	// opMu is the in-flight guard for save, discard, and merge. TryLock
	// rather than Lock: a concurrently issued operation is rejected with a
	// conflict error instead of queueing behind an unknown amount of I/O.
	opMu sync.Mutex

	store ports.GraphStore
	live  *graph.Graph
	base  *baseline

	nodeChanges *changes.Set[entities.Node]
	edgeChanges *changes.Set[entities.Edge]
	filterDirty bool

	liveFilter entities.FilterState
	liveView   entities.ViewState

	nodeSeq int64
	edgeSeq int64

	viewWriter *viewStateWriter

	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEditSession creates a session over the given store. Call Load before use.
func NewEditSession(store ports.GraphStore, logger *zap.Logger, metrics *observability.Metrics) *EditSession {
	s := &EditSession{
		store:       store,
		live:        graph.New(),
		base:        newBaseline(),
		nodeChanges: changes.NewSet[entities.Node](),
		edgeChanges: changes.NewSet[entities.Edge](),
		liveFilter:  entities.DefaultFilterState(),
		liveView:    entities.DefaultViewState(),
		logger:      logger,
		metrics:     metrics,
	}
	s.viewWriter = newViewStateWriter(store.StateRepository(), logger)
	return s
}

// Load refreshes the live graph and baseline from the store, dropping any
// pending changes.
func (s *EditSession) Load(ctx context.Context) error {
	nodes, err := s.store.NodeRepository().List(ctx)
	if err != nil {
		return err
	}
	edges, err := s.store.EdgeRepository().List(ctx)
	if err != nil {
		return err
	}
	view, err := s.store.StateRepository().GetViewState(ctx)
	if err != nil {
		return err
	}
	filter, err := s.store.StateRepository().GetFilterState(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.live.Replace(nodes, edges)
	s.base = newBaseline()
	for _, n := range nodes {
		s.base.nodes[n.ID] = n.Clone()
		if n.SequenceID > s.nodeSeq {
			s.nodeSeq = n.SequenceID
		}
	}
	for _, e := range edges {
		s.base.edges[e.ID] = e.Clone()
		if e.SequenceID > s.edgeSeq {
			s.edgeSeq = e.SequenceID
		}
	}
	s.base.view = view
	s.base.filter = filter.Clone()
	s.liveView = view
	s.liveFilter = filter.Clone()
	s.nodeChanges.Clear()
	s.edgeChanges.Clear()
	s.filterDirty = false

	s.logger.Info("session loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	s.refreshPendingGauge()
	return nil
}

// Close flushes the debounced view writer and releases the store.
func (s *EditSession) Close() error {
	s.viewWriter.Flush()
	return s.store.Close()
}

// CreateNode inserts a node into the live graph and tracks the creation.
// A missing id is generated; the sequence id is always session-assigned.
func (s *EditSession) CreateNode(node *entities.Node) (*entities.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Radius == 0 {
		node.Radius = entities.DefaultNodeRadius
	}
	if node.Layers == nil {
		node.Layers = entities.NewLayerSet()
	}
	if s.live.HasNode(node.ID) {
		return nil, errors.NewConflictError("node already exists").WithDetail("nodeId", node.ID)
	}
	node.SequenceID = s.nextNodeSeq()
	if err := s.live.PutNode(node); err != nil {
		return nil, err
	}
	s.nodeChanges.TrackCreate(node.ID, node.Clone())
	s.refreshPendingGauge()
	return node, nil
}

// UpdateNode overwrites a live node's fields and tracks the update. The
// sequence id is immutable and kept from the existing entity.
func (s *EditSession) UpdateNode(node *entities.Node) (*entities.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.live.Node(node.ID)
	if existing == nil {
		return nil, errors.NewNotFoundError("node", node.ID)
	}
	if node.Radius == 0 {
		node.Radius = entities.DefaultNodeRadius
	}
	if node.Layers == nil {
		node.Layers = entities.NewLayerSet()
	}
	node.SequenceID = existing.SequenceID
	if err := s.live.PutNode(node); err != nil {
		return nil, err
	}
	s.nodeChanges.TrackUpdate(node.ID, cloneNode(s.base.node(node.ID)), node.Clone())
	s.refreshPendingGauge()
	return node, nil
}

// DeleteNode removes a node and cascades to every incident edge, computed
// from the live graph at delete time. Each cascaded edge produces its own
// delete record (or cancels its pending create).
func (s *EditSession) DeleteNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.HasNode(id) {
		return errors.NewNotFoundError("node", id)
	}
	for _, edge := range s.live.IncidentEdges(id) {
		s.edgeChanges.TrackDelete(edge.ID, cloneEdge(s.base.edge(edge.ID)))
		s.live.RemoveEdge(edge.ID)
	}
	s.nodeChanges.TrackDelete(id, cloneNode(s.base.node(id)))
	s.live.RemoveNode(id)
	s.refreshPendingGauge()
	return nil
}

// CreateEdge inserts an edge into the live graph and tracks the creation.
// Both endpoints must resolve to live nodes.
func (s *EditSession) CreateEdge(edge *entities.Edge) (*entities.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.Weight == 0 {
		edge.Weight = entities.DefaultEdgeWeight
	}
	if s.live.HasEdge(edge.ID) {
		return nil, errors.NewConflictError("edge already exists").WithDetail("edgeId", edge.ID)
	}
	edge.SequenceID = s.nextEdgeSeq()
	if err := s.live.PutEdge(edge); err != nil {
		return nil, err
	}
	s.edgeChanges.TrackCreate(edge.ID, edge.Clone())
	s.refreshPendingGauge()
	return edge, nil
}

// UpdateEdge overwrites a live edge's fields and tracks the update.
func (s *EditSession) UpdateEdge(edge *entities.Edge) (*entities.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.live.Edge(edge.ID)
	if existing == nil {
		return nil, errors.NewNotFoundError("edge", edge.ID)
	}
	edge.SequenceID = existing.SequenceID
	if err := s.live.PutEdge(edge); err != nil {
		return nil, err
	}
	s.edgeChanges.TrackUpdate(edge.ID, cloneEdge(s.base.edge(edge.ID)), edge.Clone())
	s.refreshPendingGauge()
	return edge, nil
}

// DeleteEdge removes an edge and tracks the deletion.
func (s *EditSession) DeleteEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.HasEdge(id) {
		return errors.NewNotFoundError("edge", id)
	}
	s.edgeChanges.TrackDelete(id, cloneEdge(s.base.edge(id)))
	s.live.RemoveEdge(id)
	s.refreshPendingGauge()
	return nil
}

// SetFilterState replaces the live filter state. The delta participates in
// save/discard; setting the filter back to the baseline value clears it.
func (s *EditSession) SetFilterState(filter entities.FilterState) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter.ActiveLayers == nil {
		filter.ActiveLayers = entities.NewLayerSet()
	}
	s.liveFilter = filter.Clone()
	s.filterDirty = !s.liveFilter.Equal(s.base.filter)
	s.refreshPendingGauge()
	return nil
}

// FilterState returns the live filter state.
func (s *EditSession) FilterState() entities.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveFilter.Clone()
}

// SetViewState stores the live viewport and persists it directly, debounced.
// View changes never enter the edit buffer and are not covered by
// save/discard.
func (s *EditSession) SetViewState(view entities.ViewState) error {
	if err := view.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.liveView = view
	s.mu.Unlock()
	s.viewWriter.Write(view)
	return nil
}

// ViewState returns the live viewport.
func (s *EditSession) ViewState() entities.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveView
}

// GetNode returns a copy of the live node.
func (s *EditSession) GetNode(id string) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.live.Node(id)
	if n == nil {
		return nil, errors.NewNotFoundError("node", id)
	}
	return n.Clone(), nil
}

// GetEdge returns a copy of the live edge.
func (s *EditSession) GetEdge(id string) (*entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.live.Edge(id)
	if e == nil {
		return nil, errors.NewNotFoundError("edge", id)
	}
	return e.Clone(), nil
}

// Nodes returns copies of all live nodes in sequence order.
func (s *EditSession) Nodes() []*entities.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes, _ := s.live.Snapshot()
	return nodes
}

// Edges returns copies of all live edges in sequence order.
func (s *EditSession) Edges() []*entities.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, edges := s.live.Snapshot()
	return edges
}

// Snapshot returns an immutable copy of the live graph for read computations.
func (s *EditSession) Snapshot() ([]*entities.Node, []*entities.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Snapshot()
}

// Connections returns the folded bidirectional relations of a node.
func (s *EditSession) Connections(nodeID string) ([]graph.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live.HasNode(nodeID) {
		return nil, errors.NewNotFoundError("node", nodeID)
	}
	conns := s.live.Connections(nodeID)
	// Copy out so callers never hold live pointers.
	out := make([]graph.Connection, len(conns))
	for i, c := range conns {
		edges := make([]*entities.Edge, len(c.Edges))
		for j, e := range c.Edges {
			edges[j] = e.Clone()
		}
		out[i] = graph.Connection{Node: c.Node.Clone(), Edges: edges, Bidirectional: c.Bidirectional}
	}
	return out, nil
}

// HasPendingChanges reports whether any node, edge, or filter change awaits a
// save.
func (s *EditSession) HasPendingChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingLocked() > 0
}

// ChangeCount returns the number of pending records, counting a pending
// filter delta as one.
func (s *EditSession) ChangeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingLocked()
}

func (s *EditSession) pendingLocked() int {
	n := s.nodeChanges.Len() + s.edgeChanges.Len()
	if s.filterDirty {
		n++
	}
	return n
}

func (s *EditSession) nextNodeSeq() int64 {
	s.nodeSeq++
	return s.nodeSeq
}

func (s *EditSession) nextEdgeSeq() int64 {
	s.edgeSeq++
	return s.edgeSeq
}

func (s *EditSession) refreshPendingGauge() {
	if s.metrics != nil {
		s.metrics.SetPendingChanges(float64(s.pendingLocked()))
	}
}

func cloneNode(n *entities.Node) *entities.Node { return n.Clone() }
func cloneEdge(e *entities.Edge) *entities.Edge { return e.Clone() }
