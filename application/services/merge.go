package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/errors"
	"graphdesk-backend/pkg/observability"
)

// MergePolicy selects how an id collision against the destination is resolved.
type MergePolicy string

const (
	MergePolicySkip    MergePolicy = "skip"
	MergePolicyReplace MergePolicy = "replace"
	MergePolicyRename  MergePolicy = "rename"
)

// ParseMergePolicy validates a policy string from the outside world.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case MergePolicySkip, MergePolicyReplace, MergePolicyRename:
		return MergePolicy(s), nil
	default:
		return "", errors.NewValidationError("conflict resolution must be skip, replace, or rename").
			WithDetail("value", s)
	}
}

// MergeStats reports what happened to every source entity. For any source,
// added+skipped+renamed equals the source count for each collection.
type MergeStats struct {
	NodesAdded   int `json:"nodesAdded"`
	NodesSkipped int `json:"nodesSkipped"`
	NodesRenamed int `json:"nodesRenamed"`
	EdgesAdded   int `json:"edgesAdded"`
	EdgesSkipped int `json:"edgesSkipped"`
	EdgesRenamed int `json:"edgesRenamed"`
}

// MergeService imports another graph database's nodes and edges into the
// active store under a conflict policy. A merge is independent of the edit
// buffer: imported entities are written straight through the gateway and land
// in both the live graph and the baseline. All destination writes happen in
// one transaction; any failure rolls the whole merge back.
type MergeService struct {
	session *EditSession
	opener  ports.SourceOpener
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewMergeService creates a merge service bound to the active session.
func NewMergeService(session *EditSession, opener ports.SourceOpener, logger *zap.Logger, metrics *observability.Metrics) *MergeService {
	return &MergeService{session: session, opener: opener, logger: logger, metrics: metrics}
}

// Merge opens the source database read-only and imports it. Nodes are merged
// before edges because edge endpoints may need remapping through renamed
// node ids.
func (m *MergeService) Merge(ctx context.Context, sourcePath string, policy MergePolicy) (MergeStats, error) {
	if sourcePath == "" {
		return MergeStats{}, errors.NewValidationError("merge source path cannot be empty")
	}
	if _, err := ParseMergePolicy(string(policy)); err != nil {
		return MergeStats{}, err
	}

	s := m.session
	if !s.opMu.TryLock() {
		return MergeStats{}, errors.NewConflictError("another save, discard, or merge is in progress")
	}
	defer s.opMu.Unlock()

	src, err := m.opener.OpenReadOnly(ctx, sourcePath)
	if err != nil {
		return MergeStats{}, err
	}
	defer src.Close()

	srcNodes, err := src.Nodes(ctx)
	if err != nil {
		return MergeStats{}, err
	}
	srcEdges, err := src.Edges(ctx)
	if err != nil {
		return MergeStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return MergeStats{}, errors.NewDatabaseError("failed to begin merge transaction", err)
	}

	var stats MergeStats
	abort := func(cause error) (MergeStats, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("merge rollback failed", zap.Error(rbErr))
		}
		if m.metrics != nil {
			m.metrics.ObserveMerge(string(policy), "error")
		}
		return MergeStats{}, cause
	}

	remap := make(map[string]string)          // renamed source node id -> new id
	skippedNodes := make(map[string]struct{}) // source node ids left unimported
	stagedNodes := make([]*entities.Node, 0, len(srcNodes))
	stagedEdges := make([]*entities.Edge, 0, len(srcEdges))
	stagedNodeIDs := make(map[string]struct{})

	// A collision exists when the id is taken anywhere in the destination:
	// the live graph or the baseline. An entity pending deletion is gone from
	// the live graph but its row is still durable, so creating over it would
	// fail; it must go through the policy switch like any other conflict.
	nodeConflict := func(id string) bool {
		return s.live.HasNode(id) || s.base.node(id) != nil
	}
	edgeConflict := func(id string) bool {
		return s.live.HasEdge(id) || s.base.edge(id) != nil
	}
	destNodeSeq := func(id string) int64 {
		if n := s.live.Node(id); n != nil {
			return n.SequenceID
		}
		return s.base.node(id).SequenceID
	}
	destEdgeSeq := func(id string) int64 {
		if e := s.live.Edge(id); e != nil {
			return e.SequenceID
		}
		return s.base.edge(id).SequenceID
	}

	destHasNode := func(id string) bool {
		if s.live.HasNode(id) {
			return true
		}
		_, ok := stagedNodeIDs[id]
		return ok
	}

	for _, srcNode := range srcNodes {
		n := srcNode.Clone()
		if !nodeConflict(n.ID) {
			n.SequenceID = s.nextNodeSeq()
			if err := tx.Nodes().Create(ctx, n); err != nil {
				return abort(errors.NewDatabaseError("merge node insert failed", err).WithDetail("nodeId", n.ID))
			}
			stagedNodes = append(stagedNodes, n)
			stagedNodeIDs[n.ID] = struct{}{}
			stats.NodesAdded++
			continue
		}
		switch policy {
		case MergePolicySkip:
			skippedNodes[srcNode.ID] = struct{}{}
			stats.NodesSkipped++
		case MergePolicyReplace:
			// Overwrite fields but keep the destination's sequence id: it was
			// assigned once and stays the entity's ordering key.
			n.SequenceID = destNodeSeq(n.ID)
			if err := m.upsertNode(ctx, tx, n); err != nil {
				return abort(err)
			}
			stagedNodes = append(stagedNodes, n)
			stagedNodeIDs[n.ID] = struct{}{}
			stats.NodesAdded++
		case MergePolicyRename:
			newID := uuid.NewString()
			remap[srcNode.ID] = newID
			n.ID = newID
			n.SequenceID = s.nextNodeSeq()
			if err := tx.Nodes().Create(ctx, n); err != nil {
				return abort(errors.NewDatabaseError("merge node insert failed", err).WithDetail("nodeId", n.ID))
			}
			stagedNodes = append(stagedNodes, n)
			stagedNodeIDs[n.ID] = struct{}{}
			stats.NodesRenamed++
		}
	}

	for _, srcEdge := range srcEdges {
		e := srcEdge.Clone()
		if newID, ok := remap[e.From]; ok {
			e.From = newID
		}
		if newID, ok := remap[e.To]; ok {
			e.To = newID
		}

		// An edge touching a node the merge chose not to import is never
		// synthesized onto the same-identity destination node.
		if _, ok := skippedNodes[srcEdge.From]; ok {
			stats.EdgesSkipped++
			continue
		}
		if _, ok := skippedNodes[srcEdge.To]; ok {
			stats.EdgesSkipped++
			continue
		}

		if !destHasNode(e.From) || !destHasNode(e.To) {
			return abort(errors.NewReferentialError("merge edge references a node absent from the destination").
				WithDetail("edgeId", srcEdge.ID).
				WithDetail("from", e.From).
				WithDetail("to", e.To))
		}

		if !edgeConflict(e.ID) {
			e.SequenceID = s.nextEdgeSeq()
			if err := tx.Edges().Create(ctx, e); err != nil {
				return abort(errors.NewDatabaseError("merge edge insert failed", err).WithDetail("edgeId", e.ID))
			}
			stagedEdges = append(stagedEdges, e)
			stats.EdgesAdded++
			continue
		}
		switch policy {
		case MergePolicySkip:
			stats.EdgesSkipped++
		case MergePolicyReplace:
			e.SequenceID = destEdgeSeq(e.ID)
			if err := m.upsertEdge(ctx, tx, e); err != nil {
				return abort(err)
			}
			stagedEdges = append(stagedEdges, e)
			stats.EdgesAdded++
		case MergePolicyRename:
			e.ID = uuid.NewString()
			e.SequenceID = s.nextEdgeSeq()
			if err := tx.Edges().Create(ctx, e); err != nil {
				return abort(errors.NewDatabaseError("merge edge insert failed", err).WithDetail("edgeId", e.ID))
			}
			stagedEdges = append(stagedEdges, e)
			stats.EdgesRenamed++
		}
	}

	if err := tx.Commit(); err != nil {
		return abort(errors.NewDatabaseError("merge commit failed", err))
	}

	// Durable; fold the import into the live graph and the baseline.
	for _, n := range stagedNodes {
		if err := s.live.PutNode(n.Clone()); err != nil {
			m.logger.Error("merged node rejected by live graph", zap.String("nodeId", n.ID), zap.Error(err))
			continue
		}
		s.base.nodes[n.ID] = n.Clone()
	}
	for _, e := range stagedEdges {
		if err := s.live.PutEdge(e.Clone()); err != nil {
			m.logger.Error("merged edge rejected by live graph", zap.String("edgeId", e.ID), zap.Error(err))
			continue
		}
		s.base.edges[e.ID] = e.Clone()
	}

	if m.metrics != nil {
		m.metrics.ObserveMerge(string(policy), "ok")
	}
	m.logger.Info("merge completed",
		zap.String("source", sourcePath),
		zap.String("policy", string(policy)),
		zap.Int("nodesAdded", stats.NodesAdded),
		zap.Int("nodesSkipped", stats.NodesSkipped),
		zap.Int("nodesRenamed", stats.NodesRenamed),
		zap.Int("edgesAdded", stats.EdgesAdded),
		zap.Int("edgesSkipped", stats.EdgesSkipped),
		zap.Int("edgesRenamed", stats.EdgesRenamed),
	)
	return stats, nil
}

// upsertNode updates a node the store already has, or creates it when the
// collision exists only in the unsaved live graph.
func (m *MergeService) upsertNode(ctx context.Context, tx ports.Transaction, n *entities.Node) error {
	if _, ok := m.session.base.nodes[n.ID]; ok {
		if err := tx.Nodes().Update(ctx, n); err != nil {
			return errors.NewDatabaseError("merge node update failed", err).WithDetail("nodeId", n.ID)
		}
		return nil
	}
	if err := tx.Nodes().Create(ctx, n); err != nil {
		return errors.NewDatabaseError("merge node insert failed", err).WithDetail("nodeId", n.ID)
	}
	return nil
}

// upsertEdge mirrors upsertNode for edges.
func (m *MergeService) upsertEdge(ctx context.Context, tx ports.Transaction, e *entities.Edge) error {
	if _, ok := m.session.base.edges[e.ID]; ok {
		if err := tx.Edges().Update(ctx, e); err != nil {
			return errors.NewDatabaseError("merge edge update failed", err).WithDetail("edgeId", e.ID)
		}
		return nil
	}
	if err := tx.Edges().Create(ctx, e); err != nil {
		return errors.NewDatabaseError("merge edge insert failed", err).WithDetail("edgeId", e.ID)
	}
	return nil
}
