package services

import (
	"context"

	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/changes"
	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/errors"
)

// SaveResult summarizes a completed save pass.
type SaveResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// DiscardResult summarizes a completed discard pass. EdgesDropped counts edge
// records whose restoration would have left a dangling endpoint.
type DiscardResult struct {
	NodesReverted int  `json:"nodesReverted"`
	EdgesReverted int  `json:"edgesReverted"`
	EdgesDropped  int  `json:"edgesDropped"`
	FilterReset   bool `json:"filterReset"`
}

// Save drains the edit buffer into the store inside a single transaction:
// node records first, then edge records, then a pending filter delta. A
// record whose target vanished from the store is logged and skipped; any
// other failure rolls the transaction back and leaves the buffer and
// baseline exactly as they were. Only after commit does the baseline
// advance and the buffer clear.
func (s *EditSession) Save(ctx context.Context) (SaveResult, error) {
	if !s.opMu.TryLock() {
		return SaveResult{}, errors.NewConflictError("another save, discard, or merge is in progress")
	}
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingLocked() == 0 {
		return SaveResult{}, nil
	}

	nodeRecords := s.nodeChanges.Records()
	edgeRecords := s.edgeChanges.Records()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return SaveResult{}, errors.NewDatabaseError("failed to begin save transaction", err)
	}

	var applied, skipped int
	fail := func(cause error) (SaveResult, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("save rollback failed", zap.Error(rbErr))
		}
		if s.metrics != nil {
			s.metrics.ObserveSave("error")
		}
		return SaveResult{}, errors.NewDatabaseError("save failed", cause).
			WithDetail("appliedBeforeFailure", applied)
	}

	// Nodes before edges: edge rows reference node ids.
	for _, rec := range nodeRecords {
		ok, err := applyNodeRecord(ctx, tx.Nodes(), rec)
		if err != nil {
			return fail(err)
		}
		if ok {
			applied++
		} else {
			skipped++
			s.logger.Warn("node vanished from store, skipping record",
				zap.String("nodeId", rec.EntityID),
				zap.String("kind", string(rec.Kind)),
			)
		}
	}
	for _, rec := range edgeRecords {
		ok, err := applyEdgeRecord(ctx, tx.Edges(), rec)
		if err != nil {
			return fail(err)
		}
		if ok {
			applied++
		} else {
			skipped++
			s.logger.Warn("edge vanished from store, skipping record",
				zap.String("edgeId", rec.EntityID),
				zap.String("kind", string(rec.Kind)),
			)
		}
	}
	if s.filterDirty {
		if err := tx.State().SetFilterState(ctx, s.liveFilter); err != nil {
			return fail(err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fail(err)
	}

	// Durable now; advance the baseline from the committed records.
	for _, rec := range nodeRecords {
		switch rec.Kind {
		case changes.KindCreate, changes.KindUpdate:
			s.base.nodes[rec.EntityID] = rec.After.Clone()
		case changes.KindDelete:
			delete(s.base.nodes, rec.EntityID)
		}
	}
	for _, rec := range edgeRecords {
		switch rec.Kind {
		case changes.KindCreate, changes.KindUpdate:
			s.base.edges[rec.EntityID] = rec.After.Clone()
		case changes.KindDelete:
			delete(s.base.edges, rec.EntityID)
		}
	}
	s.base.filter = s.liveFilter.Clone()
	s.nodeChanges.Clear()
	s.edgeChanges.Clear()
	s.filterDirty = false
	s.refreshPendingGauge()

	if s.metrics != nil {
		s.metrics.ObserveSave("ok")
	}
	s.logger.Info("saved pending changes",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
	)
	return SaveResult{Saved: applied, Skipped: skipped}, nil
}

// Discard replays the edit buffer back onto the live graph: creates are
// removed, updates restored from their before snapshots, deletes re-inserted.
// Edge restoration carries a referential guard; an edge whose endpoint no
// longer resolves after node restoration is dropped rather than resurrected
// dangling. The buffer is cleared unconditionally and the store is never
// touched.
func (s *EditSession) Discard(ctx context.Context) (DiscardResult, error) {
	if !s.opMu.TryLock() {
		return DiscardResult{}, errors.NewConflictError("another save, discard, or merge is in progress")
	}
	defer s.opMu.Unlock()

	if err := ctx.Err(); err != nil {
		return DiscardResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result DiscardResult
	for _, rec := range s.nodeChanges.Records() {
		switch rec.Kind {
		case changes.KindCreate:
			s.live.RemoveNode(rec.EntityID)
		case changes.KindUpdate, changes.KindDelete:
			if err := s.live.PutNode(rec.Before.Clone()); err != nil {
				s.logger.Error("failed to restore node", zap.String("nodeId", rec.EntityID), zap.Error(err))
				continue
			}
		}
		result.NodesReverted++
	}
	for _, rec := range s.edgeChanges.Records() {
		switch rec.Kind {
		case changes.KindCreate:
			s.live.RemoveEdge(rec.EntityID)
			result.EdgesReverted++
		case changes.KindUpdate, changes.KindDelete:
			before := rec.Before
			if !s.live.HasNode(before.From) || !s.live.HasNode(before.To) {
				result.EdgesDropped++
				s.logger.Warn("dropping edge with unresolved endpoint on discard",
					zap.String("edgeId", rec.EntityID),
					zap.String("from", before.From),
					zap.String("to", before.To),
				)
				continue
			}
			if err := s.live.PutEdge(before.Clone()); err != nil {
				result.EdgesDropped++
				s.logger.Warn("dropping unrestorable edge on discard",
					zap.String("edgeId", rec.EntityID), zap.Error(err))
				continue
			}
			result.EdgesReverted++
		}
	}
	if s.filterDirty {
		s.liveFilter = s.base.filter.Clone()
		result.FilterReset = true
	}

	s.nodeChanges.Clear()
	s.edgeChanges.Clear()
	s.filterDirty = false
	s.refreshPendingGauge()

	if s.metrics != nil {
		s.metrics.ObserveDiscard()
	}
	s.logger.Info("discarded pending changes",
		zap.Int("nodesReverted", result.NodesReverted),
		zap.Int("edgesReverted", result.EdgesReverted),
		zap.Int("edgesDropped", result.EdgesDropped),
	)
	return result, nil
}

// applyNodeRecord applies one node record through the gateway. A not-found on
// update/delete returns ok=false so the caller can skip it.
func applyNodeRecord(ctx context.Context, repo ports.NodeRepository, rec *changes.Record[entities.Node]) (bool, error) {
	var err error
	switch rec.Kind {
	case changes.KindCreate:
		err = repo.Create(ctx, rec.After)
	case changes.KindUpdate:
		err = repo.Update(ctx, rec.After)
	case changes.KindDelete:
		err = repo.Delete(ctx, rec.EntityID)
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// applyEdgeRecord mirrors applyNodeRecord for edges.
func applyEdgeRecord(ctx context.Context, repo ports.EdgeRepository, rec *changes.Record[entities.Edge]) (bool, error) {
	var err error
	switch rec.Kind {
	case changes.KindCreate:
		err = repo.Create(ctx, rec.After)
	case changes.KindUpdate:
		err = repo.Update(ctx, rec.After)
	case changes.KindDelete:
		err = repo.Delete(ctx, rec.EntityID)
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}
