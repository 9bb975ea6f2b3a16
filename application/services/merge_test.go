package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdesk-backend/domain/entities"
	"graphdesk-backend/infrastructure/persistence/sqlite"
	"graphdesk-backend/pkg/errors"
)

// writeSourceDB materializes a merge source database on disk.
func writeSourceDB(t *testing.T, nodes []*entities.Node, edges []*entities.Edge) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")
	src, err := sqlite.Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, src.Import(context.Background(), nodes, edges))
	require.NoError(t, src.Close())
	return path
}

func newMerger(s *EditSession) *MergeService {
	return NewMergeService(s, sqlite.NewSourceOpener(zap.NewNop()), zap.NewNop(), nil)
}

func srcNode(id, label string, seq int64) *entities.Node {
	return &entities.Node{ID: id, Label: label, Radius: entities.DefaultNodeRadius, SequenceID: seq}
}

func srcEdge(id, from, to string, seq int64) *entities.Edge {
	return &entities.Edge{ID: id, From: from, To: to, Weight: 1, SequenceID: seq}
}

func TestMerge_IntoEmptyDestination(t *testing.T) {
	s, store := newTestSession(t)
	path := writeSourceDB(t,
		[]*entities.Node{srcNode("a", "alpha", 1), srcNode("b", "beta", 2)},
		[]*entities.Edge{srcEdge("e1", "a", "b", 1)},
	)

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesAdded: 2, EdgesAdded: 1}, stats)
	require.Len(t, s.Nodes(), 2)
	require.Len(t, s.Edges(), 1)

	// Merged entities are durable, not buffered.
	assert.False(t, s.HasPendingChanges())
	fresh := NewEditSession(store, zap.NewNop(), nil)
	require.NoError(t, fresh.Load(context.Background()))
	require.Len(t, fresh.Nodes(), 2)
	require.Len(t, fresh.Edges(), 1)
}

func TestMerge_SkipPolicyIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)
	path := writeSourceDB(t,
		[]*entities.Node{srcNode("a", "alpha", 1), srcNode("b", "beta", 2)},
		[]*entities.Edge{srcEdge("e1", "a", "b", 1)},
	)
	merger := newMerger(s)

	first, err := merger.Merge(context.Background(), path, MergePolicySkip)
	require.NoError(t, err)
	second, err := merger.Merge(context.Background(), path, MergePolicySkip)
	require.NoError(t, err)

	assert.Equal(t, MergeStats{NodesAdded: 2, EdgesAdded: 1}, first)
	assert.Equal(t, MergeStats{NodesSkipped: 2, EdgesSkipped: 1}, second)
	assert.Len(t, s.Nodes(), 2)
	assert.Len(t, s.Edges(), 1)

	// added + skipped + renamed accounts for every source entity.
	assert.Equal(t, 2, second.NodesAdded+second.NodesSkipped+second.NodesRenamed)
	assert.Equal(t, 1, second.EdgesAdded+second.EdgesSkipped+second.EdgesRenamed)
}

func TestMerge_SkippedNodeEdgesAreNeverRewired(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "destination version")
	mustSave(t, s)

	path := writeSourceDB(t,
		[]*entities.Node{srcNode("a", "source version", 1), srcNode("b", "beta", 2)},
		[]*entities.Edge{srcEdge("e1", "a", "b", 1)},
	)

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesAdded: 1, NodesSkipped: 1, EdgesSkipped: 1}, stats)
	assert.Empty(t, s.Edges())

	node, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "destination version", node.Label)
}

func TestMerge_ReplaceOverwritesKeepingSequenceID(t *testing.T) {
	s, _ := newTestSession(t)
	original := mustCreateNode(t, s, "a", "old")
	mustSave(t, s)

	path := writeSourceDB(t,
		[]*entities.Node{srcNode("a", "new", 77)},
		nil,
	)

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicyReplace)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesAdded: 1}, stats)

	node, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "new", node.Label)
	assert.Equal(t, original.SequenceID, node.SequenceID)
}

func TestMerge_RenameRemapsEdgeEndpoints(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "shared", "destination version")
	mustSave(t, s)

	path := writeSourceDB(t,
		[]*entities.Node{srcNode("shared", "source version", 1), srcNode("other", "", 2)},
		[]*entities.Edge{srcEdge("e1", "shared", "other", 1)},
	)

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicyRename)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesAdded: 1, NodesRenamed: 1, EdgesAdded: 1}, stats)
	require.Len(t, s.Nodes(), 3)

	edge, err := s.GetEdge("e1")
	require.NoError(t, err)
	assert.NotEqual(t, "shared", edge.From)
	assert.Equal(t, "other", edge.To)

	// The remapped endpoint resolves to the renamed copy, which kept its fields.
	renamed, err := s.GetNode(edge.From)
	require.NoError(t, err)
	assert.Equal(t, "source version", renamed.Label)

	// The destination's own node is untouched.
	dest, err := s.GetNode("shared")
	require.NoError(t, err)
	assert.Equal(t, "destination version", dest.Label)
}

func TestMerge_PendingDeleteIsStillAConflict(t *testing.T) {
	s, store := newTestSession(t)
	mustCreateNode(t, s, "x", "destination version")
	mustSave(t, s)
	require.NoError(t, s.DeleteNode("x"))

	path := writeSourceDB(t, []*entities.Node{srcNode("x", "source version", 1)}, nil)

	// The row is gone from the live graph but still durable, so the policy
	// must resolve the collision instead of the insert blowing up.
	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesSkipped: 1}, stats)

	_, err = s.GetNode("x")
	assert.True(t, errors.IsNotFound(err))
	stored, err := store.NodeRepository().GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "destination version", stored.Label)
}

func TestMerge_ReplaceOverPendingDelete(t *testing.T) {
	s, _ := newTestSession(t)
	original := mustCreateNode(t, s, "x", "old")
	mustSave(t, s)
	require.NoError(t, s.DeleteNode("x"))

	path := writeSourceDB(t, []*entities.Node{srcNode("x", "new", 42)}, nil)

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicyReplace)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{NodesAdded: 1}, stats)

	node, err := s.GetNode("x")
	require.NoError(t, err)
	assert.Equal(t, "new", node.Label)
	assert.Equal(t, original.SequenceID, node.SequenceID)
}

func TestMerge_EdgePendingDeleteIsStillAConflict(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "")
	mustCreateNode(t, s, "b", "")
	mustCreateEdge(t, s, "e1", "a", "b", 1)
	mustSave(t, s)
	require.NoError(t, s.DeleteEdge("e1"))

	path := writeSourceDB(t, nil, []*entities.Edge{srcEdge("e1", "a", "b", 1)})

	stats, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.NoError(t, err)
	assert.Equal(t, MergeStats{EdgesSkipped: 1}, stats)
	assert.Empty(t, s.Edges())
}

func TestMerge_MissingEndpointAbortsAndRollsBack(t *testing.T) {
	s, store := newTestSession(t)
	path := writeSourceDB(t,
		[]*entities.Node{srcNode("a", "alpha", 1)},
		[]*entities.Edge{srcEdge("e1", "a", "ghost", 1)},
	)

	_, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeReferential))

	// Nothing landed, in memory or on disk.
	assert.Empty(t, s.Nodes())
	nodes, listErr := store.NodeRepository().List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, nodes)
}

func TestMerge_ValidatesInput(t *testing.T) {
	s, _ := newTestSession(t)
	merger := newMerger(s)
	ctx := context.Background()

	_, err := merger.Merge(ctx, "", MergePolicySkip)
	assert.True(t, errors.IsValidation(err))

	path := writeSourceDB(t, nil, nil)
	_, err = merger.Merge(ctx, path, MergePolicy("union"))
	assert.True(t, errors.IsValidation(err))

	_, err = merger.Merge(ctx, filepath.Join(t.TempDir(), "absent.db"), MergePolicySkip)
	assert.True(t, errors.IsValidation(err))
}

func TestMerge_RejectsNonGraphDatabase(t *testing.T) {
	s, _ := newTestSession(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	_, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestMerge_RejectedWhileAnotherOperationRuns(t *testing.T) {
	s, _ := newTestSession(t)
	path := writeSourceDB(t, []*entities.Node{srcNode("a", "", 1)}, nil)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, err := newMerger(s).Merge(context.Background(), path, MergePolicySkip)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestParseMergePolicy(t *testing.T) {
	for _, valid := range []string{"skip", "replace", "rename"} {
		policy, err := ParseMergePolicy(valid)
		require.NoError(t, err)
		assert.Equal(t, MergePolicy(valid), policy)
	}

	_, err := ParseMergePolicy("overwrite")
	assert.True(t, errors.IsValidation(err))
}
