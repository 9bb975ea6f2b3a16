package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdesk-backend/domain/entities"
	"graphdesk-backend/pkg/errors"
)

func TestEditSession_CreateNodeAssignsDefaults(t *testing.T) {
	s, _ := newTestSession(t)

	node, err := s.CreateNode(&entities.Node{Label: "first"})

	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, entities.DefaultNodeRadius, node.Radius)
	assert.NotNil(t, node.Layers)
	assert.Equal(t, int64(1), node.SequenceID)

	second := mustCreateNode(t, s, "b", "second")
	assert.Equal(t, int64(2), second.SequenceID)
}

func TestEditSession_CreateNodeRejectsDuplicateID(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "first")

	_, err := s.CreateNode(&entities.Node{ID: "a"})

	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestEditSession_UpdateNodeKeepsSequenceID(t *testing.T) {
	s, _ := newTestSession(t)
	created := mustCreateNode(t, s, "a", "before")

	updated, err := s.UpdateNode(&entities.Node{ID: "a", Label: "after", Radius: 30, SequenceID: 999})

	require.NoError(t, err)
	assert.Equal(t, created.SequenceID, updated.SequenceID)
	got, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Label)
}

func TestEditSession_UpdateNodeDefaultsOmittedRadius(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "before")

	// An update payload that never mentions the radius must not shrink the
	// node to zero.
	updated, err := s.UpdateNode(&entities.Node{ID: "a", Label: "after"})

	require.NoError(t, err)
	assert.Equal(t, entities.DefaultNodeRadius, updated.Radius)
	assert.NotNil(t, updated.Layers)

	got, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultNodeRadius, got.Radius)
}

func TestEditSession_UpdateMissingNode(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.UpdateNode(&entities.Node{ID: "ghost", Radius: 20})

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEditSession_CreateThenDeleteLeavesNoPending(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "ephemeral")
	require.Equal(t, 1, s.ChangeCount())

	require.NoError(t, s.DeleteNode("a"))

	assert.Equal(t, 0, s.ChangeCount())
	assert.False(t, s.HasPendingChanges())
	_, err := s.GetNode("a")
	assert.True(t, errors.IsNotFound(err))
}

func TestEditSession_DeleteNodeCascadesToIncidentEdges(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "hub")
	mustCreateNode(t, s, "b", "leaf")
	mustCreateNode(t, s, "c", "leaf")
	mustCreateEdge(t, s, "e1", "a", "b", 1)
	mustCreateEdge(t, s, "e2", "c", "a", 1)
	mustSave(t, s)
	require.Equal(t, 0, s.ChangeCount())

	require.NoError(t, s.DeleteNode("a"))

	// One node delete plus one record per incident edge.
	assert.Equal(t, 3, s.ChangeCount())
	assert.Empty(t, s.Edges())
	require.Len(t, s.Nodes(), 2)
}

func TestEditSession_CreateEdgeRequiresLiveEndpoints(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "only")

	_, err := s.CreateEdge(&entities.Edge{From: "a", To: "ghost", Weight: 1})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeReferential))
}

func TestEditSession_CreateEdgeAppliesDefaultWeight(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "")
	mustCreateNode(t, s, "b", "")

	edge, err := s.CreateEdge(&entities.Edge{From: "a", To: "b"})

	require.NoError(t, err)
	assert.Equal(t, entities.DefaultEdgeWeight, edge.Weight)
	assert.Equal(t, int64(1), edge.SequenceID)
}

func TestEditSession_SetFilterStateTracksDelta(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.SetFilterState(entities.FilterState{
		Enabled:      true,
		Mode:         entities.FilterModeInclude,
		ActiveLayers: entities.NewLayerSet("physics"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.ChangeCount())

	// Setting the filter back to the baseline value clears the delta.
	require.NoError(t, s.SetFilterState(entities.DefaultFilterState()))
	assert.Equal(t, 0, s.ChangeCount())
}

func TestEditSession_SetFilterStateValidatesMode(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.SetFilterState(entities.FilterState{Mode: "spotlight"})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestEditSession_ViewStateNeverEntersBuffer(t *testing.T) {
	s, _ := newTestSession(t)

	require.NoError(t, s.SetViewState(entities.ViewState{Scale: 2.5, OffsetX: 10, OffsetY: -4}))

	assert.Equal(t, 0, s.ChangeCount())
	assert.Equal(t, 2.5, s.ViewState().Scale)
}

func TestEditSession_ConnectionsUnknownNode(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Connections("ghost")

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEditSession_SequenceCountersResumeAfterReload(t *testing.T) {
	s, store := newTestSession(t)
	mustCreateNode(t, s, "a", "")
	mustCreateNode(t, s, "b", "")
	mustSave(t, s)

	fresh := NewEditSession(store, zap.NewNop(), nil)
	require.NoError(t, fresh.Load(context.Background()))

	node := mustCreateNode(t, fresh, "c", "")
	assert.Equal(t, int64(3), node.SequenceID)
}

func TestEditSession_GetNodeReturnsCopy(t *testing.T) {
	s, _ := newTestSession(t)
	mustCreateNode(t, s, "a", "original")

	got, err := s.GetNode("a")
	require.NoError(t, err)
	got.Label = "mutated"

	again, err := s.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Label)
}
