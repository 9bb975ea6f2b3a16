package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := Open("", zap.NewNop())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNodeRepository_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.NodeRepository()

	node := &entities.Node{
		ID:           "n1",
		X:            12.5,
		Y:            -3,
		Label:        "alpha",
		ChineseLabel: "阿尔法",
		Color:        "#ff0000",
		Radius:       25,
		Category:     "concept",
		Layers:       entities.NewLayerSet("physics", "math"),
		SequenceID:   1,
	}
	require.NoError(t, repo.Create(ctx, node))

	got, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, node.Equal(got))

	node.Label = "alpha prime"
	node.Layers = entities.NewLayerSet("physics")
	require.NoError(t, repo.Update(ctx, node))

	got, err = repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "alpha prime", got.Label)
	assert.Equal(t, []string{"physics"}, got.Layers.Names())

	require.NoError(t, repo.Delete(ctx, "n1"))
	_, err = repo.GetByID(ctx, "n1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodeRepository_ErrorMapping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.NodeRepository()

	node := &entities.Node{ID: "n1", Radius: 20, SequenceID: 1}
	require.NoError(t, repo.Create(ctx, node))

	dup := &entities.Node{ID: "n1", Radius: 20, SequenceID: 2}
	assert.True(t, pkgerrors.IsConflict(repo.Create(ctx, dup)))

	missing := &entities.Node{ID: "ghost", Radius: 20, SequenceID: 3}
	assert.True(t, pkgerrors.IsNotFound(repo.Update(ctx, missing)))
	assert.True(t, pkgerrors.IsNotFound(repo.Delete(ctx, "ghost")))
}

func TestNodeRepository_ListOrderedBySequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.NodeRepository()

	for _, n := range []*entities.Node{
		{ID: "late", Radius: 20, SequenceID: 30},
		{ID: "early", Radius: 20, SequenceID: 10},
		{ID: "mid", Radius: 20, SequenceID: 20},
	} {
		require.NoError(t, repo.Create(ctx, n))
	}

	nodes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "early", nodes[0].ID)
	assert.Equal(t, "mid", nodes[1].ID)
	assert.Equal(t, "late", nodes[2].ID)
}

func TestEdgeRepository_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.EdgeRepository()

	edge := &entities.Edge{ID: "e1", From: "a", To: "b", Weight: 2.5, Category: "related", SequenceID: 1}
	require.NoError(t, repo.Create(ctx, edge))

	got, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, edge, got)

	edge.Weight = 4
	require.NoError(t, repo.Update(ctx, edge))
	got, err = repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Weight)

	require.NoError(t, repo.Delete(ctx, "e1"))
	_, err = repo.GetByID(ctx, "e1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStateRepository_DefaultsWhenEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.StateRepository()

	view, err := repo.GetViewState(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultViewState(), view)

	filter, err := repo.GetFilterState(ctx)
	require.NoError(t, err)
	assert.True(t, filter.Equal(entities.DefaultFilterState()))
}

func TestStateRepository_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.StateRepository()

	view := entities.ViewState{Scale: 1.75, OffsetX: 40, OffsetY: -12}
	require.NoError(t, repo.SetViewState(ctx, view))
	gotView, err := repo.GetViewState(ctx)
	require.NoError(t, err)
	assert.Equal(t, view, gotView)

	filter := entities.FilterState{
		Enabled:      true,
		Mode:         entities.FilterModeExclude,
		ActiveLayers: entities.NewLayerSet("archived", "draft"),
	}
	require.NoError(t, repo.SetFilterState(ctx, filter))
	gotFilter, err := repo.GetFilterState(ctx)
	require.NoError(t, err)
	assert.True(t, filter.Equal(gotFilter))

	// Singleton row: a second write overwrites, never appends.
	view.Scale = 3
	require.NoError(t, repo.SetViewState(ctx, view))
	gotView, err = repo.GetViewState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, gotView.Scale)
}

func TestTransaction_RollbackLeavesStoreUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Nodes().Create(ctx, &entities.Node{ID: "n1", Radius: 20, SequenceID: 1}))
	require.NoError(t, tx.Edges().Create(ctx, &entities.Edge{ID: "e1", From: "n1", To: "n1", Weight: 1, SequenceID: 1}))
	require.NoError(t, tx.Rollback())

	nodes, err := store.NodeRepository().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	edges, err := store.EdgeRepository().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestTransaction_CommitPersistsAllCollections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Nodes().Create(ctx, &entities.Node{ID: "n1", Radius: 20, SequenceID: 1}))
	require.NoError(t, tx.State().SetViewState(ctx, entities.ViewState{Scale: 2}))
	require.NoError(t, tx.Commit())

	nodes, err := store.NodeRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	view, err := store.StateRepository().GetViewState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, view.Scale)
}

func TestStore_ImportReplacesCollidingRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.NodeRepository().Create(ctx, &entities.Node{ID: "n1", Label: "old", Radius: 20, SequenceID: 1}))

	err := store.Import(ctx,
		[]*entities.Node{{ID: "n1", Label: "new", Radius: 20, SequenceID: 1}},
		nil,
	)
	require.NoError(t, err)

	nodes, err := store.NodeRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "new", nodes[0].Label)
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.NodeRepository().Create(ctx, &entities.Node{ID: "n1", Radius: 20, SequenceID: 1}))
	require.NoError(t, store.StateRepository().SetViewState(ctx, entities.ViewState{Scale: 2}))

	require.NoError(t, store.Clear(ctx))

	nodes, err := store.NodeRepository().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	view, err := store.StateRepository().GetViewState(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultViewState(), view)
}

func TestSourceOpener_ValidatesPath(t *testing.T) {
	opener := NewSourceOpener(zap.NewNop())
	ctx := context.Background()

	_, err := opener.OpenReadOnly(ctx, filepath.Join(t.TempDir(), "absent.db"))
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = opener.OpenReadOnly(ctx, t.TempDir())
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSourceOpener_RejectsForeignSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := NewSourceOpener(zap.NewNop()).OpenReadOnly(context.Background(), path)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSourceOpener_ReadsGraphDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "source.db")

	seed, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, seed.Import(ctx,
		[]*entities.Node{{ID: "n1", Radius: 20, SequenceID: 1}, {ID: "n2", Radius: 20, SequenceID: 2}},
		[]*entities.Edge{{ID: "e1", From: "n1", To: "n2", Weight: 1, SequenceID: 1}},
	))
	require.NoError(t, seed.Close())

	src, err := NewSourceOpener(zap.NewNop()).OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, err := src.Nodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	edges, err := src.Edges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
