package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdesk-backend/domain/entities"
	"graphdesk-backend/infrastructure/persistence/sqlite"
)

// Helper function to create int pointer
func intPtr(n int) *int {
	return &n
}

// Helper function to create float64 pointer
func floatPtr(f float64) *float64 {
	return &f
}

// newTestSession builds a loaded session over an ephemeral store.
func newTestSession(t *testing.T) (*EditSession, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	session := NewEditSession(store, zap.NewNop(), nil)
	require.NoError(t, session.Load(context.Background()))
	return session, store
}

func mustCreateNode(t *testing.T, s *EditSession, id, label string) *entities.Node {
	t.Helper()
	node, err := s.CreateNode(&entities.Node{ID: id, Label: label})
	require.NoError(t, err)
	return node
}

func mustCreateEdge(t *testing.T, s *EditSession, id, from, to string, weight float64) *entities.Edge {
	t.Helper()
	edge, err := s.CreateEdge(&entities.Edge{ID: id, From: from, To: to, Weight: weight})
	require.NoError(t, err)
	return edge
}

func mustSave(t *testing.T, s *EditSession) SaveResult {
	t.Helper()
	result, err := s.Save(context.Background())
	require.NoError(t, err)
	return result
}
