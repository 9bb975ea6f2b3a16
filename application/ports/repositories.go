// Package ports defines the persistence gateway consumed by the application
// layer. The core owns none of these implementations; the sqlite adapter in
// infrastructure/persistence provides them.
package ports

import (
	"context"

	"graphdesk-backend/domain/entities"
)

// NodeRepository defines per-entity node persistence.
type NodeRepository interface {
	// Create inserts a node. Fails with a conflict error if the id exists.
	Create(ctx context.Context, node *entities.Node) error

	// Update overwrites an existing node. Fails with not-found if absent.
	Update(ctx context.Context, node *entities.Node) error

	// Delete removes a node. Fails with not-found if absent.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a node by id.
	GetByID(ctx context.Context, id string) (*entities.Node, error)

	// List retrieves all nodes ordered by sequence id.
	List(ctx context.Context) ([]*entities.Node, error)
}

// EdgeRepository defines per-entity edge persistence.
type EdgeRepository interface {
	Create(ctx context.Context, edge *entities.Edge) error
	Update(ctx context.Context, edge *entities.Edge) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entities.Edge, error)
	List(ctx context.Context) ([]*entities.Edge, error)
}

// StateRepository persists the singleton view and filter state.
type StateRepository interface {
	GetViewState(ctx context.Context) (entities.ViewState, error)
	SetViewState(ctx context.Context, state entities.ViewState) error
	GetFilterState(ctx context.Context) (entities.FilterState, error)
	SetFilterState(ctx context.Context, state entities.FilterState) error
}

// Transaction is one atomic unit of destination-store work. Repositories
// obtained from a transaction apply inside it; nothing is durable until
// Commit returns nil.
type Transaction interface {
	Nodes() NodeRepository
	Edges() EdgeRepository
	State() StateRepository

	Commit() error
	Rollback() error
}

// GraphStore is the full persistence gateway for the active document.
type GraphStore interface {
	NodeRepository() NodeRepository
	EdgeRepository() EdgeRepository
	StateRepository() StateRepository

	// Begin opens a transaction covering nodes, edges, and state.
	Begin(ctx context.Context) (Transaction, error)

	// Clear removes every node, edge, and state row.
	Clear(ctx context.Context) error

	// Import bulk-loads nodes and edges inside one transaction.
	Import(ctx context.Context, nodes []*entities.Node, edges []*entities.Edge) error

	Close() error
}

// MergeSource is a second graph database opened read-only for merging.
type MergeSource interface {
	// Nodes returns all source nodes ordered by sequence id.
	Nodes(ctx context.Context) ([]*entities.Node, error)

	// Edges returns all source edges ordered by sequence id.
	Edges(ctx context.Context) ([]*entities.Edge, error)

	Close() error
}

// SourceOpener opens merge sources by filesystem path. The open must validate
// the schema and fail fast on anything that is not a graph database.
type SourceOpener interface {
	OpenReadOnly(ctx context.Context, path string) (MergeSource, error)
}
