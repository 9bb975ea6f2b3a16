// Package sqlite implements the persistence gateway over an embedded SQLite
// database (modernc.org/sqlite, pure Go). One database file holds one graph
// document: nodes, edges, and the singleton view/filter state rows.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    id            TEXT PRIMARY KEY,
    x             REAL NOT NULL DEFAULT 0,
    y             REAL NOT NULL DEFAULT 0,
    label         TEXT NOT NULL DEFAULT '',
    chinese_label TEXT NOT NULL DEFAULT '',
    color         TEXT NOT NULL DEFAULT '',
    radius        REAL NOT NULL DEFAULT 20,
    category      TEXT NOT NULL DEFAULT '',
    layers        TEXT NOT NULL DEFAULT '[]',
    sequence_id   INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_sequence ON nodes(sequence_id);

CREATE TABLE IF NOT EXISTS edges (
    id          TEXT PRIMARY KEY,
    from_id     TEXT NOT NULL,
    to_id       TEXT NOT NULL,
    weight      REAL NOT NULL DEFAULT 1.0,
    category    TEXT NOT NULL DEFAULT '',
    sequence_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_sequence ON edges(sequence_id);

CREATE TABLE IF NOT EXISTS view_state (
    id       INTEGER PRIMARY KEY CHECK (id = 1),
    scale    REAL NOT NULL,
    offset_x REAL NOT NULL,
    offset_y REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS filter_state (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    enabled       INTEGER NOT NULL,
    active_layers TEXT NOT NULL DEFAULT '[]',
    mode          TEXT NOT NULL
);
`

// Store is the sqlite-backed persistence gateway for the active document.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.GraphStore = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, pkgerrors.NewValidationError("store path cannot be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to open store", err)
	}
	// Single local writer; pool concurrency only causes SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, pkgerrors.NewDatabaseError("failed to configure store", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.NewDatabaseError("failed to apply schema", err)
	}
	logger.Info("store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// NodeRepository returns the non-transactional node repository.
func (s *Store) NodeRepository() ports.NodeRepository { return &nodeRepository{q: s.db} }

// EdgeRepository returns the non-transactional edge repository.
func (s *Store) EdgeRepository() ports.EdgeRepository { return &edgeRepository{q: s.db} }

// StateRepository returns the non-transactional state repository.
func (s *Store) StateRepository() ports.StateRepository { return &stateRepository{q: s.db} }

// Begin opens a transaction covering all collections.
func (s *Store) Begin(ctx context.Context) (ports.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to begin transaction", err)
	}
	return &transaction{tx: tx}, nil
}

// Clear removes every node, edge, and state row.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to begin clear", err)
	}
	for _, table := range []string{"edges", "nodes", "view_state", "filter_state"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			tx.Rollback()
			return pkgerrors.NewDatabaseError(fmt.Sprintf("failed to clear %s", table), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return pkgerrors.NewDatabaseError("failed to commit clear", err)
	}
	return nil
}

// Import bulk-loads nodes and edges inside one transaction, replacing rows
// with colliding ids.
func (s *Store) Import(ctx context.Context, nodes []*entities.Node, edges []*entities.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to begin import", err)
	}
	nodeRepo := &nodeRepository{q: tx}
	edgeRepo := &edgeRepository{q: tx}
	for _, n := range nodes {
		if err := nodeRepo.upsert(ctx, n); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, e := range edges {
		if err := edgeRepo.upsert(ctx, e); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return pkgerrors.NewDatabaseError("failed to commit import", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// transaction implements ports.Transaction over one *sql.Tx.
type transaction struct {
	tx *sql.Tx
}

func (t *transaction) Nodes() ports.NodeRepository  { return &nodeRepository{q: t.tx} }
func (t *transaction) Edges() ports.EdgeRepository  { return &edgeRepository{q: t.tx} }
func (t *transaction) State() ports.StateRepository { return &stateRepository{q: t.tx} }
func (t *transaction) Commit() error                { return t.tx.Commit() }
func (t *transaction) Rollback() error              { return t.tx.Rollback() }

// querier is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run standalone or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
