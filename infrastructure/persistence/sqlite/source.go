package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"os"

	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

// requiredTables is the schema a merge source must expose.
var requiredTables = []string{"nodes", "edges"}

// SourceOpener opens merge-source databases read-only by path.
type SourceOpener struct {
	logger *zap.Logger
}

var _ ports.SourceOpener = (*SourceOpener)(nil)

// NewSourceOpener creates the opener.
func NewSourceOpener(logger *zap.Logger) *SourceOpener {
	return &SourceOpener{logger: logger}
}

// OpenReadOnly opens the database at path in read-only mode and validates
// that it exposes the graph schema. Anything else fails fast with a
// validation error before the merge mutates a single row.
func (o *SourceOpener) OpenReadOnly(ctx context.Context, path string) (ports.MergeSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, pkgerrors.NewValidationError("merge source does not exist").
			WithDetail("path", path).WithCause(err)
	}
	if info.IsDir() {
		return nil, pkgerrors.NewValidationError("merge source is a directory").
			WithDetail("path", path)
	}

	dsn := "file:" + url.PathEscape(path) + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to open merge source", err)
	}
	if err := validateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	o.logger.Info("merge source opened", zap.String("path", path))
	return &mergeSource{db: db}, nil
}

// validateSchema checks the source exposes the expected tables.
func validateSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			return pkgerrors.NewValidationError("merge source is not a graph database").
				WithDetail("missingTable", table).WithCause(err)
		}
	}
	return nil
}

// mergeSource reads a validated source database.
type mergeSource struct {
	db *sql.DB
}

func (m *mergeSource) Nodes(ctx context.Context) ([]*entities.Node, error) {
	repo := &nodeRepository{q: m.db}
	return repo.List(ctx)
}

func (m *mergeSource) Edges(ctx context.Context) ([]*entities.Edge, error) {
	repo := &edgeRepository{q: m.db}
	return repo.List(ctx)
}

func (m *mergeSource) Close() error {
	return m.db.Close()
}
