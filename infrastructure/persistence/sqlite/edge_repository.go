package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

const edgeColumns = "id, from_id, to_id, weight, category, sequence_id"

type edgeRepository struct {
	q querier
}

func (r *edgeRepository) Create(ctx context.Context, edge *entities.Edge) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.From, edge.To, edge.Weight, edge.Category, edge.SequenceID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.NewConflictError("edge already exists").WithDetail("edgeId", edge.ID)
		}
		return pkgerrors.NewDatabaseError("failed to insert edge", err)
	}
	return nil
}

func (r *edgeRepository) Update(ctx context.Context, edge *entities.Edge) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE edges SET from_id = ?, to_id = ?, weight = ?, category = ?, sequence_id = ?
		 WHERE id = ?`,
		edge.From, edge.To, edge.Weight, edge.Category, edge.SequenceID, edge.ID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to update edge", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.NewNotFoundError("edge", edge.ID)
	}
	return nil
}

func (r *edgeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to delete edge", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.NewNotFoundError("edge", id)
	}
	return nil
}

func (r *edgeRepository) GetByID(ctx context.Context, id string) (*entities.Edge, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+edgeColumns+` FROM edges WHERE id = ?`, id)
	edge, err := scanEdge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("edge", id)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to read edge", err)
	}
	return edge, nil
}

func (r *edgeRepository) List(ctx context.Context) ([]*entities.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+edgeColumns+` FROM edges ORDER BY sequence_id`)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list edges", err)
	}
	defer rows.Close()

	var edges []*entities.Edge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to scan edge", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list edges", err)
	}
	return edges, nil
}

func (r *edgeRepository) upsert(ctx context.Context, edge *entities.Edge) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT OR REPLACE INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.From, edge.To, edge.Weight, edge.Category, edge.SequenceID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to import edge", err)
	}
	return nil
}

func scanEdge(row rowScanner) (*entities.Edge, error) {
	var edge entities.Edge
	if err := row.Scan(&edge.ID, &edge.From, &edge.To, &edge.Weight,
		&edge.Category, &edge.SequenceID); err != nil {
		return nil, err
	}
	return &edge, nil
}
