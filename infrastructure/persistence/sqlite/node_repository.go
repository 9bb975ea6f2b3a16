package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

const nodeColumns = "id, x, y, label, chinese_label, color, radius, category, layers, sequence_id"

type nodeRepository struct {
	q querier
}

func (r *nodeRepository) Create(ctx context.Context, node *entities.Node) error {
	layers, err := marshalLayers(node.Layers)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.ID, node.X, node.Y, node.Label, node.ChineseLabel,
		node.Color, node.Radius, node.Category, layers, node.SequenceID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.NewConflictError("node already exists").WithDetail("nodeId", node.ID)
		}
		return pkgerrors.NewDatabaseError("failed to insert node", err)
	}
	return nil
}

func (r *nodeRepository) Update(ctx context.Context, node *entities.Node) error {
	layers, err := marshalLayers(node.Layers)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE nodes SET x = ?, y = ?, label = ?, chinese_label = ?, color = ?,
		 radius = ?, category = ?, layers = ?, sequence_id = ? WHERE id = ?`,
		node.X, node.Y, node.Label, node.ChineseLabel, node.Color,
		node.Radius, node.Category, layers, node.SequenceID, node.ID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to update node", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.NewNotFoundError("node", node.ID)
	}
	return nil
}

func (r *nodeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to delete node", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.NewNotFoundError("node", id)
	}
	return nil
}

func (r *nodeRepository) GetByID(ctx context.Context, id string) (*entities.Node, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("node", id)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to read node", err)
	}
	return node, nil
}

func (r *nodeRepository) List(ctx context.Context) ([]*entities.Node, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY sequence_id`)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list nodes", err)
	}
	defer rows.Close()

	var nodes []*entities.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to scan node", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list nodes", err)
	}
	return nodes, nil
}

// upsert replaces a row regardless of existence, for bulk import.
func (r *nodeRepository) upsert(ctx context.Context, node *entities.Node) error {
	layers, err := marshalLayers(node.Layers)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT OR REPLACE INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.ID, node.X, node.Y, node.Label, node.ChineseLabel,
		node.Color, node.Radius, node.Category, layers, node.SequenceID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to import node", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*entities.Node, error) {
	var node entities.Node
	var layers string
	if err := row.Scan(&node.ID, &node.X, &node.Y, &node.Label, &node.ChineseLabel,
		&node.Color, &node.Radius, &node.Category, &layers, &node.SequenceID); err != nil {
		return nil, err
	}
	if err := unmarshalLayers(layers, &node.Layers); err != nil {
		return nil, err
	}
	return &node, nil
}

func marshalLayers(layers entities.LayerSet) (string, error) {
	if layers == nil {
		return "[]", nil
	}
	b, err := json.Marshal(layers)
	if err != nil {
		return "", pkgerrors.NewInternalError("failed to encode layers", err)
	}
	return string(b), nil
}

func unmarshalLayers(raw string, layers *entities.LayerSet) error {
	if raw == "" {
		*layers = entities.NewLayerSet()
		return nil
	}
	return json.Unmarshal([]byte(raw), layers)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
