package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"graphdesk-backend/domain/entities"
	pkgerrors "graphdesk-backend/pkg/errors"
)

// stateRepository persists the singleton view and filter rows. A missing row
// reads back as the entity default so a fresh database needs no seeding.
type stateRepository struct {
	q querier
}

func (r *stateRepository) GetViewState(ctx context.Context) (entities.ViewState, error) {
	var view entities.ViewState
	row := r.q.QueryRowContext(ctx, `SELECT scale, offset_x, offset_y FROM view_state WHERE id = 1`)
	err := row.Scan(&view.Scale, &view.OffsetX, &view.OffsetY)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.DefaultViewState(), nil
	}
	if err != nil {
		return entities.ViewState{}, pkgerrors.NewDatabaseError("failed to read view state", err)
	}
	return view, nil
}

func (r *stateRepository) SetViewState(ctx context.Context, state entities.ViewState) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO view_state (id, scale, offset_x, offset_y) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET scale = excluded.scale,
		 offset_x = excluded.offset_x, offset_y = excluded.offset_y`,
		state.Scale, state.OffsetX, state.OffsetY,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to write view state", err)
	}
	return nil
}

func (r *stateRepository) GetFilterState(ctx context.Context) (entities.FilterState, error) {
	var (
		filter  entities.FilterState
		enabled int
		layers  string
		mode    string
	)
	row := r.q.QueryRowContext(ctx, `SELECT enabled, active_layers, mode FROM filter_state WHERE id = 1`)
	err := row.Scan(&enabled, &layers, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.DefaultFilterState(), nil
	}
	if err != nil {
		return entities.FilterState{}, pkgerrors.NewDatabaseError("failed to read filter state", err)
	}
	filter.Enabled = enabled != 0
	filter.Mode = entities.FilterMode(mode)
	if err := unmarshalLayers(layers, &filter.ActiveLayers); err != nil {
		return entities.FilterState{}, pkgerrors.NewDatabaseError("failed to decode filter layers", err)
	}
	return filter, nil
}

func (r *stateRepository) SetFilterState(ctx context.Context, state entities.FilterState) error {
	layers, err := json.Marshal(state.ActiveLayers)
	if err != nil {
		return pkgerrors.NewInternalError("failed to encode filter layers", err)
	}
	enabled := 0
	if state.Enabled {
		enabled = 1
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO filter_state (id, enabled, active_layers, mode) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET enabled = excluded.enabled,
		 active_layers = excluded.active_layers, mode = excluded.mode`,
		enabled, string(layers), string(state.Mode),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to write filter state", err)
	}
	return nil
}
