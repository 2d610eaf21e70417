package sqlstore

import (
	"context"
	"fmt"
)

// schema совместима и с PostgreSQL, и с sqlite: uuid и точки хранятся как текст
var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		waypoints   TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_created_at ON routes (created_at)`,
	`CREATE TABLE IF NOT EXISTS route_paths (
		route_id      TEXT NOT NULL REFERENCES routes (id) ON DELETE CASCADE,
		segment_index INTEGER NOT NULL,
		mode          TEXT NOT NULL,
		polyline      TEXT NOT NULL,
		point_count   INTEGER NOT NULL,
		distance_km   DOUBLE PRECISION NOT NULL,
		duration_min  DOUBLE PRECISION NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (route_id, segment_index)
	)`,
}

// EnsureSchema создаёт таблицы, если их ещё нет
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
