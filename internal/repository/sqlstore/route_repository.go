package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/errors"
	"go.uber.org/zap"
)

type routeRepository struct {
	db     *DB
	logger *zap.Logger
}

// routeRow - строка таблицы routes; точки лежат JSON-текстом
type routeRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Waypoints   string    `db:"waypoints"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row *routeRow) toDomain() (*domain.Route, error) {
	route := &domain.Route{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Waypoints), &route.Waypoints); err != nil {
		return nil, fmt.Errorf("decode waypoints of route %s: %w", row.ID, err)
	}
	return route, nil
}

// NewRouteRepository создает новый экземпляр route repository
func NewRouteRepository(db *DB, logger *zap.Logger) repository.RouteRepository {
	return &routeRepository{
		db:     db,
		logger: logger,
	}
}

// dbError логирует ошибку драйвера и заворачивает её в DATABASE_ERROR
func (r *routeRepository) dbError(op string, err error) error {
	r.logger.Error("route repository failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", errors.ErrDatabaseError, op, err)
}

// Create сохраняет новый маршрут; пустой ID и даты заполняются здесь
func (r *routeRepository) Create(ctx context.Context, route *domain.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	now := time.Now().UTC()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = route.CreatedAt

	waypoints, err := json.Marshal(route.Waypoints)
	if err != nil {
		return fmt.Errorf("encode waypoints: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO routes (id, name, description, waypoints, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.ExecContext(ctx, query,
		route.ID.String(), route.Name, route.Description, string(waypoints),
		route.CreatedAt, route.UpdatedAt,
	)
	if err != nil {
		return r.dbError("insert route", err)
	}
	return nil
}

// GetByID возвращает маршрут по идентификатору
func (r *routeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	query := r.db.Rebind(`
		SELECT id, name, description, waypoints, created_at, updated_at
		FROM routes
		WHERE id = ?
	`)

	var row routeRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrRouteNotFound
		}
		return nil, r.dbError("get route", err)
	}
	return row.toDomain()
}

// List возвращает страницу маршрутов и их общее количество
func (r *routeRepository) List(ctx context.Context, limit, offset int) ([]*domain.Route, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM routes`); err != nil {
		return nil, 0, r.dbError("count routes", err)
	}

	query := r.db.Rebind(`
		SELECT id, name, description, waypoints, created_at, updated_at
		FROM routes
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`)

	var rows []routeRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, r.dbError("list routes", err)
	}

	routes := make([]*domain.Route, 0, len(rows))
	for i := range rows {
		route, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, r.dbError("decode route", err)
		}
		routes = append(routes, route)
	}
	return routes, total, nil
}

// Update перезаписывает имя, описание и точки маршрута
func (r *routeRepository) Update(ctx context.Context, route *domain.Route) error {
	waypoints, err := json.Marshal(route.Waypoints)
	if err != nil {
		return fmt.Errorf("encode waypoints: %w", err)
	}
	route.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE routes
		SET name = ?, description = ?, waypoints = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		route.Name, route.Description, string(waypoints), route.UpdatedAt, route.ID.String(),
	)
	if err != nil {
		return r.dbError("update route", err)
	}
	return r.expectOne(res, "update route")
}

// Delete удаляет маршрут вместе с подготовленной геометрией
func (r *routeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.dbError("begin delete", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM route_paths WHERE route_id = ?`), id.String()); err != nil {
		return r.dbError("delete route paths", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM routes WHERE id = ?`), id.String())
	if err != nil {
		return r.dbError("delete route", err)
	}
	if err := r.expectOne(res, "delete route"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return r.dbError("commit delete", err)
	}
	return nil
}

// SavePaths заменяет подготовленную геометрию сегментов маршрута
func (r *routeRepository) SavePaths(ctx context.Context, routeID uuid.UUID, paths []domain.RoutePath) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.dbError("begin save paths", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM route_paths WHERE route_id = ?`), routeID.String()); err != nil {
		return r.dbError("clear route paths", err)
	}

	insert := tx.Rebind(`
		INSERT INTO route_paths
			(route_id, segment_index, mode, polyline, point_count, distance_km, duration_min, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	now := time.Now().UTC()
	for _, p := range paths {
		_, err := tx.ExecContext(ctx, insert,
			routeID.String(), p.SegmentIndex, string(p.Mode), p.Polyline, p.PointCount,
			p.DistanceKm, p.DurationMin, now,
		)
		if err != nil {
			return r.dbError("insert route path", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return r.dbError("commit save paths", err)
	}

	r.logger.Debug("route paths saved",
		zap.String("route_id", routeID.String()),
		zap.Int("segments", len(paths)),
	)
	return nil
}

// GetPaths возвращает подготовленную геометрию сегментов по порядку
func (r *routeRepository) GetPaths(ctx context.Context, routeID uuid.UUID) ([]domain.RoutePath, error) {
	query := r.db.Rebind(`
		SELECT route_id, segment_index, mode, polyline, point_count, distance_km, duration_min, updated_at
		FROM route_paths
		WHERE route_id = ?
		ORDER BY segment_index
	`)

	paths := []domain.RoutePath{}
	if err := r.db.SelectContext(ctx, &paths, query, routeID.String()); err != nil {
		return nil, r.dbError("get route paths", err)
	}
	return paths, nil
}

func (r *routeRepository) expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return r.dbError(op, err)
	}
	if n == 0 {
		return errors.ErrRouteNotFound
	}
	return nil
}
