package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
)

// RouteRepository определяет методы хранения маршрутов
type RouteRepository interface {
	// Create сохраняет новый маршрут
	Create(ctx context.Context, route *domain.Route) error

	// GetByID возвращает маршрут по идентификатору
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error)

	// List возвращает маршруты, отсортированные по дате создания (новые первыми)
	List(ctx context.Context, limit, offset int) ([]*domain.Route, int, error)

	// Update перезаписывает имя, описание и точки маршрута
	Update(ctx context.Context, route *domain.Route) error

	// Delete удаляет маршрут вместе с подготовленной геометрией
	Delete(ctx context.Context, id uuid.UUID) error

	// SavePaths заменяет подготовленную геометрию сегментов маршрута
	SavePaths(ctx context.Context, routeID uuid.UUID, paths []domain.RoutePath) error

	// GetPaths возвращает подготовленную геометрию сегментов по порядку
	GetPaths(ctx context.Context, routeID uuid.UUID) ([]domain.RoutePath, error)
}
