package repository

import (
	"context"

	"github.com/route-planner/internal/domain"
)

// DirectionsRepository определяет методы для получения геометрии наземных маршрутов
type DirectionsRepository interface {
	// GetDirections возвращает список координат [lon, lat] маршрута
	// между двумя точками для заданного профиля (driving, walking)
	GetDirections(
		ctx context.Context,
		profile string,
		from domain.Coordinate,
		to domain.Coordinate,
	) ([]domain.Coordinate, error)
}

// GeocodingRepository определяет методы поиска мест по тексту
type GeocodingRepository interface {
	// SearchPlaces возвращает не более limit мест для свободного текстового запроса
	SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error)
}
