package dto

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/scene"
)

// RouteResponse - маршрут с производными итогами
type RouteResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      *string           `json:"description,omitempty"`
	Waypoints        []domain.Waypoint `json:"waypoints"`
	Segments         int               `json:"segments"`
	TotalDistanceKm  float64           `json:"total_distance_km"`
	TotalDurationMin float64           `json:"total_duration_min"`
	TotalDuration    string            `json:"total_duration"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CreatedResponse - идентификатор созданного ресурса
type CreatedResponse struct {
	ID string `json:"id"`
}

// RouteListResponse - страница маршрутов
type RouteListResponse struct {
	Routes []RouteResponse `json:"routes"`
	Total  int             `json:"total"`
}

// PathPreviewResponse - путь сегмента с оценками
type PathPreviewResponse struct {
	Mode        domain.TransportMode       `json:"mode"`
	Points      int                        `json:"points"`
	DistanceKm  float64                    `json:"distance_km"`
	DurationMin float64                    `json:"duration_min"`
	Duration    string                     `json:"duration"`
	Geometry    *geojson.FeatureCollection `json:"geometry" swaggertype:"object"`
}

// RoutePathResponse - сохранённая упрощённая геометрия сегмента
type RoutePathResponse struct {
	SegmentIndex int                  `json:"segment_index"`
	Mode         domain.TransportMode `json:"mode"`
	Polyline     string               `json:"polyline"`
	PointCount   int                  `json:"point_count"`
	DistanceKm   float64              `json:"distance_km"`
	DurationMin  float64              `json:"duration_min"`
	Duration     string               `json:"duration"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// RoutePathsResponse - геометрия всех сегментов маршрута
type RoutePathsResponse struct {
	RouteID  string              `json:"route_id"`
	Ready    bool                `json:"ready"`
	Segments []RoutePathResponse `json:"segments"`
}

// PlaceSearchResponse - результаты поиска мест
type PlaceSearchResponse struct {
	Results []domain.Place `json:"results"`
	Total   int            `json:"total"`
}

// AnimationSessionResponse - состояние сессии пролёта
type AnimationSessionResponse struct {
	ID        string                  `json:"id"`
	Subject   string                  `json:"subject,omitempty"`
	RouteID   string                  `json:"route_id,omitempty"`
	Segments  int                     `json:"segments"`
	State     domain.AnimationState   `json:"state"`
	Readout   *domain.ProgressReadout `json:"readout,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// SceneResponse - статичная сцена маршрута для клиентов без анимации
type SceneResponse struct {
	RouteID          string         `json:"route_id"`
	TotalDistanceKm  float64        `json:"total_distance_km"`
	TotalDurationMin float64        `json:"total_duration_min"`
	TotalDuration    string         `json:"total_duration"`
	Scene            scene.Snapshot `json:"scene"`
}
