package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Location - именованная точка маршрута. Неизменяема после привязки к сегменту.
type Location struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
	Address    *string    `json:"address,omitempty"`
}

// RouteSegment - одно плечо маршрута между двумя локациями
type RouteSegment struct {
	From Location      `json:"from"`
	To   Location      `json:"to"`
	Mode TransportMode `json:"mode"`
}

// Route - сохранённый маршрут пользователя
type Route struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	Waypoints   []Waypoint `json:"waypoints" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Waypoint - точка сохранённого маршрута.
// Mode описывает плечо, которое приходит в эту точку (у первой точки игнорируется).
type Waypoint struct {
	Lat  float64       `json:"lat"`
	Lng  float64       `json:"lng"`
	Name *string       `json:"name,omitempty"`
	Mode TransportMode `json:"mode,omitempty"`
}

// DefaultSegmentMode - режим плеча, если он не указан у точки
const DefaultSegmentMode = ModeDrive

// Segments строит список сегментов из точек маршрута
func (r *Route) Segments() []RouteSegment {
	if len(r.Waypoints) < 2 {
		return nil
	}

	locations := make([]Location, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		name := fmt.Sprintf("Point %d", i+1)
		if wp.Name != nil && *wp.Name != "" {
			name = *wp.Name
		}
		locations[i] = Location{
			ID:         fmt.Sprintf("%s-%d", r.ID, i),
			Name:       name,
			Coordinate: Coordinate{Lon: wp.Lng, Lat: wp.Lat},
		}
	}

	segments := make([]RouteSegment, 0, len(r.Waypoints)-1)
	for i := 1; i < len(r.Waypoints); i++ {
		mode := r.Waypoints[i].Mode
		if !mode.Valid() {
			mode = DefaultSegmentMode
		}
		segments = append(segments, RouteSegment{
			From: locations[i-1],
			To:   locations[i],
			Mode: mode,
		})
	}
	return segments
}

// RoutePath - упрощённая геометрия сегмента, подготовленная воркером
type RoutePath struct {
	RouteID      uuid.UUID     `json:"route_id" db:"route_id"`
	SegmentIndex int           `json:"segment_index" db:"segment_index"`
	Mode         TransportMode `json:"mode" db:"mode"`
	Polyline     string        `json:"polyline" db:"polyline"`
	PointCount   int           `json:"point_count" db:"point_count"`
	DistanceKm   float64       `json:"distance_km" db:"distance_km"`
	DurationMin  float64       `json:"duration_min" db:"duration_min"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// Place - результат геокодинга
type Place struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Coordinate  Coordinate `json:"coordinate"`
}
