package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamRoutePaths     = "stream:route:paths"
	StreamRoutePathsDone = "stream:route:paths:done"
)

// RoutePathsEvent - запрос на подготовку геометрии сегментов маршрута
type RoutePathsEvent struct {
	RouteID uuid.UUID `json:"route_id"`
}

// RoutePathsDoneEvent - результат подготовки геометрии
type RoutePathsDoneEvent struct {
	RouteID  uuid.UUID `json:"route_id"`
	Segments int       `json:"segments"`
	Error    string    `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
