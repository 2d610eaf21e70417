package dto

// WaypointInput - точка маршрута в запросе; mode - режим плеча, приходящего в точку
type WaypointInput struct {
	Lat  float64 `json:"lat" validate:"min=-90,max=90"`
	Lng  float64 `json:"lng" validate:"min=-180,max=180"`
	Name *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Mode string  `json:"mode,omitempty" validate:"omitempty,transport_mode"`
}

// CreateRouteRequest - запрос на создание маршрута
type CreateRouteRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Waypoints   []WaypointInput `json:"waypoints" validate:"required,min=2,max=100,dive"`
}

// UpdateRouteRequest - полная перезапись маршрута
type UpdateRouteRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Waypoints   []WaypointInput `json:"waypoints" validate:"required,min=2,max=100,dive"`
}

// Point - координаты точки
type Point struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// PathPreviewRequest - запрос на построение пути одного сегмента
type PathPreviewRequest struct {
	From Point  `json:"from"`
	To   Point  `json:"to"`
	Mode string `json:"mode" validate:"required,transport_mode"`
}

// PlaceSearchRequest - поиск мест по тексту
type PlaceSearchRequest struct {
	Query string `json:"q" validate:"required,min=2,max=200"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=10"`
}

// LocationInput - именованная точка сегмента
type LocationInput struct {
	ID      string  `json:"id,omitempty" validate:"omitempty,max=100"`
	Name    string  `json:"name" validate:"required,max=200"`
	Lat     float64 `json:"lat" validate:"min=-90,max=90"`
	Lng     float64 `json:"lng" validate:"min=-180,max=180"`
	Address *string `json:"address,omitempty"`
}

// SegmentInput - сегмент для анимации без сохранённого маршрута
type SegmentInput struct {
	From LocationInput `json:"from"`
	To   LocationInput `json:"to"`
	Mode string        `json:"mode" validate:"required,transport_mode"`
}

// SceneOptionsInput - переопределения настроек сцены
type SceneOptionsInput struct {
	Style     string `json:"style,omitempty" validate:"omitempty,oneof=streets satellite dark outdoors"`
	Terrain   *bool  `json:"terrain,omitempty"`
	Fog       *bool  `json:"fog,omitempty"`
	Globe     *bool  `json:"globe,omitempty"`
	Buildings *bool  `json:"buildings,omitempty"`
}

// CreateAnimationRequest - запуск сессии пролёта: по сохранённому маршруту или по списку сегментов
type CreateAnimationRequest struct {
	RouteID   string            `json:"route_id,omitempty" validate:"omitempty,uuid"`
	Segments  []SegmentInput    `json:"segments,omitempty" validate:"omitempty,max=100,dive"`
	FromIndex int               `json:"from_index,omitempty" validate:"min=0"`
	Scene     SceneOptionsInput `json:"scene"`
}
