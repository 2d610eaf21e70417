package domain

// DirectionsResponse - ответ Mapbox Directions API (только нужные поля)
type DirectionsResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Routes  []DirectionsRoute `json:"routes"`
}

// DirectionsRoute - один вариант маршрута
type DirectionsRoute struct {
	Distance float64            `json:"distance"` // meters
	Duration float64            `json:"duration"` // seconds
	Geometry DirectionsGeometry `json:"geometry"`
}

// DirectionsGeometry - геометрия в формате geometries=geojson
type DirectionsGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// GeocodingResponse - ответ Mapbox Geocoding API
type GeocodingResponse struct {
	Type     string             `json:"type"`
	Features []GeocodingFeature `json:"features"`
}

// GeocodingFeature - найденное место
type GeocodingFeature struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Center    []float64 `json:"center"` // [lon, lat]
}
