package domain

// MapStyle - вариант базового стиля карты
type MapStyle string

const (
	StyleStreets   MapStyle = "streets"
	StyleSatellite MapStyle = "satellite"
	StyleDark      MapStyle = "dark"
	StyleOutdoors  MapStyle = "outdoors"
)

// styleURLs - соответствие вариантов стиля и mapbox style URL
var styleURLs = map[MapStyle]string{
	StyleStreets:   "mapbox://styles/mapbox/streets-v12",
	StyleSatellite: "mapbox://styles/mapbox/satellite-streets-v12",
	StyleDark:      "mapbox://styles/mapbox/dark-v11",
	StyleOutdoors:  "mapbox://styles/mapbox/outdoors-v12",
}

// URL возвращает style URL; неизвестный вариант даёт streets
func (s MapStyle) URL() string {
	if u, ok := styleURLs[s]; ok {
		return u
	}
	return styleURLs[StyleStreets]
}

// SceneOptions - чисто презентационные настройки сцены
type SceneOptions struct {
	Style               MapStyle `json:"style"`
	Terrain             bool     `json:"terrain"`
	TerrainExaggeration float64  `json:"terrain_exaggeration,omitempty"`
	Fog                 bool     `json:"fog"`
	Globe               bool     `json:"globe"`
	Buildings           bool     `json:"buildings"`
}

// LayerType - тип слоя рендера
type LayerType string

const (
	LayerLine          LayerType = "line"
	LayerCircle        LayerType = "circle"
	LayerFillExtrusion LayerType = "fill-extrusion"
	LayerSky           LayerType = "sky"
)

// Layer - именованный стилизованный слой, привязанный к источнику
type Layer struct {
	ID          string         `json:"id"`
	Type        LayerType      `json:"type"`
	Source      string         `json:"source"`
	SourceLayer string         `json:"source_layer,omitempty"`
	Paint       map[string]any `json:"paint,omitempty"`
	Layout      map[string]any `json:"layout,omitempty"`
}

// Marker - позиционируемый, поворачиваемый маркер с опциональным попапом
type Marker struct {
	ID       string     `json:"id"`
	Position Coordinate `json:"position"`
	Color    string     `json:"color,omitempty"`
	Rotation float64    `json:"rotation"`
	Popup    string     `json:"popup,omitempty"`
	Kind     string     `json:"kind,omitempty"`
}

// CameraState - положение камеры
type CameraState struct {
	Center  Coordinate `json:"center"`
	Zoom    float64    `json:"zoom"`
	Pitch   float64    `json:"pitch"`
	Bearing float64    `json:"bearing"`
}
