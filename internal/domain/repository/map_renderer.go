package repository

import (
	"github.com/paulmach/orb/geojson"
	"github.com/route-planner/internal/domain"
)

// MapRenderer - декларативный движок векторной карты.
// Источники - именованные GeoJSON коллекции, слои привязаны к источникам.
// Все методы вызываются из одного потока (цикла кадров).
type MapRenderer interface {
	// Loaded сообщает, загружены ли стиль и ресурсы
	Loaded() bool
	// OnLoad регистрирует функцию, вызываемую один раз после загрузки
	OnLoad(fn func())

	SetStyle(style domain.MapStyle) error
	ConfigureScene(opts domain.SceneOptions) error

	HasSource(id string) bool
	AddSource(id string, data *geojson.FeatureCollection) error
	SetSourceData(id string, data *geojson.FeatureCollection) error
	RemoveSource(id string) error

	HasLayer(id string) bool
	AddLayer(layer domain.Layer) error
	RemoveLayer(id string) error

	HasMarker(id string) bool
	AddMarker(marker domain.Marker) error
	UpdateMarker(id string, position domain.Coordinate, rotation float64) error
	RemoveMarker(id string) error

	SetCamera(camera domain.CameraState) error
	Camera() domain.CameraState
}
