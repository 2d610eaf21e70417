package domain

import (
	"math"
	"strconv"
)

// Coordinate - географическая точка WGS84 в градусах (lon, lat) с опциональной высотой в метрах
type Coordinate struct {
	Lon float64 `json:"lon" db:"lon" validate:"min=-180,max=180"`
	Lat float64 `json:"lat" db:"lat" validate:"min=-90,max=90"`
	Alt float64 `json:"alt,omitempty" db:"alt"`
}

// LonLat возвращает пару [lon, lat] в порядке GeoJSON
func (c Coordinate) LonLat() [2]float64 {
	return [2]float64{c.Lon, c.Lat}
}

// Equal сравнивает плановые координаты без учёта высоты
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Lon == o.Lon && c.Lat == o.Lat
}

// Path - упорядоченная последовательность точек пути одного сегмента
type Path []Coordinate

// IsDegenerate возвращает true, если путь нельзя анимировать:
// меньше двух точек или все точки совпадают
func (p Path) IsDegenerate() bool {
	if len(p) < 2 {
		return true
	}
	for _, c := range p[1:] {
		if !c.Equal(p[0]) {
			return false
		}
	}
	return true
}

// BoundingBox - минимальный прямоугольник, покрывающий набор точек
type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLon float64 `json:"min_lon" db:"min_lon"`
	MaxLat float64 `json:"max_lat" db:"max_lat"`
	MaxLon float64 `json:"max_lon" db:"max_lon"`
}

// NewBoundingBox вычисляет bbox для набора точек; ok=false для пустого набора
func NewBoundingBox(points []Coordinate) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinLat: math.Inf(1),
		MinLon: math.Inf(1),
		MaxLat: math.Inf(-1),
		MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MinLon = math.Min(box.MinLon, p.Lon)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MaxLon = math.Max(box.MaxLon, p.Lon)
	}
	return box, true
}

// Center возвращает центр bbox
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lon: (b.MinLon + b.MaxLon) / 2,
		Lat: (b.MinLat + b.MaxLat) / 2,
	}
}

// Key - стабильный строковый ключ плановой точки (6 знаков, ~0.1 м)
func (c Coordinate) Key() string {
	return strconv.FormatFloat(c.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}
