package usecase

import (
	"fmt"
	"math"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/utils"
)

// Speeds - средние скорости по видам транспорта, км/ч
type Speeds map[domain.TransportMode]float64

// DefaultSpeeds - {flight: 800, drive: 80, train: 120, walk: 5}
var DefaultSpeeds = Speeds{
	domain.ModeFlight: 800,
	domain.ModeDrive:  80,
	domain.ModeTrain:  120,
	domain.ModeWalk:   5,
}

// SpeedsFromConfig собирает таблицу скоростей из конфигурации анимации
func SpeedsFromConfig(cfg config.AnimationConfig) Speeds {
	s := Speeds{
		domain.ModeFlight: cfg.SpeedFlight,
		domain.ModeDrive:  cfg.SpeedDrive,
		domain.ModeTrain:  cfg.SpeedTrain,
		domain.ModeWalk:   cfg.SpeedWalk,
	}
	for mode, v := range s {
		if v <= 0 {
			s[mode] = DefaultSpeeds[mode]
		}
	}
	return s
}

// RouteMetrics - калькулятор расстояний и длительностей сегментов
type RouteMetrics struct {
	speeds Speeds
}

func NewRouteMetrics(speeds Speeds) *RouteMetrics {
	if speeds == nil {
		speeds = DefaultSpeeds
	}
	return &RouteMetrics{speeds: speeds}
}

// HaversineDistanceKm - расстояние по большому кругу, R = 6371 км
func HaversineDistanceKm(a, b domain.Coordinate) float64 {
	return utils.HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistanceKm - расстояние сегмента между его концами
func (m *RouteMetrics) DistanceKm(from, to domain.Coordinate) float64 {
	return HaversineDistanceKm(from, to)
}

// EstimateDurationMinutes = distance / speed(mode) * 60
func (m *RouteMetrics) EstimateDurationMinutes(distanceKm float64, mode domain.TransportMode) float64 {
	if distanceKm <= 0 {
		return 0
	}
	speed, ok := m.speeds[mode]
	if !ok || speed <= 0 {
		speed = DefaultSpeeds[domain.DefaultSegmentMode]
	}
	return distanceKm / speed * 60
}

// FormatDuration форматирует минуты как "Xh Ym"
func FormatDuration(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}
	hours := int(math.Floor(minutes / 60))
	rest := int(math.Round(minutes - float64(hours)*60))
	if rest == 60 {
		hours++
		rest = 0
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// Totals суммирует расстояния и длительности сегментов
func (m *RouteMetrics) Totals(segments []domain.RouteSegment) (distanceKm, durationMin float64) {
	for _, s := range segments {
		d := m.DistanceKm(s.From.Coordinate, s.To.Coordinate)
		distanceKm += d
		durationMin += m.EstimateDurationMinutes(d, s.Mode)
	}
	return distanceKm, durationMin
}
