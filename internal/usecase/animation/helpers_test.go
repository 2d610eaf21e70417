package animation

import (
	"context"
	"sync"
	"time"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/utils"
)

// linePath - тестовый построитель: n равномерных точек между концами
type linePath struct {
	mu    sync.Mutex
	n     int
	calls int
}

func (l *linePath) BuildPath(_ context.Context, from, to domain.Coordinate, _ domain.TransportMode) domain.Path {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()

	if from.Equal(to) {
		return domain.Path{from}
	}
	path := make(domain.Path, l.n)
	for i := 0; i < l.n; i++ {
		t := float64(i) / float64(l.n-1)
		path[i] = domain.Coordinate{
			Lon: utils.Lerp(from.Lon, to.Lon, t),
			Lat: utils.Lerp(from.Lat, to.Lat, t),
		}
	}
	return path
}

type fixedSpeed struct{}

func (fixedSpeed) EstimateDurationMinutes(distanceKm float64, mode domain.TransportMode) float64 {
	speeds := map[domain.TransportMode]float64{
		domain.ModeFlight: 800,
		domain.ModeDrive:  80,
		domain.ModeTrain:  120,
		domain.ModeWalk:   5,
	}
	return distanceKm / speeds[mode] * 60
}

func testOptions() Options {
	return Options{
		FlightRevealDuration: 800 * time.Millisecond,
		GroundRevealDuration: 500 * time.Millisecond,
		SettleDelay:          100 * time.Millisecond,
		ArrivalDelay:         50 * time.Millisecond,
		CameraDuration:       60 * time.Millisecond,
		MaxFrameDelta:        100 * time.Millisecond,
		Padding:              40,
		FollowCamera:         true,
		FollowThresholdKm:    5,
	}
}

func loc(id, name string, lon, lat float64) domain.Location {
	return domain.Location{ID: id, Name: name, Coordinate: domain.Coordinate{Lon: lon, Lat: lat}}
}

var (
	barcelona = loc("bcn", "Barcelona", 2.1734, 41.3851)
	paris     = loc("par", "Paris", 2.3522, 48.8566)
	lyon      = loc("lys", "Lyon", 4.8357, 45.7640)
	geneva    = loc("gva", "Geneva", 6.1432, 46.2044)
)
