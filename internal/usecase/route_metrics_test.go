package usecase_test

import (
	"testing"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/usecase"
	"github.com/stretchr/testify/assert"
)

func TestHaversineDistanceKm(t *testing.T) {
	points := []domain.Coordinate{
		{Lon: 2.1734, Lat: 41.3851},
		{Lon: 2.3522, Lat: 48.8566},
		{Lon: -74.006, Lat: 40.7128},
		{Lon: 139.6917, Lat: 35.6895},
		{Lon: 0, Lat: 0},
	}

	t.Run("symmetric", func(t *testing.T) {
		for _, a := range points {
			for _, b := range points {
				assert.InDelta(t, usecase.HaversineDistanceKm(a, b), usecase.HaversineDistanceKm(b, a), 1e-9)
			}
		}
	})

	t.Run("zero only for equal points", func(t *testing.T) {
		for i, a := range points {
			for j, b := range points {
				d := usecase.HaversineDistanceKm(a, b)
				if i == j {
					assert.Equal(t, 0.0, d)
				} else {
					assert.Greater(t, d, 0.0)
				}
			}
		}
	})
}

func TestRouteMetrics_EstimateDurationMinutes(t *testing.T) {
	m := usecase.NewRouteMetrics(nil)

	tests := []struct {
		mode     domain.TransportMode
		distance float64
		want     float64
	}{
		{domain.ModeFlight, 800, 60},
		{domain.ModeDrive, 80, 60},
		{domain.ModeTrain, 60, 30},
		{domain.ModeWalk, 10, 120},
		{domain.ModeDrive, 0, 0},
		{domain.ModeDrive, -5, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.InDelta(t, tt.want, m.EstimateDurationMinutes(tt.distance, tt.mode), 1e-9)
		})
	}

	t.Run("formula holds for every mode", func(t *testing.T) {
		for _, mode := range domain.ValidTransportModes() {
			d := 123.4
			assert.InDelta(t, d/usecase.DefaultSpeeds[mode]*60, m.EstimateDurationMinutes(d, mode), 1e-9)
		}
	})
}

func TestSpeedsFromConfig(t *testing.T) {
	cfg := config.DefaultAnimation()
	cfg.SpeedWalk = 4
	cfg.SpeedTrain = 0

	s := usecase.SpeedsFromConfig(cfg)
	assert.Equal(t, 4.0, s[domain.ModeWalk])
	assert.Equal(t, 120.0, s[domain.ModeTrain])
	assert.Equal(t, 800.0, s[domain.ModeFlight])
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		135:   "2h 15m",
		59:    "0h 59m",
		60:    "1h 0m",
		0:     "0h 0m",
		119.6: "2h 0m",
		90.4:  "1h 30m",
		-3:    "0h 0m",
	}
	for in, want := range cases {
		assert.Equal(t, want, usecase.FormatDuration(in), "minutes=%v", in)
	}
}
