package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/usecase"
)

var (
	bcn = domain.Coordinate{Lon: 2.1734, Lat: 41.3851}
	par = domain.Coordinate{Lon: 2.3522, Lat: 48.8566}
)

func TestPathBuilder_FlightArc(t *testing.T) {
	cfg := config.DefaultAnimation()
	b := usecase.NewPathBuilder(nil, nil, cfg, time.Hour, nil, zap.NewNop())

	pairs := [][2]domain.Coordinate{
		{bcn, par},
		{par, bcn},
		{{Lon: -74.006, Lat: 40.7128}, {Lon: 139.6917, Lat: 35.6895}},
		{{Lon: 10, Lat: 85}, {Lon: 20, Lat: 86}},
	}

	for _, p := range pairs {
		path := b.BuildPath(context.Background(), p[0], p[1], domain.ModeFlight)

		require.Len(t, path, cfg.FlightSteps+1)
		assert.Equal(t, p[0], path[0])
		assert.Equal(t, p[1], path[len(path)-1])

		for _, c := range path {
			assert.LessOrEqual(t, c.Lat, 90.0)
			assert.GreaterOrEqual(t, c.Alt, 0.0)
			assert.LessOrEqual(t, c.Alt, cfg.MaxAltitude)
		}
	}

	t.Run("arc bends north and peaks mid-way", func(t *testing.T) {
		from := domain.Coordinate{Lon: 0, Lat: 0}
		to := domain.Coordinate{Lon: 20, Lat: 0}
		path := b.FlightArc(from, to)
		mid := path[len(path)/2]

		assert.Greater(t, mid.Lat, 0.0)
		assert.InDelta(t, 10.0, mid.Lon, 1e-9)
		for i := 1; i <= len(path)/2; i++ {
			assert.GreaterOrEqual(t, path[i].Alt, path[i-1].Alt)
		}
		// кривизна = min(20 * 0.18, 18) = 3.6, вершина Безье - половина смещения
		assert.InDelta(t, 1.8, mid.Lat, 1e-9)
		assert.InDelta(t, 400000.0, mid.Alt, 1e-6)
	})

	t.Run("monotonic parameter", func(t *testing.T) {
		from := domain.Coordinate{Lon: 0, Lat: 0}
		to := domain.Coordinate{Lon: 30, Lat: 10}
		path := b.FlightArc(from, to)
		for i := 1; i < len(path); i++ {
			assert.Greater(t, path[i].Lon, path[i-1].Lon)
		}
	})
}

func TestPathBuilder_GroundPath(t *testing.T) {
	cfg := config.DefaultAnimation()
	logger := zap.NewNop()
	ctx := context.Background()

	route := []domain.Coordinate{bcn, {Lon: 2.2, Lat: 42.0}, par}

	t.Run("directions success with altitude offset", func(t *testing.T) {
		dirs := &MockDirectionsRepository{}
		dirs.On("GetDirections", mock.Anything, domain.ProfileDriving, bcn, par).Return(route, nil).Once()

		b := usecase.NewPathBuilder(dirs, nil, cfg, time.Hour, nil, logger)
		path := b.BuildPath(ctx, bcn, par, domain.ModeTrain)

		require.Len(t, path, 3)
		assert.Equal(t, 2.2, path[1].Lon)
		assert.Equal(t, cfg.GroundAltitude, path[1].Alt)
		dirs.AssertExpectations(t)
	})

	t.Run("walk uses walking profile without offset", func(t *testing.T) {
		dirs := &MockDirectionsRepository{}
		dirs.On("GetDirections", mock.Anything, domain.ProfileWalking, bcn, par).Return(route, nil).Once()

		b := usecase.NewPathBuilder(dirs, nil, cfg, time.Hour, nil, logger)
		path := b.BuildPath(ctx, bcn, par, domain.ModeWalk)

		require.Len(t, path, 3)
		assert.Equal(t, 0.0, path[1].Alt)
		dirs.AssertExpectations(t)
	})

	fallbacks := map[string][]interface{}{
		"network error": {nil, errors.New("connection refused")},
		"empty routes":  {[]domain.Coordinate{}, nil},
		"single point":  {[]domain.Coordinate{bcn}, nil},
	}
	for name, ret := range fallbacks {
		t.Run("fallback on "+name, func(t *testing.T) {
			dirs := &MockDirectionsRepository{}
			dirs.On("GetDirections", mock.Anything, domain.ProfileDriving, bcn, par).Return(ret...).Once()

			b := usecase.NewPathBuilder(dirs, nil, cfg, time.Hour, nil, logger)
			path := b.BuildPath(ctx, bcn, par, domain.ModeDrive)

			assert.Equal(t, domain.Path{bcn, par}, path)
		})
	}

	t.Run("cache hit skips directions", func(t *testing.T) {
		dirs := &MockDirectionsRepository{}
		cache := &MockCacheRepository{}
		data, _ := json.Marshal(route)
		cache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(data, nil).Once()

		b := usecase.NewPathBuilder(dirs, cache, cfg, time.Hour, nil, logger)
		path := b.BuildPath(ctx, bcn, par, domain.ModeWalk)

		require.Len(t, path, 3)
		dirs.AssertNotCalled(t, "GetDirections", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("cache miss stores result", func(t *testing.T) {
		dirs := &MockDirectionsRepository{}
		cache := &MockCacheRepository{}
		cache.On("Get", mock.Anything, "directions:driving:2.17340,41.38510;2.35220,48.85660").Return(nil, nil).Once()
		cache.On("Set", mock.Anything, "directions:driving:2.17340,41.38510;2.35220,48.85660", mock.Anything, time.Hour).Return(nil).Once()
		dirs.On("GetDirections", mock.Anything, domain.ProfileDriving, bcn, par).Return(route, nil).Once()

		b := usecase.NewPathBuilder(dirs, cache, cfg, time.Hour, nil, logger)
		path := b.BuildPath(ctx, bcn, par, domain.ModeDrive)

		assert.Len(t, path, 3)
		cache.AssertExpectations(t)
		dirs.AssertExpectations(t)
	})

	t.Run("cache errors are ignored", func(t *testing.T) {
		dirs := &MockDirectionsRepository{}
		cache := &MockCacheRepository{}
		cache.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
		dirs.On("GetDirections", mock.Anything, domain.ProfileDriving, bcn, par).Return(route, nil).Once()

		b := usecase.NewPathBuilder(dirs, cache, cfg, time.Hour, nil, logger)
		assert.Len(t, b.BuildPath(ctx, bcn, par, domain.ModeDrive), 3)
	})
}
