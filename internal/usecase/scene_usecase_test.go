package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/usecase/dto"
)

func TestSceneUseCase_Snapshot(t *testing.T) {
	ctx := context.Background()
	route := sampleRoute()
	cfg := config.DefaultAnimation()
	defaults := usecase.SceneOptionsFromConfig(config.MapConfig{Style: "streets", Fog: true})

	t.Run("builds paths when nothing is stored", func(t *testing.T) {
		repo := new(MockRouteRepository)
		paths := &straightPaths{n: 10}
		uc := usecase.NewSceneUseCase(repo, paths, usecase.NewRouteMetrics(nil), cfg, defaults, zap.NewNop())

		repo.On("GetByID", ctx, route.ID).Return(route, nil)
		repo.On("GetPaths", ctx, route.ID).Return([]domain.RoutePath{}, nil)

		dark := "dark"
		resp, err := uc.Snapshot(ctx, route.ID, dto.SceneOptionsInput{Style: dark})
		require.NoError(t, err)
		assert.Equal(t, 2, paths.calls)

		snap := resp.Scene
		assert.Equal(t, domain.StyleDark, snap.Style)
		assert.Contains(t, snap.Sources, "route-segment-0")
		assert.Contains(t, snap.Sources, "route-segment-1")
		require.Len(t, snap.Markers, 3)
		assert.Equal(t, "start", snap.Markers[0].Kind)
		assert.Equal(t, "end", snap.Markers[2].Kind)

		// камера охватывает весь маршрут: центр между Лиссабоном и Барселоной
		assert.Greater(t, snap.Camera.Center.Lon, -9.2)
		assert.Less(t, snap.Camera.Center.Lon, 2.2)
		assert.Greater(t, snap.Camera.Zoom, 0.0)
		assert.Zero(t, snap.Camera.Bearing)
		assert.InDelta(t, 1008, resp.TotalDistanceKm, 10)
	})

	t.Run("uses stored simplified geometry", func(t *testing.T) {
		repo := new(MockRouteRepository)
		paths := &straightPaths{n: 10}
		uc := usecase.NewSceneUseCase(repo, paths, usecase.NewRouteMetrics(nil), cfg, defaults, zap.NewNop())

		segs := route.Segments()
		stored := make([]domain.RoutePath, len(segs))
		for i, s := range segs {
			stored[i] = domain.RoutePath{
				RouteID:      route.ID,
				SegmentIndex: i,
				Mode:         s.Mode,
				Polyline:     usecase.EncodePolyline(domain.Path{s.From.Coordinate, s.To.Coordinate}),
				PointCount:   2,
			}
		}
		repo.On("GetByID", ctx, route.ID).Return(route, nil)
		repo.On("GetPaths", ctx, route.ID).Return(stored, nil)

		resp, err := uc.Snapshot(ctx, route.ID, dto.SceneOptionsInput{})
		require.NoError(t, err)
		assert.Zero(t, paths.calls)
		assert.Len(t, resp.Scene.Layers, 3) // sky + 2 segments
	})

	t.Run("route lookup error propagates", func(t *testing.T) {
		repo := new(MockRouteRepository)
		uc := usecase.NewSceneUseCase(repo, &straightPaths{n: 2}, usecase.NewRouteMetrics(nil), cfg, defaults, zap.NewNop())
		repo.On("GetByID", ctx, route.ID).Return(nil, errors.New("db down"))

		_, err := uc.Snapshot(ctx, route.ID, dto.SceneOptionsInput{})
		assert.Error(t, err)
	})
}
