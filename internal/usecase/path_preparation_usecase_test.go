package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	apperrors "github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/usecase"
)

// straightPaths - путь из n равномерных точек по прямой
type straightPaths struct {
	n     int
	calls int
}

func (p *straightPaths) BuildPath(_ context.Context, from, to domain.Coordinate, _ domain.TransportMode) domain.Path {
	p.calls++
	path := make(domain.Path, p.n)
	for i := range path {
		t := float64(i) / float64(p.n-1)
		path[i] = domain.Coordinate{
			Lon: from.Lon + (to.Lon-from.Lon)*t,
			Lat: from.Lat + (to.Lat-from.Lat)*t,
		}
	}
	return path
}

func TestSimplifyPath(t *testing.T) {
	line := (&straightPaths{n: 50}).BuildPath(context.Background(),
		domain.Coordinate{Lon: 0, Lat: 0}, domain.Coordinate{Lon: 10, Lat: 10}, domain.ModeDrive)

	t.Run("collinear points collapse to endpoints", func(t *testing.T) {
		out := usecase.SimplifyPath(line, 0.001)
		require.Len(t, out, 2)
		assert.Equal(t, line[0], out[0])
		assert.Equal(t, line[len(line)-1], out[1])
	})

	t.Run("zero tolerance keeps everything and drops altitude", func(t *testing.T) {
		in := domain.Path{{Lon: 1, Lat: 2, Alt: 50}, {Lon: 3, Lat: 4, Alt: 50}, {Lon: 5, Lat: 7, Alt: 50}}
		out := usecase.SimplifyPath(in, 0)
		require.Len(t, out, 3)
		for _, c := range out {
			assert.Zero(t, c.Alt)
		}
		assert.Equal(t, 50.0, in[0].Alt)
	})

	t.Run("corner survives", func(t *testing.T) {
		in := domain.Path{{Lon: 0, Lat: 0}, {Lon: 5, Lat: 0.0001}, {Lon: 10, Lat: 0}, {Lon: 10, Lat: 10}}
		out := usecase.SimplifyPath(in, 0.01)
		assert.Equal(t, domain.Path{{Lon: 0, Lat: 0}, {Lon: 10, Lat: 0}, {Lon: 10, Lat: 10}}, out)
	})
}

func TestPolylineRoundTrip(t *testing.T) {
	in := domain.Path{{Lon: 2.17340, Lat: 41.38510}, {Lon: -3.70380, Lat: 40.41680}, {Lon: -9.13930, Lat: 38.72230}}
	encoded := usecase.EncodePolyline(in)
	assert.NotEmpty(t, encoded)

	out, err := usecase.DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i].Lon, out[i].Lon, 1e-5)
		assert.InDelta(t, in[i].Lat, out[i].Lat, 1e-5)
	}

	// Google reference example
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", usecase.EncodePolyline(domain.Path{
		{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}, {Lat: 43.252, Lon: -126.453},
	}))
}

func TestPathPreparationUseCase_Prepare(t *testing.T) {
	ctx := context.Background()
	route := sampleRoute()
	repo := new(MockRouteRepository)
	paths := &straightPaths{n: 20}
	uc := usecase.NewPathPreparationUseCase(repo, paths, usecase.NewRouteMetrics(nil), 0.0001, nil, zap.NewNop())

	var saved []domain.RoutePath
	repo.On("GetByID", ctx, route.ID).Return(route, nil)
	repo.On("SavePaths", ctx, route.ID, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]domain.RoutePath) }).
		Return(nil)

	n, err := uc.Prepare(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, paths.calls)

	require.Len(t, saved, 2)
	assert.Equal(t, 0, saved[0].SegmentIndex)
	assert.Equal(t, domain.ModeTrain, saved[0].Mode)
	assert.Equal(t, domain.ModeFlight, saved[1].Mode)
	assert.Equal(t, 2, saved[0].PointCount)
	assert.InDelta(t, 505, saved[0].DistanceKm, 5)
	assert.InDelta(t, saved[0].DistanceKm/120*60, saved[0].DurationMin, 1e-9)

	decoded, err := usecase.DecodePolyline(saved[1].Polyline)
	require.NoError(t, err)
	assert.InDelta(t, -9.1393, decoded[len(decoded)-1].Lon, 1e-5)
}

func TestPathPreparationUseCase_MissingRoute(t *testing.T) {
	ctx := context.Background()
	route := sampleRoute()
	repo := new(MockRouteRepository)
	uc := usecase.NewPathPreparationUseCase(repo, &straightPaths{n: 2}, usecase.NewRouteMetrics(nil), 0, nil, zap.NewNop())

	repo.On("GetByID", ctx, route.ID).Return(nil, apperrors.ErrRouteNotFound)

	_, err := uc.Prepare(ctx, route.ID)
	assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)
	repo.AssertNotCalled(t, "SavePaths", mock.Anything, mock.Anything, mock.Anything)
}
