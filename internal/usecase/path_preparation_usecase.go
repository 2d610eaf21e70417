package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/usecase/animation"
)

// PathPreparationUseCase строит, упрощает и сохраняет геометрию сегментов маршрута
type PathPreparationUseCase struct {
	routeRepo repository.RouteRepository
	paths     animation.PathResolver
	metrics   *RouteMetrics
	tolerance float64
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewPathPreparationUseCase - tolerance задаётся в градусах; 0 отключает упрощение
func NewPathPreparationUseCase(
	routeRepo repository.RouteRepository,
	paths animation.PathResolver,
	routeMetrics *RouteMetrics,
	tolerance float64,
	collector *metrics.Collector,
	logger *zap.Logger,
) *PathPreparationUseCase {
	return &PathPreparationUseCase{
		routeRepo: routeRepo,
		paths:     paths,
		metrics:   routeMetrics,
		tolerance: tolerance,
		collector: collector,
		logger:    logger,
	}
}

// Prepare пересчитывает геометрию всех сегментов маршрута и возвращает их число
func (uc *PathPreparationUseCase) Prepare(ctx context.Context, routeID uuid.UUID) (int, error) {
	route, err := uc.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return 0, err
	}

	segments := route.Segments()
	prepared := make([]domain.RoutePath, 0, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		path := uc.paths.BuildPath(ctx, seg.From.Coordinate, seg.To.Coordinate, seg.Mode)
		simplified := SimplifyPath(path, uc.tolerance)
		distance := uc.metrics.DistanceKm(seg.From.Coordinate, seg.To.Coordinate)

		prepared = append(prepared, domain.RoutePath{
			RouteID:      routeID,
			SegmentIndex: i,
			Mode:         seg.Mode,
			Polyline:     EncodePolyline(simplified),
			PointCount:   len(simplified),
			DistanceKm:   distance,
			DurationMin:  uc.metrics.EstimateDurationMinutes(distance, seg.Mode),
		})

		uc.logger.Debug("Segment path prepared",
			zap.String("route_id", routeID.String()),
			zap.Int("segment", i),
			zap.Int("points", len(path)),
			zap.Int("simplified", len(simplified)),
		)
	}

	if err := uc.routeRepo.SavePaths(ctx, routeID, prepared); err != nil {
		return 0, fmt.Errorf("save paths of route %s: %w", routeID, err)
	}

	for range prepared {
		uc.collector.PathPrepared()
	}
	return len(prepared), nil
}

// SimplifyPath упрощает путь Douglas-Peucker'ом в плановых координатах.
// Концы сохраняются, результат не короче двух точек. Высота отбрасывается.
func SimplifyPath(path domain.Path, tolerance float64) domain.Path {
	if len(path) <= 2 || tolerance <= 0 {
		out := make(domain.Path, len(path))
		for i, c := range path {
			out[i] = domain.Coordinate{Lon: c.Lon, Lat: c.Lat}
		}
		return out
	}

	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = orb.Point{c.Lon, c.Lat}
	}
	ls = simplify.DouglasPeucker(tolerance).LineString(ls)

	if len(ls) < 2 {
		first, last := path[0], path[len(path)-1]
		return domain.Path{{Lon: first.Lon, Lat: first.Lat}, {Lon: last.Lon, Lat: last.Lat}}
	}

	out := make(domain.Path, len(ls))
	for i, p := range ls {
		out[i] = domain.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
	}
	return out
}

// EncodePolyline кодирует путь в encoded polyline (точность 1e-5, порядок lat,lng)
func EncodePolyline(path domain.Path) string {
	coords := make([][]float64, len(path))
	for i, c := range path {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline - обратное к EncodePolyline
func DecodePolyline(s string) (domain.Path, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	path := make(domain.Path, len(coords))
	for i, c := range coords {
		path[i] = domain.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return path, nil
}
