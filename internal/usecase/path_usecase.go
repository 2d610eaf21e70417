package usecase

import (
	"context"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/usecase/animation"
	"github.com/route-planner/internal/usecase/dto"
)

// PathUseCase - предпросмотр пути одного сегмента
type PathUseCase struct {
	paths   animation.PathResolver
	metrics *RouteMetrics
}

func NewPathUseCase(paths animation.PathResolver, routeMetrics *RouteMetrics) *PathUseCase {
	return &PathUseCase{paths: paths, metrics: routeMetrics}
}

// Preview строит путь и оценки сегмента
func (uc *PathUseCase) Preview(ctx context.Context, req dto.PathPreviewRequest) (*dto.PathPreviewResponse, error) {
	mode, ok := domain.ParseTransportMode(req.Mode)
	if !ok {
		return nil, errors.ErrInvalidTransportMode
	}

	from := domain.Coordinate{Lon: req.From.Lng, Lat: req.From.Lat}
	to := domain.Coordinate{Lon: req.To.Lng, Lat: req.To.Lat}

	path := uc.paths.BuildPath(ctx, from, to, mode)
	distance := uc.metrics.DistanceKm(from, to)
	duration := uc.metrics.EstimateDurationMinutes(distance, mode)

	return &dto.PathPreviewResponse{
		Mode:        mode,
		Points:      len(path),
		DistanceKm:  distance,
		DurationMin: duration,
		Duration:    FormatDuration(duration),
		Geometry: animation.LineCollection(path, map[string]any{
			"mode": string(mode),
		}),
	}, nil
}
