package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/pkg/utils"
)

// maxControlLat - широта контрольной точки дуги не уходит за полюс
const maxControlLat = 89.0

// PathBuilder строит геометрию сегмента.
// Перелёты синтезируются локально, наземные режимы берутся из Directions API с откатом на прямую.
type PathBuilder struct {
	directions repository.DirectionsRepository
	cacheRepo  repository.CacheRepository
	cfg        config.AnimationConfig
	cacheTTL   time.Duration
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// NewPathBuilder - создание нового PathBuilder; cacheRepo может быть nil
func NewPathBuilder(
	directions repository.DirectionsRepository,
	cacheRepo repository.CacheRepository,
	cfg config.AnimationConfig,
	cacheTTL time.Duration,
	m *metrics.Collector,
	logger *zap.Logger,
) *PathBuilder {
	return &PathBuilder{
		directions: directions,
		cacheRepo:  cacheRepo,
		cfg:        cfg,
		cacheTTL:   cacheTTL,
		metrics:    m,
		logger:     logger,
	}
}

// BuildPath возвращает путь сегмента минимум из двух точек. Ошибок не возвращает.
func (b *PathBuilder) BuildPath(ctx context.Context, from, to domain.Coordinate, mode domain.TransportMode) domain.Path {
	if mode == domain.ModeFlight {
		return b.FlightArc(from, to)
	}
	return b.groundPath(ctx, from, to, mode)
}

// FlightArc - квадратичная кривая Безье с контрольной точкой севернее середины
// и синтетической высотой alt(t) = maxAlt * 4t(1-t)
func (b *PathBuilder) FlightArc(from, to domain.Coordinate) domain.Path {
	steps := b.cfg.FlightSteps
	if steps <= 0 {
		steps = 150
	}

	planar := utils.PlanarDistance(from.Lat, from.Lon, to.Lat, to.Lon)
	curvature := math.Min(planar*b.cfg.CurvatureFactor, b.cfg.CurvatureCap)
	control := domain.Coordinate{
		Lon: (from.Lon + to.Lon) / 2,
		Lat: math.Min((from.Lat+to.Lat)/2+curvature, maxControlLat),
	}
	maxAlt := math.Min(planar*b.cfg.AltitudePerDegree, b.cfg.MaxAltitude)

	path := make(domain.Path, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		path[i] = domain.Coordinate{
			Lon: u*u*from.Lon + 2*u*t*control.Lon + t*t*to.Lon,
			Lat: u*u*from.Lat + 2*u*t*control.Lat + t*t*to.Lat,
			Alt: maxAlt * 4 * t * u,
		}
	}
	// концы совпадают с входными точками без погрешности
	path[0] = from
	path[steps] = to
	return path
}

func (b *PathBuilder) groundPath(ctx context.Context, from, to domain.Coordinate, mode domain.TransportMode) domain.Path {
	fallback := domain.Path{from, to}

	profile := mode.RoutingProfile()
	if profile == "" {
		b.logger.Warn("No routing profile for mode, using straight path", zap.String("mode", string(mode)))
		b.metrics.PathFallback(string(mode))
		return fallback
	}

	coords, err := b.lookup(ctx, profile, from, to)
	if err != nil {
		b.logger.Warn("Directions lookup failed, using straight path",
			zap.String("mode", string(mode)),
			zap.Error(err))
		b.metrics.PathFallback(string(mode))
		return fallback
	}
	if len(coords) < 2 {
		b.logger.Warn("Directions returned too few points, using straight path",
			zap.String("mode", string(mode)),
			zap.Int("points", len(coords)))
		b.metrics.PathFallback(string(mode))
		return fallback
	}

	offset := 0.0
	if mode == domain.ModeDrive || mode == domain.ModeTrain {
		offset = b.cfg.GroundAltitude
	}

	path := make(domain.Path, len(coords))
	for i, c := range coords {
		path[i] = domain.Coordinate{Lon: c.Lon, Lat: c.Lat, Alt: c.Alt + offset}
	}
	return path
}

// lookup - Directions API с кешем в Redis; ошибки кеша только логируются
func (b *PathBuilder) lookup(ctx context.Context, profile string, from, to domain.Coordinate) ([]domain.Coordinate, error) {
	key := directionsCacheKey(profile, from, to)

	if b.cacheRepo != nil {
		cached, err := b.cacheRepo.Get(ctx, key)
		if err != nil {
			b.logger.Debug("Directions cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			var coords []domain.Coordinate
			if err := json.Unmarshal(cached, &coords); err == nil && len(coords) >= 2 {
				b.metrics.DirectionsResult("cache_hit")
				return coords, nil
			}
		}
	}

	coords, err := b.directions.GetDirections(ctx, profile, from, to)
	if err != nil {
		return nil, err
	}

	if b.cacheRepo != nil && len(coords) >= 2 {
		if data, err := json.Marshal(coords); err == nil {
			if err := b.cacheRepo.Set(ctx, key, data, b.cacheTTL); err != nil {
				b.logger.Debug("Directions cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return coords, nil
}

// directionsCacheKey округляет координаты до 5 знаков (~1 м)
func directionsCacheKey(profile string, from, to domain.Coordinate) string {
	return fmt.Sprintf("directions:%s:%.5f,%.5f;%.5f,%.5f", profile, from.Lon, from.Lat, to.Lon, to.Lat)
}
