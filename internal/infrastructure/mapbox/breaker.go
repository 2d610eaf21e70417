package mapbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProtectedClient - клиент Mapbox с ограничением частоты и circuit breaker.
// Реализует DirectionsRepository и GeocodingRepository.
type ProtectedClient struct {
	client     Client
	limiter    *rate.Limiter
	directions *gobreaker.CircuitBreaker[[]domain.Coordinate]
	geocoding  *gobreaker.CircuitBreaker[[]domain.Place]
	metrics    *metrics.Collector
	logger     *zap.Logger
}

var (
	_ repository.DirectionsRepository = (*ProtectedClient)(nil)
	_ repository.GeocodingRepository  = (*ProtectedClient)(nil)
)

// NewProtectedClient оборачивает клиент лимитером и двумя breaker'ами (directions, geocoding)
func NewProtectedClient(c Client, cfg *config.MapboxConfig, m *metrics.Collector, logger *zap.Logger) *ProtectedClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	pc := &ProtectedClient{
		client:  c,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		logger:  logger,
	}
	pc.directions = newBreaker[[]domain.Coordinate]("mapbox-directions", cfg, pc.onStateChange)
	pc.geocoding = newBreaker[[]domain.Place]("mapbox-geocoding", cfg, pc.onStateChange)

	m.BreakerSet(0)
	return pc
}

func newBreaker[T any](name string, cfg *config.MapboxConfig, onChange func(string, gobreaker.State, gobreaker.State)) *gobreaker.CircuitBreaker[T] {
	trips := cfg.BreakerTrips
	if trips == 0 {
		trips = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		OnStateChange: onChange,
	})
}

func (p *ProtectedClient) onStateChange(name string, from, to gobreaker.State) {
	p.logger.Warn("Circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))

	if name == "mapbox-directions" {
		p.metrics.BreakerSet(stateToFloat(to))
	}
}

// GetDirections - защищённый вызов Directions API
func (p *ProtectedClient) GetDirections(ctx context.Context, profile string, from, to domain.Coordinate) ([]domain.Coordinate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	path, err := p.directions.Execute(func() ([]domain.Coordinate, error) {
		return p.client.GetDirections(ctx, profile, from, to)
	})
	p.metrics.DirectionsObserve(time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.Warn("Directions request rejected by circuit breaker", zap.Error(err))
		}
		p.metrics.DirectionsResult("error")
		return nil, err
	}

	p.metrics.DirectionsResult("ok")
	return path, nil
}

// SearchPlaces - защищённый вызов Geocoding API
func (p *ProtectedClient) SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return p.geocoding.Execute(func() ([]domain.Place, error) {
		return p.client.SearchPlaces(ctx, query, limit)
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
