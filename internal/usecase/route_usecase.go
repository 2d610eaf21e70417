package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/usecase/dto"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RouteUseCase - CRUD сохранённых маршрутов
type RouteUseCase struct {
	routeRepo  repository.RouteRepository
	streamRepo repository.StreamRepository
	metrics    *RouteMetrics
	logger     *zap.Logger
}

// NewRouteUseCase - создание нового RouteUseCase; streamRepo может быть nil (без подготовки геометрии)
func NewRouteUseCase(
	routeRepo repository.RouteRepository,
	streamRepo repository.StreamRepository,
	routeMetrics *RouteMetrics,
	logger *zap.Logger,
) *RouteUseCase {
	return &RouteUseCase{
		routeRepo:  routeRepo,
		streamRepo: streamRepo,
		metrics:    routeMetrics,
		logger:     logger,
	}
}

// Create сохраняет маршрут и ставит подготовку геометрии в очередь
func (uc *RouteUseCase) Create(ctx context.Context, req dto.CreateRouteRequest) (*dto.CreatedResponse, error) {
	waypoints, err := toWaypoints(req.Waypoints)
	if err != nil {
		return nil, err
	}

	route := &domain.Route{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Waypoints:   waypoints,
	}
	if err := uc.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	uc.logger.Info("Route created",
		zap.String("route_id", route.ID.String()),
		zap.Int("waypoints", len(route.Waypoints)),
	)
	uc.requestPaths(ctx, route.ID)

	return &dto.CreatedResponse{ID: route.ID.String()}, nil
}

// Get возвращает маршрут по идентификатору
func (uc *RouteUseCase) Get(ctx context.Context, id uuid.UUID) (*dto.RouteResponse, error) {
	route, err := uc.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := uc.toResponse(route)
	return &resp, nil
}

// List возвращает страницу маршрутов, новые первыми
func (uc *RouteUseCase) List(ctx context.Context, limit, offset int) (*dto.RouteListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	routes, total, err := uc.routeRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	resp := &dto.RouteListResponse{
		Routes: make([]dto.RouteResponse, 0, len(routes)),
		Total:  total,
	}
	for _, r := range routes {
		resp.Routes = append(resp.Routes, uc.toResponse(r))
	}
	return resp, nil
}

// Update перезаписывает маршрут; сохранённая геометрия пересчитывается воркером
func (uc *RouteUseCase) Update(ctx context.Context, id uuid.UUID, req dto.UpdateRouteRequest) (*dto.RouteResponse, error) {
	waypoints, err := toWaypoints(req.Waypoints)
	if err != nil {
		return nil, err
	}

	route, err := uc.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	route.Name = req.Name
	route.Description = req.Description
	route.Waypoints = waypoints

	if err := uc.routeRepo.Update(ctx, route); err != nil {
		return nil, err
	}

	uc.logger.Info("Route updated", zap.String("route_id", id.String()))
	uc.requestPaths(ctx, id)

	resp := uc.toResponse(route)
	return &resp, nil
}

// Delete удаляет маршрут
func (uc *RouteUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.routeRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("Route deleted", zap.String("route_id", id.String()))
	return nil
}

// Segments возвращает сегменты сохранённого маршрута
func (uc *RouteUseCase) Segments(ctx context.Context, id uuid.UUID) ([]domain.RouteSegment, error) {
	route, err := uc.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	segments := route.Segments()
	if len(segments) == 0 {
		return nil, errors.ErrInvalidRoute
	}
	return segments, nil
}

// Paths возвращает подготовленную воркером геометрию сегментов
func (uc *RouteUseCase) Paths(ctx context.Context, id uuid.UUID) (*dto.RoutePathsResponse, error) {
	route, err := uc.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	paths, err := uc.routeRepo.GetPaths(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.RoutePathsResponse{
		RouteID:  id.String(),
		Ready:    len(paths) > 0 && len(paths) == len(route.Segments()),
		Segments: make([]dto.RoutePathResponse, 0, len(paths)),
	}
	for _, p := range paths {
		resp.Segments = append(resp.Segments, dto.RoutePathResponse{
			SegmentIndex: p.SegmentIndex,
			Mode:         p.Mode,
			Polyline:     p.Polyline,
			PointCount:   p.PointCount,
			DistanceKm:   p.DistanceKm,
			DurationMin:  p.DurationMin,
			Duration:     FormatDuration(p.DurationMin),
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return resp, nil
}

// requestPaths публикует событие подготовки геометрии; ошибка очереди не ломает запрос
func (uc *RouteUseCase) requestPaths(ctx context.Context, id uuid.UUID) {
	if uc.streamRepo == nil {
		return
	}
	event := domain.RoutePathsEvent{RouteID: id}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamRoutePaths, event); err != nil {
		uc.logger.Warn("Failed to enqueue path preparation",
			zap.String("route_id", id.String()),
			zap.Error(err),
		)
	}
}

func (uc *RouteUseCase) toResponse(route *domain.Route) dto.RouteResponse {
	segments := route.Segments()
	distance, duration := uc.metrics.Totals(segments)
	return dto.RouteResponse{
		ID:               route.ID.String(),
		Name:             route.Name,
		Description:      route.Description,
		Waypoints:        route.Waypoints,
		Segments:         len(segments),
		TotalDistanceKm:  distance,
		TotalDurationMin: duration,
		TotalDuration:    FormatDuration(duration),
		CreatedAt:        route.CreatedAt,
		UpdatedAt:        route.UpdatedAt,
	}
}

func toWaypoints(in []dto.WaypointInput) ([]domain.Waypoint, error) {
	if len(in) < 2 {
		return nil, errors.ErrInvalidRoute
	}
	out := make([]domain.Waypoint, len(in))
	for i, wp := range in {
		if wp.Lat < -90 || wp.Lat > 90 || wp.Lng < -180 || wp.Lng > 180 {
			return nil, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{
				"waypoint_index": i,
			})
		}
		var mode domain.TransportMode
		if wp.Mode != "" {
			m, ok := domain.ParseTransportMode(wp.Mode)
			if !ok {
				return nil, errors.ErrInvalidTransportMode.WithDetails(map[string]interface{}{
					"waypoint_index": i,
					"mode":           wp.Mode,
				})
			}
			mode = m
		}
		out[i] = domain.Waypoint{Lat: wp.Lat, Lng: wp.Lng, Name: wp.Name, Mode: mode}
	}
	return out, nil
}
