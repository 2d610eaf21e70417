package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/scene"
	"github.com/route-planner/internal/usecase/animation"
	"github.com/route-planner/internal/usecase/dto"
)

// SceneUseCase собирает статичную сцену маршрута: линии сегментов, маркеры точек и камеру на весь маршрут
type SceneUseCase struct {
	routeRepo repository.RouteRepository
	paths     animation.PathResolver
	metrics   *RouteMetrics
	animCfg   config.AnimationConfig
	defaults  domain.SceneOptions
	logger    *zap.Logger
}

func NewSceneUseCase(
	routeRepo repository.RouteRepository,
	paths animation.PathResolver,
	routeMetrics *RouteMetrics,
	animCfg config.AnimationConfig,
	defaults domain.SceneOptions,
	logger *zap.Logger,
) *SceneUseCase {
	return &SceneUseCase{
		routeRepo: routeRepo,
		paths:     paths,
		metrics:   routeMetrics,
		animCfg:   animCfg,
		defaults:  defaults,
		logger:    logger,
	}
}

// SceneOptionsFromConfig - настройки сцены по умолчанию
func SceneOptionsFromConfig(cfg config.MapConfig) domain.SceneOptions {
	return domain.SceneOptions{
		Style:     domain.MapStyle(cfg.Style),
		Terrain:   cfg.Terrain,
		Fog:       cfg.Fog,
		Globe:     cfg.Globe,
		Buildings: cfg.Buildings,
	}
}

// ApplySceneOverrides накладывает переопределения запроса на настройки по умолчанию
func ApplySceneOverrides(base domain.SceneOptions, in dto.SceneOptionsInput) domain.SceneOptions {
	if in.Style != "" {
		base.Style = domain.MapStyle(in.Style)
	}
	if in.Terrain != nil {
		base.Terrain = *in.Terrain
	}
	if in.Fog != nil {
		base.Fog = *in.Fog
	}
	if in.Globe != nil {
		base.Globe = *in.Globe
	}
	if in.Buildings != nil {
		base.Buildings = *in.Buildings
	}
	return base
}

// Snapshot рендерит маршрут в документ сцены и возвращает его снимок
func (uc *SceneUseCase) Snapshot(ctx context.Context, routeID uuid.UUID, overrides dto.SceneOptionsInput) (*dto.SceneResponse, error) {
	route, err := uc.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	segments := route.Segments()

	doc := scene.NewDocument(true)
	manager := animation.NewSceneManager(doc, uc.paths, ApplySceneOverrides(uc.defaults, overrides), uc.logger)
	manager.Init()

	paths := uc.storedPaths(ctx, routeID, len(segments))
	if paths == nil {
		paths = manager.BuildStatic(ctx, segments)
	}
	manager.DrawStatic(segments, paths)
	manager.RenderWaypoints(segments)

	var all []domain.Coordinate
	for _, p := range paths {
		all = append(all, p...)
	}
	camera := animation.NewCameraController(doc, nil, animation.Viewport{
		Width:  uc.animCfg.ViewportWidth,
		Height: uc.animCfg.ViewportHeight,
	}, uc.logger)
	camera.FitToBounds(all, animation.FitOptions{
		Padding: uc.animCfg.Padding,
		MaxZoom: 15,
	})

	distance, duration := uc.metrics.Totals(segments)
	return &dto.SceneResponse{
		RouteID:          routeID.String(),
		TotalDistanceKm:  distance,
		TotalDurationMin: duration,
		TotalDuration:    FormatDuration(duration),
		Scene:            doc.Snapshot(),
	}, nil
}

// storedPaths возвращает подготовленную воркером геометрию, если она есть для всех сегментов
func (uc *SceneUseCase) storedPaths(ctx context.Context, routeID uuid.UUID, segments int) []domain.Path {
	if segments == 0 {
		return nil
	}
	stored, err := uc.routeRepo.GetPaths(ctx, routeID)
	if err != nil || len(stored) != segments {
		return nil
	}

	paths := make([]domain.Path, segments)
	for _, p := range stored {
		if p.SegmentIndex < 0 || p.SegmentIndex >= segments {
			return nil
		}
		decoded, err := DecodePolyline(p.Polyline)
		if err != nil || len(decoded) < 2 {
			uc.logger.Debug("Stored path unusable, rebuilding",
				zap.String("route_id", routeID.String()),
				zap.Int("segment", p.SegmentIndex),
			)
			return nil
		}
		paths[p.SegmentIndex] = decoded
	}
	return paths
}
