package animation

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	ColorStart        = "#22c55e"
	ColorEnd          = "#ef4444"
	ColorIntermediate = "#3b82f6"

	skyLayerID = "sky"
)

var modeColors = map[domain.TransportMode]string{
	domain.ModeFlight: "#8b5cf6",
	domain.ModeDrive:  "#3b82f6",
	domain.ModeTrain:  "#f59e0b",
	domain.ModeWalk:   "#10b981",
}

// ModeColor - цвет линии для вида транспорта
func ModeColor(mode domain.TransportMode) string {
	if c, ok := modeColors[mode]; ok {
		return c
	}
	return modeColors[domain.ModeDrive]
}

// LineLayer описывает линейный слой для режима: пунктир [2,2] у перелётов
func LineLayer(id, source string, mode domain.TransportMode) domain.Layer {
	paint := map[string]any{
		"line-color":   ModeColor(mode),
		"line-width":   4.0,
		"line-opacity": 0.9,
	}
	if mode == domain.ModeFlight {
		paint["line-dasharray"] = []float64{2, 2}
	}
	return domain.Layer{
		ID:     id,
		Type:   domain.LayerLine,
		Source: source,
		Paint:  paint,
		Layout: map[string]any{
			"line-join": "round",
			"line-cap":  "round",
		},
	}
}

// LineCollection оборачивает путь в FeatureCollection с одной LineString
func LineCollection(path []domain.Coordinate, props map[string]any) *geojson.FeatureCollection {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, orb.Point{c.Lon, c.Lat})
	}
	f := geojson.NewFeature(ls)
	for k, v := range props {
		f.Properties[k] = v
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc
}

func staticSourceID(i int) string { return fmt.Sprintf("route-segment-%d", i) }
func staticLayerID(i int) string  { return fmt.Sprintf("route-segment-%d-line", i) }

// SceneManager - жизненный цикл сцены: стиль, маркеры точек, статическая отрисовка сегментов.
// Все операции рисования откладываются до загрузки рендера.
type SceneManager struct {
	renderer repository.MapRenderer
	paths    PathResolver
	options  domain.SceneOptions
	logger   *zap.Logger

	staticIDs []int
	markerIDs []string
}

func NewSceneManager(renderer repository.MapRenderer, paths PathResolver, options domain.SceneOptions, logger *zap.Logger) *SceneManager {
	return &SceneManager{
		renderer: renderer,
		paths:    paths,
		options:  options,
		logger:   logger,
	}
}

// whenReady выполняет fn сразу, если рендер загружен, иначе ставит в очередь загрузки
func (m *SceneManager) whenReady(fn func()) {
	if m.renderer.Loaded() {
		fn()
		return
	}
	m.renderer.OnLoad(fn)
}

// Init применяет стиль и презентационные настройки сцены
func (m *SceneManager) Init() {
	m.whenReady(func() {
		if err := m.renderer.SetStyle(m.options.Style); err != nil {
			m.logger.Warn("Failed to set map style", zap.Error(err))
		}

		opts := m.options
		if opts.Terrain && opts.TerrainExaggeration <= 0 {
			opts.TerrainExaggeration = 1.5
		}
		if err := m.renderer.ConfigureScene(opts); err != nil {
			m.logger.Warn("Failed to configure scene", zap.Error(err))
		}

		if opts.Fog {
			if m.renderer.HasLayer(skyLayerID) {
				_ = m.renderer.RemoveLayer(skyLayerID)
			}
			err := m.renderer.AddLayer(domain.Layer{
				ID:   skyLayerID,
				Type: domain.LayerSky,
				Paint: map[string]any{
					"sky-type":                     "atmosphere",
					"sky-atmosphere-sun":           []float64{0, 0},
					"sky-atmosphere-sun-intensity": 15.0,
				},
			})
			if err != nil {
				m.logger.Warn("Failed to add sky layer", zap.Error(err))
			}
		}
	})
}

// UniqueLocations возвращает уникальные по ID локации в порядке маршрута
func UniqueLocations(segments []domain.RouteSegment) []domain.Location {
	seen := make(map[string]struct{})
	var out []domain.Location
	add := func(l domain.Location) {
		if _, ok := seen[l.ID]; ok {
			return
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	for _, s := range segments {
		add(s.From)
		add(s.To)
	}
	return out
}

// RenderWaypoints ставит маркеры всех уникальных точек: старт зелёный, финиш красный, остальные синие
func (m *SceneManager) RenderWaypoints(segments []domain.RouteSegment) {
	m.whenReady(func() {
		m.removeMarkers()

		locations := UniqueLocations(segments)
		for i, loc := range locations {
			color := ColorIntermediate
			kind := "waypoint"
			switch {
			case i == 0:
				color, kind = ColorStart, "start"
			case i == len(locations)-1:
				color, kind = ColorEnd, "end"
			}

			id := "waypoint-" + loc.ID
			if m.renderer.HasMarker(id) {
				_ = m.renderer.RemoveMarker(id)
			}
			err := m.renderer.AddMarker(domain.Marker{
				ID:       id,
				Position: loc.Coordinate,
				Color:    color,
				Popup:    loc.Name,
				Kind:     kind,
			})
			if err != nil {
				m.logger.Warn("Failed to add waypoint marker", zap.String("id", id), zap.Error(err))
				continue
			}
			m.markerIDs = append(m.markerIDs, id)
		}
	})
}

// BuildStatic строит пути всех сегментов; блокирующая операция, выполняется вне цикла кадров
func (m *SceneManager) BuildStatic(ctx context.Context, segments []domain.RouteSegment) []domain.Path {
	paths := make([]domain.Path, len(segments))
	for i, s := range segments {
		paths[i] = m.paths.BuildPath(ctx, s.From.Coordinate, s.To.Coordinate, s.Mode)
	}
	return paths
}

// DrawStatic рисует уже построенные пути: источник и слой на сегмент
func (m *SceneManager) DrawStatic(segments []domain.RouteSegment, paths []domain.Path) {
	m.whenReady(func() {
		m.removeStatic()

		for i, s := range segments {
			if i >= len(paths) || len(paths[i]) < 2 {
				continue
			}
			fc := LineCollection(paths[i], map[string]any{
				"segment": i,
				"mode":    string(s.Mode),
			})
			if err := m.upsertLine(staticSourceID(i), LineLayer(staticLayerID(i), staticSourceID(i), s.Mode), fc); err != nil {
				m.logger.Warn("Failed to draw static segment", zap.Int("segment", i), zap.Error(err))
				continue
			}
			m.staticIDs = append(m.staticIDs, i)
		}
	})
}

// RenderStatic строит и рисует все сегменты статическими линиями
func (m *SceneManager) RenderStatic(ctx context.Context, segments []domain.RouteSegment) []domain.Path {
	paths := m.BuildStatic(ctx, segments)
	m.DrawStatic(segments, paths)
	return paths
}

// Clear удаляет статические слои (раньше источников) и маркеры точек
func (m *SceneManager) Clear() {
	m.whenReady(func() {
		m.removeStatic()
		m.removeMarkers()
	})
}

// upsertLine пересоздаёт источник и слой: сначала удаляется слой, потом источник
func (m *SceneManager) upsertLine(sourceID string, layer domain.Layer, fc *geojson.FeatureCollection) error {
	if m.renderer.HasLayer(layer.ID) {
		if err := m.renderer.RemoveLayer(layer.ID); err != nil {
			return err
		}
	}
	if m.renderer.HasSource(sourceID) {
		if err := m.renderer.RemoveSource(sourceID); err != nil {
			return err
		}
	}
	if err := m.renderer.AddSource(sourceID, fc); err != nil {
		return err
	}
	return m.renderer.AddLayer(layer)
}

func (m *SceneManager) removeStatic() {
	for _, i := range m.staticIDs {
		if m.renderer.HasLayer(staticLayerID(i)) {
			if err := m.renderer.RemoveLayer(staticLayerID(i)); err != nil {
				m.logger.Debug("Failed to remove layer", zap.Error(err))
			}
		}
	}
	for _, i := range m.staticIDs {
		if m.renderer.HasSource(staticSourceID(i)) {
			if err := m.renderer.RemoveSource(staticSourceID(i)); err != nil {
				m.logger.Debug("Failed to remove source", zap.Error(err))
			}
		}
	}
	m.staticIDs = nil
}

func (m *SceneManager) removeMarkers() {
	for _, id := range m.markerIDs {
		if m.renderer.HasMarker(id) {
			_ = m.renderer.RemoveMarker(id)
		}
	}
	m.markerIDs = nil
}
