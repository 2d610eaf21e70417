package animation

import (
	"math"
	"time"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/utils"
	"go.uber.org/zap"
)

// tileSize - размер тайла web-mercator в пикселях, как у mapbox-gl
const tileSize = 512.0

// CameraPreset - наклон и максимальный зум для вида транспорта
type CameraPreset struct {
	Pitch   float64
	MaxZoom float64
}

var cameraPresets = map[domain.TransportMode]CameraPreset{
	domain.ModeFlight: {Pitch: 60, MaxZoom: 5},
	domain.ModeDrive:  {Pitch: 45, MaxZoom: 12},
	domain.ModeTrain:  {Pitch: 45, MaxZoom: 12},
	domain.ModeWalk:   {Pitch: 45, MaxZoom: 15},
}

// PresetFor возвращает пресет камеры; неизвестный режим получает пресет drive
func PresetFor(mode domain.TransportMode) CameraPreset {
	if p, ok := cameraPresets[mode]; ok {
		return p
	}
	return cameraPresets[domain.ModeDrive]
}

// FitOptions - параметры вписывания точек во вьюпорт
type FitOptions struct {
	Padding  int
	Duration time.Duration
	Pitch    float64
	Bearing  float64
	MaxZoom  float64
}

// EaseOptions - параметры одиночного плавного перехода
type EaseOptions struct {
	Zoom     float64
	Pitch    float64
	Bearing  float64
	Duration time.Duration
	Easing   Easing
}

// Viewport - размер видимой области в пикселях
type Viewport struct {
	Width  int
	Height int
}

// CameraController плавно переводит камеру рендера.
// Bearing камеры всегда 0 (север вверху); поворачивается только маркер транспорта.
type CameraController struct {
	renderer repository.MapRenderer
	sched    FrameScheduler
	viewport Viewport
	logger   *zap.Logger

	frame    Handle
	from     domain.CameraState
	to       domain.CameraState
	start    time.Time
	duration time.Duration
	easing   Easing
}

// NewCameraController создаёт контроллер. sched может быть nil: тогда переходы мгновенные.
func NewCameraController(renderer repository.MapRenderer, sched FrameScheduler, viewport Viewport, logger *zap.Logger) *CameraController {
	if viewport.Width <= 0 {
		viewport.Width = 1280
	}
	if viewport.Height <= 0 {
		viewport.Height = 720
	}
	return &CameraController{
		renderer: renderer,
		sched:    sched,
		viewport: viewport,
		logger:   logger,
	}
}

// FitToBounds вписывает минимальный bbox точек во вьюпорт; false для пустого набора
func (c *CameraController) FitToBounds(points []domain.Coordinate, opts FitOptions) bool {
	box, ok := domain.NewBoundingBox(points)
	if !ok {
		c.logger.Debug("FitToBounds skipped: no points")
		return false
	}

	center, zoom := FitCamera(box, c.viewport, opts.Padding, opts.MaxZoom)
	c.EaseTo(center, EaseOptions{
		Zoom:     zoom,
		Pitch:    opts.Pitch,
		Bearing:  opts.Bearing,
		Duration: opts.Duration,
		Easing:   EaseOutQuad,
	})
	return true
}

// EaseTo запускает переход к center; предыдущий переход отменяется
func (c *CameraController) EaseTo(center domain.Coordinate, opts EaseOptions) {
	c.Cancel()

	target := domain.CameraState{
		Center:  domain.Coordinate{Lon: center.Lon, Lat: center.Lat},
		Zoom:    opts.Zoom,
		Pitch:   opts.Pitch,
		Bearing: opts.Bearing,
	}

	if c.sched == nil || opts.Duration <= 0 {
		c.apply(target)
		return
	}

	c.from = c.renderer.Camera()
	c.to = target
	c.start = c.sched.Now()
	c.duration = opts.Duration
	c.easing = opts.Easing
	if c.easing == nil {
		c.easing = EaseOutQuad
	}
	c.frame = c.sched.RequestFrame(c.step)
}

// Cancel останавливает текущий переход, камера остаётся где есть
func (c *CameraController) Cancel() {
	if c.frame != 0 && c.sched != nil {
		c.sched.CancelFrame(c.frame)
	}
	c.frame = 0
}

// Busy - идёт ли переход
func (c *CameraController) Busy() bool {
	return c.frame != 0
}

func (c *CameraController) step(now time.Time) {
	c.frame = 0

	t := float64(now.Sub(c.start)) / float64(c.duration)
	e := c.easing(t)

	c.apply(domain.CameraState{
		Center: domain.Coordinate{
			Lon: utils.Lerp(c.from.Center.Lon, c.to.Center.Lon, e),
			Lat: utils.Lerp(c.from.Center.Lat, c.to.Center.Lat, e),
		},
		Zoom:    utils.Lerp(c.from.Zoom, c.to.Zoom, e),
		Pitch:   utils.Lerp(c.from.Pitch, c.to.Pitch, e),
		Bearing: utils.Lerp(c.from.Bearing, c.to.Bearing, e),
	})

	if t < 1 {
		c.frame = c.sched.RequestFrame(c.step)
	}
}

func (c *CameraController) apply(state domain.CameraState) {
	if err := c.renderer.SetCamera(state); err != nil {
		c.logger.Debug("Failed to set camera", zap.Error(err))
	}
}

// FitCamera вычисляет центр и зум web-mercator, при котором box помещается во вьюпорт с отступом
func FitCamera(box domain.BoundingBox, vp Viewport, padding int, maxZoom float64) (domain.Coordinate, float64) {
	if maxZoom <= 0 {
		maxZoom = 22
	}

	x1, y1 := mercator(box.MinLon, box.MaxLat)
	x2, y2 := mercator(box.MaxLon, box.MinLat)
	center := domain.Coordinate{
		Lon: (box.MinLon + box.MaxLon) / 2,
		Lat: inverseMercatorLat((y1 + y2) / 2),
	}

	w := math.Max(float64(vp.Width-2*padding), 1)
	h := math.Max(float64(vp.Height-2*padding), 1)
	dx := math.Abs(x2 - x1)
	dy := math.Abs(y2 - y1)

	zoom := maxZoom
	if dx > 0 {
		zoom = math.Min(zoom, math.Log2(w/(dx*tileSize)))
	}
	if dy > 0 {
		zoom = math.Min(zoom, math.Log2(h/(dy*tileSize)))
	}
	if zoom < 0 {
		zoom = 0
	}
	return center, zoom
}

// mercator переводит lon/lat в нормализованные координаты [0,1]
func mercator(lon, lat float64) (float64, float64) {
	lat = math.Max(math.Min(lat, 85.051129), -85.051129)
	x := (lon + 180) / 360
	rad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2
	return x, y
}

func inverseMercatorLat(y float64) float64 {
	n := math.Pi * (1 - 2*y)
	return math.Atan(math.Sinh(n)) * 180 / math.Pi
}
