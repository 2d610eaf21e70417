package animation

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/pkg/utils"
	"go.uber.org/zap"
)

const (
	LiveRouteSourceID = "live-route"
	LiveRouteLayerID  = "live-route-line"
	VehicleMarkerID   = "vehicle"
)

// PathResolver строит путь сегмента; никогда не возвращает ошибку
type PathResolver interface {
	BuildPath(ctx context.Context, from, to domain.Coordinate, mode domain.TransportMode) domain.Path
}

// DurationEstimator оценивает длительность сегмента в минутах
type DurationEstimator interface {
	EstimateDurationMinutes(distanceKm float64, mode domain.TransportMode) float64
}

// Options - тайминги и поведение анимации
type Options struct {
	FlightRevealDuration time.Duration
	GroundRevealDuration time.Duration
	SettleDelay          time.Duration
	ArrivalDelay         time.Duration
	CameraDuration       time.Duration
	MaxFrameDelta        time.Duration
	Padding              int
	FollowCamera         bool
	FollowThresholdKm    float64
}

// OptionsFromConfig переносит настройки анимации из конфигурации
func OptionsFromConfig(cfg config.AnimationConfig) Options {
	return Options{
		FlightRevealDuration: cfg.FlightRevealDuration,
		GroundRevealDuration: cfg.GroundRevealDuration,
		SettleDelay:          cfg.SettleDelay,
		ArrivalDelay:         cfg.ArrivalDelay,
		CameraDuration:       cfg.CameraDuration,
		MaxFrameDelta:        cfg.MaxFrameDelta,
		Padding:              cfg.Padding,
		FollowCamera:         cfg.FollowCamera,
		FollowThresholdKm:    cfg.FollowThresholdKm,
	}
}

func (o Options) revealDuration(mode domain.TransportMode) time.Duration {
	if mode == domain.ModeFlight {
		return o.FlightRevealDuration
	}
	return o.GroundRevealDuration
}

// Hooks - уведомления для вызывающей стороны. Вызываются в цикле кадров.
type Hooks struct {
	OnSegmentStart    func(index int, segment domain.RouteSegment)
	OnProgress        func(readout domain.ProgressReadout)
	OnSegmentComplete func(index int, segment domain.RouteSegment, state domain.AnimationState)
	OnComplete        func(state domain.AnimationState)
}

type phase int

const (
	phaseNone phase = iota
	phaseFetching
	phaseSettling
	phaseRevealing
	phaseArrival
)

// RouteAnimator - машина состояний, проигрывающая сегменты маршрута по порядку.
// Публичные методы ставят команды в цикл планировщика; State и Readout читаются из любой горутины.
type RouteAnimator struct {
	renderer  repository.MapRenderer
	sched     FrameScheduler
	camera    *CameraController
	paths     PathResolver
	estimator DurationEstimator
	opts      Options
	hooks     Hooks
	metrics   *metrics.Collector
	logger    *zap.Logger

	mu         sync.RWMutex
	state      domain.AnimationState
	readout    domain.ProgressReadout
	hasReadout bool

	// ниже - состояние цикла, трогается только из колбэков планировщика
	segments    []domain.RouteSegment
	gen         uint64
	cancelFetch context.CancelFunc
	frame       Handle
	timer       Handle
	phase       phase
	path        domain.Path
	segDistance float64
	segDuration float64
	elapsed     time.Duration
	lastFrame   time.Time
	arrivalAt   time.Time
	arrivalLeft time.Duration
	bearing     float64
	liveMode    domain.TransportMode
}

func NewRouteAnimator(
	renderer repository.MapRenderer,
	sched FrameScheduler,
	camera *CameraController,
	paths PathResolver,
	estimator DurationEstimator,
	opts Options,
	hooks Hooks,
	m *metrics.Collector,
	logger *zap.Logger,
) *RouteAnimator {
	if opts.MaxFrameDelta <= 0 {
		opts.MaxFrameDelta = 100 * time.Millisecond
	}
	return &RouteAnimator{
		renderer:  renderer,
		sched:     sched,
		camera:    camera,
		paths:     paths,
		estimator: estimator,
		opts:      opts,
		hooks:     hooks,
		metrics:   m,
		logger:    logger,
		state:     domain.AnimationState{Status: domain.AnimationIdle},
	}
}

// State возвращает копию текущего состояния
func (a *RouteAnimator) State() domain.AnimationState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Readout возвращает последнюю сводку прогресса
func (a *RouteAnimator) Readout() (domain.ProgressReadout, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.readout, a.hasReadout
}

func (a *RouteAnimator) setState(fn func(s *domain.AnimationState)) domain.AnimationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.state)
	return a.state
}

// SetSegments заменяет список сегментов: всё незавершённое отменяется, состояние сбрасывается
func (a *RouteAnimator) SetSegments(segments []domain.RouteSegment) {
	cp := make([]domain.RouteSegment, len(segments))
	copy(cp, segments)
	a.sched.Post(func() {
		a.reset()
		a.segments = cp
	})
}

// Start - Play(0)
func (a *RouteAnimator) Start() {
	a.Play(0)
}

// Play запускает проигрывание с сегмента fromIndex и обнуляет накопленные итоги
func (a *RouteAnimator) Play(fromIndex int) {
	a.sched.Post(func() { a.play(fromIndex) })
}

// Pause останавливает цикл, сохраняя позицию
func (a *RouteAnimator) Pause() {
	a.sched.Post(a.pause)
}

// Resume продолжает проигрывание после паузы
func (a *RouteAnimator) Resume() {
	a.sched.Post(a.resume)
}

// Stop полностью сбрасывает анимацию и убирает временные объекты
func (a *RouteAnimator) Stop() {
	a.sched.Post(a.reset)
}

func (a *RouteAnimator) play(fromIndex int) {
	if len(a.segments) == 0 || fromIndex < 0 || fromIndex >= len(a.segments) {
		a.logger.Debug("Play ignored",
			zap.Int("from_index", fromIndex),
			zap.Int("segments", len(a.segments)))
		return
	}

	a.cancelPending()
	a.setState(func(s *domain.AnimationState) {
		*s = domain.AnimationState{
			SegmentIndex: fromIndex,
			Status:       domain.AnimationPlaying,
		}
	})
	a.beginSegment()
}

func (a *RouteAnimator) pause() {
	if a.State().Status != domain.AnimationPlaying {
		a.logger.Debug("Pause ignored: not playing")
		return
	}
	if a.phase == phaseArrival {
		a.arrivalLeft = a.arrivalAt.Sub(a.sched.Now())
		if a.arrivalLeft < 0 {
			a.arrivalLeft = 0
		}
	}
	a.cancelPending()
	a.setState(func(s *domain.AnimationState) { s.Status = domain.AnimationPaused })
}

func (a *RouteAnimator) resume() {
	if a.State().Status != domain.AnimationPaused {
		a.logger.Debug("Resume ignored: not paused")
		return
	}
	a.setState(func(s *domain.AnimationState) { s.Status = domain.AnimationPlaying })

	switch a.phase {
	case phaseRevealing:
		a.lastFrame = time.Time{}
		a.frame = a.sched.RequestFrame(a.tick)
	case phaseArrival:
		// остаток паузы прибытия, а не новый полный интервал
		a.armArrival(a.arrivalLeft)
	default:
		// пауза до начала раскрытия: фаза подготовки сегмента заново
		a.setupSegment()
	}
}

// reset - полный сброс в Idle
func (a *RouteAnimator) reset() {
	a.cancelPending()
	a.removeTransient()
	a.phase = phaseNone
	a.path = nil
	a.mu.Lock()
	a.state = domain.AnimationState{Status: domain.AnimationIdle}
	a.readout = domain.ProgressReadout{}
	a.hasReadout = false
	a.mu.Unlock()
}

// cancelPending отменяет кадр, таймер, загрузку пути и переход камеры
func (a *RouteAnimator) cancelPending() {
	if a.frame != 0 {
		a.sched.CancelFrame(a.frame)
		a.frame = 0
	}
	if a.timer != 0 {
		a.sched.CancelTimer(a.timer)
		a.timer = 0
	}
	if a.cancelFetch != nil {
		a.cancelFetch()
		a.cancelFetch = nil
	}
	a.gen++
	a.camera.Cancel()
}

func (a *RouteAnimator) beginSegment() {
	st := a.State()
	if st.SegmentIndex >= len(a.segments) {
		a.complete()
		return
	}

	seg := a.segments[st.SegmentIndex]
	a.segDistance = utils.HaversineDistance(seg.From.Coordinate.Lat, seg.From.Coordinate.Lon, seg.To.Coordinate.Lat, seg.To.Coordinate.Lon)
	a.segDuration = a.estimator.EstimateDurationMinutes(a.segDistance, seg.Mode)

	if a.hooks.OnSegmentStart != nil {
		a.hooks.OnSegmentStart(st.SegmentIndex, seg)
	}

	a.setupSegment()
}

// setupSegment асинхронно получает путь; результат возвращается в цикл
func (a *RouteAnimator) setupSegment() {
	index := a.State().SegmentIndex
	seg := a.segments[index]

	a.phase = phaseFetching
	a.path = nil
	a.elapsed = 0
	a.lastFrame = time.Time{}
	a.setState(func(s *domain.AnimationState) { s.Progress = 0 })

	a.gen++
	gen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelFetch = cancel

	a.sched.Go(func() {
		path := a.paths.BuildPath(ctx, seg.From.Coordinate, seg.To.Coordinate, seg.Mode)
		a.sched.Post(func() { a.onPath(gen, index, path) })
	})
}

func (a *RouteAnimator) onPath(gen uint64, index int, path domain.Path) {
	if gen != a.gen || a.phase != phaseFetching {
		a.logger.Debug("Stale path result dropped", zap.Int("segment", index))
		return
	}
	if a.cancelFetch != nil {
		a.cancelFetch()
		a.cancelFetch = nil
	}

	a.path = path
	if path.IsDegenerate() {
		a.logger.Debug("Degenerate path treated as complete", zap.Int("segment", index), zap.Int("points", len(path)))
		a.finishSegment()
		return
	}

	seg := a.segments[index]
	a.bearing = utils.Bearing(path[0].Lat, path[0].Lon, path[1].Lat, path[1].Lon)
	a.ensureLiveRoute(seg.Mode, path[:1])
	a.ensureVehicle(path[0], a.bearing)

	preset := PresetFor(seg.Mode)
	a.camera.FitToBounds(path, FitOptions{
		Padding:  a.opts.Padding,
		Duration: a.opts.CameraDuration,
		Pitch:    preset.Pitch,
		MaxZoom:  preset.MaxZoom,
	})

	a.phase = phaseSettling
	a.timer = a.sched.AfterFunc(a.opts.SettleDelay, func() {
		a.timer = 0
		a.phase = phaseRevealing
		a.frame = a.sched.RequestFrame(a.tick)
	})
}

func (a *RouteAnimator) tick(now time.Time) {
	a.frame = 0
	started := time.Now()
	defer func() { a.metrics.FrameObserve(time.Since(started)) }()

	if !a.lastFrame.IsZero() {
		delta := now.Sub(a.lastFrame)
		if delta < 0 {
			delta = 0
		}
		if delta > a.opts.MaxFrameDelta {
			delta = a.opts.MaxFrameDelta
		}
		a.elapsed += delta
	}
	a.lastFrame = now

	st := a.State()
	seg := a.segments[st.SegmentIndex]
	n := len(a.path)

	reveal := a.opts.revealDuration(seg.Mode)
	cursor := float64(n - 1)
	if reveal > 0 {
		cursor = float64(a.elapsed) / float64(reveal) * float64(n-1)
	}
	if cursor >= float64(n-1) {
		a.finishSegment()
		return
	}

	i := int(math.Floor(cursor))
	frac := cursor - float64(i)
	p0, p1 := a.path[i], a.path[i+1]
	pos := domain.Coordinate{
		Lon: utils.Lerp(p0.Lon, p1.Lon, frac),
		Lat: utils.Lerp(p0.Lat, p1.Lat, frac),
		Alt: utils.Lerp(p0.Alt, p1.Alt, frac),
	}
	if !p0.Equal(p1) {
		a.bearing = utils.Bearing(p0.Lat, p0.Lon, p1.Lat, p1.Lon)
	}

	revealed := make([]domain.Coordinate, 0, i+2)
	revealed = append(revealed, a.path[:i+1]...)
	revealed = append(revealed, pos)
	a.updateLiveRoute(revealed)
	a.moveVehicle(pos, a.bearing)

	progress := cursor / float64(n-1)
	st = a.setState(func(s *domain.AnimationState) { s.Progress = progress })
	a.emitProgress(st, seg, pos)
	a.follow(pos)

	a.frame = a.sched.RequestFrame(a.tick)
}

// finishSegment дорисовывает путь, накапливает итоги и ждёт паузу прибытия
func (a *RouteAnimator) finishSegment() {
	a.phase = phaseArrival

	st := a.State()
	index := st.SegmentIndex
	seg := a.segments[index]

	end := seg.To.Coordinate
	if n := len(a.path); n > 0 {
		end = a.path[n-1]
		if n >= 2 {
			a.updateLiveRoute(a.path)
		}
	}
	a.moveVehicle(end, a.bearing)

	st = a.setState(func(s *domain.AnimationState) {
		s.Progress = 1
		s.TotalDistanceKm += a.segDistance
		s.TotalDurationMin += a.segDuration
	})
	a.emitProgress(st, seg, end)
	a.metrics.SegmentCompleted(string(seg.Mode))

	if a.hooks.OnSegmentComplete != nil {
		a.hooks.OnSegmentComplete(index, seg, st)
	}

	a.armArrival(a.opts.ArrivalDelay)
}

// armArrival запускает таймер перехода к следующему сегменту
func (a *RouteAnimator) armArrival(d time.Duration) {
	a.arrivalAt = a.sched.Now().Add(d)
	a.timer = a.sched.AfterFunc(d, func() {
		a.timer = 0
		a.advance()
	})
}

func (a *RouteAnimator) advance() {
	a.setState(func(s *domain.AnimationState) {
		s.SegmentIndex++
		s.Progress = 0
	})
	a.beginSegment()
}

func (a *RouteAnimator) complete() {
	a.cancelPending()
	a.removeTransient()
	a.phase = phaseNone
	a.path = nil

	st := a.setState(func(s *domain.AnimationState) {
		s.Status = domain.AnimationIdle
		s.Completed = true
		s.SegmentIndex = len(a.segments)
		s.Progress = 0
	})

	a.logger.Debug("Route animation completed",
		zap.Int("segments", len(a.segments)),
		zap.Float64("total_distance_km", st.TotalDistanceKm))

	if a.hooks.OnComplete != nil {
		a.hooks.OnComplete(st)
	}
}

// emitProgress: сегментные значения - полные, накопленные - с учётом пройденной доли
func (a *RouteAnimator) emitProgress(st domain.AnimationState, seg domain.RouteSegment, pos domain.Coordinate) {
	r := domain.ProgressReadout{
		SegmentIndex:          st.SegmentIndex,
		Mode:                  seg.Mode,
		FromName:              seg.From.Name,
		ToName:                seg.To.Name,
		SegmentDistanceKm:     a.segDistance,
		CumulativeDistanceKm:  st.TotalDistanceKm,
		SegmentDurationMin:    a.segDuration,
		CumulativeDurationMin: st.TotalDurationMin,
		Percent:               st.Progress * 100,
		Position:              pos,
		Bearing:               a.bearing,
	}
	if a.phase != phaseArrival {
		r.CumulativeDistanceKm += a.segDistance * st.Progress
		r.CumulativeDurationMin += a.segDuration * st.Progress
	}

	a.mu.Lock()
	a.readout = r
	a.hasReadout = true
	a.mu.Unlock()

	if a.hooks.OnProgress != nil {
		a.hooks.OnProgress(r)
	}
}

// follow ведёт камеру за транспортом, если он ушёл дальше порога
func (a *RouteAnimator) follow(pos domain.Coordinate) {
	if !a.opts.FollowCamera || a.camera.Busy() {
		return
	}
	cam := a.renderer.Camera()
	dist := utils.HaversineDistance(cam.Center.Lat, cam.Center.Lon, pos.Lat, pos.Lon)
	if dist <= a.opts.FollowThresholdKm {
		return
	}
	a.camera.EaseTo(pos, EaseOptions{
		Zoom:     cam.Zoom,
		Pitch:    cam.Pitch,
		Bearing:  0,
		Duration: a.opts.CameraDuration / 2,
		Easing:   EaseOutQuad,
	})
}

// ensureLiveRoute создаёт источник живого маршрута один раз, дальше обновляет данные на месте.
// Слой пересоздаётся только при смене режима (другой цвет и пунктир).
func (a *RouteAnimator) ensureLiveRoute(mode domain.TransportMode, coords []domain.Coordinate) {
	fc := LineCollection(coords, map[string]any{"mode": string(mode)})

	if a.renderer.HasSource(LiveRouteSourceID) {
		if err := a.renderer.SetSourceData(LiveRouteSourceID, fc); err != nil {
			a.logger.Debug("Failed to update live route", zap.Error(err))
		}
	} else if err := a.renderer.AddSource(LiveRouteSourceID, fc); err != nil {
		a.logger.Warn("Failed to add live route source", zap.Error(err))
		return
	}

	if a.renderer.HasLayer(LiveRouteLayerID) {
		if a.liveMode == mode {
			return
		}
		if err := a.renderer.RemoveLayer(LiveRouteLayerID); err != nil {
			a.logger.Debug("Failed to remove live route layer", zap.Error(err))
		}
	}
	if err := a.renderer.AddLayer(LineLayer(LiveRouteLayerID, LiveRouteSourceID, mode)); err != nil {
		a.logger.Warn("Failed to add live route layer", zap.Error(err))
		return
	}
	a.liveMode = mode
}

func (a *RouteAnimator) updateLiveRoute(coords []domain.Coordinate) {
	if !a.renderer.HasSource(LiveRouteSourceID) {
		return
	}
	fc := LineCollection(coords, map[string]any{"mode": string(a.liveMode)})
	if err := a.renderer.SetSourceData(LiveRouteSourceID, fc); err != nil {
		a.logger.Debug("Failed to update live route", zap.Error(err))
	}
}

func (a *RouteAnimator) ensureVehicle(pos domain.Coordinate, rotation float64) {
	if a.renderer.HasMarker(VehicleMarkerID) {
		a.moveVehicle(pos, rotation)
		return
	}
	err := a.renderer.AddMarker(domain.Marker{
		ID:       VehicleMarkerID,
		Position: pos,
		Rotation: rotation,
		Kind:     "vehicle",
	})
	if err != nil {
		a.logger.Warn("Failed to add vehicle marker", zap.Error(err))
	}
}

func (a *RouteAnimator) moveVehicle(pos domain.Coordinate, rotation float64) {
	if !a.renderer.HasMarker(VehicleMarkerID) {
		return
	}
	if err := a.renderer.UpdateMarker(VehicleMarkerID, pos, rotation); err != nil {
		a.logger.Debug("Failed to move vehicle marker", zap.Error(err))
	}
}

// removeTransient убирает маркер транспорта и живой маршрут (слой раньше источника)
func (a *RouteAnimator) removeTransient() {
	if a.renderer.HasMarker(VehicleMarkerID) {
		if err := a.renderer.RemoveMarker(VehicleMarkerID); err != nil {
			a.logger.Debug("Failed to remove vehicle marker", zap.Error(err))
		}
	}
	if a.renderer.HasLayer(LiveRouteLayerID) {
		if err := a.renderer.RemoveLayer(LiveRouteLayerID); err != nil {
			a.logger.Debug("Failed to remove live route layer", zap.Error(err))
		}
	}
	if a.renderer.HasSource(LiveRouteSourceID) {
		if err := a.renderer.RemoveSource(LiveRouteSourceID); err != nil {
			a.logger.Debug("Failed to remove live route source", zap.Error(err))
		}
	}
	a.liveMode = ""
}
