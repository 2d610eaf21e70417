package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/scene"
	"github.com/route-planner/internal/usecase/animation"
	"github.com/route-planner/internal/usecase/dto"
)

// SessionScheduler - цикл кадров одной сессии
type SessionScheduler interface {
	animation.FrameScheduler
	Start(ctx context.Context)
	Stop()
}

// RenderPublisher дублирует изменения сцены сессии подписчикам
type RenderPublisher interface {
	Subject(sessionID string) string
	Wrap(sessionID string, base repository.MapRenderer) repository.MapRenderer
}

// SegmentSource - сегменты сохранённого маршрута
type SegmentSource interface {
	Segments(ctx context.Context, id uuid.UUID) ([]domain.RouteSegment, error)
}

type animationSession struct {
	id        uuid.UUID
	routeID   string
	subject   string
	segments  int
	createdAt time.Time
	sched     SessionScheduler
	animator  *animation.RouteAnimator
	scene     *animation.SceneManager
	doc       *scene.Document
	cancel    context.CancelFunc

	// finished - анимация дошла до конца; под uc.mu
	finished bool
	release  sync.Once
	released chan struct{}
}

// shutdown останавливает цикл сессии один раз и ждёт его выхода
func (s *animationSession) shutdown() {
	s.release.Do(func() {
		s.sched.Stop()
		close(s.released)
	})
	<-s.released
}

// AnimationUseCase управляет серверными сессиями пролёта по маршруту
type AnimationUseCase struct {
	routes    SegmentSource
	paths     animation.PathResolver
	estimator animation.DurationEstimator
	publisher RenderPublisher
	animCfg   config.AnimationConfig
	defaults  domain.SceneOptions
	maxActive int
	newSched  func() SessionScheduler
	collector *metrics.Collector
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*animationSession
}

// NewAnimationUseCase - publisher может быть nil: сцена живёт только в памяти
func NewAnimationUseCase(
	routes SegmentSource,
	paths animation.PathResolver,
	estimator animation.DurationEstimator,
	publisher RenderPublisher,
	animCfg config.AnimationConfig,
	defaults domain.SceneOptions,
	maxActive int,
	collector *metrics.Collector,
	logger *zap.Logger,
) *AnimationUseCase {
	if maxActive <= 0 {
		maxActive = 32
	}
	return &AnimationUseCase{
		routes:    routes,
		paths:     paths,
		estimator: estimator,
		publisher: publisher,
		animCfg:   animCfg,
		defaults:  defaults,
		maxActive: maxActive,
		newSched: func() SessionScheduler {
			return animation.NewTickerScheduler(animCfg.FPS)
		},
		collector: collector,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*animationSession),
	}
}

// WithSchedulerFactory подменяет цикл кадров сессий (для тестов)
func (uc *AnimationUseCase) WithSchedulerFactory(fn func() SessionScheduler) *AnimationUseCase {
	uc.newSched = fn
	return uc
}

// Create запускает новую сессию
func (uc *AnimationUseCase) Create(ctx context.Context, req dto.CreateAnimationRequest) (*dto.AnimationSessionResponse, error) {
	segments, err := uc.resolveSegments(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.FromIndex < 0 || req.FromIndex >= len(segments) {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"from_index": req.FromIndex,
			"segments":   len(segments),
		})
	}

	uc.mu.Lock()
	if uc.activeLocked() >= uc.maxActive {
		uc.mu.Unlock()
		return nil, errors.ErrTooManySessions
	}
	s := uc.newSession(req, segments)
	uc.sessions[s.id] = s
	active := uc.activeLocked()
	uc.mu.Unlock()

	uc.collector.SessionStarted()
	uc.collector.SetActiveSessions(active)
	uc.launch(s, segments, req.FromIndex)

	uc.logger.Info("Animation session started",
		zap.String("session_id", s.id.String()),
		zap.Int("segments", len(segments)),
		zap.Int("from_index", req.FromIndex),
	)
	return uc.describe(s), nil
}

func (uc *AnimationUseCase) resolveSegments(ctx context.Context, req dto.CreateAnimationRequest) ([]domain.RouteSegment, error) {
	if req.RouteID != "" {
		id, err := uuid.Parse(req.RouteID)
		if err != nil {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"route_id": "uuid"})
		}
		return uc.routes.Segments(ctx, id)
	}

	if len(req.Segments) == 0 {
		return nil, errors.ErrInvalidRoute
	}
	segments := make([]domain.RouteSegment, len(req.Segments))
	for i, in := range req.Segments {
		mode, ok := domain.ParseTransportMode(in.Mode)
		if !ok {
			return nil, errors.ErrInvalidTransportMode.WithDetails(map[string]interface{}{
				"segment_index": i,
				"mode":          in.Mode,
			})
		}
		segments[i] = domain.RouteSegment{
			From: toLocation(in.From),
			To:   toLocation(in.To),
			Mode: mode,
		}
	}
	return segments, nil
}

func toLocation(in dto.LocationInput) domain.Location {
	id := in.ID
	if id == "" {
		// без явного ID точки совпадают по координатам
		id = domain.Coordinate{Lon: in.Lng, Lat: in.Lat}.Key()
	}
	return domain.Location{
		ID:         id,
		Name:       in.Name,
		Coordinate: domain.Coordinate{Lon: in.Lng, Lat: in.Lat},
		Address:    in.Address,
	}
}

func (uc *AnimationUseCase) newSession(req dto.CreateAnimationRequest, segments []domain.RouteSegment) *animationSession {
	id := uuid.New()
	s := &animationSession{
		id:        id,
		routeID:   req.RouteID,
		segments:  len(segments),
		createdAt: time.Now().UTC(),
		sched:     uc.newSched(),
		doc:       scene.NewDocument(true),
		released:  make(chan struct{}),
	}

	var renderer repository.MapRenderer = s.doc
	if uc.publisher != nil {
		renderer = uc.publisher.Wrap(id.String(), s.doc)
		s.subject = uc.publisher.Subject(id.String())
	}

	logger := uc.logger.With(zap.String("session_id", id.String()))
	camera := animation.NewCameraController(renderer, s.sched, animation.Viewport{
		Width:  uc.animCfg.ViewportWidth,
		Height: uc.animCfg.ViewportHeight,
	}, logger)

	s.scene = animation.NewSceneManager(renderer, uc.paths, ApplySceneOverrides(uc.defaults, req.Scene), logger)
	s.animator = animation.NewRouteAnimator(
		renderer, s.sched, camera, uc.paths, uc.estimator,
		animation.OptionsFromConfig(uc.animCfg),
		animation.Hooks{
			OnSegmentComplete: func(index int, seg domain.RouteSegment, _ domain.AnimationState) {
				logger.Debug("Segment completed", zap.Int("segment", index), zap.String("mode", string(seg.Mode)))
			},
			OnComplete: func(st domain.AnimationState) {
				logger.Info("Animation session completed",
					zap.Float64("total_distance_km", st.TotalDistanceKm),
					zap.String("total_duration", FormatDuration(st.TotalDurationMin)),
				)
				uc.finish(s)
			},
		},
		uc.collector, logger,
	)
	return s
}

// launch рисует статичную сцену и запускает проигрывание в цикле сессии
func (uc *AnimationUseCase) launch(s *animationSession, segments []domain.RouteSegment, fromIndex int) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sched.Start(ctx)

	s.sched.Post(func() {
		s.scene.Init()
		s.scene.RenderWaypoints(segments)
	})
	s.sched.Go(func() {
		paths := s.scene.BuildStatic(ctx, segments)
		s.sched.Post(func() {
			if ctx.Err() == nil {
				s.scene.DrawStatic(segments, paths)
			}
		})
	})

	s.animator.SetSegments(segments)
	s.animator.Play(fromIndex)
}

// finish освобождает цикл завершённой сессии; сессия остаётся в списке только для чтения
func (uc *AnimationUseCase) finish(s *animationSession) {
	uc.mu.Lock()
	s.finished = true
	active := uc.activeLocked()
	uc.mu.Unlock()

	uc.collector.SetActiveSessions(active)
	// Stop ждёт выхода цикла, а finish вызывается из него
	s.sched.Go(s.shutdown)
}

// activeLocked - число незавершённых сессий; вызывать под uc.mu
func (uc *AnimationUseCase) activeLocked() int {
	n := 0
	for _, s := range uc.sessions {
		if !s.finished {
			n++
		}
	}
	return n
}

// Get возвращает состояние сессии
func (uc *AnimationUseCase) Get(id uuid.UUID) (*dto.AnimationSessionResponse, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	return uc.describe(s), nil
}

// List возвращает все сессии, включая завершённые
func (uc *AnimationUseCase) List() []dto.AnimationSessionResponse {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	out := make([]dto.AnimationSessionResponse, 0, len(uc.sessions))
	for _, s := range uc.sessions {
		out = append(out, *uc.describe(s))
	}
	return out
}

// Scene возвращает текущий снимок сцены сессии
func (uc *AnimationUseCase) Scene(id uuid.UUID) (*scene.Snapshot, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	snap := s.doc.Snapshot()
	return &snap, nil
}

// Pause ставит сессию на паузу
func (uc *AnimationUseCase) Pause(id uuid.UUID) (*dto.AnimationSessionResponse, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.animator.Pause()
	return uc.describe(s), nil
}

// Resume продолжает сессию после паузы
func (uc *AnimationUseCase) Resume(id uuid.UUID) (*dto.AnimationSessionResponse, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.animator.Resume()
	return uc.describe(s), nil
}

// Delete останавливает сессию, убирает всё со сцены и освобождает цикл
func (uc *AnimationUseCase) Delete(id uuid.UUID) error {
	uc.mu.Lock()
	s, ok := uc.sessions[id]
	if ok {
		delete(uc.sessions, id)
	}
	active := uc.activeLocked()
	uc.mu.Unlock()
	if !ok {
		return errors.ErrSessionNotFound
	}

	uc.stop(s)
	uc.collector.SetActiveSessions(active)
	uc.logger.Info("Animation session deleted", zap.String("session_id", id.String()))
	return nil
}

// Shutdown останавливает все сессии
func (uc *AnimationUseCase) Shutdown() {
	uc.mu.Lock()
	sessions := uc.sessions
	uc.sessions = make(map[uuid.UUID]*animationSession)
	uc.mu.Unlock()

	for _, s := range sessions {
		uc.stop(s)
	}
	uc.collector.SetActiveSessions(0)
}

func (uc *AnimationUseCase) stop(s *animationSession) {
	s.cancel()
	s.animator.Stop()
	s.sched.Post(s.scene.Clear)
	s.shutdown()

	uc.mu.RLock()
	finished := s.finished
	uc.mu.RUnlock()
	if finished {
		// цикл остановлен по завершении и задачи выше не выполнил
		s.scene.Clear()
	}
}

func (uc *AnimationUseCase) lookup(id uuid.UUID) (*animationSession, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	s, ok := uc.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return s, nil
}

func (uc *AnimationUseCase) describe(s *animationSession) *dto.AnimationSessionResponse {
	resp := &dto.AnimationSessionResponse{
		ID:        s.id.String(),
		Subject:   s.subject,
		RouteID:   s.routeID,
		Segments:  s.segments,
		State:     s.animator.State(),
		CreatedAt: s.createdAt,
	}
	if r, ok := s.animator.Readout(); ok {
		resp.Readout = &r
	}
	return resp
}
