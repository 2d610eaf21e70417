package animation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Handle - идентификатор запланированного кадра или таймера; 0 - пустой
type Handle uint64

// FrameScheduler - модель цикла обновления экрана.
// Все колбэки выполняются в одной горутине цикла, поэтому состояние аниматора не требует блокировок.
type FrameScheduler interface {
	// RequestFrame планирует fn перед следующим кадром
	RequestFrame(fn func(now time.Time)) Handle
	CancelFrame(h Handle)
	// AfterFunc планирует отложенное продолжение
	AfterFunc(d time.Duration, fn func()) Handle
	CancelTimer(h Handle)
	// Post выполняет fn в цикле; безопасен для вызова из любой горутины
	Post(fn func())
	// Go выполняет блокирующую работу вне цикла; результат возвращается через Post
	Go(fn func())
	Now() time.Time
	// Pending - число ожидающих кадров и таймеров
	Pending() int
}

// TickerScheduler - боевой планировщик: кадры по тикеру с заданным FPS
type TickerScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	nextID Handle
	frames map[Handle]func(time.Time)
	timers map[Handle]*time.Timer
	posts  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewTickerScheduler создаёт планировщик; fps <= 0 даёт 60
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		frames:   make(map[Handle]func(time.Time)),
		timers:   make(map[Handle]*time.Timer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start запускает цикл; он работает до отмены ctx или Stop
func (s *TickerScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop останавливает цикл и сбрасывает ожидающие кадры и таймеры.
// Уже поставленные задачи Post выполняются после выхода цикла, новые игнорируются.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.frames = make(map[Handle]func(time.Time))
	pending := s.posts
	s.posts = nil
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	for _, fn := range pending {
		fn()
	}
}

func (s *TickerScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
			s.runPosts()
		case now := <-ticker.C:
			s.runPosts()
			s.runFrames(now)
		}
	}
}

func (s *TickerScheduler) runPosts() {
	for {
		s.mu.Lock()
		if len(s.posts) == 0 || s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.posts
		s.posts = nil
		s.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

func (s *TickerScheduler) runFrames(now time.Time) {
	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return
	}
	ids := make([]Handle, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.frames[id]
		delete(s.frames, id)
		s.mu.Unlock()
		// кадр мог быть отменён предыдущим колбэком
		if ok {
			fn(now)
		}
	}
}

func (s *TickerScheduler) RequestFrame(fn func(now time.Time)) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextID++
	s.frames[s.nextID] = fn
	return s.nextID
}

func (s *TickerScheduler) CancelFrame(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frames, h)
}

func (s *TickerScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(d, func() {
		s.Post(func() {
			if s.takeTimer(id) {
				fn()
			}
		})
	})
	return id
}

func (s *TickerScheduler) takeTimer(id Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

func (s *TickerScheduler) CancelTimer(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

func (s *TickerScheduler) Post(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.posts = append(s.posts, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *TickerScheduler) Go(fn func()) {
	go fn()
}

func (s *TickerScheduler) Now() time.Time {
	return time.Now()
}

func (s *TickerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) + len(s.timers)
}

// ManualScheduler - детерминированный планировщик, тестовая фикстура.
// В рабочем коде не используется: сервис всегда создаёт TickerScheduler.
// Экспортирован для тестов пакета usecase.
// Время двигается только через Step/Advance, Go выполняется синхронно.
type ManualScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	now    time.Time
	nextID Handle
	frames map[Handle]func(time.Time)
	timers map[Handle]manualTimer
	posts  []func()
}

type manualTimer struct {
	due time.Time
	fn  func()
}

// NewManualScheduler создаёт планировщик с шагом кадра interval (<= 0 даёт 16ms)
func NewManualScheduler(interval time.Duration) *ManualScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &ManualScheduler{
		interval: interval,
		now:      time.Unix(0, 0),
		frames:   make(map[Handle]func(time.Time)),
		timers:   make(map[Handle]manualTimer),
	}
}

func (s *ManualScheduler) RequestFrame(fn func(now time.Time)) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.frames[s.nextID] = fn
	return s.nextID
}

func (s *ManualScheduler) CancelFrame(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frames, h)
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.timers[s.nextID] = manualTimer{due: s.now.Add(d), fn: fn}
	return s.nextID
}

func (s *ManualScheduler) CancelTimer(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, h)
}

func (s *ManualScheduler) Post(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, fn)
}

func (s *ManualScheduler) Go(fn func()) {
	fn()
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) + len(s.timers)
}

// Flush выполняет накопленные Post-задачи, не двигая время
func (s *ManualScheduler) Flush() {
	for {
		s.mu.Lock()
		if len(s.posts) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.posts[0]
		s.posts = s.posts[1:]
		s.mu.Unlock()
		fn()
	}
}

// Step сдвигает время на один кадр: задачи, наступившие таймеры, затем кадры
func (s *ManualScheduler) Step() {
	s.Flush()

	s.mu.Lock()
	s.now = s.now.Add(s.interval)
	now := s.now
	s.mu.Unlock()

	s.fireTimers(now)
	s.Flush()

	s.mu.Lock()
	ids := make([]Handle, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.frames[id]
		delete(s.frames, id)
		s.mu.Unlock()
		if ok {
			fn(now)
		}
	}
	s.Flush()
}

func (s *ManualScheduler) fireTimers(now time.Time) {
	for {
		s.mu.Lock()
		var (
			nextID Handle
			next   manualTimer
		)
		for id, t := range s.timers {
			if t.due.After(now) {
				continue
			}
			if nextID == 0 || t.due.Before(next.due) || (t.due.Equal(next.due) && id < nextID) {
				nextID, next = id, t
			}
		}
		if nextID == 0 {
			s.mu.Unlock()
			return
		}
		delete(s.timers, nextID)
		s.mu.Unlock()

		next.fn()
		s.Flush()
	}
}

// Advance шагает кадрами, пока не пройдёт d
func (s *ManualScheduler) Advance(d time.Duration) {
	steps := int((d + s.interval - 1) / s.interval)
	for i := 0; i < steps; i++ {
		s.Step()
	}
}

// RunUntilIdle шагает, пока не останется кадров, таймеров и задач, но не более maxSteps.
// Возвращает false, если лимит исчерпан.
func (s *ManualScheduler) RunUntilIdle(maxSteps int) bool {
	s.Flush()
	for i := 0; i < maxSteps; i++ {
		if s.Pending() == 0 {
			s.mu.Lock()
			idle := len(s.posts) == 0
			s.mu.Unlock()
			if idle {
				return true
			}
		}
		s.Step()
	}
	return s.Pending() == 0
}
