package usecase

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
)

// DefaultAutocompleteDelay - пауза ввода перед запросом к геокодеру
const DefaultAutocompleteDelay = 300 * time.Millisecond

// PlaceSearcher - источник подсказок
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// Suggestions - результат для одного значения поля ввода
type Suggestions struct {
	Seq    uint64
	Query  string
	Places []domain.Place
}

// Autocomplete превращает поток нажатий в редкие запросы поиска.
// Каждому вводу выдаётся номер; ответ на устаревший ввод отбрасывается.
type Autocomplete struct {
	searcher  PlaceSearcher
	delay     time.Duration
	limit     int
	onResults func(Suggestions)
	logger    *zap.Logger

	mu        sync.Mutex
	seq       uint64
	delivered uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	closed    bool
}

// NewAutocomplete создаёт автодополнение; delay <= 0 даёт 300 мс
func NewAutocomplete(searcher PlaceSearcher, delay time.Duration, limit int, onResults func(Suggestions), logger *zap.Logger) *Autocomplete {
	if delay <= 0 {
		delay = DefaultAutocompleteDelay
	}
	return &Autocomplete{
		searcher:  searcher,
		delay:     delay,
		limit:     limit,
		onResults: onResults,
		logger:    logger,
	}
}

// Input сообщает новое значение поля. Короткий запрос сразу очищает подсказки.
func (a *Autocomplete) Input(query string) {
	query = strings.TrimSpace(query)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.seq++
	seq := a.seq
	a.stopLocked()

	if utf8.RuneCountInString(query) < MinQueryLength {
		a.mu.Unlock()
		a.deliver(Suggestions{Seq: seq, Query: query, Places: []domain.Place{}})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.timer = time.AfterFunc(a.delay, func() { a.run(ctx, seq, query) })
	a.mu.Unlock()
}

// Close отменяет ожидающий и выполняющийся запросы
func (a *Autocomplete) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.stopLocked()
}

func (a *Autocomplete) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Autocomplete) run(ctx context.Context, seq uint64, query string) {
	places, err := a.searcher.Search(ctx, query, a.limit)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Debug("Autocomplete search failed", zap.String("query", query), zap.Error(err))
		}
		return
	}
	a.deliver(Suggestions{Seq: seq, Query: query, Places: places})
}

// deliver отдаёт результат, только если с тех пор не было нового ввода
func (a *Autocomplete) deliver(s Suggestions) {
	a.mu.Lock()
	stale := s.Seq != a.seq || s.Seq <= a.delivered || a.closed
	if !stale {
		a.delivered = s.Seq
	}
	a.mu.Unlock()
	if stale {
		a.logger.Debug("Dropping stale suggestions", zap.Uint64("seq", s.Seq))
		return
	}
	if a.onResults != nil {
		a.onResults(s)
	}
}
