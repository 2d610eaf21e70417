package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/usecase"
)

// blockingSearcher отвечает на запрос, только когда тест отпустит соответствующий канал
type blockingSearcher struct {
	mu      sync.Mutex
	queries []string
	release map[string]chan struct{}
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{release: make(map[string]chan struct{})}
}

func (s *blockingSearcher) gate(q string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.release[q]
	if !ok {
		ch = make(chan struct{})
		s.release[q] = ch
	}
	return ch
}

func (s *blockingSearcher) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	<-s.gate(query)
	return []domain.Place{{ID: query, DisplayName: query}}, nil
}

func (s *blockingSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type collector struct {
	mu  sync.Mutex
	got []usecase.Suggestions
}

func (c *collector) add(s usecase.Suggestions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, s)
}

func (c *collector) all() []usecase.Suggestions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]usecase.Suggestions(nil), c.got...)
}

func TestAutocomplete_DebouncesTyping(t *testing.T) {
	searcher := newBlockingSearcher()
	close(searcher.gate("pari"))
	out := &collector{}
	ac := usecase.NewAutocomplete(searcher, 30*time.Millisecond, 5, out.add, zap.NewNop())
	defer ac.Close()

	for _, q := range []string{"p", "pa", "par", "pari"} {
		ac.Input(q)
	}

	require.Eventually(t, func() bool { return len(out.all()) == 2 }, time.Second, 5*time.Millisecond)
	// "p" очищает подсказки сразу, из остального до геокодера дошёл только последний ввод
	assert.Equal(t, []string{"pari"}, searcher.seen())
	got := out.all()
	assert.Empty(t, got[0].Places)
	assert.Equal(t, "pari", got[1].Query)
	assert.Equal(t, uint64(4), got[1].Seq)
}

func TestAutocomplete_StaleResponseDropped(t *testing.T) {
	searcher := newBlockingSearcher()
	out := &collector{}
	ac := usecase.NewAutocomplete(searcher, 10*time.Millisecond, 5, out.add, zap.NewNop())
	defer ac.Close()

	ac.Input("lon")
	require.Eventually(t, func() bool { return len(searcher.seen()) == 1 }, time.Second, 2*time.Millisecond)

	ac.Input("lond")
	require.Eventually(t, func() bool { return len(searcher.seen()) == 2 }, time.Second, 2*time.Millisecond)

	// новый ответ приходит раньше старого
	close(searcher.gate("lond"))
	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 2*time.Millisecond)
	close(searcher.gate("lon"))
	time.Sleep(30 * time.Millisecond)

	got := out.all()
	require.Len(t, got, 1)
	assert.Equal(t, "lond", got[0].Query)
}

func TestAutocomplete_CloseCancelsPending(t *testing.T) {
	searcher := newBlockingSearcher()
	out := &collector{}
	ac := usecase.NewAutocomplete(searcher, 20*time.Millisecond, 5, out.add, zap.NewNop())

	ac.Input("berlin")
	ac.Close()
	ac.Input("bern")
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, searcher.seen())
	assert.Empty(t, out.all())
}
