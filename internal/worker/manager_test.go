package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/worker"
)

type pollWorker struct {
	*worker.BaseWorker
	calls int
}

func (w *pollWorker) Start(ctx context.Context) error {
	return w.Poll(ctx, func(ctx context.Context) (int, error) {
		w.calls++
		return 0, nil
	})
}

func TestWorkerManager_StartStop(t *testing.T) {
	base := worker.NewBaseWorker("poll", "group", zap.NewNop())
	base.SetPauses(time.Millisecond, time.Millisecond)
	w := &pollWorker{BaseWorker: base}

	m := worker.NewWorkerManager(zap.NewNop(), time.Second)
	m.Register(w)

	require.NoError(t, m.Start(context.Background()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Stop())

	assert.True(t, w.IsStopped())
	assert.Greater(t, w.calls, 0)
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), 0)
	assert.Error(t, m.Start(context.Background()))
}

func TestBaseWorker_PollReturnsOnCancel(t *testing.T) {
	base := worker.NewBaseWorker("poll", "group", zap.NewNop())
	base.SetPauses(time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := base.Poll(ctx, func(context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBaseWorker_StopIsIdempotent(t *testing.T) {
	base := worker.NewBaseWorker("poll", "group", zap.NewNop())
	require.NoError(t, base.Stop())
	require.NoError(t, base.Stop())
	assert.True(t, base.IsStopped())
}
