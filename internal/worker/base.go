package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// errorPause - пауза после неудачной пачки
	errorPause = time.Second
	// idlePause - пауза, если очередь пуста
	idlePause = 100 * time.Millisecond
)

// BatchFunc обрабатывает одну пачку и возвращает число прочитанных сообщений
type BatchFunc func(ctx context.Context) (int, error)

// BaseWorker - общая часть воркеров Redis Streams: имя, consumer group, остановка и цикл опроса
type BaseWorker struct {
	name          string
	consumerGroup string
	consumerName  string
	logger        *zap.Logger

	errorPause time.Duration
	idlePause  time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// NewBaseWorker создает BaseWorker; имя consumer'а - hostname-pid
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	hostname, _ := os.Hostname()
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		consumerName:  fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		logger:        logger.With(zap.String("worker", name)),
		errorPause:    errorPause,
		idlePause:     idlePause,
		stopChan:      make(chan struct{}),
	}
}

// SetPauses меняет паузы цикла опроса (для тестов)
func (w *BaseWorker) SetPauses(onError, onIdle time.Duration) {
	w.errorPause = onError
	w.idlePause = onIdle
}

func (w *BaseWorker) Name() string          { return w.name }
func (w *BaseWorker) ConsumerGroup() string { return w.consumerGroup }
func (w *BaseWorker) ConsumerName() string  { return w.consumerName }
func (w *BaseWorker) Logger() *zap.Logger   { return w.logger }

// Stop останавливает воркер; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped проверяет, остановлен ли воркер
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan возвращает канал остановки
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// Poll крутит process, пока воркер не остановят или не отменят ctx
func (w *BaseWorker) Poll(ctx context.Context, process BatchFunc) error {
	for {
		select {
		case <-w.StopChan():
			w.logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			w.logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := process(ctx)
			if err != nil {
				w.logger.Error("Failed to process batch", zap.Error(err))
				w.sleep(ctx, w.errorPause)
				continue
			}
			if processed == 0 {
				w.sleep(ctx, w.idlePause)
			}
		}
	}
}

// sleep прерывается остановкой воркера или ctx
func (w *BaseWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-w.StopChan():
	case <-ctx.Done():
	}
}
