package worker

import "context"

// Worker - фоновый обработчик очереди
type Worker interface {
	// Start блокирует до остановки воркера или отмены ctx
	Start(ctx context.Context) error
	Stop() error
	Name() string
}
