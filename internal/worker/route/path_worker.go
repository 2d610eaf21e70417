package route

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/worker"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 20
	retryBackoff     = 200 * time.Millisecond
)

// PathPreparer строит и сохраняет геометрию сегментов маршрута
type PathPreparer interface {
	Prepare(ctx context.Context, routeID uuid.UUID) (int, error)
}

// PathWorker обрабатывает события подготовки геометрии маршрутов
type PathWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	preparer   PathPreparer
	batchSize  int
	maxRetries int
}

// NewPathWorker создает новый PathWorker
func NewPathWorker(
	streamRepo repository.StreamRepository,
	preparer PathPreparer,
	consumerGroup string,
	batchSize int,
	maxRetries int,
	logger *zap.Logger,
) *PathWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &PathWorker{
		BaseWorker: worker.NewBaseWorker("route-paths", consumerGroup, logger),
		streamRepo: streamRepo,
		preparer:   preparer,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// Start создаёт consumer group и обрабатывает стрим до остановки
func (w *PathWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting PathWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()),
		zap.Int("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamRoutePaths, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	return w.Poll(ctx, w.ProcessBatch)
}

// ProcessBatch читает и обрабатывает одну пачку событий.
// Возвращает количество прочитанных сообщений.
func (w *PathWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamRoutePaths, w.ConsumerGroup(), w.ConsumerName(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	ackIDs := make([]string, 0, len(messages))
	failed := 0
	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// битое сообщение подтверждаем, чтобы не застревало
			ackIDs = append(ackIDs, msg.ID)
			continue
		}

		done := w.prepare(ctx, event.RouteID)
		if done.Error != "" {
			failed++
		}

		if err := w.streamRepo.PublishToStream(ctx, domain.StreamRoutePathsDone, done); err != nil {
			logger.Error("Failed to publish done event",
				zap.String("route_id", event.RouteID.String()),
				zap.Error(err))
		}
		ackIDs = append(ackIDs, msg.ID)
	}

	if err := w.streamRepo.AckMessages(ctx, domain.StreamRoutePaths, w.ConsumerGroup(), ackIDs); err != nil {
		// не критично: сообщения будут переобработаны
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	logger.Info("Batch processed",
		zap.Int("messages", len(messages)),
		zap.Int("failed", failed))

	return len(messages), nil
}

// prepare вызывает подготовку с повторами; отсутствующий маршрут не повторяется
func (w *PathWorker) prepare(ctx context.Context, routeID uuid.UUID) *domain.RoutePathsDoneEvent {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		count, err := w.preparer.Prepare(ctx, routeID)
		if err == nil {
			return &domain.RoutePathsDoneEvent{RouteID: routeID, Segments: count}
		}
		lastErr = err

		if stderrors.Is(err, errors.ErrRouteNotFound) || stderrors.Is(err, errors.ErrInvalidRoute) || ctx.Err() != nil {
			break
		}

		w.Logger().Warn("Path preparation failed, retrying",
			zap.String("route_id", routeID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < w.maxRetries {
			select {
			case <-time.After(retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
			case <-w.StopChan():
			}
		}
	}

	w.Logger().Error("Path preparation failed",
		zap.String("route_id", routeID.String()),
		zap.Error(lastErr))
	return &domain.RoutePathsDoneEvent{RouteID: routeID, Error: lastErr.Error()}
}

func parseMessage(msg domain.StreamMessage) (*domain.RoutePathsEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing 'data' field")
	}

	var event domain.RoutePathsEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.RouteID == uuid.Nil {
		return nil, fmt.Errorf("empty route_id")
	}

	return &event, nil
}
