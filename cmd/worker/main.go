package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/infrastructure/mapbox"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/pkg/logger"
	"github.com/route-planner/internal/repository/cache"
	redisRepo "github.com/route-planner/internal/repository/redis"
	"github.com/route-planner/internal/repository/sqlstore"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/worker"
	"github.com/route-planner/internal/worker/route"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "route-planner-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Path Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Float64("simplify_tolerance", cfg.Worker.SimplifyTolerance))

	collector := metrics.NewCollector()

	// 3. Connect to route storage
	db, err := sqlstore.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	routeRepo := sqlstore.NewRouteRepository(db, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	mapboxClient := mapbox.NewProtectedClient(
		mapbox.NewMapboxClient(&cfg.Mapbox, log),
		&cfg.Mapbox,
		collector,
		log,
	)

	// 6. Initialize use cases
	routeMetrics := usecase.NewRouteMetrics(usecase.SpeedsFromConfig(cfg.Animation))
	pathBuilder := usecase.NewPathBuilder(mapboxClient, cacheRepo, cfg.Animation, cfg.Cache.DirectionsCacheTTL, collector, log)
	preparationUC := usecase.NewPathPreparationUseCase(
		routeRepo,
		pathBuilder,
		routeMetrics,
		cfg.Worker.SimplifyTolerance,
		collector,
		log,
	)

	// 7. Initialize workers
	pathWorker := route.NewPathWorker(
		streamRepo,
		preparationUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
		log,
	)

	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(pathWorker)

	// 8. Start workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
