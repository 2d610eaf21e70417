package main

// @title Route Planner API
// @version 1.0.0
// @description Сервис маршрутов путешествий и анимации пролёта камеры по ним.
// @description
// @description Основные возможности:
// @description - Хранение маршрутов из точек с видом транспорта на каждый сегмент
// @description - Поиск мест и предпросмотр пути сегмента (дуга для перелёта, дорога для наземных сегментов)
// @description - Статическая сцена маршрута: слои, маркеры и камера
// @description - Сессии пролёта с публикацией команд рендера в NATS

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/route-planner/docs"
	"github.com/route-planner/internal/config"
	httpDelivery "github.com/route-planner/internal/delivery/http"
	"github.com/route-planner/internal/delivery/http/handler"
	"github.com/route-planner/internal/infrastructure/mapbox"
	"github.com/route-planner/internal/infrastructure/natsbus"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/pkg/logger"
	"github.com/route-planner/internal/repository/cache"
	redisRepo "github.com/route-planner/internal/repository/redis"
	"github.com/route-planner/internal/repository/sqlstore"
	"github.com/route-planner/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "route-planner-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Planner API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("db_driver", cfg.Database.Driver),
	)

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

	// 5. NATS is optional: without it sessions keep their scene in memory only
	var publisher usecase.RenderPublisher
	var natsPublisher *natsbus.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err = natsbus.Connect(&cfg.NATS, collector, log)
		if err != nil {
			log.Warn("NATS unavailable, render commands will not be published", zap.Error(err))
		} else {
			publisher = natsPublisher
			defer natsPublisher.Close()
		}
	}

	// 6. Initialize repositories and clients
	routeRepo := sqlstore.NewRouteRepository(db, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	mapboxClient := mapbox.NewProtectedClient(
		mapbox.NewMapboxClient(&cfg.Mapbox, log),
		&cfg.Mapbox,
		collector,
		log,
	)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	routeMetrics := usecase.NewRouteMetrics(usecase.SpeedsFromConfig(cfg.Animation))
	pathBuilder := usecase.NewPathBuilder(mapboxClient, cacheRepo, cfg.Animation, cfg.Cache.DirectionsCacheTTL, collector, log)
	sceneDefaults := usecase.SceneOptionsFromConfig(cfg.Map)

	routeUC := usecase.NewRouteUseCase(routeRepo, streamRepo, routeMetrics, log)
	placeUC := usecase.NewPlaceUseCase(mapboxClient, cacheRepo, cfg.Cache.PlacesCacheTTL, log)
	pathUC := usecase.NewPathUseCase(pathBuilder, routeMetrics)
	sceneUC := usecase.NewSceneUseCase(routeRepo, pathBuilder, routeMetrics, cfg.Animation, sceneDefaults, log)
	animationUC := usecase.NewAnimationUseCase(
		routeUC,
		pathBuilder,
		routeMetrics,
		publisher,
		cfg.Animation,
		sceneDefaults,
		cfg.Session.MaxActive,
		collector,
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	health := handler.NewHealthHandler(log)
	health.Register("database", db.Health)
	health.Register("redis", redisClient.Health)
	if natsPublisher != nil {
		health.Register("nats", func(context.Context) error { return natsPublisher.Health() })
	}

	handlers := httpDelivery.Handlers{
		Health:     health,
		Routes:     handler.NewRouteHandler(routeUC, sceneUC, log),
		Places:     handler.NewPlaceHandler(placeUC, pathUC, log),
		Animations: handler.NewAnimationHandler(animationUC, log),
		Metrics:    collector.Handler(),
	}

	// 9. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, log, handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// stop sessions before closing NATS so the final clear is published
	animationUC.Shutdown()

	log.Info("Server stopped successfully")
}
