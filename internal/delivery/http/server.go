package http

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/delivery/http/handler"
	"github.com/route-planner/internal/delivery/http/middleware"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Handlers - обработчики, которые регистрирует сервер
type Handlers struct {
	Health     *handler.HealthHandler
	Routes     *handler.RouteHandler
	Places     *handler.PlaceHandler
	Animations *handler.AnimationHandler
	// Metrics - prometheus-обработчик; nil отключает /metrics
	Metrics http.Handler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	handlers Handlers
}

// NewServer - создание нового HTTP сервера
func NewServer(cfg *config.Config, logger *zap.Logger, handlers Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Route Planner",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App возвращает приложение fiber (для app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	if s.handlers.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.handlers.Metrics))
	}

	api := s.app.Group("/api/v1")

	if s.handlers.Health != nil {
		api.Get("/health", s.handlers.Health.Health)
	}

	if h := s.handlers.Routes; h != nil {
		api.Post("/routes", h.Create)
		api.Get("/routes", h.List)
		api.Get("/routes/:id", h.Get)
		api.Put("/routes/:id", h.Update)
		api.Delete("/routes/:id", h.Delete)
		api.Get("/routes/:id/paths", h.Paths)
		api.Get("/routes/:id/scene", h.Scene)
	}

	if h := s.handlers.Places; h != nil {
		api.Get("/places/search", h.Search)
		api.Post("/paths", h.PreviewPath)
	}

	if h := s.handlers.Animations; h != nil {
		api.Post("/animations", h.Create)
		api.Get("/animations", h.List)
		api.Get("/animations/:id", h.Get)
		api.Get("/animations/:id/scene", h.Scene)
		api.Post("/animations/:id/pause", h.Pause)
		api.Post("/animations/:id/resume", h.Resume)
		api.Delete("/animations/:id", h.Delete)
	}
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не обработанные хендлерами (404 роутера, паники), в формате ErrorResponse
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			code := "HTTP_ERROR"
			if fe.Code == fiber.StatusNotFound {
				code = "NOT_FOUND"
			}
			return utils.SendError(c, errors.New(code, fe.Message, fe.Code))
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		return utils.SendError(c, err)
	}
}
