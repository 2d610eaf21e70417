package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/pkg/validator"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteService - операции над сохранёнными маршрутами
type RouteService interface {
	Create(ctx context.Context, req dto.CreateRouteRequest) (*dto.CreatedResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.RouteResponse, error)
	List(ctx context.Context, limit, offset int) (*dto.RouteListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateRouteRequest) (*dto.RouteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Paths(ctx context.Context, id uuid.UUID) (*dto.RoutePathsResponse, error)
}

// SceneService собирает статическую сцену маршрута
type SceneService interface {
	Snapshot(ctx context.Context, routeID uuid.UUID, overrides dto.SceneOptionsInput) (*dto.SceneResponse, error)
}

// RouteHandler - обработчик CRUD маршрутов
type RouteHandler struct {
	routes RouteService
	scenes SceneService
	logger *zap.Logger
}

// NewRouteHandler - создание нового RouteHandler
func NewRouteHandler(routes RouteService, scenes SceneService, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routes: routes,
		scenes: scenes,
		logger: logger,
	}
}

// Create godoc
// @Summary Создание маршрута
// @Description Сохраняет маршрут из упорядоченных точек; вид транспорта точки задаёт сегмент, который в неё ведёт. Геометрия сегментов готовится в фоне.
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body dto.CreateRouteRequest true "Маршрут"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/routes [post]
func (h *RouteHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routes.Create(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, result)
}

// Get godoc
// @Summary Получение маршрута
// @Tags Routes
// @Produce json
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routes.Get(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// List godoc
// @Summary Список маршрутов
// @Description Маршруты от новых к старым
// @Tags Routes
// @Produce json
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteListResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/routes [get]
func (h *RouteHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	result, err := h.routes.List(c.UserContext(), limit, offset)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:  result.Total,
		Limit:  limit,
		Offset: offset,
	})
}

// Update godoc
// @Summary Изменение маршрута
// @Tags Routes
// @Accept json
// @Produce json
// @Param id path string true "ID маршрута"
// @Param request body dto.UpdateRouteRequest true "Маршрут"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [put]
func (h *RouteHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routes.Update(c.UserContext(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// Delete godoc
// @Summary Удаление маршрута
// @Tags Routes
// @Param id path string true "ID маршрута"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [delete]
func (h *RouteHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.routes.Delete(c.UserContext(), id); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Paths godoc
// @Summary Подготовленная геометрия маршрута
// @Description Упрощённые пути сегментов в формате encoded polyline; ready=false, пока воркер не закончил
// @Tags Routes
// @Produce json
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=dto.RoutePathsResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/paths [get]
func (h *RouteHandler) Paths(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routes.Paths(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: len(result.Segments)})
}

// Scene godoc
// @Summary Статическая сцена маршрута
// @Description Слои, источники, маркеры и камера, вписанная в маршрут, без анимации
// @Tags Routes
// @Produce json
// @Param id path string true "ID маршрута"
// @Param style query string false "Стиль карты (streets, satellite, dark, outdoors)"
// @Param terrain query bool false "Рельеф"
// @Param fog query bool false "Туман"
// @Param globe query bool false "Проекция глобуса"
// @Param buildings query bool false "3D здания"
// @Success 200 {object} utils.SuccessResponse{data=dto.SceneResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/scene [get]
func (h *RouteHandler) Scene(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	overrides := sceneOverrides(c)
	if err := validator.Validate(&overrides); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.scenes.Snapshot(c.UserContext(), id, overrides)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// sceneOverrides читает переопределения сцены из query; отсутствующий параметр не меняет значение
func sceneOverrides(c *fiber.Ctx) dto.SceneOptionsInput {
	flag := func(key string) *bool {
		if c.Query(key) == "" {
			return nil
		}
		v := c.QueryBool(key)
		return &v
	}
	return dto.SceneOptionsInput{
		Style:     c.Query("style"),
		Terrain:   flag("terrain"),
		Fog:       flag("fog"),
		Globe:     flag("globe"),
		Buildings: flag("buildings"),
	}
}
