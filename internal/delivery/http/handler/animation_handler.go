package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/pkg/validator"
	"github.com/route-planner/internal/scene"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// AnimationService управляет сессиями пролёта
type AnimationService interface {
	Create(ctx context.Context, req dto.CreateAnimationRequest) (*dto.AnimationSessionResponse, error)
	Get(id uuid.UUID) (*dto.AnimationSessionResponse, error)
	List() []dto.AnimationSessionResponse
	Scene(id uuid.UUID) (*scene.Snapshot, error)
	Pause(id uuid.UUID) (*dto.AnimationSessionResponse, error)
	Resume(id uuid.UUID) (*dto.AnimationSessionResponse, error)
	Delete(id uuid.UUID) error
}

// AnimationHandler - обработчик сессий анимации
type AnimationHandler struct {
	animations AnimationService
	logger     *zap.Logger
}

// NewAnimationHandler - создание нового AnimationHandler
func NewAnimationHandler(animations AnimationService, logger *zap.Logger) *AnimationHandler {
	return &AnimationHandler{
		animations: animations,
		logger:     logger,
	}
}

// Create godoc
// @Summary Запуск пролёта
// @Description Запускает анимацию по сохранённому маршруту (route_id) или по переданным сегментам. Команды рендера публикуются в NATS на subject сессии.
// @Tags Animations
// @Accept json
// @Produce json
// @Param request body dto.CreateAnimationRequest true "Параметры сессии"
// @Success 201 {object} utils.SuccessResponse{data=dto.AnimationSessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/animations [post]
func (h *AnimationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAnimationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}
	if req.RouteID == "" && len(req.Segments) == 0 {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("route_id or segments is required"))
	}

	result, err := h.animations.Create(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Info("Animation session started",
		zap.String("session_id", result.ID),
		zap.Int("segments", result.Segments))

	return utils.SendCreated(c, result)
}

// List godoc
// @Summary Активные сессии
// @Tags Animations
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]dto.AnimationSessionResponse}
// @Router /api/v1/animations [get]
func (h *AnimationHandler) List(c *fiber.Ctx) error {
	sessions := h.animations.List()
	return utils.SendSuccess(c, sessions, &utils.Meta{Total: len(sessions)})
}

// Get godoc
// @Summary Состояние сессии
// @Description Состояние анимации и readout текущего сегмента
// @Tags Animations
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.AnimationSessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/animations/{id} [get]
func (h *AnimationHandler) Get(c *fiber.Ctx) error {
	return h.withSession(c, h.animations.Get)
}

// Scene godoc
// @Summary Текущая сцена сессии
// @Tags Animations
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=scene.Snapshot}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/animations/{id}/scene [get]
func (h *AnimationHandler) Scene(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	snapshot, err := h.animations.Scene(id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, snapshot, nil)
}

// Pause godoc
// @Summary Пауза
// @Tags Animations
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.AnimationSessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/animations/{id}/pause [post]
func (h *AnimationHandler) Pause(c *fiber.Ctx) error {
	return h.withSession(c, h.animations.Pause)
}

// Resume godoc
// @Summary Продолжение после паузы
// @Tags Animations
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.AnimationSessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/animations/{id}/resume [post]
func (h *AnimationHandler) Resume(c *fiber.Ctx) error {
	return h.withSession(c, h.animations.Resume)
}

// Delete godoc
// @Summary Остановка и удаление сессии
// @Tags Animations
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/animations/{id} [delete]
func (h *AnimationHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.animations.Delete(id); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AnimationHandler) withSession(c *fiber.Ctx, fn func(uuid.UUID) (*dto.AnimationSessionResponse, error)) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := fn(id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}
