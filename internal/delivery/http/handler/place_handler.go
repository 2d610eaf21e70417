package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/pkg/validator"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// PlaceSearcher ищет места по тексту
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// PathPreviewer строит путь одного сегмента
type PathPreviewer interface {
	Preview(ctx context.Context, req dto.PathPreviewRequest) (*dto.PathPreviewResponse, error)
}

// PlaceHandler - поиск мест и предпросмотр путей
type PlaceHandler struct {
	places PlaceSearcher
	paths  PathPreviewer
	logger *zap.Logger
}

// NewPlaceHandler - создание нового PlaceHandler
func NewPlaceHandler(places PlaceSearcher, paths PathPreviewer, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{
		places: places,
		paths:  paths,
		logger: logger,
	}
}

// Search godoc
// @Summary Поиск мест
// @Description Геокодирование по тексту; запрос короче 2 символов возвращает пустой список без обращения к геокодеру
// @Tags Places
// @Produce json
// @Param q query string true "Поисковый запрос"
// @Param limit query int false "Максимальное количество результатов" default(5)
// @Success 200 {object} utils.SuccessResponse{data=dto.PlaceSearchResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/places/search [get]
func (h *PlaceHandler) Search(c *fiber.Ctx) error {
	req := dto.PlaceSearchRequest{
		Query: c.Query("q"),
		Limit: c.QueryInt("limit", 0),
	}
	if err := validator.Validate(&req); err != nil {
		// короткий запрос - не ошибка, а пустой результат
		if len([]rune(req.Query)) < 2 {
			return utils.SendSuccess(c, dto.PlaceSearchResponse{Results: []domain.Place{}}, &utils.Meta{})
		}
		return utils.SendError(c, err)
	}

	places, err := h.places.Search(c.UserContext(), req.Query, req.Limit)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.PlaceSearchResponse{
		Results: places,
		Total:   len(places),
	}, &utils.Meta{Total: len(places)})
}

// PreviewPath godoc
// @Summary Предпросмотр пути сегмента
// @Description Путь между двумя точками для вида транспорта: дуга для flight, дорога для drive/train/walk с прямой линией при недоступности directions
// @Tags Paths
// @Accept json
// @Produce json
// @Param request body dto.PathPreviewRequest true "Сегмент"
// @Success 200 {object} utils.SuccessResponse{data=dto.PathPreviewResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/paths [post]
func (h *PlaceHandler) PreviewPath(c *fiber.Ctx) error {
	var req dto.PathPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.paths.Preview(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}
