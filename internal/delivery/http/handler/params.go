package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/route-planner/internal/pkg/errors"
)

// parseID разбирает UUID из параметра пути
func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			name: "must be a valid UUID",
		})
	}
	return id, nil
}

// invalidBody - ошибка разбора тела запроса
func invalidBody(err error) error {
	return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
		"body": err.Error(),
	})
}
