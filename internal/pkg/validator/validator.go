package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// transport_mode - одно из flight, drive, train, walk
	_ = validate.RegisterValidation("transport_mode", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseTransportMode(fl.Field().String())
		return ok
	})
}

// Validate - валидация структуры; ошибки превращаются в INVALID_REQUEST с деталями по полям
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Namespace()] = fe.Tag()
	}
	return errors.ErrInvalidRequest.WithDetails(details)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
