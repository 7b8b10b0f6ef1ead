package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

func errorResponse(msg string) map[string]string {
	return map[string]string{
		"status":  "error",
		"message": msg,
	}
}

func successResponse[T interface{}](msg string, data T) map[string]interface{} {
	return map[string]interface{}{
		"status":  "success",
		"message": msg,
		"data":    data,
	}
}

func validationErrorResponse(err error) map[string]interface{} {
	var verrs validator.ValidationErrors

	if !errors.As(err, &verrs) {
		return map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		}
	}

	return map[string]interface{}{
		"status":  "error",
		"message": "validation failed",
		"errors": lo.Map(verrs, func(item validator.FieldError, index int) string {
			return item.Error()
		}),
	}
}
