package utils

import (
	"errors"
	"net/http"

	apperrors "pem-system/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
	Total   *uint64     `json:"total,omitempty"`
}

type HttpErrorResponse struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(total) > 0 {
		response.Total = &total[0]
	}
	return ctx.JSON(code, response)
}

// ErrorResponse приводит любую ошибку к единому JSON-ответу.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	message := err.Error()
	var details map[string]interface{}

	var validationErrs validator.ValidationErrors
	var domainValidation *apperrors.ValidationError
	var httpErr *apperrors.HttpError

	switch {
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		message = apperrors.ErrValidation.Error()
		fields := make(map[string]interface{}, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		details = map[string]interface{}{"fields": fields}
	case errors.As(err, &domainValidation):
		message = domainValidation.Message
		if len(domainValidation.Fields) > 0 {
			details = map[string]interface{}{"fields": domainValidation.Fields}
		}
	case errors.As(err, &httpErr):
		message = httpErr.Message
		details = httpErr.Details
	}

	if code >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("Внутренняя ошибка при обработке запроса",
				zap.String("method", ctx.Request().Method),
				zap.String("uri", ctx.Request().RequestURI),
				zap.Error(err),
			)
		}
		message = "Erro interno do servidor"
		details = nil
	}

	return ctx.JSON(code, &HttpErrorResponse{
		Status:  false,
		Message: message,
		Error:   message,
		Details: details,
	})
}
