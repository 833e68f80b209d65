package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
	"feedbackhub/feedback-service/internal/app/feedback/source"
	"feedbackhub/pkg/logger"
)

// respondError сводит ошибку сервиса к HTTP-коду.
// Ошибки провайдеров классифицируются через source.Classify
func respondError(c *gin.Context, err error, fallback string) {
	status, kind := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = ""
	}

	c.JSON(status, entity.ErrorResponse{Error: fallback, Kind: string(kind), Message: message})
}

func statusFor(err error) (int, source.ErrorKind) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrHistoryNotFound),
		errors.Is(err, service.ErrStatusNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingOwner):
		return http.StatusBadRequest, source.KindValidation
	case errors.Is(err, service.ErrNotRestorable):
		return http.StatusConflict, ""
	case errors.Is(err, service.ErrAsyncUnavailable):
		return http.StatusPreconditionFailed, source.KindConfiguration
	}

	kind := source.Classify(err)
	switch kind {
	case source.KindValidation:
		return http.StatusBadRequest, kind
	case source.KindConfiguration:
		return http.StatusPreconditionFailed, kind
	case source.KindAuth:
		// ключ провайдера отвергнут, токен пользователя тут ни при чем
		return http.StatusForbidden, kind
	case source.KindRateLimit:
		return http.StatusTooManyRequests, kind
	case source.KindUpstream:
		return http.StatusBadGateway, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
