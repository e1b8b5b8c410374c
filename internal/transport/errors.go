package transport

import (
	"errors"
	"net/http"

	"majoe-store/internal/domain"
	"majoe-store/internal/middleware"
	"majoe-store/internal/repository"
	"majoe-store/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps a service or repository error to its error kind.
// Unknown errors are logged and reported as INTERNAL_ERROR.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		logger.Debug("Validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithValidationErrors(w, fieldErrors(verr))
		return
	}

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, middleware.CodeNotFound, "product not found")
	case errors.Is(err, repository.ErrStoreUnavailable):
		logger.Warn("Product store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, middleware.CodeStoreUnavailable, "product store unavailable, retry later")
	case errors.Is(err, repository.ErrDuplicateProduct):
		middleware.RespondWithError(w, middleware.CodeConflict, "product with this id already exists")
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrVariantUnavailable),
		errors.Is(err, service.ErrInsufficientStock):
		middleware.RespondWithError(w, middleware.CodeConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, middleware.CodeUnauthorized, "Credenciales incorrectas")
	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, middleware.CodeInternal, "internal server error")
	}
}

// respondDecodeError reports a body that failed to decode or to pass its tags
func respondDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithError(w, middleware.CodeValidation, "invalid request body")
}

func fieldErrors(verr *domain.ValidationError) []middleware.ValidationError {
	out := make([]middleware.ValidationError, len(verr.Fields))
	for i, f := range verr.Fields {
		out[i] = middleware.ValidationError{Field: f.Field, Message: f.Message}
	}
	return out
}
