package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/core"
)

// mapCoreErrorToStatus maps errors from the core services to HTTP status codes and ErrorResponse.
// userMessage is the session's human-readable message, sent as details when present.
func mapCoreErrorToStatus(c *gin.Context, logger *zap.Logger, err error, userMessage string) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: core.ErrNotAuthenticated.Error()}
	case errors.Is(err, core.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: core.ErrInvalidCredentials.Error()}
	case errors.Is(err, core.ErrQuotaExceeded):
		statusCode = http.StatusPaymentRequired
		errResponse = ErrorResponse{Error: core.ErrQuotaExceeded.Error()}
	case errors.Is(err, core.ErrNotOwner):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrNotOwner.Error()}
	case errors.Is(err, core.ErrPostNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrPostNotFound.Error()}
	case errors.Is(err, core.ErrEmailInUse):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrEmailInUse.Error()}
	case errors.Is(err, core.ErrInvalidPlan):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidPlan.Error()}
	case errors.Is(err, core.ErrServiceUnavailable),
		errors.Is(err, core.ErrOfflineOrUnavailable),
		errors.Is(err, core.ErrNetwork):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Service unavailable"}
	case errors.Is(err, core.ErrFetchFailed):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: core.ErrFetchFailed.Error()}
	case errors.Is(err, core.ErrAuth):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrAuth.Error()}
	default:
		logger.Error("Internal Server Error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	if errResponse.Details == "" {
		errResponse.Details = userMessage
	}
	c.JSON(statusCode, errResponse)
}
