package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/errors"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/metrics"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError sends a structured API error response. Server-side
// failures are logged with their cause and reported with a generic message.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	requestID := c.GetString("request_id")

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.Int("status", apiErr.Status),
			logger.WithRequestID(requestID),
			zap.Error(apiErr.Unwrap()),
		)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
			logger.WithRequestID(requestID),
		)
	}

	metrics.RecordError(string(apiErr.Code), c.FullPath())

	response := ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	}
	c.JSON(apiErr.Status, response)
}

// RespondError converts any error into an API error response
func RespondError(c *gin.Context, err error) {
	RespondWithAPIError(c, errors.From(err))
}

// RespondUnauthorized sends a 401 AUTHENTICATION_REQUIRED response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := ""
	if len(message) > 0 {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.AuthenticationRequired(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondValidationError sends a 400 VALIDATION_FAILED response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationFailed(field, message))
}
