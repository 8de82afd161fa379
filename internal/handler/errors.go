package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/floodwatch/auth-bridge/internal/dto"
	"github.com/floodwatch/auth-bridge/internal/service"
)

// writeError maps the bridge error taxonomy onto stable HTTP statuses and
// code strings. Invalid and expired tokens keep distinct codes and messages
// so clients can prompt "sign in again" vs "session expired".
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Code:    "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not found",
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Code:    "invalid_token",
			Message: "Token was never issued, please sign in again",
		})
	case errors.Is(err, service.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Code:    "expired_token",
			Message: "Session expired, request a new token",
		})
	case errors.Is(err, service.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, dto.ErrorResponse{
			Error:   "Timeout",
			Code:    "timeout",
			Message: "Storage timed out, retry with backoff",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Code:    "internal",
			Message: "Request failed",
		})
	}
}
