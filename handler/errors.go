package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrNotAvailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": reason}. Internal errors are logged and
// their details withheld.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondList writes a list, degrading to [] when the store is unreachable.
func respondList[T any](c *gin.Context, items []T, err error) {
	if errors.Is(err, service.ErrNotAvailable) {
		logger.Warn(c.Request.Context(), "store unavailable, returning empty list", "error", err)
		c.JSON(http.StatusOK, []T{})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}

// respondItem writes a single record, degrading to null when the store is
// unreachable.
func respondItem(c *gin.Context, item any, err error) {
	if errors.Is(err, service.ErrNotAvailable) {
		logger.Warn(c.Request.Context(), "store unavailable, returning null", "error", err)
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// intParam parses a positive integer path or query value.
func intParam(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
