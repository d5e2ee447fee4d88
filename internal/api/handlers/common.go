package handlers

import (
	"net/http"

	"github.com/flashsale/checkout/internal/api/middleware"
	"github.com/flashsale/checkout/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondData wraps a success payload in the {data: ...} envelope.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// respondError maps err to its HTTP status and stable message string and
// writes the response. An error that resolves to a 500 is logged with full
// context first; business and validation failures are expected outcomes
// and are left to the request logger's completion line.
func respondError(c *gin.Context, logger zerolog.Logger, op string, err error) {
	status := apperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("op", op).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON binds and validates the request body, responding with 422 and
// returning false on failure so the caller can return immediately.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return false
	}
	return true
}
