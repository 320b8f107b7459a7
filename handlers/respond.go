package handlers

import (
	"errors"
	"net/http"

	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/a2developers/website/backend/go-services/internal/demo"
	"github.com/a2developers/website/backend/go-services/pkg/logger"
	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody    = "Invalid request body"
	msgBodyTooLarge   = "Request body too large"
	msgNotConnected   = "Database not connected"
	msgBookFailed     = "Failed to book demo"
	msgListFailed     = "Failed to fetch demos"
	msgNotFound       = "Not found"
	msgInternalServer = "Internal server error"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServiceError maps a service error onto the HTTP envelope. Details of
// unexpected failures are logged, never returned.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var ve *demo.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, database.ErrNotConnected):
		respondError(c, http.StatusServiceUnavailable, msgNotConnected)
	default:
		logger.ErrorContext(c.Request.Context(), fallback, "error", err, "request_id", c.GetString(middleware.CtxRequestID))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
