package handlers

import (
	"net/http"
	"time"

	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/gin-gonic/gin"
)

const (
	apiVersion = "1.0.0"
	// millisecond ISO-8601, e.g. 2026-01-02T03:04:05.678Z
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// StatusSource reports the persistence connection; *database.Supervisor implements it.
type StatusSource interface {
	Status() database.Status
}

type HealthHandler struct {
	status      StatusSource
	environment string
	now         func() time.Time
}

func NewHealthHandler(status StatusSource, environment string) *HealthHandler {
	return &HealthHandler{status: status, environment: environment, now: time.Now}
}

// Root handles GET / with service metadata.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to A2 Developers API",
		"version": apiVersion,
		"endpoints": gin.H{
			"root":      "/",
			"health":    "/api/health",
			"bookDemo":  "/api/book-demo",
			"listDemos": "/api/demos",
		},
	})
}

// Health always answers 200; the mongodb field carries the connection state.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   h.now().UTC().Format(timestampLayout),
		"mongodb":     h.status.Status().State.String(),
		"environment": h.environment,
	})
}

// Ready answers 503 until the database is connected.
func (h *HealthHandler) Ready(c *gin.Context) {
	st := h.status.Status()
	if st.State != database.StateConnected {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":           "not_ready",
			"mongodb":          st.State.String(),
			"retriesExhausted": st.RetriesExhausted,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "mongodb": st.State.String()})
}
