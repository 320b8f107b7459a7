package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/a2developers/website/backend/go-services/internal/demo"
	"github.com/gin-gonic/gin"
)

// DemoService is what the demo endpoints need from the service layer.
type DemoService interface {
	Book(ctx context.Context, req demo.BookingRequest) (*demo.DemoRequest, error)
	List(ctx context.Context) ([]*demo.DemoRequest, error)
}

type DemoHandler struct {
	svc DemoService
}

func NewDemoHandler(svc DemoService) *DemoHandler {
	return &DemoHandler{svc: svc}
}

// Book handles POST /api/book-demo.
func (h *DemoHandler) Book(c *gin.Context) {
	var req demo.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		respondError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	d, err := h.svc.Book(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, msgBookFailed)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Demo booked successfully!",
		"demo":    d.Summary(),
	})
}

// List handles GET /api/demos.
func (h *DemoHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, msgListFailed)
		return
	}
	out := make([]demo.Summary, 0, len(list))
	for _, d := range list {
		out = append(out, d.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "demos": out})
}
