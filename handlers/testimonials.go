package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waveline/waveline-backend/internal/testimonials"
	"github.com/waveline/waveline-backend/pkg/logger"
)

// TestimonialsHandler serves the testimonial CRUD. No slugs here, so the
// surface is the content one minus the slug query.
type TestimonialsHandler struct {
	svc *testimonials.Service
}

func NewTestimonialsHandler(svc *testimonials.Service) *TestimonialsHandler {
	return &TestimonialsHandler{svc: svc}
}

func (h *TestimonialsHandler) Register(pub, admin *gin.RouterGroup) {
	pub.GET("/testimonials", h.List)

	a := admin.Group("/testimonials")
	a.POST("", h.Create)
	a.PUT("/:id", h.Update)
	a.DELETE("/:id", h.Delete)
}

func (h *TestimonialsHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), publishedOnly(c))
	if err != nil {
		logger.Errorf("testimonials: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *TestimonialsHandler) Create(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tm, err := h.svc.Create(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": tm})
}

func (h *TestimonialsHandler) Update(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tm, err := h.svc.Update(c.Request.Context(), id, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": tm})
}

func (h *TestimonialsHandler) Delete(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *TestimonialsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, testimonials.ErrNameRequired), errors.Is(err, testimonials.ErrTextRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, testimonials.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.Errorf("testimonials: write failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
