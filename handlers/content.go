// Package handlers wires the HTTP surface: public content reads, the admin
// content CRUD, settings, the contact inbox and the login gate.
package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline/waveline-backend/internal/content"
	"github.com/waveline/waveline-backend/pkg/logger"
	"github.com/waveline/waveline-backend/pkg/metrics"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// parseObjectID validates the 24-hex form before touching the store, so a
// malformed id is a 400 and never reaches the repository.
func parseObjectID(raw string) (primitive.ObjectID, bool) {
	if !objectIDPattern.MatchString(raw) {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// publishedOnly reads the ?published query flag ("1" or "true").
func publishedOnly(c *gin.Context) bool {
	v := c.Query("published")
	return v == "1" || v == "true"
}

// ContentHandler serves one resource type (blog, case-studies, portfolio,
// podcasts). The same handler is registered once per type, each with its own
// service and collection.
type ContentHandler struct {
	resource string
	svc      *content.Service
}

func NewContentHandler(resource string, svc *content.Service) *ContentHandler {
	return &ContentHandler{resource: resource, svc: svc}
}

// Register mounts the public read routes on pub and the write routes on admin.
func (h *ContentHandler) Register(pub, admin *gin.RouterGroup) {
	p := pub.Group("/" + h.resource)
	p.GET("", h.List)
	p.GET("/:id", h.GetByID)

	a := admin.Group("/" + h.resource)
	a.POST("", h.Create)
	a.PUT("/:id", h.Update)
	a.DELETE("/:id", h.Delete)
}

// List returns either a single item by ?slug= or the full listing, newest
// first, optionally filtered to published items.
func (h *ContentHandler) List(c *gin.Context) {
	pub := publishedOnly(c)
	if s := c.Query("slug"); s != "" {
		item, err := h.svc.GetBySlug(c.Request.Context(), s, pub)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			logger.Errorf("%s: get by slug failed: %v", h.resource, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
		return
	}

	items, err := h.svc.List(c.Request.Context(), pub)
	if err != nil {
		logger.Errorf("%s: list failed: %v", h.resource, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ContentHandler) GetByID(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	item, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		logger.Errorf("%s: get by id failed: %v", h.resource, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ContentHandler) Create(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.svc.Create(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.ContentWrites.WithLabelValues(h.resource, "create").Inc()
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *ContentHandler) Update(c *gin.Context) {
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

	item, err := h.svc.Update(c.Request.Context(), id, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.ContentWrites.WithLabelValues(h.resource, "update").Inc()
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	metrics.ContentWrites.WithLabelValues(h.resource, "delete").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// writeError maps service errors onto the status taxonomy: validation 400,
// missing 404, slug conflict 409, everything else 500.
func (h *ContentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrTitleRequired), errors.Is(err, content.ErrEmptySlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, content.ErrSlugTaken):
		metrics.SlugConflicts.WithLabelValues(h.resource).Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
	default:
		logger.Errorf("%s: write failed: %v", h.resource, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
