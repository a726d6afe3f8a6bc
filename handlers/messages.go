package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waveline/waveline-backend/internal/messages"
	"github.com/waveline/waveline-backend/pkg/logger"
	"github.com/waveline/waveline-backend/pkg/metrics"
)

// MessagesHandler serves the contact inbox: the public submission endpoint and
// the admin management plus live feed.
type MessagesHandler struct {
	svc    *messages.Service
	broker *messages.Broker
}

func NewMessagesHandler(svc *messages.Service, broker *messages.Broker) *MessagesHandler {
	return &MessagesHandler{svc: svc, broker: broker}
}

func (h *MessagesHandler) Register(pub, admin *gin.RouterGroup) {
	pub.POST("/messages", h.Create)

	a := admin.Group("/messages")
	a.GET("", h.List)
	a.GET("/unread-count", h.UnreadCount)
	a.GET("/stream", h.Stream)
	a.PATCH("/:id/read", h.SetRead)
	a.DELETE("/:id", h.Delete)
}

// Create accepts a contact-form submission. Only the message text is required.
func (h *MessagesHandler) Create(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.svc.Create(c.Request.Context(), req.Name, req.Phone, req.Email, req.Message)
	if err != nil {
		if errors.Is(err, messages.ErrBodyRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("messages: create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	metrics.MessagesReceived.Inc()
	c.JSON(http.StatusCreated, gin.H{"item": m})
}

func (h *MessagesHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		logger.Errorf("messages: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *MessagesHandler) UnreadCount(c *gin.Context) {
	count, err := h.svc.CountUnread(c.Request.Context())
	if err != nil {
		logger.Errorf("messages: unread count failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *MessagesHandler) SetRead(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Read *bool `json:"read"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Read == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read flag is required"})
		return
	}

	m, err := h.svc.SetRead(c.Request.Context(), id, *req.Read)
	if err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		logger.Errorf("messages: set read failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": m})
}

func (h *MessagesHandler) Delete(c *gin.Context) {
	id, ok := parseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		logger.Errorf("messages: delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stream is the admin inbox feed as server-sent events: one "snapshot" event
// immediately, then one whenever the inbox changes, until the client leaves.
func (h *MessagesHandler) Stream(c *gin.Context) {
	ch, err := h.broker.Subscribe(c.Request.Context())
	if err != nil {
		logger.Errorf("messages: feed subscribe failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		snap, ok := <-ch
		if !ok {
			return false
		}
		c.SSEvent("snapshot", snap)
		return true
	})
}
