package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waveline/waveline-backend/internal/settings"
	"github.com/waveline/waveline-backend/pkg/logger"
)

// SettingsHandler exposes the feature-flag store: public reads, admin writes.
type SettingsHandler struct {
	repo settings.Repository
}

func NewSettingsHandler(repo settings.Repository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

func (h *SettingsHandler) Register(pub, admin *gin.RouterGroup) {
	pub.GET("/settings", h.Get)
	admin.PUT("/settings", h.Put)
}

// Get returns one flag when ?key= is present (unset keys read as true), or the
// whole map otherwise.
func (h *SettingsHandler) Get(c *gin.Context) {
	if key := strings.TrimSpace(c.Query("key")); key != "" {
		value, err := h.repo.Get(c.Request.Context(), key)
		if err != nil {
			logger.Errorf("settings: get %q failed: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
		return
	}

	all, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		logger.Errorf("settings: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": all})
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var req struct {
		Key   string `json:"key"`
		Value *bool  `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
		return
	}

	s, err := h.repo.Upsert(c.Request.Context(), req.Key, *req.Value)
	if err != nil {
		logger.Errorf("settings: upsert %q failed: %v", req.Key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": s.Key, "value": s.Value})
}
