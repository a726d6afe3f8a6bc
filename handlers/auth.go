package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waveline/waveline-backend/internal/config"
	"github.com/waveline/waveline-backend/internal/sessions"
	"github.com/waveline/waveline-backend/pkg/logger"
	"github.com/waveline/waveline-backend/pkg/metrics"
)

// LoginRequest is the credential pair posted by the admin login form.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler owns the admin session lifecycle: issue the cookie on login,
// clear it on logout.
type AuthHandler struct {
	cfg *config.Config
	mgr *sessions.Manager
}

func NewAuthHandler(cfg *config.Config, mgr *sessions.Manager) *AuthHandler {
	return &AuthHandler{cfg: cfg, mgr: mgr}
}

// Register routes under /admin
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/admin")
	a.POST("/login", h.Login)
	a.DELETE("/login", h.Logout)
}

// Login compares the posted credentials against the configured admin pair and
// sets the session cookie on success.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.credentialsMatch(req.Username, req.Password) {
		metrics.LoginFailures.Inc()
		logger.Warnf("admin login failed for username %q", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.mgr.Issue(req.Username)
	if err != nil {
		logger.Errorf("session issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName, token, int(h.mgr.TTL().Seconds()), "/", "",
		h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout clears the session cookie. Sessions are stateless, so there is
// nothing to revoke server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) credentialsMatch(username, password string) bool {
	// an unset password disables the login outright
	if h.cfg.Admin.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.Admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.Admin.Password)) == 1
	return userOK && passOK
}
