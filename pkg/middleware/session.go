package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/waveline/waveline-backend/internal/sessions"
)

// SessionGuard protects browser-facing admin pages. Requests without a valid
// session cookie are redirected to the login page; a cookie that fails
// verification is cleared on the way out so the browser stops presenting it.
func SessionGuard(mgr *sessions.Manager, loginPath string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessions.CookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		if _, err := mgr.Verify(token); err != nil {
			clearSessionCookie(c, secure)
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionGuardAPI is the JSON variant for admin API routes: 401 instead of a
// redirect, same verification.
func SessionGuardAPI(mgr *sessions.Manager, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessions.CookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if _, err := mgr.Verify(token); err != nil {
			clearSessionCookie(c, secure)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Next()
	}
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName, "", -1, "/", "", secure, true)
}
