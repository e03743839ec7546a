package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/config"
)

// SetSessionCookie (re)issues the session cookie with the token's remaining
// lifetime.
func SetSessionCookie(c *gin.Context, cfg *config.AppConfig, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Auth.CookieName, token, maxAge, "/", "", cfg.Auth.CookieSecure, true)
}

// ClearSessionCookie issues a blank cookie. Logout always clears, whether or
// not a session existed.
func ClearSessionCookie(c *gin.Context, cfg *config.AppConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Auth.CookieName, "", -1, "/", "", cfg.Auth.CookieSecure, true)
}
