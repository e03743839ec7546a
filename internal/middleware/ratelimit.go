package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/authctx"
	"classhub/api/internal/config"
	"classhub/api/internal/ratelimit"
)

// RateLimitAuth throttles credential-submission routes. The key is always
// origin-address based in its own namespace, regardless of authentication
// state, so a distributed brute force from one network is counted as one
// source. It runs before session resolution.
func RateLimitAuth(cfg *config.AppConfig, limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "auth:" + c.ClientIP()
		outcome := limiter.Admit(c.Request.Context(), key, cfg.RateLimit.AuthLimit)
		writeRateLimitHeaders(c, outcome)

		if !outcome.Allowed {
			denyRateLimited(c, outcome, "too many authentication attempts, please try again later")
			return
		}
		c.Next()
	}
}

// RateLimitGeneral throttles all other routes. Resolved identities get a
// per-user quota so users behind a shared address do not throttle each
// other; anonymous requests share a per-address quota. It runs after session
// resolution.
func RateLimitGeneral(cfg *config.AppConfig, limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := authctx.From(c)

		var key string
		if req.User != nil {
			key = "user:" + req.User.ID
		} else {
			key = "ip:" + c.ClientIP()
		}

		outcome := limiter.Admit(c.Request.Context(), key, cfg.RateLimit.GeneralLimit)
		writeRateLimitHeaders(c, outcome)

		if !outcome.Allowed {
			denyRateLimited(c, outcome, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}

func writeRateLimitHeaders(c *gin.Context, outcome ratelimit.Outcome) {
	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", outcome.Limit))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", outcome.Remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", outcome.ResetAt.Unix()))
}

func denyRateLimited(c *gin.Context, outcome ratelimit.Outcome, message string) {
	retryAfter := int(outcome.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       message,
		"retry_after": retryAfter,
	})
}
