package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"classhub/api/internal/ability"
	"classhub/api/internal/authctx"
	"classhub/api/internal/config"
	"classhub/api/internal/models"
	"classhub/api/internal/session"
)

// SessionValidator is implemented by session.Manager.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (session.Result, error)
}

// MembershipSource is implemented by repository.GroupRepository.
type MembershipSource interface {
	MembershipsByUser(ctx context.Context, userID string) ([]models.GroupMembership, error)
}

// Session resolves the session cookie, attaches identity, session,
// memberships and the computed ability to the request, and manages cookie
// reissue. An absent or expired session leaves the request unauthenticated
// and clears any stale cookie; guards downstream decide whether that is
// acceptable for the route. Only a store failure terminates the request.
func Session(cfg *config.AppConfig, validator SessionValidator, memberships MembershipSource, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cfg.Auth.CookieName)

		result, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			log.Error().Err(err).Msg("session validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		if result.Session == nil {
			if token != "" {
				ClearSessionCookie(c, cfg)
			}
			authctx.Set(c, &authctx.Request{})
			c.Next()
			return
		}

		userMemberships, err := memberships.MembershipsByUser(c.Request.Context(), result.User.ID)
		if err != nil {
			log.Error().Err(err).Str("user_id", result.User.ID).Msg("membership lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}

		authctx.Set(c, &authctx.Request{
			User:        result.User,
			Session:     result.Session,
			Memberships: userMemberships,
			Ability:     ability.Build(*result.User, userMemberships),
		})

		if result.Fresh {
			SetSessionCookie(c, cfg, token, result.Session.ExpiresAt)
		}

		c.Next()
	}
}
