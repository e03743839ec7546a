package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/authctx"
	"classhub/api/internal/middleware"
	"classhub/api/internal/models"
	"classhub/api/internal/service"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Status:      string(user.Status),
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The verification token is handed to the mailer; it is returned in the
	// response only outside production.
	resp := gin.H{"user": toUserResponse(result.User)}
	if h.cfg.Environment != "production" {
		resp["verificationToken"] = result.VerificationToken
	}
	c.JSON(http.StatusCreated, resp)
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationInvalid), errors.Is(err, service.ErrVerificationReplay):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired verification token"})
		default:
			h.log.Error().Err(err).Msg("email verification failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Context:  models.AuthContextPassword,
	})
	if err != nil {
		h.rejectLogin(c, err)
		return
	}

	middleware.SetSessionCookie(c, h.cfg, result.SessionToken, result.Session.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(result.User)})
}

func (h HandlerSet) rejectLogin(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrAccountUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": "account pending verification"})
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
	default:
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

// Logout invalidates whatever session the cookie references and always
// clears the cookie. A missing or already-invalid cookie is still a success.
func (h HandlerSet) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Auth.CookieName)
	if err := h.sessions.Invalidate(c.Request.Context(), token); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	middleware.ClearSessionCookie(c, h.cfg)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	req := authctx.From(c)

	if err := h.sessions.InvalidateAll(c.Request.Context(), req.User.ID); err != nil {
		h.log.Error().Err(err).Msg("logout-all failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	middleware.ClearSessionCookie(c, h.cfg)
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	req := authctx.From(c)

	var body changePasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.ChangePassword(c.Request.Context(), service.ChangePasswordInput{
		UserID:          req.User.ID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("password change failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	middleware.SetSessionCookie(c, h.cfg, result.SessionToken, result.Session.ExpiresAt)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	req := authctx.From(c)

	memberships := make([]gin.H, 0, len(req.Memberships))
	for _, m := range req.Memberships {
		memberships = append(memberships, gin.H{
			"groupId": m.GroupID,
			"role":    string(m.Role),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toUserResponse(*req.User),
		"memberships": memberships,
		"session": gin.H{
			"id":        req.Session.ID,
			"context":   string(req.Session.Context),
			"expiresAt": req.Session.ExpiresAt.Format(time.RFC3339),
		},
	})
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	req := authctx.From(c)

	sessions, err := h.sessionRepo.ListByUser(c.Request.Context(), req.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("list sessions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"id":             s.ID,
			"context":        string(s.Context),
			"createdAt":      s.CreatedAt.Format(time.RFC3339),
			"lastActivityAt": s.LastActivityAt.Format(time.RFC3339),
			"expiresAt":      s.ExpiresAt.Format(time.RFC3339),
			"current":        s.ID == req.Session.ID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	req := authctx.From(c)
	sessionID := c.Param("sessionId")

	// Only the caller's own sessions are reachable here; the delete is
	// scoped by ownership check.
	sessions, err := h.sessionRepo.ListByUser(c.Request.Context(), req.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("revoke session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	for _, s := range sessions {
		if s.ID == sessionID {
			if err := h.sessionRepo.DeleteByID(c.Request.Context(), s.ID); err != nil {
				h.log.Error().Err(err).Msg("revoke session failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
				return
			}
			c.Status(http.StatusNoContent)
			return
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "not your session", "code": "FORBIDDEN"})
}
