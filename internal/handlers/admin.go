package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/models"
	"classhub/api/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("admin list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// AdminUpdateUserStatus activates or suspends an account. Suspension drops
// every live session so the account is locked out immediately, not at next
// cookie expiry.
func (h HandlerSet) AdminUpdateUserStatus(c *gin.Context) {
	var body updateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.Param("userId")
	status := models.UserStatus(body.Status)

	if status == models.UserStatusSuspended {
		if err := h.authService.Suspend(c.Request.Context(), userID); err != nil {
			h.adminStatusError(c, err)
			return
		}
	} else {
		if err := h.users.UpdateStatus(c.Request.Context(), userID, status); err != nil {
			h.adminStatusError(c, err)
			return
		}
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) adminStatusError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	h.log.Error().Err(err).Msg("admin status update failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}
