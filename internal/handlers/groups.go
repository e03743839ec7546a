package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/ability"
	"classhub/api/internal/authctx"
	"classhub/api/internal/models"
	"classhub/api/internal/repository"
)

func (h HandlerSet) GetGroup(c *gin.Context) {
	group, ok := h.loadGroup(c)
	if !ok {
		return
	}

	req := authctx.From(c)
	c.JSON(http.StatusOK, gin.H{
		"id":   group.ID,
		"name": group.Name,
		"path": group.Path,
		"role": string(req.Membership.Role),
	})
}

func (h HandlerSet) ListGroupMembers(c *gin.Context) {
	group, ok := h.loadGroup(c)
	if !ok {
		return
	}

	members, err := h.groups.MembershipsByGroup(c.Request.Context(), group.ID)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", group.ID).Msg("list members failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, gin.H{
			"userId": m.UserID,
			"role":   string(m.Role),
		})
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// ManageGroup answers whether the caller may administer the target group,
// directly or through hierarchical authority over an ancestor. Management
// authority over "district.school1" covers "district.school1.dept_math"
// without a materialized grant.
func (h HandlerSet) ManageGroup(c *gin.Context) {
	req := authctx.From(c)

	group, err := h.groups.GetByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			// Same shape as a denial: existence of group ids is not leaked.
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot manage this group", "code": "FORBIDDEN"})
			return
		}
		h.log.Error().Err(err).Msg("group lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	authorityPaths, err := h.authorityPaths(c, req)
	if err != nil {
		h.log.Error().Err(err).Msg("authority path lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	if !ability.CanManageHierarchy(req.Ability, group.ID, authorityPaths, group.Path) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot manage this group", "code": "FORBIDDEN"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   group.ID,
		"name": group.Name,
		"path": group.Path,
	})
}

// authorityPaths resolves the materialized paths of every group the caller
// administers.
func (h HandlerSet) authorityPaths(c *gin.Context, req *authctx.Request) ([]models.GroupPath, error) {
	var adminGroupIDs []string
	for _, m := range req.Memberships {
		if m.Role == models.RoleGroupAdmin || m.Role == models.RoleSystemAdmin {
			adminGroupIDs = append(adminGroupIDs, m.GroupID)
		}
	}
	return h.groups.PathsByIDs(c.Request.Context(), adminGroupIDs)
}

func (h HandlerSet) loadGroup(c *gin.Context) (models.Group, bool) {
	group, err := h.groups.GetByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return models.Group{}, false
		}
		h.log.Error().Err(err).Msg("group lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return models.Group{}, false
	}
	return group, true
}
