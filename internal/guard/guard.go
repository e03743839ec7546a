// Package guard implements ordered, short-circuiting precondition chains
// for routes. Guards are stacked general-to-specific (authenticate → active
// → group member → group role → ability) so each can rely on the invariants
// established before it.
package guard

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/ability"
	"classhub/api/internal/authctx"
	"classhub/api/internal/models"
)

type Kind string

const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
)

// Denial is the structured failure a guard returns. Kind maps to the HTTP
// status; Message never leaks system state beyond what the caller already
// knows about the route.
type Denial struct {
	Kind    Kind
	Message string
}

func (d *Denial) Error() string {
	return string(d.Kind) + ": " + d.Message
}

func (d *Denial) status() int {
	if d.Kind == KindUnauthorized {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func unauthorized(message string) *Denial {
	return &Denial{Kind: KindUnauthorized, Message: message}
}

func forbidden(message string) *Denial {
	return &Denial{Kind: KindForbidden, Message: message}
}

// Guard checks one precondition. A nil return passes; a *Denial fails the
// request with 401/403; any other error is an internal failure.
type Guard func(c *gin.Context, req *authctx.Request) error

// Chain evaluates guards strictly in order and aborts on the first failure.
func Chain(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := authctx.From(c)
		for _, g := range guards {
			if err := g(c, req); err != nil {
				abort(c, err)
				return
			}
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	if d, ok := err.(*Denial); ok {
		c.AbortWithStatusJSON(d.status(), gin.H{
			"error": d.Message,
			"code":  string(d.Kind),
		})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}

// Authenticated fails unless an identity was resolved.
func Authenticated() Guard {
	return func(c *gin.Context, req *authctx.Request) error {
		if req.User == nil {
			return unauthorized("authentication required")
		}
		return nil
	}
}

// ActiveAccount fails unless the identity exists and its status is active.
func ActiveAccount() Guard {
	return func(c *gin.Context, req *authctx.Request) error {
		if req.User == nil {
			return unauthorized("authentication required")
		}
		if req.User.Status != models.UserStatusActive {
			return forbidden("account is not active")
		}
		return nil
	}
}

// RequireRole fails unless some membership, in any group, carries one of the
// given roles. Calling it with no roles is a wiring mistake and panics at
// route-registration time rather than silently denying everything.
func RequireRole(roles ...models.Role) Guard {
	if len(roles) == 0 {
		panic("guard: RequireRole needs at least one role")
	}
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context, req *authctx.Request) error {
		if req.User == nil {
			return unauthorized("authentication required")
		}
		for _, m := range req.Memberships {
			if _, ok := roleSet[m.Role]; ok {
				return nil
			}
		}
		return forbidden(fmt.Sprintf("requires one of roles: %s", joinRoles(roles)))
	}
}

// GroupMember fails unless the identity holds a membership in the group. On
// success the matched membership is attached for downstream guards.
func GroupMember(groupID string) Guard {
	return func(c *gin.Context, req *authctx.Request) error {
		return matchMembership(req, groupID)
	}
}

// GroupMemberFromParam resolves the group id from a named route parameter.
// An absent or malformed parameter fails with the same denial as a
// non-membership so callers cannot probe route structure.
func GroupMemberFromParam(param string) Guard {
	return func(c *gin.Context, req *authctx.Request) error {
		groupID := c.Param(param)
		if groupID == "" {
			return forbidden("not a member of this group")
		}
		return matchMembership(req, groupID)
	}
}

func matchMembership(req *authctx.Request, groupID string) error {
	if req.User == nil {
		return unauthorized("authentication required")
	}
	for i := range req.Memberships {
		if req.Memberships[i].GroupID == groupID {
			req.Membership = &req.Memberships[i]
			return nil
		}
	}
	return forbidden("not a member of this group")
}

// RoleInGroup fails unless the membership attached by an earlier group guard
// carries one of the given roles. Running it without that guard is a
// programming error and panics; the recovery middleware turns it into a 500,
// never a silent deny.
func RoleInGroup(roles ...models.Role) Guard {
	if len(roles) == 0 {
		panic("guard: RoleInGroup needs at least one role")
	}
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context, req *authctx.Request) error {
		if req.Membership == nil {
			panic("guard: RoleInGroup requires a group membership guard earlier in the chain")
		}
		if _, ok := roleSet[req.Membership.Role]; !ok {
			return forbidden(fmt.Sprintf("requires one of roles in this group: %s", joinRoles(roles)))
		}
		return nil
	}
}

// RequireAbility fails unless the computed ability permits the action on the
// resource type at subject level. Handlers narrow to concrete instances with
// Ability.Permits.
func RequireAbility(action ability.Action, resource ability.Resource) Guard {
	return func(c *gin.Context, req *authctx.Request) error {
		if req.User == nil || req.Ability == nil {
			return unauthorized("authentication required")
		}
		if !req.Ability.Can(action, resource) {
			return forbidden(fmt.Sprintf("missing permission: %s %s", action, resource))
		}
		return nil
	}
}

func joinRoles(roles []models.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += ", "
		}
		out += string(r)
	}
	return out
}
