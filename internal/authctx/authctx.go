// Package authctx carries per-request authorization state through the
// pipeline as one explicit value instead of scattered gin context keys.
package authctx

import (
	"github.com/gin-gonic/gin"

	"classhub/api/internal/ability"
	"classhub/api/internal/models"
)

const ginKey = "classhub.authctx"

// Request is the authorization state attached by the session middleware and
// consumed by guards and handlers. All fields are nil/empty for an
// unauthenticated request. Membership is set by a group-member guard for
// guards behind it in the chain.
type Request struct {
	User        *models.User
	Session     *models.Session
	Memberships []models.GroupMembership
	Ability     *ability.Ability
	Membership  *models.GroupMembership
}

func Set(c *gin.Context, r *Request) {
	c.Set(ginKey, r)
}

// From returns the request's authorization state, or an empty value if the
// session middleware has not run.
func From(c *gin.Context) *Request {
	if v, ok := c.Get(ginKey); ok {
		if r, ok := v.(*Request); ok {
			return r
		}
	}
	return &Request{}
}
