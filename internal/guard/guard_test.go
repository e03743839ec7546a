package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classhub/api/internal/ability"
	"classhub/api/internal/authctx"
	"classhub/api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func attach(req *authctx.Request) gin.HandlerFunc {
	return func(c *gin.Context) {
		authctx.Set(c, req)
		c.Next()
	}
}

func activeUser(id string, memberships ...models.GroupMembership) *authctx.Request {
	user := models.User{ID: id, Status: models.UserStatusActive}
	return &authctx.Request{
		User:        &user,
		Memberships: memberships,
		Ability:     ability.Build(user, memberships),
	}
}

func run(t *testing.T, req *authctx.Request, path string, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	engine := gin.New()
	all := append([]gin.HandlerFunc{attach(req)}, handlers...)
	all = append(all, func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/t/:groupId", all...)

	rec := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(rec, httpReq)
	return rec
}

func denialCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["code"]
}

func TestChainShortCircuits(t *testing.T) {
	var order []string
	record := func(name string, err error) Guard {
		return func(c *gin.Context, req *authctx.Request) error {
			order = append(order, name)
			return err
		}
	}

	rec := run(t, &authctx.Request{}, "/t/g1", Chain(
		record("first", &Denial{Kind: KindUnauthorized, Message: "nope"}),
		record("second", nil),
		record("third", nil),
	))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{"first"}, order)
}

func TestUnauthenticatedFailsFirstGuardOnly(t *testing.T) {
	// [Authenticated, RequireRole(teacher), RequireAbility(create, tool)]
	// against an anonymous request: only the first guard runs.
	rec := run(t, &authctx.Request{}, "/t/g1", Chain(
		Authenticated(),
		RequireRole(models.RoleTeacher),
		RequireAbility(ability.ActionCreate, ability.ResourceTool),
	))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", denialCode(t, rec))
}

func TestActiveAccount(t *testing.T) {
	suspended := models.User{ID: "u1", Status: models.UserStatusSuspended}
	rec := run(t, &authctx.Request{User: &suspended}, "/t/g1", Chain(ActiveAccount()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", denialCode(t, rec))

	rec = run(t, activeUser("u1"), "/t/g1", Chain(ActiveAccount()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleAcrossGroups(t *testing.T) {
	req := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleStudent},
		models.GroupMembership{UserID: "u1", GroupID: "g2", Role: models.RoleTeacher},
	)

	rec := run(t, req, "/t/g1", Chain(RequireRole(models.RoleTeacher)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = run(t, req, "/t/g1", Chain(RequireRole(models.RoleSystemAdmin)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutRolesPanicsAtWiring(t *testing.T) {
	assert.Panics(t, func() { RequireRole() })
	assert.Panics(t, func() { RoleInGroup() })
}

func TestGroupMemberAttachesMembership(t *testing.T) {
	req := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleGroupAdmin},
	)

	rec := run(t, req, "/t/g1", Chain(
		GroupMemberFromParam("groupId"),
		RoleInGroup(models.RoleGroupAdmin),
	))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, req.Membership)
	assert.Equal(t, "g1", req.Membership.GroupID)
}

func TestGroupMemberDenied(t *testing.T) {
	req := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleStudent},
	)

	rec := run(t, req, "/t/g2", Chain(GroupMemberFromParam("groupId")))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupMemberFromParamMissingParamSameShape(t *testing.T) {
	req := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleStudent},
	)

	nonMember := run(t, req, "/t/g2", Chain(GroupMemberFromParam("groupId")))
	badParam := run(t, req, "/t/g2", Chain(GroupMemberFromParam("wrongParam")))

	assert.Equal(t, http.StatusForbidden, nonMember.Code)
	assert.Equal(t, http.StatusForbidden, badParam.Code)
	// Identical bodies: the denial must not reveal whether the route
	// parameter resolved.
	assert.Equal(t, nonMember.Body.String(), badParam.Body.String())
}

func TestRoleInGroupWrongRole(t *testing.T) {
	req := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleStudent},
	)

	rec := run(t, req, "/t/g1", Chain(
		GroupMemberFromParam("groupId"),
		RoleInGroup(models.RoleGroupAdmin, models.RoleTeacher),
	))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleInGroupWithoutGroupGuardPanics(t *testing.T) {
	guard := RoleInGroup(models.RoleTeacher)
	assert.Panics(t, func() {
		_ = guard(nil, &authctx.Request{})
	})
}

func TestRequireAbility(t *testing.T) {
	teacher := activeUser("u1",
		models.GroupMembership{UserID: "u1", GroupID: "g1", Role: models.RoleTeacher},
	)
	student := activeUser("u2",
		models.GroupMembership{UserID: "u2", GroupID: "g1", Role: models.RoleStudent},
	)

	rec := run(t, teacher, "/t/g1", Chain(RequireAbility(ability.ActionCreate, ability.ResourceAssignment)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = run(t, student, "/t/g1", Chain(RequireAbility(ability.ActionCreate, ability.ResourceAssignment)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
