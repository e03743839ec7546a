package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classhub/api/internal/models"
)

func membership(userID, groupID string, role models.Role) models.GroupMembership {
	return models.GroupMembership{UserID: userID, GroupID: groupID, Role: role}
}

func TestBuildSystemAdminShortCircuits(t *testing.T) {
	user := models.User{ID: "u1"}
	ab := Build(user, []models.GroupMembership{
		membership("u1", "g1", models.RoleStudent),
		membership("u1", "g2", models.RoleSystemAdmin),
	})

	assert.True(t, ab.Can(ActionDelete, ResourceGroup))
	assert.True(t, ab.Can(ActionCreate, ResourceTool))
	assert.True(t, ab.Permits(ActionManage, ResourceAssignment, Instance{ID: "a1", GroupID: "anywhere"}))
}

func TestBuildGroupAdminScopedToGroup(t *testing.T) {
	user := models.User{ID: "u1"}
	ab := Build(user, []models.GroupMembership{
		membership("u1", "g1", models.RoleGroupAdmin),
	})

	assert.True(t, ab.Permits(ActionDelete, ResourceAssignment, Instance{GroupID: "g1"}))
	assert.True(t, ab.Permits(ActionManage, ResourceMember, Instance{GroupID: "g1"}))
	assert.False(t, ab.Permits(ActionDelete, ResourceAssignment, Instance{GroupID: "g2"}))
	assert.False(t, ab.Can(ActionManage, ResourceProfile))
}

func TestBuildTeacherGrants(t *testing.T) {
	user := models.User{ID: "teacher-1"}
	ab := Build(user, []models.GroupMembership{
		membership("teacher-1", "g1", models.RoleTeacher),
	})

	assert.True(t, ab.Can(ActionCreate, ResourceAssignment))
	assert.True(t, ab.Permits(ActionCreate, ResourceTool, Instance{GroupID: "g1"}))
	assert.False(t, ab.Permits(ActionCreate, ResourceTool, Instance{GroupID: "g2"}))

	// Full control over own creations, not over a colleague's.
	own := Instance{ID: "a1", GroupID: "g1", CreatedBy: "teacher-1"}
	other := Instance{ID: "a2", GroupID: "g1", CreatedBy: "teacher-2"}
	assert.True(t, ab.Permits(ActionDelete, ResourceAssignment, own))
	assert.False(t, ab.Permits(ActionDelete, ResourceAssignment, other))

	assert.True(t, ab.Permits(ActionRead, ResourceMember, Instance{GroupID: "g1"}))
	assert.False(t, ab.Permits(ActionUpdate, ResourceMember, Instance{GroupID: "g1"}))
}

func TestBuildStudentOwnershipGrants(t *testing.T) {
	user := models.User{ID: "student-1"}
	ab := Build(user, []models.GroupMembership{
		membership("student-1", "g1", models.RoleStudent),
	})

	assert.True(t, ab.Permits(ActionRead, ResourceSubmission, Instance{OwnerID: "student-1"}))
	assert.True(t, ab.Permits(ActionManage, ResourceAssignment, Instance{AssignedTo: "student-1"}))
	assert.False(t, ab.Permits(ActionRead, ResourceSubmission, Instance{OwnerID: "student-2"}))

	assert.True(t, ab.Permits(ActionUpdate, ResourceProfile, Instance{ID: "student-1"}))
	assert.False(t, ab.Permits(ActionUpdate, ResourceProfile, Instance{ID: "student-2"}))
	assert.False(t, ab.Permits(ActionDelete, ResourceProfile, Instance{ID: "student-1"}))
}

func TestRoleUnionAcrossGroups(t *testing.T) {
	// teacher in A, student in B: union of both roles' grants.
	user := models.User{ID: "u1"}
	ab := Build(user, []models.GroupMembership{
		membership("u1", "groupA", models.RoleTeacher),
		membership("u1", "groupB", models.RoleStudent),
	})

	assert.True(t, ab.Permits(ActionCreate, ResourceAssignment, Instance{GroupID: "groupA"}))
	assert.False(t, ab.Permits(ActionCreate, ResourceAssignment, Instance{GroupID: "groupB"}))

	// In B only ownership grants apply.
	assert.True(t, ab.Permits(ActionDelete, ResourceSubmission, Instance{GroupID: "groupB", OwnerID: "u1"}))
	assert.False(t, ab.Permits(ActionDelete, ResourceSubmission, Instance{GroupID: "groupB", OwnerID: "other"}))
}

func TestAbilityNeverRevokes(t *testing.T) {
	user := models.User{ID: "u1"}
	asAdmin := Build(user, []models.GroupMembership{
		membership("u1", "g1", models.RoleGroupAdmin),
		membership("u1", "g1", models.RoleStudent),
	})
	asStudentOnly := Build(user, []models.GroupMembership{
		membership("u1", "g1", models.RoleStudent),
	})

	inst := Instance{GroupID: "g1", CreatedBy: "someone-else"}
	require.True(t, asAdmin.Permits(ActionDelete, ResourceAssignment, inst))
	require.False(t, asStudentOnly.Permits(ActionDelete, ResourceAssignment, inst))
}

func TestCanManageHierarchy(t *testing.T) {
	user := models.User{ID: "u1"}
	ab := Build(user, []models.GroupMembership{
		membership("u1", "school1", models.RoleGroupAdmin),
	})

	authority := []models.GroupPath{{GroupID: "school1", Path: "district.school1"}}

	tests := []struct {
		name          string
		targetGroupID string
		targetPath    string
		want          bool
	}{
		{"direct grant on target", "school1", "district.school1", true},
		{"descendant path", "dept_math", "district.school1.dept_math", true},
		{"path equal to authority", "school1-alias", "district.school1", true},
		{"sibling", "school2", "district.school2", false},
		{"prefix but not dot boundary", "school10", "district.school10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanManageHierarchy(ab, tt.targetGroupID, authority, tt.targetPath)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanManageHierarchyEndToEnd(t *testing.T) {
	// U is group_admin of G1 (org.g1); G2 (org.g1.sub) is covered, G3
	// (org.other) is not.
	user := models.User{ID: "U"}
	ab := Build(user, []models.GroupMembership{
		membership("U", "G1", models.RoleGroupAdmin),
	})
	authority := []models.GroupPath{{GroupID: "G1", Path: "org.g1"}}

	assert.True(t, CanManageHierarchy(ab, "G2", authority, "org.g1.sub"))
	assert.False(t, CanManageHierarchy(ab, "G3", authority, "org.other"))
}
