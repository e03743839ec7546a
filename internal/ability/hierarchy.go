package ability

import (
	"classhub/api/internal/models"
)

// CanManageHierarchy reports whether the ability may manage the target
// group, either through a direct grant on that group id or because the
// target's path sits at or below one of the caller's authority paths. This
// is how a group_admin's authority cascades to every descendant sub-group
// without a materialized grant per descendant.
func CanManageHierarchy(a *Ability, targetGroupID string, authorityPaths []models.GroupPath, targetPath string) bool {
	if a.Permits(ActionManage, ResourceGroup, Instance{ID: targetGroupID, GroupID: targetGroupID}) {
		return true
	}
	for _, p := range authorityPaths {
		if models.IsDescendantPath(p.Path, targetPath) {
			return true
		}
	}
	return false
}
