// Package ability computes the per-request capability set. An Ability is
// built fresh from the user's current group memberships on every request and
// never cached: memberships can change between requests.
package ability

import (
	"classhub/api/internal/models"
)

type Action string

const (
	ActionManage Action = "manage" // satisfies every other action
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceAny        Resource = "*"
	ResourceGroup      Resource = "group"
	ResourceMember     Resource = "member"
	ResourceClass      Resource = "class"
	ResourceAssignment Resource = "assignment"
	ResourceTool       Resource = "tool"
	ResourceSubmission Resource = "submission"
	ResourceProfile    Resource = "profile"
)

// Instance carries the attributes of a concrete resource row that predicates
// may inspect.
type Instance struct {
	ID         string
	GroupID    string
	CreatedBy  string
	OwnerID    string
	AssignedTo string
}

type Predicate func(Instance) bool

// Grant permits Action on Resource. GroupID scopes the grant to one group
// ("" means any). A nil Predicate is unconditional; otherwise the grant only
// covers instances the predicate accepts.
type Grant struct {
	Action    Action
	Resource  Resource
	GroupID   string
	Predicate Predicate
}

// Ability is immutable once built.
type Ability struct {
	grants []Grant
}

// Build accumulates grants from memberships in fixed precedence order.
// Grants only ever add capability; no role revokes another's rules.
func Build(user models.User, memberships []models.GroupMembership) *Ability {
	for _, m := range memberships {
		if m.Role == models.RoleSystemAdmin {
			return &Ability{grants: []Grant{{Action: ActionManage, Resource: ResourceAny}}}
		}
	}

	var grants []Grant

	for _, m := range memberships {
		switch m.Role {
		case models.RoleGroupAdmin:
			for _, res := range []Resource{ResourceGroup, ResourceMember, ResourceClass, ResourceAssignment} {
				grants = append(grants, Grant{Action: ActionManage, Resource: res, GroupID: m.GroupID})
			}
		case models.RoleTeacher:
			for _, res := range []Resource{ResourceAssignment, ResourceClass, ResourceTool} {
				grants = append(grants, Grant{Action: ActionCreate, Resource: res, GroupID: m.GroupID})
				grants = append(grants, Grant{
					Action:    ActionManage,
					Resource:  res,
					GroupID:   m.GroupID,
					Predicate: createdBy(user.ID),
				})
			}
			grants = append(grants,
				Grant{Action: ActionRead, Resource: ResourceMember, GroupID: m.GroupID},
				Grant{Action: ActionRead, Resource: ResourceClass, GroupID: m.GroupID},
			)
		}
	}

	// Every identity, regardless of role.
	for _, res := range []Resource{ResourceAssignment, ResourceSubmission, ResourceTool} {
		grants = append(grants, Grant{Action: ActionManage, Resource: res, Predicate: ownedBy(user.ID)})
	}
	grants = append(grants,
		Grant{Action: ActionRead, Resource: ResourceProfile, Predicate: isSelf(user.ID)},
		Grant{Action: ActionUpdate, Resource: ResourceProfile, Predicate: isSelf(user.ID)},
	)

	return &Ability{grants: grants}
}

func createdBy(userID string) Predicate {
	return func(inst Instance) bool { return inst.CreatedBy == userID }
}

func ownedBy(userID string) Predicate {
	return func(inst Instance) bool {
		return inst.CreatedBy == userID || inst.OwnerID == userID || inst.AssignedTo == userID
	}
}

func isSelf(userID string) Predicate {
	return func(inst Instance) bool { return inst.ID == userID }
}

// Can is the coarse subject-level check: does some unconditional grant cover
// the action on the resource type. Predicate-bearing grants only apply to
// concrete instances and are ignored here; Permits narrows to rows.
func (a *Ability) Can(action Action, resource Resource) bool {
	for _, g := range a.grants {
		if g.Predicate == nil && g.covers(action, resource) {
			return true
		}
	}
	return false
}

// Permits evaluates action on a concrete instance, honoring group scopes and
// attribute predicates.
func (a *Ability) Permits(action Action, resource Resource, inst Instance) bool {
	for _, g := range a.grants {
		if !g.covers(action, resource) {
			continue
		}
		if g.GroupID != "" && g.GroupID != inst.GroupID {
			continue
		}
		if g.Predicate != nil && !g.Predicate(inst) {
			continue
		}
		return true
	}
	return false
}

func (g Grant) covers(action Action, resource Resource) bool {
	if g.Resource != ResourceAny && g.Resource != resource {
		return false
	}
	return g.Action == action || g.Action == ActionManage
}
