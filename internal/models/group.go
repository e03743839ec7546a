package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleGroupAdmin  Role = "group_admin"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
)

// Group is an organizational unit. Path is the materialized ancestor chain,
// dot-separated, e.g. "district.school1.dept_math". A group whose path is a
// dot-prefixed extension of another group's path is its descendant.
type Group struct {
	ID        string
	Name      string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupPath is the (id, path) pair used for hierarchical authority checks.
type GroupPath struct {
	GroupID string
	Path    string
}

// IsDescendantPath reports whether target equals ancestor or sits below it
// in the dot-path hierarchy.
func IsDescendantPath(ancestor, target string) bool {
	if ancestor == "" || target == "" {
		return false
	}
	return target == ancestor || strings.HasPrefix(target, ancestor+".")
}

// GroupMembership ties one user to one group with a single role. A user may
// hold different roles in different groups; effective permissions are the
// union across memberships.
type GroupMembership struct {
	UserID    string
	GroupID   string
	Role      Role
	CreatedAt time.Time
}
