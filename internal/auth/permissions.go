package auth

import (
	"fmt"
	"strings"
)

// Permission is an "action:resource" pair granted through a role.
type Permission string

const (
	PermCreateProject  Permission = "create:project"
	PermReadProject    Permission = "read:project"
	PermUpdateProject  Permission = "update:project"
	PermDeleteProject  Permission = "delete:project"
	PermCreateTask     Permission = "create:task"
	PermReadTask       Permission = "read:task"
	PermUpdateTask     Permission = "update:task"
	PermDeleteTask     Permission = "delete:task"
	PermAssignTask     Permission = "assign:task"
	PermManageUsers    Permission = "manage:users"
	PermManageRoles    Permission = "manage:roles"
	PermViewAnalytics  Permission = "view:analytics"
	PermManageSettings Permission = "manage:settings"
)

// AllPermissions is the closed set of permissions the system understands.
var AllPermissions = []Permission{
	PermCreateProject, PermReadProject, PermUpdateProject, PermDeleteProject,
	PermCreateTask, PermReadTask, PermUpdateTask, PermDeleteTask, PermAssignTask,
	PermManageUsers, PermManageRoles, PermViewAnalytics, PermManageSettings,
}

// RoleName is one of the four built-in role names. Custom roles may use
// other names but the defaults carry fixed grants.
type RoleName string

const (
	RoleAdmin   RoleName = "admin"
	RoleManager RoleName = "manager"
	RoleMember  RoleName = "member"
	RoleViewer  RoleName = "viewer"
)

// RolePermissions maps each built-in role to its grants. Admin holds
// everything; manager everything except destructive project/task
// operations and role management; member can work tasks in projects
// they can read; viewer is read-only.
var RolePermissions = map[RoleName][]Permission{
	RoleAdmin: {
		PermCreateProject, PermReadProject, PermUpdateProject, PermDeleteProject,
		PermCreateTask, PermReadTask, PermUpdateTask, PermDeleteTask, PermAssignTask,
		PermManageUsers, PermManageRoles, PermViewAnalytics, PermManageSettings,
	},
	RoleManager: {
		PermCreateProject, PermReadProject, PermUpdateProject,
		PermCreateTask, PermReadTask, PermUpdateTask, PermAssignTask,
		PermManageUsers, PermViewAnalytics, PermManageSettings,
	},
	RoleMember: {
		PermReadProject,
		PermCreateTask, PermReadTask, PermUpdateTask,
		PermViewAnalytics,
	},
	RoleViewer: {
		PermReadProject,
		PermReadTask,
		PermViewAnalytics,
	},
}

// RoleDescriptions documents the built-in roles; used when provisioning
// an organization's default role set.
var RoleDescriptions = map[RoleName]string{
	RoleAdmin:   "Full access to all resources",
	RoleManager: "Manage projects and tasks",
	RoleMember:  "Work on assigned tasks",
	RoleViewer:  "Read-only access",
}

// DefaultRoleNames lists the built-in roles in provisioning order.
var DefaultRoleNames = []RoleName{RoleAdmin, RoleManager, RoleMember, RoleViewer}

// ValidPermission reports whether p belongs to the closed permission set.
func ValidPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePermission splits an "action:resource" string and rejects values
// outside the known set.
func ParsePermission(s string) (Permission, error) {
	if !strings.Contains(s, ":") {
		return "", fmt.Errorf("malformed permission %q: want action:resource", s)
	}
	p := Permission(s)
	if !ValidPermission(p) {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// PermissionStrings converts a grant list to plain strings for storage.
func PermissionStrings(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
