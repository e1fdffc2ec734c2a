package auth

import (
	"fmt"

	"github.com/taskflowhq/taskflow/internal/repository"
)

// Resource and Action name the coarse access-control grid. Each
// (resource, action) cell maps to both a required permission and a
// relationship predicate over the concrete document; both must hold.
type Resource string

const (
	ResourceProject Resource = "project"
	ResourceTask    Resource = "task"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// RequiredPermission maps an action on a resource to the permission a
// caller's role must grant. Writes map to update; creation is checked
// separately at the route.
func RequiredPermission(resource Resource, action Action) (Permission, error) {
	switch action {
	case ActionRead:
		return Permission("read:" + string(resource)), nil
	case ActionWrite:
		return Permission("update:" + string(resource)), nil
	case ActionDelete:
		return Permission("delete:" + string(resource)), nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

// projectPolicy decides relationship access to a project. Reads are
// shared with the team; mutation and deletion stay with the owner.
func projectPolicy(action Action, userID string, p *repository.Project) bool {
	switch action {
	case ActionRead:
		return p.HasMember(userID)
	case ActionWrite, ActionDelete:
		return p.OwnerID == userID
	}
	return false
}

// taskPolicy decides relationship access to a task given its parent
// project. Assignee, reporter, and anyone on the project can read and
// update; deletion is reserved for the reporter and the project owner,
// so an assignee alone cannot delete work assigned to them.
func taskPolicy(action Action, userID string, t *repository.Task, p *repository.Project) bool {
	switch action {
	case ActionRead, ActionWrite:
		return t.AssigneeID == userID || t.ReporterID == userID || p.HasMember(userID)
	case ActionDelete:
		return t.ReporterID == userID || p.OwnerID == userID
	}
	return false
}
