package auth

import (
	"testing"

	"github.com/taskflowhq/taskflow/internal/repository"
)

func TestProjectPolicy(t *testing.T) {
	project := &repository.Project{
		OwnerID:     "user_owner",
		TeamMembers: []string{"user_member"},
	}

	tests := []struct {
		name   string
		action Action
		userID string
		want   bool
	}{
		{"owner reads", ActionRead, "user_owner", true},
		{"member reads", ActionRead, "user_member", true},
		{"outsider cannot read", ActionRead, "user_other", false},
		{"owner writes", ActionWrite, "user_owner", true},
		{"member cannot write", ActionWrite, "user_member", false},
		{"owner deletes", ActionDelete, "user_owner", true},
		{"member cannot delete", ActionDelete, "user_member", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := projectPolicy(tt.action, tt.userID, project); got != tt.want {
				t.Errorf("projectPolicy(%s, %s) = %v, want %v", tt.action, tt.userID, got, tt.want)
			}
		})
	}
}

func TestTaskPolicy(t *testing.T) {
	project := &repository.Project{
		OwnerID:     "user_owner",
		TeamMembers: []string{"user_member"},
	}
	task := &repository.Task{
		AssigneeID: "user_assignee",
		ReporterID: "user_reporter",
	}

	tests := []struct {
		name   string
		action Action
		userID string
		want   bool
	}{
		{"assignee reads", ActionRead, "user_assignee", true},
		{"reporter reads", ActionRead, "user_reporter", true},
		{"project owner reads", ActionRead, "user_owner", true},
		{"project member reads", ActionRead, "user_member", true},
		{"outsider cannot read", ActionRead, "user_other", false},
		{"assignee writes", ActionWrite, "user_assignee", true},
		{"reporter writes", ActionWrite, "user_reporter", true},
		{"project member writes", ActionWrite, "user_member", true},
		{"reporter deletes", ActionDelete, "user_reporter", true},
		{"project owner deletes", ActionDelete, "user_owner", true},
		{"assignee cannot delete", ActionDelete, "user_assignee", false},
		{"project member cannot delete", ActionDelete, "user_member", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := taskPolicy(tt.action, tt.userID, task, project); got != tt.want {
				t.Errorf("taskPolicy(%s, %s) = %v, want %v", tt.action, tt.userID, got, tt.want)
			}
		})
	}
}

func TestTaskPolicy_AssigneeDeleteNeedsOwnership(t *testing.T) {
	// Being both assignee and project owner restores delete rights.
	project := &repository.Project{OwnerID: "user_a"}
	task := &repository.Task{AssigneeID: "user_a", ReporterID: "user_b"}
	if !taskPolicy(ActionDelete, "user_a", task, project) {
		t.Error("owner-assignee should be allowed to delete")
	}
}
