package auth

import "testing"

func TestRolePermissions_AdminHoldsEverything(t *testing.T) {
	grants := RolePermissions[RoleAdmin]
	if len(grants) != len(AllPermissions) {
		t.Fatalf("admin grants = %d, want %d", len(grants), len(AllPermissions))
	}
	for _, p := range AllPermissions {
		found := false
		for _, g := range grants {
			if g == p {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("admin missing %s", p)
		}
	}
}

func TestRolePermissions_ManagerExclusions(t *testing.T) {
	excluded := []Permission{PermDeleteProject, PermDeleteTask, PermManageRoles}
	for _, p := range excluded {
		for _, g := range RolePermissions[RoleManager] {
			if g == p {
				t.Errorf("manager should not hold %s", p)
			}
		}
	}
	if got := len(RolePermissions[RoleManager]); got != len(AllPermissions)-len(excluded) {
		t.Errorf("manager grants = %d, want %d", got, len(AllPermissions)-len(excluded))
	}
}

func TestRolePermissions_AssignTask(t *testing.T) {
	holds := func(role RoleName) bool {
		for _, g := range RolePermissions[role] {
			if g == PermAssignTask {
				return true
			}
		}
		return false
	}
	if !holds(RoleAdmin) {
		t.Error("admin should hold assign:task")
	}
	if !holds(RoleManager) {
		t.Error("manager should hold assign:task")
	}
	if holds(RoleMember) {
		t.Error("member should not hold assign:task")
	}
	if holds(RoleViewer) {
		t.Error("viewer should not hold assign:task")
	}
}

func TestRolePermissions_ViewerIsReadOnly(t *testing.T) {
	want := map[Permission]bool{
		PermReadProject:   true,
		PermReadTask:      true,
		PermViewAnalytics: true,
	}
	grants := RolePermissions[RoleViewer]
	if len(grants) != len(want) {
		t.Fatalf("viewer grants = %v", grants)
	}
	for _, g := range grants {
		if !want[g] {
			t.Errorf("viewer unexpectedly holds %s", g)
		}
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"read:project", false},
		{"delete:task", false},
		{"assign:task", false},
		{"manage:settings", false},
		{"readproject", true},
		{"read:everything", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ParsePermission(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePermission(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		resource Resource
		action   Action
		want     Permission
	}{
		{ResourceProject, ActionRead, PermReadProject},
		{ResourceProject, ActionWrite, PermUpdateProject},
		{ResourceProject, ActionDelete, PermDeleteProject},
		{ResourceTask, ActionRead, PermReadTask},
		{ResourceTask, ActionWrite, PermUpdateTask},
		{ResourceTask, ActionDelete, PermDeleteTask},
	}
	for _, tt := range tests {
		got, err := RequiredPermission(tt.resource, tt.action)
		if err != nil {
			t.Fatalf("RequiredPermission(%s, %s): %v", tt.resource, tt.action, err)
		}
		if got != tt.want {
			t.Errorf("RequiredPermission(%s, %s) = %s, want %s", tt.resource, tt.action, got, tt.want)
		}
	}

	if _, err := RequiredPermission(ResourceProject, Action("own")); err == nil {
		t.Error("expected error for unknown action")
	}
}
