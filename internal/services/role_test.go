package services

import (
	"errors"
	"testing"

	"github.com/taskflowhq/taskflow/internal/models"
)

func TestRoleCreate_RejectsUnknownPermission(t *testing.T) {
	svc := NewRoleService(setupTestDB(t))

	_, err := svc.Create(&CreateRoleRequest{
		Name:        "custom",
		Permissions: []string{"read:project", "fly:moon"},
	})
	if !errors.Is(err, ErrUnknownPermission) {
		t.Errorf("err = %v, want ErrUnknownPermission", err)
	}
}

func TestRoleCreate_DuplicateNameScopedToOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRoleService(db)

	org := models.Organization{Name: "Acme", Slug: "acme"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}

	if _, err := svc.Create(&CreateRoleRequest{
		Name: "reviewer", Permissions: []string{"read:task"}, OrganizationID: &org.ID,
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(&CreateRoleRequest{
		Name: "reviewer", Permissions: []string{"read:task"}, OrganizationID: &org.ID,
	})
	if !errors.Is(err, ErrDuplicateRoleName) {
		t.Errorf("same org duplicate: err = %v, want ErrDuplicateRoleName", err)
	}

	// Same name in a different scope is allowed.
	if _, err := svc.Create(&CreateRoleRequest{
		Name: "reviewer", Permissions: []string{"read:task"},
	}); err != nil {
		t.Errorf("global scope create: %v", err)
	}
}

func TestRoleDelete_BlockedWhileAssigned(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRoleService(db)

	role, err := svc.Create(&CreateRoleRequest{Name: "custom", Permissions: []string{"read:project"}})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	user := models.User{ProviderID: "user_1", Email: "u@example.com", RoleID: &role.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := svc.Delete(role.ID); !errors.Is(err, ErrRoleInUse) {
		t.Fatalf("err = %v, want ErrRoleInUse", err)
	}

	if err := db.Model(&user).Update("role_id", nil).Error; err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if err := svc.Delete(role.ID); err != nil {
		t.Errorf("delete after unassign: %v", err)
	}
}

func TestRoleUpdate_ReplacesPermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRoleService(db)

	role, err := svc.Create(&CreateRoleRequest{Name: "custom", Permissions: []string{"read:project"}})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	updated, err := svc.Update(role.ID, &UpdateRoleRequest{
		Permissions: []string{"read:project", "read:task", "view:analytics"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := updated.PermissionList(); len(got) != 3 {
		t.Errorf("permissions = %v, want 3 entries", got)
	}
}
