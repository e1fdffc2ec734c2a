package handlers

import (
	"testing"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTaskHandlerWithUsers(t *testing.T, roles map[string]auth.RoleName) *TaskHandler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}, &models.Role{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for providerID, roleName := range roles {
		role := &models.Role{Name: string(roleName), Description: "test role"}
		role.SetPermissions(auth.PermissionStrings(auth.RolePermissions[roleName]))
		if err := db.Create(role).Error; err != nil {
			t.Fatalf("create role: %v", err)
		}
		user := &models.User{ProviderID: providerID, Email: providerID + "@example.com", RoleID: &role.ID}
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	return NewTaskHandler(nil, nil, auth.NewService(db, nil, nil))
}

func TestTaskHandler_CanAssign(t *testing.T) {
	h := newTaskHandlerWithUsers(t, map[string]auth.RoleName{
		"user_admin":   auth.RoleAdmin,
		"user_manager": auth.RoleManager,
		"user_member":  auth.RoleMember,
	})

	tests := []struct {
		name     string
		caller   string
		assignee string
		want     bool
	}{
		{"manager assigns to someone else", "user_manager", "user_member", true},
		{"admin assigns to someone else", "user_admin", "user_member", true},
		{"member assigns to someone else", "user_member", "user_manager", false},
		{"member assigns to self", "user_member", "user_member", true},
		{"member leaves unassigned", "user_member", "", true},
		{"unknown caller assigns to someone else", "user_ghost", "user_member", false},
	}
	for _, tt := range tests {
		if got := h.canAssign(tt.caller, tt.assignee); got != tt.want {
			t.Errorf("%s: canAssign = %v, want %v", tt.name, got, tt.want)
		}
	}
}
