package auth

import (
	"testing"

	"github.com/taskflowhq/taskflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}, &models.Role{}, &models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUserWithRole(t *testing.T, db *gorm.DB, providerID, roleName string, roleOrgID, userOrgID *string, perms []string) {
	t.Helper()
	role := models.Role{Name: roleName, OrganizationID: roleOrgID}
	role.SetPermissions(perms)
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	user := models.User{
		ProviderID:     providerID,
		Email:          providerID + "@example.com",
		RoleID:         &role.ID,
		OrganizationID: userOrgID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func TestResolvePermissions_UnknownUserResolvesEmpty(t *testing.T) {
	svc := NewService(setupTestDB(t), nil, nil)
	perms := svc.ResolvePermissions("user_missing")
	if len(perms) != 0 {
		t.Errorf("expected empty grant set, got %v", perms)
	}
}

func TestResolvePermissions_FiltersUnknownGrants(t *testing.T) {
	db := setupTestDB(t)
	seedUserWithRole(t, db, "user_1", "custom", nil, nil, []string{"read:project", "launch:rocket"})

	svc := NewService(db, nil, nil)
	perms := svc.ResolvePermissions("user_1")
	if len(perms) != 1 || perms[0] != PermReadProject {
		t.Errorf("ResolvePermissions = %v, want [read:project]", perms)
	}
}

func TestHasPermission(t *testing.T) {
	db := setupTestDB(t)
	seedUserWithRole(t, db, "user_member", string(RoleMember), nil, nil,
		PermissionStrings(RolePermissions[RoleMember]))

	svc := NewService(db, nil, nil)
	if !svc.HasPermission("user_member", PermCreateTask) {
		t.Error("member should hold create:task")
	}
	if svc.HasPermission("user_member", PermDeleteProject) {
		t.Error("member should not hold delete:project")
	}
}

func TestIsOrganizationAdmin(t *testing.T) {
	db := setupTestDB(t)

	org := models.Organization{Name: "Acme", Slug: "acme"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	other := models.Organization{Name: "Globex", Slug: "globex"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}

	adminPerms := PermissionStrings(RolePermissions[RoleAdmin])
	seedUserWithRole(t, db, "user_global_admin", string(RoleAdmin), nil, nil, adminPerms)
	seedUserWithRole(t, db, "user_org_admin", string(RoleAdmin), &org.ID, &org.ID, adminPerms)
	seedUserWithRole(t, db, "user_member", string(RoleMember), nil, &org.ID,
		PermissionStrings(RolePermissions[RoleMember]))

	svc := NewService(db, nil, nil)

	if !svc.IsOrganizationAdmin("user_global_admin", org.ID) {
		t.Error("global admin should administer any organization")
	}
	if !svc.IsOrganizationAdmin("user_org_admin", org.ID) {
		t.Error("org admin should administer own organization")
	}
	if svc.IsOrganizationAdmin("user_org_admin", other.ID) {
		t.Error("org admin should not administer other organizations")
	}
	if svc.IsOrganizationAdmin("user_member", org.ID) {
		t.Error("member is not an organization admin")
	}
	if svc.IsOrganizationAdmin("user_missing", org.ID) {
		t.Error("unknown user is not an organization admin")
	}
}
