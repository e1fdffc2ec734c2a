package services

import (
	"errors"
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
	if err := db.AutoMigrate(&models.Organization{}, &models.Role{}, &models.User{}, &models.SystemLog{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestOrganizationCreate_ProvisionsDefaultRoles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrganizationService(db)

	org, err := svc.Create(&CreateOrganizationRequest{Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.Slug != "acme-corp" {
		t.Errorf("slug = %q, want acme-corp", org.Slug)
	}

	var roles []models.Role
	if err := db.Where("organization_id = ?", org.ID).Find(&roles).Error; err != nil {
		t.Fatalf("load roles: %v", err)
	}
	if len(roles) != 4 {
		t.Fatalf("provisioned %d roles, want 4", len(roles))
	}

	names := map[string]bool{}
	for _, r := range roles {
		names[r.Name] = true
		if len(r.PermissionList()) == 0 {
			t.Errorf("role %s has no permissions", r.Name)
		}
	}
	for _, want := range []string{"admin", "manager", "member", "viewer"} {
		if !names[want] {
			t.Errorf("missing default role %s", want)
		}
	}
}

func TestOrganizationCreate_RejectsDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrganizationService(db)

	if _, err := svc.Create(&CreateOrganizationRequest{Name: "Acme"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(&CreateOrganizationRequest{Name: "Other", Slug: "acme"})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("err = %v, want ErrSlugTaken", err)
	}
}

func TestOrganizationUpdate_SlugImmutable(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrganizationService(db)

	org, err := svc.Create(&CreateOrganizationRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(org.ID, &UpdateOrganizationRequest{Name: "Acme Renamed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Slug != org.Slug {
		t.Errorf("slug changed from %q to %q", org.Slug, updated.Slug)
	}
}

func TestOrganizationDelete_BlockedWhileUsersRemain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrganizationService(db)

	org, err := svc.Create(&CreateOrganizationRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	user := models.User{ProviderID: "user_1", Email: "u@example.com", OrganizationID: &org.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := svc.Delete(org.ID); !errors.Is(err, ErrOrganizationHasUsers) {
		t.Fatalf("err = %v, want ErrOrganizationHasUsers", err)
	}

	// Detach the user; deletion then cascades to roles.
	if err := db.Model(&user).Update("organization_id", nil).Error; err != nil {
		t.Fatalf("detach user: %v", err)
	}
	if err := svc.Delete(org.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var roleCount int64
	db.Model(&models.Role{}).Where("organization_id = ?", org.ID).Count(&roleCount)
	if roleCount != 0 {
		t.Errorf("roles remaining after delete = %d, want 0", roleCount)
	}
}

func TestEnsureDefaultOrganization_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := EnsureDefaultOrganization(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := EnsureDefaultOrganization(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var orgCount int64
	db.Model(&models.Organization{}).Where("slug = ?", defaultOrgSlug).Count(&orgCount)
	if orgCount != 1 {
		t.Errorf("default organizations = %d, want 1", orgCount)
	}

	var roleCount int64
	db.Model(&models.Role{}).Where("organization_id IS NULL").Count(&roleCount)
	if roleCount != 4 {
		t.Errorf("global roles = %d, want 4", roleCount)
	}
}
