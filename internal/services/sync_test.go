package services

import (
	"context"
	"testing"

	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/internal/provider"
)

type fakeProviderClient struct {
	users []provider.User
	err   error
}

func (f *fakeProviderClient) ListUsers(ctx context.Context) ([]provider.User, error) {
	return f.users, f.err
}

func TestUpsertUser_CreateAssignsDefaults(t *testing.T) {
	db := setupTestDB(t)
	if err := EnsureDefaultOrganization(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewSyncService(db, nil)

	user, created, err := svc.UpsertUser(provider.User{
		ID: "user_1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if !created {
		t.Error("expected created = true")
	}
	if user.RoleID == nil {
		t.Fatal("new user has no role")
	}

	var role models.Role
	if err := db.First(&role, "id = ?", *user.RoleID).Error; err != nil {
		t.Fatalf("load role: %v", err)
	}
	if role.Name != "member" {
		t.Errorf("default role = %q, want member", role.Name)
	}
	if user.OrganizationID == nil {
		t.Error("new user not assigned to default organization")
	}
}

func TestUpsertUser_UpdateKeepsAssignments(t *testing.T) {
	db := setupTestDB(t)
	if err := EnsureDefaultOrganization(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewSyncService(db, nil)

	first, _, err := svc.UpsertUser(provider.User{ID: "user_1", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, created, err := svc.UpsertUser(provider.User{ID: "user_1", Email: "new@example.com", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if created {
		t.Error("expected created = false on update")
	}
	if updated.Email != "new@example.com" || updated.FirstName != "Ada" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.RoleID == nil || first.RoleID == nil || *updated.RoleID != *first.RoleID {
		t.Error("role assignment changed during provider update")
	}
}

func TestDeleteUser_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSyncService(db, nil)

	if _, _, err := svc.UpsertUser(provider.User{ID: "user_1", Email: "u@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteUser("user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteUser("user_1"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("provider_id = ?", "user_1").Count(&count)
	if count != 0 {
		t.Errorf("user rows = %d, want 0", count)
	}
}

func TestSyncAll_Summary(t *testing.T) {
	db := setupTestDB(t)
	if err := EnsureDefaultOrganization(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &fakeProviderClient{users: []provider.User{
		{ID: "user_1", Email: "one@example.com"},
		{ID: "user_2", Email: "two@example.com"},
		{ID: "user_3", Email: "three@example.com"},
	}}
	svc := NewSyncService(db, client)

	// user_1 exists and is current, user_2 exists but drifted.
	if _, _, err := svc.UpsertUser(provider.User{ID: "user_1", Email: "one@example.com"}); err != nil {
		t.Fatalf("seed user_1: %v", err)
	}
	if _, _, err := svc.UpsertUser(provider.User{ID: "user_2", Email: "stale@example.com"}); err != nil {
		t.Fatalf("seed user_2: %v", err)
	}

	summary, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if summary.Total != 3 || summary.Created != 1 || summary.Updated != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want total 3 / created 1 / updated 1 / skipped 1", summary)
	}
}
