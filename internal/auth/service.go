package auth

import (
	"context"
	"fmt"

	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/internal/repository"
	"github.com/taskflowhq/taskflow/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Service resolves a caller's role grants from the relational store and
// combines them with relationship policy over the document store.
type Service struct {
	db       *gorm.DB
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
}

func NewService(db *gorm.DB, projects *repository.ProjectRepo, tasks *repository.TaskRepo) *Service {
	return &Service{db: db, projects: projects, tasks: tasks}
}

func (s *Service) findUser(providerID string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Where("provider_id = ?", providerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResolvePermissions returns the caller's grant set. Lookup failures
// resolve to an empty set rather than an error, so a broken role record
// denies access instead of breaking the request.
func (s *Service) ResolvePermissions(providerID string) []Permission {
	user, err := s.findUser(providerID)
	if err != nil {
		logger.Warn().Err(err).Str("provider_id", providerID).Msg("permission lookup failed, resolving to empty grant set")
		return []Permission{}
	}
	if user.Role == nil {
		return []Permission{}
	}

	stored := user.Role.PermissionList()
	perms := make([]Permission, 0, len(stored))
	for _, raw := range stored {
		p := Permission(raw)
		if !ValidPermission(p) {
			logger.Warn().Str("role", user.Role.Name).Str("permission", raw).Msg("ignoring unknown permission on role")
			continue
		}
		perms = append(perms, p)
	}
	return perms
}

// HasPermission reports whether the caller's role grants perm.
func (s *Service) HasPermission(providerID string, perm Permission) bool {
	for _, p := range s.ResolvePermissions(providerID) {
		if p == perm {
			return true
		}
	}
	return false
}

// HasRole reports whether the caller's role carries the given name.
func (s *Service) HasRole(providerID string, name RoleName) bool {
	user, err := s.findUser(providerID)
	if err != nil {
		logger.Warn().Err(err).Str("provider_id", providerID).Msg("role lookup failed")
		return false
	}
	return user.Role != nil && user.Role.Name == string(name)
}

// IsAdmin reports whether the caller holds the admin role.
func (s *Service) IsAdmin(providerID string) bool {
	return s.HasRole(providerID, RoleAdmin)
}

// IsOrganizationAdmin reports whether the caller administers the given
// organization: either a global admin, or an admin whose own
// organization is the one in question.
func (s *Service) IsOrganizationAdmin(providerID, orgID string) bool {
	user, err := s.findUser(providerID)
	if err != nil {
		logger.Warn().Err(err).Str("provider_id", providerID).Msg("organization admin lookup failed")
		return false
	}
	if user.Role == nil || user.Role.Name != string(RoleAdmin) {
		return false
	}
	if user.Role.OrganizationID == nil {
		return true
	}
	return user.OrganizationID != nil && *user.OrganizationID == orgID
}

// CanAccessResource decides coarse access to a single document: the
// caller's role must grant the action's permission AND the caller must
// stand in an allowed relationship to the document. Admins skip both
// checks. Returns repository.ErrNotFound when the document does not
// exist, which callers surface identically to a denial.
func (s *Service) CanAccessResource(ctx context.Context, providerID string, resource Resource, action Action, resourceID string) (bool, error) {
	if s.IsAdmin(providerID) {
		return true, nil
	}

	required, err := RequiredPermission(resource, action)
	if err != nil {
		return false, err
	}
	if !s.HasPermission(providerID, required) {
		return false, nil
	}

	id, err := primitive.ObjectIDFromHex(resourceID)
	if err != nil {
		return false, repository.ErrNotFound
	}

	switch resource {
	case ResourceProject:
		project, err := s.projects.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		return projectPolicy(action, providerID, project), nil

	case ResourceTask:
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		project, err := s.projects.FindByID(ctx, task.ProjectID)
		if err != nil {
			return false, err
		}
		return taskPolicy(action, providerID, task, project), nil
	}
	return false, fmt.Errorf("unknown resource %q", resource)
}
