package services

import (
	"errors"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrRoleInUse blocks deletion while users still hold the role.
	ErrRoleInUse = errors.New("role is assigned to users")
	// ErrDuplicateRoleName means the name already exists in the scope.
	ErrDuplicateRoleName = errors.New("role name already exists in this organization")
	// ErrUnknownPermission rejects grants outside the permission set.
	ErrUnknownPermission = errors.New("unknown permission")
)

type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// List returns roles, optionally scoped to one organization. Global
// roles (no organization) are always included.
func (s *RoleService) List(orgID string) ([]models.Role, error) {
	query := s.db.Order("created_at ASC")
	if orgID != "" {
		query = query.Where("organization_id = ? OR organization_id IS NULL", orgID)
	}

	var roles []models.Role
	if err := query.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

type CreateRoleRequest struct {
	Name           string   `json:"name" binding:"required,min=2,max=50"`
	Description    string   `json:"description" binding:"max=200"`
	Permissions    []string `json:"permissions" binding:"required"`
	OrganizationID *string  `json:"organization_id"`
}

func (s *RoleService) Create(req *CreateRoleRequest) (*models.Role, error) {
	for _, p := range req.Permissions {
		if _, err := auth.ParsePermission(p); err != nil {
			return nil, ErrUnknownPermission
		}
	}

	query := s.db.Model(&models.Role{}).Where("name = ?", req.Name)
	if req.OrganizationID != nil {
		query = query.Where("organization_id = ?", *req.OrganizationID)
	} else {
		query = query.Where("organization_id IS NULL")
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateRoleName
	}

	role := &models.Role{
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
	}
	role.SetPermissions(req.Permissions)

	if err := s.db.Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Get(id string) (*models.Role, error) {
	var role models.Role
	if err := s.db.First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

type UpdateRoleRequest struct {
	Name        string   `json:"name" binding:"omitempty,min=2,max=50"`
	Description *string  `json:"description" binding:"omitempty,max=200"`
	Permissions []string `json:"permissions"`
}

func (s *RoleService) Update(id string, req *UpdateRoleRequest) (*models.Role, error) {
	var role models.Role
	if err := s.db.First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if req.Name != "" && req.Name != role.Name {
		query := s.db.Model(&models.Role{}).Where("name = ? AND id <> ?", req.Name, id)
		if role.OrganizationID != nil {
			query = query.Where("organization_id = ?", *role.OrganizationID)
		} else {
			query = query.Where("organization_id IS NULL")
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateRoleName
		}
		role.Name = req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Permissions != nil {
		for _, p := range req.Permissions {
			if _, err := auth.ParsePermission(p); err != nil {
				return nil, ErrUnknownPermission
			}
		}
		role.SetPermissions(req.Permissions)
	}

	if err := s.db.Save(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Delete removes a role unless any user still references it. Referential
// integrity over permissions wins over convenience; callers must
// reassign users first.
func (s *RoleService) Delete(id string) error {
	var role models.Role
	if err := s.db.First(&role, "id = ?", id).Error; err != nil {
		return err
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("role_id = ?", id).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return ErrRoleInUse
	}

	return s.db.Delete(&role).Error
}
