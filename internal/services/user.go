package services

import (
	"github.com/taskflowhq/taskflow/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type ListUsersRequest struct {
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
	OrganizationID string `form:"organization_id"`
	RoleID         string `form:"role_id"`
	Search         string `form:"search"`
}

type ListUsersResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

// List returns users with role and organization preloaded.
func (s *UserService) List(req *ListUsersRequest) (*ListUsersResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.OrganizationID != "" {
		query = query.Where("organization_id = ?", req.OrganizationID)
	}
	if req.RoleID != "" {
		query = query.Where("role_id = ?", req.RoleID)
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.Preload("Role").Preload("Organization").
		Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize).
		Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, err
	}

	return &ListUsersResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

// Me returns the user record for an authenticated provider identity,
// with role and organization attached.
func (s *UserService) Me(providerID string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Preload("Organization").
		Where("provider_id = ?", providerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Get(id string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Role").Preload("Organization").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UpdateUserRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	RoleID         *string `json:"role_id"`
	OrganizationID *string `json:"organization_id"`
}

// Update edits the locally managed attributes. Email and provider
// identity stay owned by the identity provider and only change through
// sync.
func (s *UserService) Update(id string, req *UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.RoleID != nil {
		if *req.RoleID == "" {
			user.RoleID = nil
		} else {
			var role models.Role
			if err := s.db.First(&role, "id = ?", *req.RoleID).Error; err != nil {
				return nil, err
			}
			user.RoleID = req.RoleID
		}
	}
	if req.OrganizationID != nil {
		if *req.OrganizationID == "" {
			user.OrganizationID = nil
		} else {
			var org models.Organization
			if err := s.db.First(&org, "id = ?", *req.OrganizationID).Error; err != nil {
				return nil, err
			}
			user.OrganizationID = req.OrganizationID
		}
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return s.Get(user.ID)
}

// Delete hard-deletes a user row. Documents referencing the provider ID
// are left in place; access policy simply stops matching them.
func (s *UserService) Delete(id string) error {
	result := s.db.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
