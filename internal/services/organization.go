package services

import (
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/pkg/logger"
	"gorm.io/gorm"
)

var (
	// ErrSlugTaken means another organization already uses the slug.
	ErrSlugTaken = errors.New("organization slug already in use")
	// ErrOrganizationHasUsers blocks deletion while members remain.
	ErrOrganizationHasUsers = errors.New("organization still has users")
)

type OrganizationService struct {
	db *gorm.DB
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// OrganizationDetail augments the record with membership counts.
type OrganizationDetail struct {
	models.Organization
	UserCount int64 `json:"user_count"`
	RoleCount int64 `json:"role_count"`
}

// List returns all organizations. Callers scope the listing: admins see
// everything, everyone else only their own organization via ListForUser.
func (s *OrganizationService) List() ([]models.Organization, error) {
	var orgs []models.Organization
	if err := s.db.Order("created_at ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListForUser returns the single organization the user belongs to, or
// an empty list when unassigned.
func (s *OrganizationService) ListForUser(providerID string) ([]models.Organization, error) {
	var user models.User
	if err := s.db.Where("provider_id = ?", providerID).First(&user).Error; err != nil {
		return nil, err
	}
	if user.OrganizationID == nil {
		return []models.Organization{}, nil
	}

	var org models.Organization
	if err := s.db.First(&org, "id = ?", *user.OrganizationID).Error; err != nil {
		return nil, err
	}
	return []models.Organization{org}, nil
}

type CreateOrganizationRequest struct {
	Name     string                 `json:"name" binding:"required,min=2,max=100"`
	Slug     string                 `json:"slug"`
	Settings map[string]interface{} `json:"settings"`
}

// Create provisions a new organization together with its default role
// set. The slug derives from the name when not given and must be unique.
func (s *OrganizationService) Create(req *CreateOrganizationRequest) (*models.Organization, error) {
	orgSlug := req.Slug
	if orgSlug == "" {
		orgSlug = slug.Make(req.Name)
	} else {
		orgSlug = slug.Make(orgSlug)
	}

	var count int64
	if err := s.db.Model(&models.Organization{}).Where("slug = ?", orgSlug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	org := &models.Organization{Name: req.Name, Slug: orgSlug}
	if req.Settings != nil {
		org.SetSettings(req.Settings)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return provisionDefaultRoles(tx, &org.ID)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// Get returns the organization with user and role counts.
func (s *OrganizationService) Get(id string) (*OrganizationDetail, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}

	detail := &OrganizationDetail{Organization: org}
	if err := s.db.Model(&models.User{}).Where("organization_id = ?", id).Count(&detail.UserCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Role{}).Where("organization_id = ?", id).Count(&detail.RoleCount).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

type UpdateOrganizationRequest struct {
	Name     string                 `json:"name" binding:"omitempty,min=2,max=100"`
	Settings map[string]interface{} `json:"settings"`
}

// Update changes name and settings. The slug is immutable once created;
// external references use it.
func (s *OrganizationService) Update(id string, req *UpdateOrganizationRequest) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Settings != nil {
		org.SetSettings(req.Settings)
	}

	if err := s.db.Save(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Delete removes an organization and its roles. Deletion is refused
// while users still belong to it.
func (s *OrganizationService) Delete(id string) error {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", id).Error; err != nil {
		return err
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("organization_id = ?", id).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return ErrOrganizationHasUsers
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).Delete(&models.Role{}).Error; err != nil {
			return err
		}
		return tx.Delete(&org).Error
	})
}

// provisionDefaultRoles creates the four built-in roles scoped to the
// given organization, or globally when orgID is nil.
func provisionDefaultRoles(tx *gorm.DB, orgID *string) error {
	for _, name := range auth.DefaultRoleNames {
		role := models.Role{
			Name:           string(name),
			Description:    auth.RoleDescriptions[name],
			OrganizationID: orgID,
		}
		role.SetPermissions(auth.PermissionStrings(auth.RolePermissions[name]))
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("provision role %s: %w", name, err)
		}
	}
	return nil
}

const defaultOrgSlug = "default"

// EnsureDefaultOrganization seeds the default organization and the
// global role set on first boot. Reruns are no-ops.
func EnsureDefaultOrganization(db *gorm.DB) error {
	var org models.Organization
	err := db.Where("slug = ?", defaultOrgSlug).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		org = models.Organization{Name: "Default Organization", Slug: defaultOrgSlug}
		if err := db.Create(&org).Error; err != nil {
			return fmt.Errorf("seed default organization: %w", err)
		}
		logger.Info().Str("slug", defaultOrgSlug).Msg("default organization created")
	} else if err != nil {
		return err
	}

	var roleCount int64
	if err := db.Model(&models.Role{}).Where("organization_id IS NULL").Count(&roleCount).Error; err != nil {
		return err
	}
	if roleCount == 0 {
		if err := provisionDefaultRoles(db, nil); err != nil {
			return err
		}
		logger.Info().Msg("global default roles provisioned")
	}
	return nil
}
