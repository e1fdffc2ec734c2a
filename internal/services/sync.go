package services

import (
	"context"
	"errors"

	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/internal/provider"
	"github.com/taskflowhq/taskflow/pkg/logger"
	"gorm.io/gorm"
)

// SyncService mirrors identities from the external provider into the
// local user table. Webhooks keep the mirror fresh; bulk sync repairs
// drift after missed deliveries.
type SyncService struct {
	db     *gorm.DB
	client provider.Client
}

func NewSyncService(db *gorm.DB, client provider.Client) *SyncService {
	return &SyncService{db: db, client: client}
}

// defaultAssignments resolves the global member role and the default
// organization for newly mirrored users. Either may be absent before
// seeding; new users are then left unassigned.
func (s *SyncService) defaultAssignments() (roleID, orgID *string) {
	var role models.Role
	if err := s.db.Where("name = ? AND organization_id IS NULL", "member").First(&role).Error; err == nil {
		roleID = &role.ID
	}
	var org models.Organization
	if err := s.db.Where("slug = ?", defaultOrgSlug).First(&org).Error; err == nil {
		orgID = &org.ID
	}
	return roleID, orgID
}

// UpsertUser applies a user.created or user.updated event. Creation
// assigns the default member role and organization; updates only touch
// provider-owned attributes.
func (s *SyncService) UpsertUser(pu provider.User) (*models.User, bool, error) {
	var user models.User
	err := s.db.Where("provider_id = ?", pu.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		roleID, orgID := s.defaultAssignments()
		user = models.User{
			ProviderID:     pu.ID,
			Email:          pu.Email,
			FirstName:      pu.FirstName,
			LastName:       pu.LastName,
			RoleID:         roleID,
			OrganizationID: orgID,
		}
		if pu.ImageURL != "" {
			user.AvatarURL = &pu.ImageURL
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, false, err
		}
		logger.Info().Str("provider_id", pu.ID).Msg("user mirrored from provider")
		return &user, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	user.Email = pu.Email
	user.FirstName = pu.FirstName
	user.LastName = pu.LastName
	if pu.ImageURL != "" {
		user.AvatarURL = &pu.ImageURL
	}
	if err := s.db.Save(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, false, nil
}

// DeleteUser applies a user.deleted event. Unknown IDs are ignored so
// replayed deliveries stay idempotent.
func (s *SyncService) DeleteUser(providerID string) error {
	result := s.db.Where("provider_id = ?", providerID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info().Str("provider_id", providerID).Msg("user deprovisioned")
	}
	return nil
}

// SyncSummary reports the outcome of a bulk synchronization run.
type SyncSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncAll pulls the provider's full user listing and reconciles it into
// the local table. Users the provider no longer knows are not removed
// here; deprovisioning flows through webhook deletes only.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncSummary, error) {
	providerUsers, err := s.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{Total: len(providerUsers)}
	for _, pu := range providerUsers {
		var existing models.User
		err := s.db.Where("provider_id = ?", pu.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, _, err := s.UpsertUser(pu); err != nil {
				return nil, err
			}
			summary.Created++
			continue
		}
		if err != nil {
			return nil, err
		}

		if existing.Email == pu.Email &&
			existing.FirstName == pu.FirstName &&
			existing.LastName == pu.LastName &&
			(pu.ImageURL == "" || (existing.AvatarURL != nil && *existing.AvatarURL == pu.ImageURL)) {
			summary.Skipped++
			continue
		}

		if _, _, err := s.UpsertUser(pu); err != nil {
			return nil, err
		}
		summary.Updated++
	}

	logger.Info().
		Int("total", summary.Total).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("provider sync completed")
	return summary, nil
}
