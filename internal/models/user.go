package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors an identity at the external provider. Rows are created on
// first sign-in (webhook or bulk sync) and hard-deleted only on explicit
// deprovisioning.
type User struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	ProviderID     string        `gorm:"uniqueIndex;size:100;not null" json:"provider_id"`
	Email          string        `gorm:"size:255;not null" json:"email"`
	FirstName      string        `gorm:"size:100" json:"first_name"`
	LastName       string        `gorm:"size:100" json:"last_name"`
	AvatarURL      *string       `gorm:"size:500" json:"avatar_url"`
	RoleID         *string       `gorm:"size:36;index" json:"role_id"`
	Role           *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	OrganizationID *string       `gorm:"size:36;index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
