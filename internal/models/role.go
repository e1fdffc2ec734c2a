package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role groups a set of permission strings. A role belongs to one
// organization, or to none (a global role). Name is unique within that
// scope. A role cannot be deleted while any user references it.
type Role struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	Name           string        `gorm:"size:50;not null;index:idx_roles_name_org,unique" json:"name"`
	Description    string        `gorm:"size:200" json:"description"`
	Permissions    string        `gorm:"type:text;not null" json:"-"` // JSON array of permission strings
	OrganizationID *string       `gorm:"size:36;index:idx_roles_name_org,unique" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// PermissionList decodes the stored permission array. A corrupt value
// decodes to an empty list rather than failing the caller.
func (r *Role) PermissionList() []string {
	var perms []string
	if err := json.Unmarshal([]byte(r.Permissions), &perms); err != nil || perms == nil {
		return []string{}
	}
	return perms
}

// SetPermissions encodes the permission array for storage.
func (r *Role) SetPermissions(perms []string) {
	if perms == nil {
		perms = []string{}
	}
	b, _ := json.Marshal(perms)
	r.Permissions = string(b)
}

// MarshalJSON inlines the decoded permission list in API responses.
func (r Role) MarshalJSON() ([]byte, error) {
	type alias Role
	return json.Marshal(struct {
		alias
		Permissions []string `json:"permissions"`
	}{
		alias:       alias(r),
		Permissions: r.PermissionList(),
	})
}
