package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is a tenant. The slug is URL-safe, unique and immutable
// after creation. An organization cannot be deleted while any user
// belongs to it; its roles are cascade-deleted with it.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:50;not null" json:"slug"`
	Settings  string    `gorm:"type:text" json:"-"` // JSON object of free-form settings
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// SettingsMap decodes the stored settings object.
func (o *Organization) SettingsMap() map[string]interface{} {
	m := map[string]interface{}{}
	if o.Settings != "" {
		_ = json.Unmarshal([]byte(o.Settings), &m)
	}
	return m
}

// SetSettings encodes the settings object for storage.
func (o *Organization) SetSettings(settings map[string]interface{}) {
	if settings == nil {
		settings = map[string]interface{}{}
	}
	b, _ := json.Marshal(settings)
	o.Settings = string(b)
}

// MarshalJSON inlines the decoded settings in API responses.
func (o Organization) MarshalJSON() ([]byte, error) {
	type alias Organization
	return json.Marshal(struct {
		alias
		Settings map[string]interface{} `json:"settings"`
	}{
		alias:    alias(o),
		Settings: o.SettingsMap(),
	})
}
