package models

import (
	"time"

	"github.com/diewo77/go-bistro/gate"
	"gorm.io/gorm"
)

// Profile groups permissions. A user has at most one profile.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	// IsSystem profiles are seeded and cannot be deleted.
	IsSystem    bool         `gorm:"default:false" json:"is_system"`
	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"foreignKey:ProfileID" json:"-"`
}

// Gate converts the stored profile into its authorization form.
func (p *Profile) Gate() gate.Profile {
	perms := make([]gate.Permission, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms = append(perms, gate.Permission(perm.Code()))
	}
	return gate.NewStaticProfile(p.ID, p.Name, perms...)
}

// Permission is a "resource:action" grant stored in the database.
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
