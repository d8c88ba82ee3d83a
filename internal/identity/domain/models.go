package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner    = "owner"
	RoleWorkshop = "workshop"
	RoleMechanic = "mechanic"
	RoleAdmin    = "admin"
)

// Actor is the per-request source of truth for identity and role.
// Role always comes from this row, never from caller input.
type Actor struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	Role       string        `gorm:"not null;index" json:"role"`
	WorkshopID *snowflake.ID `gorm:"index" json:"workshop_id,omitempty"`
	Name       string        `gorm:"not null" json:"name"`
	Email      string        `gorm:"not null" json:"email"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Actor) TableName() string { return "actors" }

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleWorkshop, RoleMechanic, RoleAdmin:
		return true
	default:
		return false
	}
}
