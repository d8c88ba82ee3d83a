package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records privileged mutations: dispute resolutions, rating
// removals, invoice status overrides. Rows are append-only.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    snowflake.ID      `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"not null" json:"actor_role"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   string            `gorm:"index" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
