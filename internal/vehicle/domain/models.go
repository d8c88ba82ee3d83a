package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Vehicle is a registry snapshot consumed by booking and job intake.
type Vehicle struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"not null;index" json:"owner_id"`
	Plate     string       `gorm:"not null" json:"plate"`
	Make      string       `json:"make"`
	Model     string       `json:"model"`
	Year      int          `json:"year"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Vehicle) TableName() string { return "vehicles" }
