package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/motorlane/motorlane/internal/workflow"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusRejected   = "rejected"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Transitions is monotonic: nothing ever re-enters pending, and rejected
// and completed are terminal.
var Transitions = workflow.Graph{
	StatusPending:    {StatusConfirmed, StatusRejected},
	StatusConfirmed:  {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusRejected, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Booking is the owner-submitted service request that originates every
// downstream record. Rows are never hard-deleted.
type Booking struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID    snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	WorkshopID snowflake.ID  `gorm:"not null;index" json:"workshop_id"`
	VehicleID  *snowflake.ID `json:"vehicle_id,omitempty"`

	// Contact snapshot captured at submission time, decoupled from the
	// live owner profile.
	ContactName  string `gorm:"not null" json:"contact_name"`
	ContactEmail string `gorm:"not null" json:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty"`

	ServiceType   string `gorm:"not null" json:"service_type"`
	PreferredDate string `gorm:"not null" json:"preferred_date"`
	PreferredTime string `gorm:"not null" json:"preferred_time"`
	Description   string `json:"description,omitempty"`

	Status    string    `gorm:"not null;index" json:"status"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }
