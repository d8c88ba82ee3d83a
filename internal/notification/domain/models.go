package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event sources. "system" covers time-driven and engine-initiated fan-out.
const (
	SourceOwner    = "owner"
	SourceMechanic = "mechanic"
	SourceWorkshop = "workshop"
	SourceAdmin    = "admin"
	SourceSystem   = "system"
)

// Event types published by the workflow components.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventJobAssigned      = "job.assigned"
	EventJobCompleted     = "job.completed"
	EventInvoiceApproved  = "invoice.approved"
	EventInvoiceRejected  = "invoice.rejected"
	EventInvoicePaid      = "invoice.paid"
	EventRatingReceived   = "rating.received"
	EventRatingResponse   = "rating.response"
	EventDisputeResolved  = "rating.dispute_resolved"
	EventReportGenerated  = "report.generated"
)

// NotificationEvent is one role-scoped inbox row. Rows are inserted in
// the same transaction as the transition that caused them, so delivery
// is at-least-once and survives a crash between commit and fan-out.
type NotificationEvent struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    snowflake.ID      `gorm:"not null;index" json:"actor_id"`
	TargetRole string            `gorm:"not null" json:"target_role"`
	Source     string            `gorm:"not null" json:"source"`
	EventType  string            `gorm:"not null" json:"event_type"`
	Title      string            `gorm:"not null" json:"title"`
	Message    string            `json:"message"`
	Data       datatypes.JSONMap `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ReadAt     *time.Time        `json:"read_at,omitempty"`
}

func (NotificationEvent) TableName() string { return "notification_events" }
