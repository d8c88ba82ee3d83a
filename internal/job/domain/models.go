package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/motorlane/motorlane/internal/workflow"
)

const (
	StatusUnassigned = "unassigned"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOnHold     = "on_hold"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Transitions for jobs; completed is terminal, on_hold loops back to
// in_progress.
var Transitions = workflow.Graph{
	StatusUnassigned: {StatusAssigned},
	StatusAssigned:   {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusOnHold},
	StatusOnHold:     {StatusInProgress},
}

func ValidStatus(status string) bool {
	switch status {
	case StatusUnassigned, StatusAssigned, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	default:
		return false
	}
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// MechanicStatusConsistent checks the rule tying assignment to status:
// a mechanic ref is present exactly when the job has been assigned.
func MechanicStatusConsistent(mechanicID *snowflake.ID, status string) bool {
	assigned := mechanicID != nil && *mechanicID != 0
	switch status {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusOnHold:
		return assigned
	default:
		return !assigned
	}
}

// Job is the workshop-internal unit of work, optionally derived 1:1 from
// a booking. The unique index on booking_id closes the race between two
// concurrent createFromBooking calls.
type Job struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	BookingID  *snowflake.ID `gorm:"uniqueIndex:ux_jobs_booking_id" json:"booking_id,omitempty"`
	OwnerID    snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	VehicleID  *snowflake.ID `json:"vehicle_id,omitempty"`
	WorkshopID snowflake.ID  `gorm:"not null;index" json:"workshop_id"`
	MechanicID *snowflake.ID `gorm:"index" json:"mechanic_id,omitempty"`

	ServiceType   string `gorm:"not null" json:"service_type"`
	Description   string `json:"description,omitempty"`
	Priority      string `gorm:"not null" json:"priority"`
	Status        string `gorm:"not null;index" json:"status"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
	Notes         string `json:"notes,omitempty"`

	Parts     []JobPart        `gorm:"foreignKey:JobID" json:"parts,omitempty"`
	RepairLog []JobRepairEntry `gorm:"foreignKey:JobID" json:"repair_log,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

// PartsTotal is the derived parts cost consumed by the invoice engine.
// It is never persisted on the job row.
func (j Job) PartsTotal() float64 {
	var total float64
	for _, part := range j.Parts {
		total += float64(part.Quantity) * part.UnitCost
	}
	return total
}

type JobPart struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID    snowflake.ID `gorm:"not null;index" json:"job_id"`
	Name     string       `gorm:"not null" json:"name"`
	Quantity int          `gorm:"not null" json:"quantity"`
	UnitCost float64      `gorm:"not null" json:"unit_cost"`
}

func (JobPart) TableName() string { return "job_parts" }

// JobRepairEntry is append-only; entries are never edited or removed.
type JobRepairEntry struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID       snowflake.ID `gorm:"not null;index" json:"job_id"`
	Description string       `gorm:"not null" json:"description"`
	LoggedAt    time.Time    `gorm:"not null" json:"logged_at"`
}

func (JobRepairEntry) TableName() string { return "job_repair_entries" }
