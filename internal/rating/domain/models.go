package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Derived rating statuses. Never stored; always recomputed from the
// response fields so the value cannot drift.
const (
	StatusNew      = "new"
	StatusReviewed = "reviewed"
	StatusResolved = "resolved"
)

// RatingRequest statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestDeleted  = "deleted"
)

func ValidResolution(action string) bool {
	switch action {
	case RequestApproved, RequestRejected, RequestDeleted:
		return true
	default:
		return false
	}
}

// Rating is one customer review per completed booking. Hidden ratings
// survive an approved deletion request for the audit trail; a "deleted"
// resolution removes the row outright.
type Rating struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	BookingID  snowflake.ID  `gorm:"not null;uniqueIndex:ux_ratings_booking_id" json:"booking_id"`
	OwnerID    snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	WorkshopID snowflake.ID  `gorm:"not null;index" json:"workshop_id"`
	MechanicID *snowflake.ID `json:"mechanic_id,omitempty"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `json:"comment,omitempty"`

	Response    string     `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Hidden    bool      `gorm:"not null;default:false" json:"hidden"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Rating) TableName() string { return "ratings" }

// Status derives the review state: resolved once a response exists,
// reviewed once the workshop looked at it, otherwise new.
func (r Rating) Status() string {
	if r.Response != "" {
		return StatusResolved
	}
	if r.RespondedAt != nil {
		return StatusReviewed
	}
	return StatusNew
}

// RatingRequest is a workshop's dispute over a rating. The composite
// unique index on (rating_id, open) admits one open request per rating;
// open is nulled on resolution so history never collides.
type RatingRequest struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	RatingID    *snowflake.ID `gorm:"uniqueIndex:ux_rating_requests_open" json:"rating_id,omitempty"`
	Open        *bool         `gorm:"uniqueIndex:ux_rating_requests_open" json:"-"`
	WorkshopID  snowflake.ID  `gorm:"not null;index" json:"workshop_id"`
	RequestedBy snowflake.ID  `gorm:"not null" json:"requested_by"`

	Reason     string     `gorm:"not null" json:"reason"`
	Status     string     `gorm:"not null;index" json:"status"`
	AdminNotes string     `json:"admin_notes,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (RatingRequest) TableName() string { return "rating_requests" }
