package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "pending"
	StatusGenerated = "generated"
	StatusRejected  = "rejected"
)

// ReportRequest is the per-(workshop, month, year) revenue roll-up.
// The composite unique index makes re-requests update in place.
type ReportRequest struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkshopID snowflake.ID `gorm:"not null;uniqueIndex:ux_report_requests_period" json:"workshop_id"`
	Month      int          `gorm:"not null;uniqueIndex:ux_report_requests_period" json:"month"`
	Year       int          `gorm:"not null;uniqueIndex:ux_report_requests_period" json:"year"`

	Status       string  `gorm:"not null;index" json:"status"`
	InvoiceCount int     `gorm:"not null;default:0" json:"invoice_count"`
	TotalRevenue float64 `gorm:"not null;default:0" json:"total_revenue"`
	PaidRevenue  float64 `gorm:"not null;default:0" json:"paid_revenue"`

	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

func (ReportRequest) TableName() string { return "report_requests" }

// Period returns the half-open [start, end) interval the report covers.
func (r ReportRequest) Period() (time.Time, time.Time) {
	start := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
