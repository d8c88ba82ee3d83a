package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/motorlane/motorlane/internal/workflow"
)

const (
	StatusDraft = "draft"
	// StatusPendingApproval means awaiting the workshop's own review of
	// the generated document, not customer or admin review.
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPaid            = "paid"

	// StatusOverdue is derived at read time and never stored.
	StatusOverdue = "overdue"
)

// Transitions covers the actor-driven edges. The approved -> overdue
// edge is time-driven and handled by EffectiveStatus instead.
var Transitions = workflow.Graph{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusPaid},
}

func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusPaid:
		return true
	default:
		return false
	}
}

// Invoice is the billing document derived from exactly one completed
// job. The unique index on job_id closes the duplicate-generation race.
type Invoice struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	JobID      *snowflake.ID `gorm:"uniqueIndex:ux_invoices_job_id" json:"job_id,omitempty"`
	OwnerID    snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	WorkshopID snowflake.ID  `gorm:"not null;index" json:"workshop_id"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	Subtotal float64 `gorm:"not null" json:"subtotal"`
	Tax      float64 `gorm:"not null" json:"tax"`
	Total    float64 `gorm:"not null" json:"total"`

	Status    string     `gorm:"not null;index" json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// EffectiveStatus classifies an approved invoice past its due date as
// overdue. Pure read-time derivation so no scheduler is needed.
func (i Invoice) EffectiveStatus(now time.Time) string {
	if i.Status == StatusApproved && i.DueDate.Before(now) {
		return StatusOverdue
	}
	return i.Status
}

// RecomputeTotals derives subtotal and total from the line items.
func (i Invoice) RecomputeTotals(taxRate float64) (subtotal, tax, total float64) {
	for _, item := range i.Items {
		subtotal += item.LineTotal
	}
	tax = subtotal * taxRate
	total = subtotal + tax
	return subtotal, tax, total
}

// TotalsConsistent checks the stored amounts against a recomputation
// from items within the currency-rounding epsilon.
func (i Invoice) TotalsConsistent(epsilon float64) bool {
	var subtotal float64
	for _, item := range i.Items {
		subtotal += item.LineTotal
	}
	if math.Abs(subtotal-i.Subtotal) > epsilon {
		return false
	}
	return math.Abs(i.Subtotal+i.Tax-i.Total) <= epsilon
}

type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description string       `gorm:"not null" json:"description"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	LineTotal   float64      `gorm:"not null" json:"line_total"`
	Position    int          `gorm:"not null" json:"position"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }
