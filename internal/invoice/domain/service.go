package domain

import (
	"context"
	"errors"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

// LaborLine is the externally priced labor component appended after the
// per-part items.
type LaborLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type GenerateFromJobRequest struct {
	JobID   string
	TaxRate float64
	Labor   *LaborLine
}

type SetStatusRequest struct {
	InvoiceID string
	Status    string
	Notes     string
}

type ListInvoiceRequest struct {
	OwnerID    string
	WorkshopID string
	PageToken  string
	PageSize   int
}

// InvoiceView is an invoice annotated with its read-time status.
type InvoiceView struct {
	Invoice
	EffectiveStatus string `json:"effective_status"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceView `json:"invoices"`
}

type Service interface {
	// GenerateFromJob builds one item per job part plus an optional
	// labor line, computes totals at the given tax rate, and opens the
	// invoice in draft.
	GenerateFromJob(ctx context.Context, req GenerateFromJobRequest) (Invoice, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (InvoiceView, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	ErrInvalidID        = errors.New("invalid_invoice_id")
	ErrInvalidJob       = errors.New("invalid_job_id")
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
	ErrInvalidLabor     = errors.New("invalid_labor_line")
	ErrInvalidStatus    = errors.New("invalid_invoice_status")
	ErrMissingFilter    = errors.New("missing_filter")
	ErrNotFound         = errors.New("invoice_not_found")
	ErrJobNotFound      = errors.New("invoice_job_not_found")
	ErrForbidden        = errors.New("invoice_forbidden")
	ErrJobNotCompleted  = errors.New("job_not_completed")
	ErrJobAlreadyBilled = errors.New("job_already_billed")
	ErrNoBillableItems  = errors.New("no_billable_items")
)
