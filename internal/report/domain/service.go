package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type RequestReportRequest struct {
	WorkshopID string
	Month      int
	Year       int
}

type GenerateRequest struct {
	RequestID string
}

type ListReportRequest struct {
	WorkshopID string
	Status     string
	PageToken  string
	PageSize   int
}

type ListReportResponse struct {
	pagination.PageInfo
	Reports []ReportRequest `json:"reports"`
}

// PeriodTotals is the invoice roll-up for one workshop month.
type PeriodTotals struct {
	InvoiceCount int
	TotalRevenue float64
	PaidRevenue  float64
}

type Repository interface {
	// Upsert inserts the period row or, when it already exists, resets
	// it to pending without duplicating.
	Upsert(ctx context.Context, db *gorm.DB, request *ReportRequest) (*ReportRequest, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ReportRequest, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*ReportRequest, error)
	Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error
	List(ctx context.Context, db *gorm.DB, workshopID snowflake.ID, status string, page pagination.Pagination) ([]*ReportRequest, error)
	// SumInvoices aggregates invoice totals for the workshop inside
	// [start, end).
	SumInvoices(ctx context.Context, db *gorm.DB, workshopID snowflake.ID, start, end time.Time) (PeriodTotals, error)
}

type Service interface {
	RequestReport(ctx context.Context, req RequestReportRequest) (ReportRequest, error)
	// Generate recomputes totals from the invoices of the period.
	// Idempotent: regenerating overwrites, supporting late-paid invoices.
	Generate(ctx context.Context, req GenerateRequest) (ReportRequest, error)
	List(ctx context.Context, req ListReportRequest) (ListReportResponse, error)
}

var (
	ErrInvalidID       = errors.New("invalid_report_id")
	ErrInvalidWorkshop = errors.New("invalid_report_workshop")
	ErrInvalidPeriod   = errors.New("invalid_report_period")
	ErrInvalidStatus   = errors.New("invalid_report_status")
	ErrNotFound        = errors.New("report_not_found")
	ErrForbidden       = errors.New("report_forbidden")
)
