package domain

import (
	"context"
	"errors"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type CreateFromBookingRequest struct {
	BookingID     string
	Priority      string
	EstimatedTime string
}

type CreateJobRequest struct {
	OwnerID       string
	VehicleID     string
	WorkshopID    string
	ServiceType   string
	Description   string
	Priority      string
	ScheduledDate string
	EstimatedTime string
}

type AssignMechanicRequest struct {
	JobID      string
	MechanicID string
}

type UpdateStatusRequest struct {
	JobID  string
	Status string
}

type AddPartRequest struct {
	JobID    string
	Name     string
	Quantity int
	UnitCost float64
}

type RemovePartRequest struct {
	JobID  string
	PartID string
}

type AddRepairEntryRequest struct {
	JobID       string
	Description string
}

type SetNotesRequest struct {
	JobID string
	Notes string
}

type ListJobRequest struct {
	WorkshopID string
	MechanicID string
	Status     string
	PageToken  string
	PageSize   int
}

type ListJobResponse struct {
	pagination.PageInfo
	Jobs []Job `json:"jobs"`
}

type Service interface {
	// CreateFromBooking converts a confirmed booking into an unassigned
	// job, copying owner, vehicle, workshop and service type.
	CreateFromBooking(ctx context.Context, req CreateFromBookingRequest) (Job, error)
	// Create opens an ad hoc job with no booking behind it.
	Create(ctx context.Context, req CreateJobRequest) (Job, error)
	AssignMechanic(ctx context.Context, req AssignMechanicRequest) (Job, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (Job, error)
	AddPart(ctx context.Context, req AddPartRequest) (Job, error)
	RemovePart(ctx context.Context, req RemovePartRequest) (Job, error)
	AddRepairEntry(ctx context.Context, req AddRepairEntryRequest) (JobRepairEntry, error)
	SetNotes(ctx context.Context, req SetNotesRequest) (Job, error)
	GetByID(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, req ListJobRequest) (ListJobResponse, error)
}

var (
	ErrInvalidID            = errors.New("invalid_job_id")
	ErrInvalidBooking       = errors.New("invalid_booking_id")
	ErrInvalidMechanic      = errors.New("invalid_mechanic_id")
	ErrInvalidOwner         = errors.New("invalid_owner")
	ErrInvalidWorkshop      = errors.New("invalid_workshop")
	ErrInvalidServiceType   = errors.New("invalid_service_type")
	ErrInvalidPriority      = errors.New("invalid_priority")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidPart          = errors.New("invalid_part")
	ErrInvalidRepairEntry   = errors.New("invalid_repair_entry")
	ErrMissingFilter        = errors.New("missing_filter")
	ErrNotFound             = errors.New("job_not_found")
	ErrPartNotFound         = errors.New("job_part_not_found")
	ErrBookingNotFound      = errors.New("job_booking_not_found")
	ErrForbidden            = errors.New("job_forbidden")
	ErrBookingAlreadyHasJob = errors.New("booking_already_has_job")
	ErrBookingNotConfirmed  = errors.New("booking_not_confirmed")
	ErrJobCompleted         = errors.New("job_completed")
	ErrMechanicNotInShop    = errors.New("mechanic_not_in_workshop")
)
