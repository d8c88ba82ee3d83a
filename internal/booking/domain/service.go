package domain

import (
	"context"
	"errors"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type ContactSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SubmitBookingRequest struct {
	OwnerID       string
	WorkshopID    string
	VehicleID     string
	ServiceType   string
	PreferredDate string
	PreferredTime string
	Description   string
	Contact       ContactSnapshot
}

type ListBookingRequest struct {
	OwnerID    string
	WorkshopID string
	Status     string
	PageToken  string
	PageSize   int
}

type ListBookingResponse struct {
	pagination.PageInfo
	Bookings []Booking `json:"bookings"`
}

type AdvanceStatusRequest struct {
	BookingID string
	Status    string
}

type Service interface {
	Submit(ctx context.Context, req SubmitBookingRequest) (Booking, error)
	List(ctx context.Context, req ListBookingRequest) (ListBookingResponse, error)
	// AdvanceStatus moves the booking along a legal edge. Workshop actors
	// may only advance bookings addressed to their own workshop.
	AdvanceStatus(ctx context.Context, req AdvanceStatusRequest) (Booking, error)
	GetByID(ctx context.Context, id string) (Booking, error)
}

var (
	ErrInvalidOwner         = errors.New("invalid_owner")
	ErrInvalidWorkshop      = errors.New("invalid_workshop")
	ErrInvalidVehicle       = errors.New("invalid_vehicle")
	ErrInvalidServiceType   = errors.New("invalid_service_type")
	ErrInvalidPreferredDate = errors.New("invalid_preferred_date")
	ErrInvalidPreferredTime = errors.New("invalid_preferred_time")
	ErrInvalidContact       = errors.New("invalid_contact")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidID            = errors.New("invalid_booking_id")
	ErrMissingFilter        = errors.New("missing_filter")
	ErrNotFound             = errors.New("booking_not_found")
	ErrForbidden            = errors.New("booking_forbidden")
	ErrRateLimited          = errors.New("booking_rate_limited")
)
