package domain

import (
	"context"
	"errors"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type SubmitRatingRequest struct {
	BookingID string
	OwnerID   string
	Rating    int
	Comment   string
}

type RespondRequest struct {
	RatingID string
	Response string
	// StatusHint is advisory only; the derived status rule always wins.
	StatusHint string
}

type RequestDeletionRequest struct {
	RatingID string
	Reason   string
}

type ResolveRequestRequest struct {
	RequestID  string
	Action     string
	AdminNotes string
}

type ListRatingRequest struct {
	OwnerID    string
	WorkshopID string
	PageToken  string
	PageSize   int
}

// RatingView is a rating annotated with its derived status.
type RatingView struct {
	Rating
	Status string `json:"status"`
}

type ListRatingResponse struct {
	pagination.PageInfo
	Ratings []RatingView `json:"ratings"`
}

// PendingRating is a completed booking the owner has not rated yet.
type PendingRating struct {
	BookingID   string `json:"booking_id"`
	WorkshopID  string `json:"workshop_id"`
	ServiceType string `json:"service_type"`
	CompletedAt string `json:"completed_at"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRatingRequest) (Rating, error)
	Respond(ctx context.Context, req RespondRequest) (RatingView, error)
	RequestDeletion(ctx context.Context, req RequestDeletionRequest) (RatingRequest, error)
	// ResolveRequest closes a dispute: approved hides the rating,
	// deleted removes it, rejected leaves it untouched.
	ResolveRequest(ctx context.Context, req ResolveRequestRequest) (RatingRequest, error)
	List(ctx context.Context, req ListRatingRequest) (ListRatingResponse, error)
	// ListPending returns the owner's completed-but-unrated bookings.
	ListPending(ctx context.Context, ownerID string) ([]PendingRating, error)
}

var (
	ErrInvalidID         = errors.New("invalid_rating_id")
	ErrInvalidBooking    = errors.New("invalid_rating_booking_id")
	ErrInvalidOwner      = errors.New("invalid_rating_owner")
	ErrInvalidScore      = errors.New("invalid_rating_score")
	ErrInvalidReason     = errors.New("invalid_dispute_reason")
	ErrInvalidResolution = errors.New("invalid_dispute_resolution")
	ErrMissingFilter     = errors.New("missing_filter")
	ErrNotFound          = errors.New("rating_not_found")
	ErrRequestNotFound   = errors.New("rating_request_not_found")
	ErrBookingNotFound   = errors.New("rating_booking_not_found")
	ErrForbidden         = errors.New("rating_forbidden")
	ErrBookingNotDone    = errors.New("booking_not_completed")
	ErrAlreadyRated      = errors.New("booking_already_rated")
	ErrDisputeOpen       = errors.New("dispute_already_open")
	ErrAlreadyResolved   = errors.New("dispute_already_resolved")
)
