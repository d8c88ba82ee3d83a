package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type ListRatingFilter struct {
	OwnerID    snowflake.ID
	WorkshopID snowflake.ID
	// IncludeHidden is reserved for admin listings; owner and workshop
	// views exclude soft-hidden ratings.
	IncludeHidden bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rating *Rating) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Rating, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Rating, error)
	Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListRatingFilter, page pagination.Pagination) ([]*Rating, error)
	// ListUnratedBookings reports completed bookings for the owner with
	// no rating row attached.
	ListUnratedBookings(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]PendingRating, error)
	// FindBookingMechanic resolves the mechanic who worked the job tied
	// to the booking, if any.
	FindBookingMechanic(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*snowflake.ID, error)

	InsertRequest(ctx context.Context, db *gorm.DB, request *RatingRequest) error
	FindRequestByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RatingRequest, error)
	FindRequestByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*RatingRequest, error)
	UpdateRequest(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error
}
