package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type ListBookingFilter struct {
	OwnerID    snowflake.ID
	WorkshopID snowflake.ID
	Status     string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	// FindByIDForUpdate locks the row for the duration of the enclosing
	// transaction so concurrent transitions serialize.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status string, updatedAt time.Time) error
	List(ctx context.Context, db *gorm.DB, filter ListBookingFilter, page pagination.Pagination) ([]*Booking, error)
}
