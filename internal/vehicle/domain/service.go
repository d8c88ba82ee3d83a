package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vehicle, error)
}

type Service interface {
	// GetVehicle looks up a registry snapshot. Booking intake uses it to
	// verify a caller-supplied vehicle ref belongs to the submitting owner.
	GetVehicle(ctx context.Context, id snowflake.ID) (Vehicle, error)
}

var (
	ErrInvalidID = errors.New("invalid_vehicle_id")
	ErrNotFound  = errors.New("vehicle_not_found")
)
