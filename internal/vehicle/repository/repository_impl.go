package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/vehicle/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vehicle *domain.Vehicle) error {
	return db.WithContext(ctx).Create(vehicle).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, plate, make, model, year, created_at
		 FROM vehicles WHERE id = ?`,
		id,
	).Scan(&vehicle).Error
	if err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}
