package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := stmt.Where("id = ?", id).Take(&booking).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status string, updatedAt time.Time) error {
	return tx.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBookingFilter, page pagination.Pagination) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	stmt := db.WithContext(ctx).Model(&domain.Booking{})
	if filter.OwnerID != 0 {
		stmt = stmt.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.WorkshopID != 0 {
		stmt = stmt.Where("workshop_id = ?", filter.WorkshopID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
