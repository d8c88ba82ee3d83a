package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorlane/motorlane/internal/rating/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rating *domain.Rating) error {
	return db.WithContext(ctx).Create(rating).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Rating, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Rating, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Rating, error) {
	var rating domain.Rating
	err := stmt.Where("id = ?", id).Take(&rating).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&domain.Rating{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return tx.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Rating{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRatingFilter, page pagination.Pagination) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	stmt := db.WithContext(ctx).Model(&domain.Rating{})
	if filter.OwnerID != 0 {
		stmt = stmt.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.WorkshopID != 0 {
		stmt = stmt.Where("workshop_id = ?", filter.WorkshopID)
	}
	if !filter.IncludeHidden {
		stmt = stmt.Where("hidden = ?", false)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *repo) ListUnratedBookings(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]domain.PendingRating, error) {
	type row struct {
		BookingID   snowflake.ID
		WorkshopID  snowflake.ID
		ServiceType string
		UpdatedAt   string
	}
	var rows []row
	err := db.WithContext(ctx).Raw(
		`SELECT b.id AS booking_id, b.workshop_id, b.service_type, b.updated_at
		 FROM bookings b
		 LEFT JOIN ratings r ON r.booking_id = b.id
		 WHERE b.owner_id = ? AND b.status = ? AND r.id IS NULL
		 ORDER BY b.updated_at DESC`,
		ownerID, "completed",
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	pending := make([]domain.PendingRating, 0, len(rows))
	for _, item := range rows {
		pending = append(pending, domain.PendingRating{
			BookingID:   item.BookingID.String(),
			WorkshopID:  item.WorkshopID.String(),
			ServiceType: item.ServiceType,
			CompletedAt: item.UpdatedAt,
		})
	}
	return pending, nil
}

func (r *repo) FindBookingMechanic(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*snowflake.ID, error) {
	var mechanicID *snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT mechanic_id FROM jobs WHERE booking_id = ?`,
		bookingID,
	).Scan(&mechanicID).Error
	if err != nil {
		return nil, err
	}
	if mechanicID != nil && *mechanicID == 0 {
		return nil, nil
	}
	return mechanicID, nil
}

func (r *repo) InsertRequest(ctx context.Context, db *gorm.DB, request *domain.RatingRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) FindRequestByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RatingRequest, error) {
	return r.findRequest(db.WithContext(ctx), id)
}

func (r *repo) FindRequestByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.RatingRequest, error) {
	return r.findRequest(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) findRequest(stmt *gorm.DB, id snowflake.ID) (*domain.RatingRequest, error) {
	var request domain.RatingRequest
	err := stmt.Where("id = ?", id).Take(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) UpdateRequest(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&domain.RatingRequest{}).
		Where("id = ?", id).
		Updates(fields).Error
}
