package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorlane/motorlane/internal/report/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, request *domain.ReportRequest) (*domain.ReportRequest, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "workshop_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status": domain.StatusPending,
			}),
		}).
		Create(request).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the surviving row, not the candidate.
	var current domain.ReportRequest
	err = db.WithContext(ctx).
		Where("workshop_id = ? AND month = ? AND year = ?", request.WorkshopID, request.Month, request.Year).
		Take(&current).Error
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ReportRequest, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.ReportRequest, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.ReportRequest, error) {
	var request domain.ReportRequest
	err := stmt.Where("id = ?", id).Take(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&domain.ReportRequest{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workshopID snowflake.ID, status string, page pagination.Pagination) ([]*domain.ReportRequest, error) {
	var requests []*domain.ReportRequest
	stmt := db.WithContext(ctx).
		Model(&domain.ReportRequest{}).
		Where("workshop_id = ?", workshopID)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repo) SumInvoices(ctx context.Context, db *gorm.DB, workshopID snowflake.ID, start, end time.Time) (domain.PeriodTotals, error) {
	var totals domain.PeriodTotals
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS invoice_count,
			COALESCE(SUM(total), 0) AS total_revenue,
			COALESCE(SUM(CASE WHEN status = 'paid' THEN total ELSE 0 END), 0) AS paid_revenue
		 FROM invoices
		 WHERE workshop_id = ? AND created_at >= ? AND created_at < ?`,
		workshopID, start, end,
	).Scan(&totals).Error
	return totals, err
}
