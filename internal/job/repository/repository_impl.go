package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorlane/motorlane/internal/job/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Job, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Job, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Job, error) {
	var job domain.Job
	err := stmt.
		Preload("Parts").
		Preload("RepairLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("logged_at asc, id asc")
		}).
		Where("id = ?", id).
		Take(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListJobFilter, page pagination.Pagination) ([]*domain.Job, error) {
	var jobs []*domain.Job
	stmt := db.WithContext(ctx).Model(&domain.Job{}).Preload("Parts")
	if filter.WorkshopID != 0 {
		stmt = stmt.Where("workshop_id = ?", filter.WorkshopID)
	}
	if filter.MechanicID != 0 {
		stmt = stmt.Where("mechanic_id = ?", filter.MechanicID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) InsertPart(ctx context.Context, tx *gorm.DB, part *domain.JobPart) error {
	return tx.WithContext(ctx).Create(part).Error
}

func (r *repo) DeletePart(ctx context.Context, tx *gorm.DB, jobID, partID snowflake.ID) (int64, error) {
	res := tx.WithContext(ctx).
		Where("job_id = ? AND id = ?", jobID, partID).
		Delete(&domain.JobPart{})
	return res.RowsAffected, res.Error
}

func (r *repo) InsertRepairEntry(ctx context.Context, tx *gorm.DB, entry *domain.JobRepairEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *repo) Touch(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}
