package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/audit/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListAuditLogRequest) ([]*domain.AuditLog, error) {
	var entries []*domain.AuditLog
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})
	if req.Action != "" {
		stmt = stmt.Where("action = ?", req.Action)
	}
	if req.TargetType != "" {
		stmt = stmt.Where("target_type = ?", req.TargetType)
	}
	if req.TargetID != "" {
		stmt = stmt.Where("target_id = ?", req.TargetID)
	}
	stmt = option.ApplyPagination(pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  req.PageSize,
	}).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
