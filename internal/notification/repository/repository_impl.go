package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.NotificationEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListByActor(ctx context.Context, db *gorm.DB, actorID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*domain.NotificationEvent, error) {
	var events []*domain.NotificationEvent
	stmt := db.WithContext(ctx).
		Model(&domain.NotificationEvent{}).
		Where("actor_id = ?", actorID)
	if unreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, actorID snowflake.ID, ids []snowflake.ID, at time.Time) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.NotificationEvent{}).
		Where("actor_id = ? AND read_at IS NULL", actorID)
	if len(ids) > 0 {
		stmt = stmt.Where("id IN ?", ids)
	}
	res := stmt.Update("read_at", at)
	return res.RowsAffected, res.Error
}
