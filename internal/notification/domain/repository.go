package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *NotificationEvent) error
	ListByActor(ctx context.Context, db *gorm.DB, actorID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*NotificationEvent, error)
	MarkRead(ctx context.Context, db *gorm.DB, actorID snowflake.ID, ids []snowflake.ID, at time.Time) (int64, error)
}
