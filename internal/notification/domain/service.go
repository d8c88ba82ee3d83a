package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type PublishRequest struct {
	ActorID    snowflake.ID
	TargetRole string
	Source     string
	EventType  string
	Title      string
	Message    string
	Data       datatypes.JSONMap
}

type ListNotificationRequest struct {
	ActorID   string
	Unread    bool
	PageToken string
	PageSize  int
}

type ListNotificationResponse struct {
	pagination.PageInfo
	Notifications []NotificationEvent `json:"notifications"`
}

type MarkReadRequest struct {
	ActorID  string
	EventIDs []string
}

type Service interface {
	// PublishTx inserts the inbox row using the caller's transaction so
	// the row commits or rolls back together with the transition that
	// produced it.
	PublishTx(ctx context.Context, tx *gorm.DB, req PublishRequest) error
	List(ctx context.Context, req ListNotificationRequest) (ListNotificationResponse, error)
	// MarkRead stamps the given events, or every unread event for the
	// actor when EventIDs is empty. Returns the number of rows touched.
	MarkRead(ctx context.Context, req MarkReadRequest) (int64, error)
}

var (
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidTarget    = errors.New("invalid_target")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidID        = errors.New("invalid_notification_id")
)
