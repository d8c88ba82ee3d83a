package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Repo    domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
	repo    domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		repo:    p.Repo,
	}
}

func (s *Service) PublishTx(ctx context.Context, tx *gorm.DB, req domain.PublishRequest) error {
	if req.ActorID == 0 {
		return domain.ErrInvalidActor
	}
	if strings.TrimSpace(req.TargetRole) == "" || strings.TrimSpace(req.Source) == "" {
		return domain.ErrInvalidTarget
	}
	if strings.TrimSpace(req.EventType) == "" {
		return domain.ErrInvalidEventType
	}

	event := domain.NotificationEvent{
		ID:         s.genID.Generate(),
		ActorID:    req.ActorID,
		TargetRole: req.TargetRole,
		Source:     req.Source,
		EventType:  req.EventType,
		Title:      strings.TrimSpace(req.Title),
		Message:    strings.TrimSpace(req.Message),
		Data:       req.Data,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, tx, &event); err != nil {
		return err
	}

	s.metrics.NotificationsSent.WithLabelValues(req.EventType).Inc()
	s.log.Debug("published",
		zap.String("event_type", req.EventType),
		zap.Int64("actor_id", req.ActorID.Int64()),
	)
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationRequest) (domain.ListNotificationResponse, error) {
	actorID, err := s.parseID(req.ActorID)
	if err != nil {
		return domain.ListNotificationResponse{}, domain.ErrInvalidActor
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListByActor(ctx, s.db, actorID, req.Unread, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(event *domain.NotificationEvent) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        event.ID.String(),
			CreatedAt: event.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	events := make([]domain.NotificationEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}

	resp := domain.ListNotificationResponse{Notifications: events}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, req domain.MarkReadRequest) (int64, error) {
	actorID, err := s.parseID(req.ActorID)
	if err != nil {
		return 0, domain.ErrInvalidActor
	}

	ids := make([]snowflake.ID, 0, len(req.EventIDs))
	for _, raw := range req.EventIDs {
		id, err := s.parseID(raw)
		if err != nil {
			return 0, domain.ErrInvalidID
		}
		ids = append(ids, id)
	}

	return s.repo.MarkRead(ctx, s.db, actorID, ids, s.clock.Now())
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
