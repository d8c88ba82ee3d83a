package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/actorcontext"
	"github.com/motorlane/motorlane/internal/audit/domain"
	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, req domain.RecordRequest) error {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return domain.ErrInvalidAction
	}

	actorID, ok := actorcontext.ActorID(ctx)
	if !ok {
		return domain.ErrInvalidActor
	}
	role, _ := actorcontext.Role(ctx)

	payload := map[string]any{}
	for key, value := range req.Metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := actorcontext.RequestID(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	targetType := strings.TrimSpace(req.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	entry := domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorID:    actorID,
		ActorRole:  role,
		Action:     action,
		TargetType: targetType,
		TargetID:   strings.TrimSpace(req.TargetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListAuditLogRequest) (domain.ListAuditLogResponse, error) {
	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return domain.ListAuditLogResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, req.PageSize, func(entry *domain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > req.PageSize {
		items = items[:req.PageSize]
	}

	entries := make([]domain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.ListAuditLogResponse{AuditLogs: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
