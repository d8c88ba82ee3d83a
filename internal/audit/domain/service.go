package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type RecordRequest struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	Action     string
	TargetType string
	TargetID   string
	PageToken  string
	PageSize   int
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListAuditLogRequest) ([]*AuditLog, error)
}

type Service interface {
	// RecordTx writes the entry with the caller's transaction so the
	// audit row commits together with the mutation it describes. The
	// acting identity is taken from the request context.
	RecordTx(ctx context.Context, tx *gorm.DB, req RecordRequest) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidAction = errors.New("invalid_audit_action")
	ErrInvalidActor  = errors.New("invalid_audit_actor")
)
