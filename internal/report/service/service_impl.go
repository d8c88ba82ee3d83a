package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/actorcontext"
	"github.com/motorlane/motorlane/internal/clock"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/report/domain"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Repo     domain.Repository
	Notifier notificationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	repo     domain.Repository
	notifier notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("report.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		repo:     p.Repo,
		notifier: p.Notifier,
	}
}

func (s *Service) RequestReport(ctx context.Context, req domain.RequestReportRequest) (domain.ReportRequest, error) {
	workshopID, err := parseID(req.WorkshopID)
	if err != nil {
		return domain.ReportRequest{}, domain.ErrInvalidWorkshop
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2100 {
		return domain.ReportRequest{}, domain.ErrInvalidPeriod
	}
	if err := s.requireWorkshop(ctx, workshopID); err != nil {
		return domain.ReportRequest{}, err
	}

	candidate := domain.ReportRequest{
		ID:         s.genID.Generate(),
		WorkshopID: workshopID,
		Month:      req.Month,
		Year:       req.Year,
		Status:     domain.StatusPending,
		CreatedAt:  s.clock.Now(),
	}

	current, err := s.repo.Upsert(ctx, s.db, &candidate)
	if err != nil {
		return domain.ReportRequest{}, err
	}

	s.log.Info("report requested",
		zap.Int64("workshop_id", workshopID.Int64()),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
	)
	return *current, nil
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.ReportRequest, error) {
	id, err := parseID(req.RequestID)
	if err != nil {
		return domain.ReportRequest{}, domain.ErrInvalidID
	}

	if role, _ := actorcontext.Role(ctx); role != identitydomain.RoleAdmin {
		return domain.ReportRequest{}, domain.ErrForbidden
	}

	var generated domain.ReportRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrNotFound
		}

		start, end := request.Period()
		totals, err := s.repo.SumInvoices(ctx, tx, request.WorkshopID, start, end)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		err = s.repo.Update(ctx, tx, request.ID, map[string]any{
			"status":        domain.StatusGenerated,
			"invoice_count": totals.InvoiceCount,
			"total_revenue": totals.TotalRevenue,
			"paid_revenue":  totals.PaidRevenue,
			"generated_at":  now,
		})
		if err != nil {
			return err
		}

		err = s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
			ActorID:    request.WorkshopID,
			TargetRole: identitydomain.RoleWorkshop,
			Source:     notificationdomain.SourceAdmin,
			EventType:  notificationdomain.EventReportGenerated,
			Title:      "Monthly report ready",
			Message:    fmt.Sprintf("Your %04d-%02d report was generated.", request.Year, request.Month),
			Data:       datatypes.JSONMap{"request_id": request.ID.String()},
		})
		if err != nil {
			return err
		}

		request.Status = domain.StatusGenerated
		request.InvoiceCount = totals.InvoiceCount
		request.TotalRevenue = totals.TotalRevenue
		request.PaidRevenue = totals.PaidRevenue
		request.GeneratedAt = &now
		generated = *request
		return nil
	})
	if err != nil {
		return domain.ReportRequest{}, err
	}

	s.metrics.ReportsGenerated.Inc()
	s.log.Info("report generated",
		zap.Int64("request_id", generated.ID.Int64()),
		zap.Int("invoice_count", generated.InvoiceCount),
		zap.Float64("total_revenue", generated.TotalRevenue),
	)
	return generated, nil
}

func (s *Service) List(ctx context.Context, req domain.ListReportRequest) (domain.ListReportResponse, error) {
	workshopID, err := parseID(req.WorkshopID)
	if err != nil {
		return domain.ListReportResponse{}, domain.ErrInvalidWorkshop
	}
	status := strings.TrimSpace(req.Status)
	if status != "" && status != domain.StatusPending && status != domain.StatusGenerated && status != domain.StatusRejected {
		return domain.ListReportResponse{}, domain.ErrInvalidStatus
	}
	if err := s.requireWorkshop(ctx, workshopID); err != nil {
		return domain.ListReportResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, workshopID, status, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListReportResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(request *domain.ReportRequest) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        request.ID.String(),
			CreatedAt: request.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	reports := make([]domain.ReportRequest, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		reports = append(reports, *item)
	}

	resp := domain.ListReportResponse{Reports: reports}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) requireWorkshop(ctx context.Context, workshopID snowflake.ID) error {
	role, _ := actorcontext.Role(ctx)
	if role != identitydomain.RoleWorkshop {
		return nil
	}
	if actorWorkshop, ok := actorcontext.WorkshopID(ctx); !ok || actorWorkshop != workshopID {
		return domain.ErrForbidden
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
