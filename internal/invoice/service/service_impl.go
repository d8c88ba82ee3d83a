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
	"github.com/motorlane/motorlane/internal/config"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	"github.com/motorlane/motorlane/internal/invoice/domain"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/workflow"
	"github.com/motorlane/motorlane/pkg/db"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Workflow *config.WorkflowConfigHolder
	Repo     domain.Repository
	Jobs     jobdomain.Service
	Notifier notificationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	workflow *config.WorkflowConfigHolder
	repo     domain.Repository
	jobs     jobdomain.Service
	notifier notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		workflow: p.Workflow,
		repo:     p.Repo,
		jobs:     p.Jobs,
		notifier: p.Notifier,
	}
}

func (s *Service) GenerateFromJob(ctx context.Context, req domain.GenerateFromJobRequest) (domain.Invoice, error) {
	if req.TaxRate < 0 || req.TaxRate > 1 {
		return domain.Invoice{}, domain.ErrInvalidTaxRate
	}
	if req.Labor != nil {
		if strings.TrimSpace(req.Labor.Description) == "" || req.Labor.Amount < 0 {
			return domain.Invoice{}, domain.ErrInvalidLabor
		}
	}

	job, err := s.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		if err == jobdomain.ErrNotFound {
			return domain.Invoice{}, domain.ErrJobNotFound
		}
		if err == jobdomain.ErrInvalidID {
			return domain.Invoice{}, domain.ErrInvalidJob
		}
		return domain.Invoice{}, err
	}
	if job.Status != jobdomain.StatusCompleted {
		return domain.Invoice{}, domain.ErrJobNotCompleted
	}
	if err := s.requireWorkshop(ctx, job.WorkshopID); err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now()
	jobID := job.ID
	invoice := domain.Invoice{
		ID:         s.genID.Generate(),
		JobID:      &jobID,
		OwnerID:    job.OwnerID,
		WorkshopID: job.WorkshopID,
		Status:     domain.StatusDraft,
		CreatedAt:  now,
		DueDate:    now.AddDate(0, 0, s.workflow.Current().InvoiceDueDays),
	}

	position := 0
	for _, part := range job.Parts {
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Description: part.Name,
			Quantity:    part.Quantity,
			UnitPrice:   part.UnitCost,
			LineTotal:   float64(part.Quantity) * part.UnitCost,
			Position:    position,
		})
		position++
	}
	if req.Labor != nil {
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Description: strings.TrimSpace(req.Labor.Description),
			Quantity:    1,
			UnitPrice:   req.Labor.Amount,
			LineTotal:   req.Labor.Amount,
			Position:    position,
		})
	}
	if len(invoice.Items) == 0 {
		return domain.Invoice{}, domain.ErrNoBillableItems
	}

	invoice.Subtotal, invoice.Tax, invoice.Total = invoice.RecomputeTotals(req.TaxRate)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.ConflictRetries.WithLabelValues("invoice").Inc()
			return domain.Invoice{}, domain.ErrJobAlreadyBilled
		}
		return domain.Invoice{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("invoice", domain.StatusDraft).Inc()
	s.log.Info("invoice generated",
		zap.Int64("invoice_id", invoice.ID.Int64()),
		zap.Int64("job_id", jobID.Int64()),
		zap.Float64("total", invoice.Total),
	)
	return invoice, nil
}

func (s *Service) SetStatus(ctx context.Context, req domain.SetStatusRequest) (domain.Invoice, error) {
	id, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	target := strings.TrimSpace(req.Status)
	if !domain.ValidStatus(target) {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	epsilon := s.workflow.Current().RoundingEpsilon

	var updated domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if err := s.requireWorkshop(ctx, invoice.WorkshopID); err != nil {
			return err
		}

		// Totals are re-verified on every mutation so stored amounts can
		// never drift from the line items.
		if !invoice.TotalsConsistent(epsilon) {
			s.log.Error("invoice totals drifted from items",
				zap.Int64("invoice_id", invoice.ID.Int64()),
				zap.Float64("subtotal", invoice.Subtotal),
				zap.Float64("total", invoice.Total),
			)
			return &workflow.InvariantViolationError{
				Entity: "invoice",
				Reason: "stored totals disagree with recomputed line items",
			}
		}

		if !domain.Transitions.Can(invoice.Status, target) {
			return &workflow.InvalidTransitionError{
				Entity: "invoice",
				From:   invoice.Status,
				To:     target,
			}
		}

		now := s.clock.Now()
		fields := map[string]any{"status": target}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			fields["notes"] = notes
			invoice.Notes = notes
		}
		if target == domain.StatusPaid {
			fields["paid_date"] = now
			invoice.PaidDate = &now
		}
		if err := s.repo.Update(ctx, tx, invoice.ID, fields); err != nil {
			return err
		}

		switch target {
		case domain.StatusApproved, domain.StatusRejected, domain.StatusPaid:
			eventType := notificationdomain.EventInvoiceApproved
			title := "Invoice approved"
			message := fmt.Sprintf("Invoice for %.2f was approved and is due %s.",
				invoice.Total, invoice.DueDate.Format("2006-01-02"))
			switch target {
			case domain.StatusRejected:
				eventType = notificationdomain.EventInvoiceRejected
				title = "Invoice rejected"
				message = fmt.Sprintf("Invoice for %.2f was rejected.", invoice.Total)
			case domain.StatusPaid:
				eventType = notificationdomain.EventInvoicePaid
				title = "Invoice paid"
				message = fmt.Sprintf("Invoice for %.2f was marked paid.", invoice.Total)
			}
			err := s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
				ActorID:    invoice.OwnerID,
				TargetRole: identitydomain.RoleOwner,
				Source:     notificationdomain.SourceWorkshop,
				EventType:  eventType,
				Title:      title,
				Message:    message,
				Data:       datatypes.JSONMap{"invoice_id": invoice.ID.String()},
			})
			if err != nil {
				return err
			}
		}

		invoice.Status = target
		updated = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("invoice", target).Inc()
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.InvoiceView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.InvoiceView{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.InvoiceView{}, err
	}
	if invoice == nil {
		return domain.InvoiceView{}, domain.ErrNotFound
	}

	return domain.InvoiceView{
		Invoice:         *invoice,
		EffectiveStatus: invoice.EffectiveStatus(s.clock.Now()),
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListInvoiceFilter{}
	if strings.TrimSpace(req.OwnerID) != "" {
		id, err := parseID(req.OwnerID)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidID
		}
		filter.OwnerID = id
	}
	if strings.TrimSpace(req.WorkshopID) != "" {
		id, err := parseID(req.WorkshopID)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidID
		}
		filter.WorkshopID = id
	}
	if filter.OwnerID == 0 && filter.WorkshopID == 0 {
		return domain.ListInvoiceResponse{}, domain.ErrMissingFilter
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	now := s.clock.Now()
	invoices := make([]domain.InvoiceView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, domain.InvoiceView{
			Invoice:         *item,
			EffectiveStatus: item.EffectiveStatus(now),
		})
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
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
