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
	"github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/internal/config"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/ratelimit"
	vehicledomain "github.com/motorlane/motorlane/internal/vehicle/domain"
	"github.com/motorlane/motorlane/internal/workflow"
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
	Limiter  *ratelimit.TokenBucket `optional:"true"`
	Repo     domain.Repository
	Vehicles vehicledomain.Service
	Notifier notificationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	workflow *config.WorkflowConfigHolder
	limiter  *ratelimit.TokenBucket
	repo     domain.Repository
	vehicles vehicledomain.Service
	notifier notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("booking.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		workflow: p.Workflow,
		limiter:  p.Limiter,
		repo:     p.Repo,
		vehicles: p.Vehicles,
		notifier: p.Notifier,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitBookingRequest) (domain.Booking, error) {
	ownerID, err := parseID(req.OwnerID)
	if err != nil {
		return domain.Booking{}, domain.ErrInvalidOwner
	}
	workshopID, err := parseID(req.WorkshopID)
	if err != nil {
		return domain.Booking{}, domain.ErrInvalidWorkshop
	}

	// Owners submit only as themselves; the resolved actor is the source
	// of truth, not the request body.
	if actorID, ok := actorcontext.ActorID(ctx); ok {
		if role, _ := actorcontext.Role(ctx); role == identitydomain.RoleOwner && actorID != ownerID {
			return domain.Booking{}, domain.ErrForbidden
		}
	}

	serviceType := strings.TrimSpace(req.ServiceType)
	if serviceType == "" {
		return domain.Booking{}, domain.ErrInvalidServiceType
	}

	preferredDate := strings.TrimSpace(req.PreferredDate)
	if _, err := time.Parse("2006-01-02", preferredDate); err != nil {
		return domain.Booking{}, domain.ErrInvalidPreferredDate
	}
	preferredTime := strings.TrimSpace(req.PreferredTime)
	if _, err := time.Parse("15:04", preferredTime); err != nil {
		return domain.Booking{}, domain.ErrInvalidPreferredTime
	}

	contactName := strings.TrimSpace(req.Contact.Name)
	contactEmail := strings.TrimSpace(req.Contact.Email)
	if contactName == "" || contactEmail == "" || !strings.Contains(contactEmail, "@") {
		return domain.Booking{}, domain.ErrInvalidContact
	}

	var vehicleID *snowflake.ID
	if strings.TrimSpace(req.VehicleID) != "" {
		id, err := parseID(req.VehicleID)
		if err != nil {
			return domain.Booking{}, domain.ErrInvalidVehicle
		}
		vehicle, err := s.vehicles.GetVehicle(ctx, id)
		if err != nil {
			return domain.Booking{}, domain.ErrInvalidVehicle
		}
		if vehicle.OwnerID != ownerID {
			return domain.Booking{}, domain.ErrInvalidVehicle
		}
		vehicleID = &id
	}

	cfg := s.workflow.Current()
	limit, err := s.limiter.Allow(ctx,
		fmt.Sprintf("booking:submit:%s", ownerID.String()),
		float64(cfg.BookingPerMinute)/60.0,
		cfg.BookingBurst,
	)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing", zap.Error(err))
	} else if !limit.Allowed {
		return domain.Booking{}, domain.ErrRateLimited
	}

	now := s.clock.Now()
	booking := domain.Booking{
		ID:            s.genID.Generate(),
		OwnerID:       ownerID,
		WorkshopID:    workshopID,
		VehicleID:     vehicleID,
		ContactName:   contactName,
		ContactEmail:  contactEmail,
		ContactPhone:  strings.TrimSpace(req.Contact.Phone),
		ServiceType:   serviceType,
		PreferredDate: preferredDate,
		PreferredTime: preferredTime,
		Description:   strings.TrimSpace(req.Description),
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &booking); err != nil {
		return domain.Booking{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("booking", domain.StatusPending).Inc()
	s.log.Info("booking submitted",
		zap.Int64("booking_id", booking.ID.Int64()),
		zap.Int64("workshop_id", workshopID.Int64()),
		zap.String("service_type", serviceType),
	)
	return booking, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBookingRequest) (domain.ListBookingResponse, error) {
	filter := domain.ListBookingFilter{Status: strings.TrimSpace(req.Status)}
	if strings.TrimSpace(req.OwnerID) != "" {
		id, err := parseID(req.OwnerID)
		if err != nil {
			return domain.ListBookingResponse{}, domain.ErrInvalidOwner
		}
		filter.OwnerID = id
	}
	if strings.TrimSpace(req.WorkshopID) != "" {
		id, err := parseID(req.WorkshopID)
		if err != nil {
			return domain.ListBookingResponse{}, domain.ErrInvalidWorkshop
		}
		filter.WorkshopID = id
	}
	if filter.OwnerID == 0 && filter.WorkshopID == 0 {
		return domain.ListBookingResponse{}, domain.ErrMissingFilter
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return domain.ListBookingResponse{}, domain.ErrInvalidStatus
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
		return domain.ListBookingResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(booking *domain.Booking) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        booking.ID.String(),
			CreatedAt: booking.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	bookings := make([]domain.Booking, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bookings = append(bookings, *item)
	}

	resp := domain.ListBookingResponse{Bookings: bookings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) AdvanceStatus(ctx context.Context, req domain.AdvanceStatusRequest) (domain.Booking, error) {
	id, err := parseID(req.BookingID)
	if err != nil {
		return domain.Booking{}, domain.ErrInvalidID
	}
	target := strings.TrimSpace(req.Status)
	if !domain.ValidStatus(target) {
		return domain.Booking{}, domain.ErrInvalidStatus
	}

	var updated domain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return domain.ErrNotFound
		}

		// Workshop staff only touch bookings addressed to their workshop.
		if role, _ := actorcontext.Role(ctx); role == identitydomain.RoleWorkshop {
			if workshopID, ok := actorcontext.WorkshopID(ctx); !ok || workshopID != booking.WorkshopID {
				return domain.ErrForbidden
			}
		}

		if !domain.Transitions.Can(booking.Status, target) {
			return &workflow.InvalidTransitionError{
				Entity: "booking",
				From:   booking.Status,
				To:     target,
			}
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, tx, booking.ID, target, now); err != nil {
			return err
		}

		switch target {
		case domain.StatusConfirmed, domain.StatusRejected:
			eventType := notificationdomain.EventBookingConfirmed
			title := "Booking confirmed"
			message := fmt.Sprintf("Your %s booking for %s %s was confirmed.",
				booking.ServiceType, booking.PreferredDate, booking.PreferredTime)
			if target == domain.StatusRejected {
				eventType = notificationdomain.EventBookingRejected
				title = "Booking rejected"
				message = fmt.Sprintf("Your %s booking for %s %s was rejected.",
					booking.ServiceType, booking.PreferredDate, booking.PreferredTime)
			}
			err := s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
				ActorID:    booking.OwnerID,
				TargetRole: identitydomain.RoleOwner,
				Source:     notificationdomain.SourceWorkshop,
				EventType:  eventType,
				Title:      title,
				Message:    message,
				Data:       datatypes.JSONMap{"booking_id": booking.ID.String()},
			})
			if err != nil {
				return err
			}
		}

		booking.Status = target
		booking.UpdatedAt = now
		updated = *booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("booking", target).Inc()
	s.log.Info("booking status advanced",
		zap.Int64("booking_id", updated.ID.Int64()),
		zap.String("status", target),
	)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Booking, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Booking{}, domain.ErrInvalidID
	}

	booking, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking == nil {
		return domain.Booking{}, domain.ErrNotFound
	}
	return *booking, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
