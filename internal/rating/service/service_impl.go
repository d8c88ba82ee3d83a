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
	auditdomain "github.com/motorlane/motorlane/internal/audit/domain"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/clock"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/rating/domain"
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
	Repo     domain.Repository
	Bookings bookingdomain.Service
	Notifier notificationdomain.Service
	Audit    auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	repo     domain.Repository
	bookings bookingdomain.Service
	notifier notificationdomain.Service
	audit    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rating.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		repo:     p.Repo,
		bookings: p.Bookings,
		notifier: p.Notifier,
		audit:    p.Audit,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRatingRequest) (domain.Rating, error) {
	ownerID, err := parseID(req.OwnerID)
	if err != nil {
		return domain.Rating{}, domain.ErrInvalidOwner
	}
	if req.Rating < 1 || req.Rating > 5 {
		return domain.Rating{}, domain.ErrInvalidScore
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == bookingdomain.ErrNotFound {
			return domain.Rating{}, domain.ErrBookingNotFound
		}
		if err == bookingdomain.ErrInvalidID {
			return domain.Rating{}, domain.ErrInvalidBooking
		}
		return domain.Rating{}, err
	}
	if booking.OwnerID != ownerID {
		return domain.Rating{}, domain.ErrForbidden
	}
	if booking.Status != bookingdomain.StatusCompleted {
		return domain.Rating{}, domain.ErrBookingNotDone
	}

	if actorID, ok := actorcontext.ActorID(ctx); ok {
		if role, _ := actorcontext.Role(ctx); role == identitydomain.RoleOwner && actorID != ownerID {
			return domain.Rating{}, domain.ErrForbidden
		}
	}

	mechanicID, err := s.repo.FindBookingMechanic(ctx, s.db, booking.ID)
	if err != nil {
		return domain.Rating{}, err
	}

	rating := domain.Rating{
		ID:         s.genID.Generate(),
		BookingID:  booking.ID,
		OwnerID:    ownerID,
		WorkshopID: booking.WorkshopID,
		MechanicID: mechanicID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &rating); err != nil {
			return err
		}
		return s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
			ActorID:    booking.WorkshopID,
			TargetRole: identitydomain.RoleWorkshop,
			Source:     notificationdomain.SourceOwner,
			EventType:  notificationdomain.EventRatingReceived,
			Title:      "New rating received",
			Message:    fmt.Sprintf("A customer rated their %s service %d/5.", booking.ServiceType, req.Rating),
			Data:       datatypes.JSONMap{"rating_id": rating.ID.String()},
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.ConflictRetries.WithLabelValues("rating").Inc()
			return domain.Rating{}, domain.ErrAlreadyRated
		}
		return domain.Rating{}, err
	}

	s.log.Info("rating submitted",
		zap.Int64("rating_id", rating.ID.Int64()),
		zap.Int64("booking_id", booking.ID.Int64()),
		zap.Int("score", req.Rating),
	)
	return rating, nil
}

func (s *Service) Respond(ctx context.Context, req domain.RespondRequest) (domain.RatingView, error) {
	id, err := parseID(req.RatingID)
	if err != nil {
		return domain.RatingView{}, domain.ErrInvalidID
	}

	if hint := strings.TrimSpace(req.StatusHint); hint != "" {
		s.log.Debug("ignoring advisory status hint", zap.String("hint", hint))
	}

	var view domain.RatingView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rating, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if rating == nil {
			return domain.ErrNotFound
		}
		if err := s.requireWorkshop(ctx, rating.WorkshopID); err != nil {
			return err
		}

		now := s.clock.Now()
		response := strings.TrimSpace(req.Response)
		err = s.repo.Update(ctx, tx, rating.ID, map[string]any{
			"response":     response,
			"responded_at": now,
		})
		if err != nil {
			return err
		}

		if response != "" {
			err = s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
				ActorID:    rating.OwnerID,
				TargetRole: identitydomain.RoleOwner,
				Source:     notificationdomain.SourceWorkshop,
				EventType:  notificationdomain.EventRatingResponse,
				Title:      "Workshop replied to your rating",
				Message:    response,
				Data:       datatypes.JSONMap{"rating_id": rating.ID.String()},
			})
			if err != nil {
				return err
			}
		}

		rating.Response = response
		rating.RespondedAt = &now
		view = domain.RatingView{Rating: *rating, Status: rating.Status()}
		return nil
	})
	if err != nil {
		return domain.RatingView{}, err
	}
	return view, nil
}

func (s *Service) RequestDeletion(ctx context.Context, req domain.RequestDeletionRequest) (domain.RatingRequest, error) {
	ratingID, err := parseID(req.RatingID)
	if err != nil {
		return domain.RatingRequest{}, domain.ErrInvalidID
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.RatingRequest{}, domain.ErrInvalidReason
	}

	rating, err := s.repo.FindByID(ctx, s.db, ratingID)
	if err != nil {
		return domain.RatingRequest{}, err
	}
	if rating == nil {
		return domain.RatingRequest{}, domain.ErrNotFound
	}
	if err := s.requireWorkshop(ctx, rating.WorkshopID); err != nil {
		return domain.RatingRequest{}, err
	}

	requestedBy, ok := actorcontext.ActorID(ctx)
	if !ok {
		return domain.RatingRequest{}, domain.ErrForbidden
	}

	open := true
	request := domain.RatingRequest{
		ID:          s.genID.Generate(),
		RatingID:    &ratingID,
		Open:        &open,
		WorkshopID:  rating.WorkshopID,
		RequestedBy: requestedBy,
		Reason:      reason,
		Status:      domain.RequestPending,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.InsertRequest(ctx, s.db, &request); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.ConflictRetries.WithLabelValues("rating_request").Inc()
			return domain.RatingRequest{}, domain.ErrDisputeOpen
		}
		return domain.RatingRequest{}, err
	}

	s.log.Info("deletion requested",
		zap.Int64("rating_id", ratingID.Int64()),
		zap.Int64("request_id", request.ID.Int64()),
	)
	return request, nil
}

func (s *Service) ResolveRequest(ctx context.Context, req domain.ResolveRequestRequest) (domain.RatingRequest, error) {
	requestID, err := parseID(req.RequestID)
	if err != nil {
		return domain.RatingRequest{}, domain.ErrInvalidID
	}
	action := strings.TrimSpace(req.Action)
	if !domain.ValidResolution(action) {
		return domain.RatingRequest{}, domain.ErrInvalidResolution
	}

	// Only admins mediate disputes, even if a policy misconfiguration
	// lets the request through the capability gate.
	if role, _ := actorcontext.Role(ctx); role != identitydomain.RoleAdmin {
		return domain.RatingRequest{}, domain.ErrForbidden
	}

	var resolved domain.RatingRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.repo.FindRequestByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrRequestNotFound
		}
		if request.ResolvedAt != nil {
			return domain.ErrAlreadyResolved
		}

		now := s.clock.Now()
		fields := map[string]any{
			"status":      action,
			"admin_notes": strings.TrimSpace(req.AdminNotes),
			"resolved_at": now,
			"open":        nil,
		}

		if request.RatingID != nil {
			switch action {
			case domain.RequestApproved:
				// Soft-hide: the rating stays for the audit trail but
				// disappears from owner and workshop listings.
				if err := s.repo.Update(ctx, tx, *request.RatingID, map[string]any{"hidden": true}); err != nil {
					return err
				}
			case domain.RequestDeleted:
				if err := s.repo.Delete(ctx, tx, *request.RatingID); err != nil {
					return err
				}
				fields["rating_id"] = nil
			}
		}

		if err := s.repo.UpdateRequest(ctx, tx, request.ID, fields); err != nil {
			return err
		}

		ratingRef := ""
		if request.RatingID != nil {
			ratingRef = request.RatingID.String()
		}
		err = s.audit.RecordTx(ctx, tx, auditdomain.RecordRequest{
			Action:     "rating_request.resolve",
			TargetType: "rating_request",
			TargetID:   request.ID.String(),
			Metadata: map[string]any{
				"resolution": action,
				"rating_id":  ratingRef,
			},
		})
		if err != nil {
			return err
		}

		err = s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
			ActorID:    request.RequestedBy,
			TargetRole: identitydomain.RoleWorkshop,
			Source:     notificationdomain.SourceAdmin,
			EventType:  notificationdomain.EventDisputeResolved,
			Title:      "Rating dispute resolved",
			Message:    fmt.Sprintf("Your deletion request was %s.", action),
			Data:       datatypes.JSONMap{"request_id": request.ID.String()},
		})
		if err != nil {
			return err
		}

		request.Status = action
		request.AdminNotes = strings.TrimSpace(req.AdminNotes)
		request.ResolvedAt = &now
		request.Open = nil
		if action == domain.RequestDeleted {
			request.RatingID = nil
		}
		resolved = *request
		return nil
	})
	if err != nil {
		return domain.RatingRequest{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("rating_request", action).Inc()
	s.log.Info("dispute resolved",
		zap.Int64("request_id", resolved.ID.Int64()),
		zap.String("resolution", action),
	)
	return resolved, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRatingRequest) (domain.ListRatingResponse, error) {
	filter := domain.ListRatingFilter{}
	if strings.TrimSpace(req.OwnerID) != "" {
		id, err := parseID(req.OwnerID)
		if err != nil {
			return domain.ListRatingResponse{}, domain.ErrInvalidOwner
		}
		filter.OwnerID = id
	}
	if strings.TrimSpace(req.WorkshopID) != "" {
		id, err := parseID(req.WorkshopID)
		if err != nil {
			return domain.ListRatingResponse{}, domain.ErrInvalidID
		}
		filter.WorkshopID = id
	}
	if filter.OwnerID == 0 && filter.WorkshopID == 0 {
		return domain.ListRatingResponse{}, domain.ErrMissingFilter
	}
	if role, _ := actorcontext.Role(ctx); role == identitydomain.RoleAdmin {
		filter.IncludeHidden = true
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
		return domain.ListRatingResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(rating *domain.Rating) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        rating.ID.String(),
			CreatedAt: rating.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	ratings := make([]domain.RatingView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		ratings = append(ratings, domain.RatingView{Rating: *item, Status: item.Status()})
	}

	resp := domain.ListRatingResponse{Ratings: ratings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListPending(ctx context.Context, rawOwnerID string) ([]domain.PendingRating, error) {
	ownerID, err := parseID(rawOwnerID)
	if err != nil {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.ListUnratedBookings(ctx, s.db, ownerID)
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
