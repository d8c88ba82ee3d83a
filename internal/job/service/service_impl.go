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
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/clock"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	"github.com/motorlane/motorlane/internal/job/domain"
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
	Repo     domain.Repository
	Bookings bookingdomain.Service
	Identity identitydomain.Service
	Notifier notificationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	repo     domain.Repository
	bookings bookingdomain.Service
	identity identitydomain.Service
	notifier notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("job.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		repo:     p.Repo,
		bookings: p.Bookings,
		identity: p.Identity,
		notifier: p.Notifier,
	}
}

func (s *Service) CreateFromBooking(ctx context.Context, req domain.CreateFromBookingRequest) (domain.Job, error) {
	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == bookingdomain.ErrNotFound {
			return domain.Job{}, domain.ErrBookingNotFound
		}
		if err == bookingdomain.ErrInvalidID {
			return domain.Job{}, domain.ErrInvalidBooking
		}
		return domain.Job{}, err
	}

	switch booking.Status {
	case bookingdomain.StatusConfirmed, bookingdomain.StatusInProgress:
	default:
		return domain.Job{}, domain.ErrBookingNotConfirmed
	}

	if err := s.requireWorkshop(ctx, booking.WorkshopID); err != nil {
		return domain.Job{}, err
	}

	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return domain.Job{}, domain.ErrInvalidPriority
	}

	now := s.clock.Now()
	bookingID := booking.ID
	job := domain.Job{
		ID:            s.genID.Generate(),
		BookingID:     &bookingID,
		OwnerID:       booking.OwnerID,
		VehicleID:     booking.VehicleID,
		WorkshopID:    booking.WorkshopID,
		ServiceType:   booking.ServiceType,
		Description:   booking.Description,
		Priority:      priority,
		Status:        domain.StatusUnassigned,
		ScheduledDate: booking.PreferredDate,
		EstimatedTime: strings.TrimSpace(req.EstimatedTime),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &job); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.ConflictRetries.WithLabelValues("job").Inc()
			return domain.Job{}, domain.ErrBookingAlreadyHasJob
		}
		return domain.Job{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("job", domain.StatusUnassigned).Inc()
	s.log.Info("job created from booking",
		zap.Int64("job_id", job.ID.Int64()),
		zap.Int64("booking_id", bookingID.Int64()),
	)
	return job, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateJobRequest) (domain.Job, error) {
	ownerID, err := parseID(req.OwnerID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidOwner
	}
	workshopID, err := parseID(req.WorkshopID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidWorkshop
	}
	if err := s.requireWorkshop(ctx, workshopID); err != nil {
		return domain.Job{}, err
	}

	serviceType := strings.TrimSpace(req.ServiceType)
	if serviceType == "" {
		return domain.Job{}, domain.ErrInvalidServiceType
	}

	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return domain.Job{}, domain.ErrInvalidPriority
	}

	var vehicleID *snowflake.ID
	if strings.TrimSpace(req.VehicleID) != "" {
		id, err := parseID(req.VehicleID)
		if err != nil {
			return domain.Job{}, domain.ErrInvalidID
		}
		vehicleID = &id
	}

	now := s.clock.Now()
	job := domain.Job{
		ID:            s.genID.Generate(),
		OwnerID:       ownerID,
		VehicleID:     vehicleID,
		WorkshopID:    workshopID,
		ServiceType:   serviceType,
		Description:   strings.TrimSpace(req.Description),
		Priority:      priority,
		Status:        domain.StatusUnassigned,
		ScheduledDate: strings.TrimSpace(req.ScheduledDate),
		EstimatedTime: strings.TrimSpace(req.EstimatedTime),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &job); err != nil {
		return domain.Job{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("job", domain.StatusUnassigned).Inc()
	return job, nil
}

func (s *Service) AssignMechanic(ctx context.Context, req domain.AssignMechanicRequest) (domain.Job, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}
	mechanicID, err := parseID(req.MechanicID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidMechanic
	}

	// The membership lookup goes through the identity service's own
	// connection, so it must run before the row lock holds one.
	current, err := s.repo.FindByID(ctx, s.db, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if current == nil {
		return domain.Job{}, domain.ErrNotFound
	}
	if err := s.requireWorkshop(ctx, current.WorkshopID); err != nil {
		return domain.Job{}, err
	}

	ok, err := s.identity.MechanicBelongsTo(ctx, mechanicID, current.WorkshopID)
	if err != nil {
		if err == identitydomain.ErrInvalidID {
			return domain.Job{}, domain.ErrInvalidMechanic
		}
		return domain.Job{}, err
	}
	if !ok {
		return domain.Job{}, domain.ErrMechanicNotInShop
	}

	var updated domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if job.Status == domain.StatusCompleted {
			return domain.ErrJobCompleted
		}

		now := s.clock.Now()
		err = s.repo.Update(ctx, tx, job.ID, map[string]any{
			"mechanic_id": mechanicID,
			"status":      domain.StatusAssigned,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}

		err = s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
			ActorID:    mechanicID,
			TargetRole: identitydomain.RoleMechanic,
			Source:     notificationdomain.SourceWorkshop,
			EventType:  notificationdomain.EventJobAssigned,
			Title:      "Job assigned",
			Message:    fmt.Sprintf("You were assigned a %s job.", job.ServiceType),
			Data:       datatypes.JSONMap{"job_id": job.ID.String()},
		})
		if err != nil {
			return err
		}

		job.MechanicID = &mechanicID
		job.Status = domain.StatusAssigned
		job.UpdatedAt = now
		updated = *job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("job", domain.StatusAssigned).Inc()
	s.log.Info("mechanic assigned",
		zap.Int64("job_id", updated.ID.Int64()),
		zap.Int64("mechanic_id", mechanicID.Int64()),
	)
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Job, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}
	target := strings.TrimSpace(req.Status)
	if !domain.ValidStatus(target) {
		return domain.Job{}, domain.ErrInvalidStatus
	}

	var updated domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if err := s.requireStaff(ctx, job); err != nil {
			return err
		}

		if !domain.Transitions.Can(job.Status, target) {
			return &workflow.InvalidTransitionError{
				Entity: "job",
				From:   job.Status,
				To:     target,
			}
		}
		if !domain.MechanicStatusConsistent(job.MechanicID, target) {
			return &workflow.InvariantViolationError{
				Entity: "job",
				Reason: fmt.Sprintf("status %s requires a mechanic assignment", target),
			}
		}

		now := s.clock.Now()
		err = s.repo.Update(ctx, tx, job.ID, map[string]any{
			"status":     target,
			"updated_at": now,
		})
		if err != nil {
			return err
		}

		if target == domain.StatusCompleted {
			err = s.notifier.PublishTx(ctx, tx, notificationdomain.PublishRequest{
				ActorID:    job.OwnerID,
				TargetRole: identitydomain.RoleOwner,
				Source:     notificationdomain.SourceWorkshop,
				EventType:  notificationdomain.EventJobCompleted,
				Title:      "Service completed",
				Message:    fmt.Sprintf("Your %s service was completed.", job.ServiceType),
				Data:       datatypes.JSONMap{"job_id": job.ID.String()},
			})
			if err != nil {
				return err
			}
		}

		job.Status = target
		job.UpdatedAt = now
		updated = *job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}

	s.metrics.StatusTransitions.WithLabelValues("job", target).Inc()
	return updated, nil
}

func (s *Service) AddPart(ctx context.Context, req domain.AddPartRequest) (domain.Job, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Quantity < 1 || req.UnitCost < 0 {
		return domain.Job{}, domain.ErrInvalidPart
	}

	var updated domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if err := s.requireStaff(ctx, job); err != nil {
			return err
		}
		if job.Status == domain.StatusCompleted {
			return domain.ErrJobCompleted
		}

		part := domain.JobPart{
			ID:       s.genID.Generate(),
			JobID:    job.ID,
			Name:     name,
			Quantity: req.Quantity,
			UnitCost: req.UnitCost,
		}
		if err := s.repo.InsertPart(ctx, tx, &part); err != nil {
			return err
		}
		if err := s.repo.Touch(ctx, tx, job.ID, s.clock.Now()); err != nil {
			return err
		}

		job.Parts = append(job.Parts, part)
		updated = *job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return updated, nil
}

func (s *Service) RemovePart(ctx context.Context, req domain.RemovePartRequest) (domain.Job, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}
	partID, err := parseID(req.PartID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidPart
	}

	var updated domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if err := s.requireStaff(ctx, job); err != nil {
			return err
		}
		if job.Status == domain.StatusCompleted {
			return domain.ErrJobCompleted
		}

		rows, err := s.repo.DeletePart(ctx, tx, job.ID, partID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrPartNotFound
		}
		if err := s.repo.Touch(ctx, tx, job.ID, s.clock.Now()); err != nil {
			return err
		}

		parts := job.Parts[:0]
		for _, part := range job.Parts {
			if part.ID != partID {
				parts = append(parts, part)
			}
		}
		job.Parts = parts
		updated = *job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return updated, nil
}

func (s *Service) AddRepairEntry(ctx context.Context, req domain.AddRepairEntryRequest) (domain.JobRepairEntry, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.JobRepairEntry{}, domain.ErrInvalidID
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.JobRepairEntry{}, domain.ErrInvalidRepairEntry
	}

	var entry domain.JobRepairEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if err := s.requireStaff(ctx, job); err != nil {
			return err
		}

		entry = domain.JobRepairEntry{
			ID:          s.genID.Generate(),
			JobID:       job.ID,
			Description: description,
			LoggedAt:    s.clock.Now(),
		}
		if err := s.repo.InsertRepairEntry(ctx, tx, &entry); err != nil {
			return err
		}
		return s.repo.Touch(ctx, tx, job.ID, entry.LoggedAt)
	})
	if err != nil {
		return domain.JobRepairEntry{}, err
	}
	return entry, nil
}

func (s *Service) SetNotes(ctx context.Context, req domain.SetNotesRequest) (domain.Job, error) {
	jobID, err := parseID(req.JobID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}

	var updated domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if err := s.requireStaff(ctx, job); err != nil {
			return err
		}

		now := s.clock.Now()
		err = s.repo.Update(ctx, tx, job.ID, map[string]any{
			"notes":      strings.TrimSpace(req.Notes),
			"updated_at": now,
		})
		if err != nil {
			return err
		}

		job.Notes = strings.TrimSpace(req.Notes)
		job.UpdatedAt = now
		updated = *job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Job, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Job{}, domain.ErrInvalidID
	}

	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Job{}, err
	}
	if job == nil {
		return domain.Job{}, domain.ErrNotFound
	}
	return *job, nil
}

func (s *Service) List(ctx context.Context, req domain.ListJobRequest) (domain.ListJobResponse, error) {
	filter := domain.ListJobFilter{Status: strings.TrimSpace(req.Status)}
	if strings.TrimSpace(req.WorkshopID) != "" {
		id, err := parseID(req.WorkshopID)
		if err != nil {
			return domain.ListJobResponse{}, domain.ErrInvalidWorkshop
		}
		filter.WorkshopID = id
	}
	if strings.TrimSpace(req.MechanicID) != "" {
		id, err := parseID(req.MechanicID)
		if err != nil {
			return domain.ListJobResponse{}, domain.ErrInvalidMechanic
		}
		filter.MechanicID = id
	}
	if filter.WorkshopID == 0 && filter.MechanicID == 0 {
		return domain.ListJobResponse{}, domain.ErrMissingFilter
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return domain.ListJobResponse{}, domain.ErrInvalidStatus
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
		return domain.ListJobResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(job *domain.Job) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        job.ID.String(),
			CreatedAt: job.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	jobs := make([]domain.Job, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		jobs = append(jobs, *item)
	}

	resp := domain.ListJobResponse{Jobs: jobs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// requireWorkshop rejects workshop actors operating outside their own
// workshop. Admin actors pass.
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

// requireStaff allows workshop actors of the job's workshop and the
// assigned mechanic.
func (s *Service) requireStaff(ctx context.Context, job *domain.Job) error {
	role, _ := actorcontext.Role(ctx)
	switch role {
	case identitydomain.RoleMechanic:
		actorID, ok := actorcontext.ActorID(ctx)
		if !ok || job.MechanicID == nil || *job.MechanicID != actorID {
			return domain.ErrForbidden
		}
		return nil
	case identitydomain.RoleWorkshop:
		return s.requireWorkshop(ctx, job.WorkshopID)
	default:
		return nil
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
