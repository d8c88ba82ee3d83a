package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/actorcontext"
	auditdomain "github.com/motorlane/motorlane/internal/audit/domain"
	auditrepo "github.com/motorlane/motorlane/internal/audit/repository"
	auditservice "github.com/motorlane/motorlane/internal/audit/service"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/clock"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	notificationrepo "github.com/motorlane/motorlane/internal/notification/repository"
	notificationservice "github.com/motorlane/motorlane/internal/notification/service"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/rating/domain"
	ratingrepo "github.com/motorlane/motorlane/internal/rating/repository"
)

type bookingStub struct {
	bookings map[string]bookingdomain.Booking
}

func (s *bookingStub) Submit(context.Context, bookingdomain.SubmitBookingRequest) (bookingdomain.Booking, error) {
	return bookingdomain.Booking{}, nil
}

func (s *bookingStub) List(context.Context, bookingdomain.ListBookingRequest) (bookingdomain.ListBookingResponse, error) {
	return bookingdomain.ListBookingResponse{}, nil
}

func (s *bookingStub) AdvanceStatus(context.Context, bookingdomain.AdvanceStatusRequest) (bookingdomain.Booking, error) {
	return bookingdomain.Booking{}, nil
}

func (s *bookingStub) GetByID(ctx context.Context, id string) (bookingdomain.Booking, error) {
	if _, err := snowflake.ParseString(id); err != nil {
		return bookingdomain.Booking{}, bookingdomain.ErrInvalidID
	}
	booking, ok := s.bookings[id]
	if !ok {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	return booking, nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func setupRatingService(t *testing.T, node *snowflake.Node, bookings bookingdomain.Service) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Rating{},
		&domain.RatingRequest{},
		&bookingdomain.Booking{},
		&jobdomain.Job{},
		&notificationdomain.NotificationEvent{},
		&auditdomain.AuditLog{},
	))

	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	m := metrics.New()
	log := zap.NewNop()

	notifier := notificationservice.New(notificationservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Metrics: m,
		Repo:    notificationrepo.Provide(),
	})

	audit := auditservice.New(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})

	svc := New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Metrics:  m,
		Repo:     ratingrepo.Provide(),
		Bookings: bookings,
		Notifier: notifier,
		Audit:    audit,
	})

	return svc, db, fake
}

func completedBooking(node *snowflake.Node) bookingdomain.Booking {
	return bookingdomain.Booking{
		ID:          node.Generate(),
		OwnerID:     node.Generate(),
		WorkshopID:  node.Generate(),
		ServiceType: "brake_service",
		Status:      bookingdomain.StatusCompleted,
	}
}

func workshopCtx(actorID, workshopID snowflake.ID) context.Context {
	ctx := actorcontext.WithActor(context.Background(), actorID, identitydomain.RoleWorkshop)
	return actorcontext.WithWorkshop(ctx, workshopID)
}

func adminCtx(actorID snowflake.ID) context.Context {
	return actorcontext.WithActor(context.Background(), actorID, identitydomain.RoleAdmin)
}

func TestSubmitValidation(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	pending := completedBooking(node)
	pending.Status = bookingdomain.StatusPending

	stub := &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
		pending.ID.String(): pending,
	}}
	svc, _, _ := setupRatingService(t, node, stub)
	ctx := context.Background()

	_, err := svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)

	_, err = svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 6,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)

	_, err = svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: pending.ID.String(), OwnerID: pending.OwnerID.String(), Rating: 5,
	})
	assert.ErrorIs(t, err, domain.ErrBookingNotDone)

	_, err = svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: node.Generate().String(), Rating: 5,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: node.Generate().String(), OwnerID: booking.OwnerID.String(), Rating: 5,
	})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestSubmitCapturesMechanicAndNotifiesWorkshop(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})
	ctx := context.Background()

	// The dispatched job determines which mechanic the rating references.
	bookingID := booking.ID
	mechanicID := node.Generate()
	require.NoError(t, db.Create(&jobdomain.Job{
		ID:          node.Generate(),
		BookingID:   &bookingID,
		OwnerID:     booking.OwnerID,
		WorkshopID:  booking.WorkshopID,
		MechanicID:  &mechanicID,
		ServiceType: booking.ServiceType,
		Priority:    jobdomain.PriorityMedium,
		Status:      jobdomain.StatusCompleted,
	}).Error)

	rating, err := svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(),
		OwnerID:   booking.OwnerID.String(),
		Rating:    5,
		Comment:   "  Great service  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Great service", rating.Comment)
	require.NotNil(t, rating.MechanicID)
	assert.Equal(t, mechanicID, *rating.MechanicID)
	assert.Equal(t, domain.StatusNew, rating.Status())

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, notificationdomain.EventRatingReceived, events[0].EventType)
	assert.Equal(t, booking.WorkshopID, events[0].ActorID)
	assert.Equal(t, identitydomain.RoleWorkshop, events[0].TargetRole)

	_, err = svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(),
		OwnerID:   booking.OwnerID.String(),
		Rating:    4,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyRated)
}

func TestRespondIgnoresStatusHint(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})
	ctx := context.Background()

	rating, err := svc.Submit(ctx, domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 2,
	})
	require.NoError(t, err)

	view, err := svc.Respond(ctx, domain.RespondRequest{
		RatingID:   rating.ID.String(),
		Response:   "Sorry about the wait, come back for a free check.",
		StatusHint: "new",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, view.Response)
	require.NotNil(t, view.RespondedAt)
	// Status is derived from the response fields, never from the hint.
	assert.Equal(t, domain.StatusResolved, view.Status)

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Where("event_type = ?", notificationdomain.EventRatingResponse).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, booking.OwnerID, events[0].ActorID)
}

func TestDerivedStatus(t *testing.T) {
	now := time.Now()
	assert.Equal(t, domain.StatusNew, domain.Rating{}.Status())
	assert.Equal(t, domain.StatusReviewed, domain.Rating{RespondedAt: &now}.Status())
	assert.Equal(t, domain.StatusResolved, domain.Rating{Response: "thanks", RespondedAt: &now}.Status())
}

func TestRequestDeletionSingleOpenDispute(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, _, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 1,
	})
	require.NoError(t, err)

	ctx := workshopCtx(booking.WorkshopID, booking.WorkshopID)

	_, err = svc.RequestDeletion(ctx, domain.RequestDeletionRequest{RatingID: rating.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidReason)

	request, err := svc.RequestDeletion(ctx, domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "Review targets the wrong workshop",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, request.Status)

	_, err = svc.RequestDeletion(ctx, domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "Second attempt",
	})
	assert.ErrorIs(t, err, domain.ErrDisputeOpen)
}

func TestResolveRequestAdminOnly(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, _, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 1,
	})
	require.NoError(t, err)

	request, err := svc.RequestDeletion(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "Abusive language",
	})
	require.NoError(t, err)

	_, err = svc.ResolveRequest(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.ResolveRequestRequest{
		RequestID: request.ID.String(),
		Action:    domain.RequestApproved,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ResolveRequest(adminCtx(node.Generate()), domain.ResolveRequestRequest{
		RequestID: request.ID.String(),
		Action:    "escalated",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidResolution)
}

func TestResolveApprovedHidesRating(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 1,
	})
	require.NoError(t, err)

	request, err := svc.RequestDeletion(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "Customer never visited",
	})
	require.NoError(t, err)

	admin := adminCtx(node.Generate())
	resolved, err := svc.ResolveRequest(admin, domain.ResolveRequestRequest{
		RequestID:  request.ID.String(),
		Action:     domain.RequestApproved,
		AdminNotes: "No matching booking in the visit log",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Nil(t, resolved.Open)

	var stored domain.Rating
	require.NoError(t, db.Where("id = ?", rating.ID).Take(&stored).Error)
	assert.True(t, stored.Hidden)

	var logs []auditdomain.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "rating_request.resolve", logs[0].Action)
	assert.Equal(t, identitydomain.RoleAdmin, logs[0].ActorRole)
	assert.Equal(t, request.ID.String(), logs[0].TargetID)

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Where("event_type = ?", notificationdomain.EventDisputeResolved).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, request.RequestedBy, events[0].ActorID)

	_, err = svc.ResolveRequest(admin, domain.ResolveRequestRequest{
		RequestID: request.ID.String(),
		Action:    domain.RequestRejected,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	// A resolved request releases the open slot for a fresh dispute.
	_, err = svc.RequestDeletion(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "New evidence",
	})
	require.NoError(t, err)
}

func TestResolveDeletedRemovesRating(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 1,
	})
	require.NoError(t, err)

	request, err := svc.RequestDeletion(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "Defamatory content",
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveRequest(adminCtx(node.Generate()), domain.ResolveRequestRequest{
		RequestID: request.ID.String(),
		Action:    domain.RequestDeleted,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestDeleted, resolved.Status)
	assert.Nil(t, resolved.RatingID)

	var count int64
	require.NoError(t, db.Model(&domain.Rating{}).Where("id = ?", rating.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolveRejectedLeavesRating(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 2,
	})
	require.NoError(t, err)

	request, err := svc.RequestDeletion(workshopCtx(booking.WorkshopID, booking.WorkshopID), domain.RequestDeletionRequest{
		RatingID: rating.ID.String(),
		Reason:   "We disagree with the score",
	})
	require.NoError(t, err)

	_, err = svc.ResolveRequest(adminCtx(node.Generate()), domain.ResolveRequestRequest{
		RequestID: request.ID.String(),
		Action:    domain.RequestRejected,
	})
	require.NoError(t, err)

	var stored domain.Rating
	require.NoError(t, db.Where("id = ?", rating.ID).Take(&stored).Error)
	assert.False(t, stored.Hidden)
}

func TestListHiddenVisibility(t *testing.T) {
	node := mustNode(t)
	booking := completedBooking(node)
	svc, db, _ := setupRatingService(t, node, &bookingStub{bookings: map[string]bookingdomain.Booking{
		booking.ID.String(): booking,
	}})

	rating, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: booking.ID.String(), OwnerID: booking.OwnerID.String(), Rating: 1,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Rating{}).Where("id = ?", rating.ID).Update("hidden", true).Error)

	_, err = svc.List(context.Background(), domain.ListRatingRequest{})
	assert.ErrorIs(t, err, domain.ErrMissingFilter)

	resp, err := svc.List(context.Background(), domain.ListRatingRequest{OwnerID: booking.OwnerID.String()})
	require.NoError(t, err)
	assert.Empty(t, resp.Ratings)

	resp, err = svc.List(adminCtx(node.Generate()), domain.ListRatingRequest{OwnerID: booking.OwnerID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Ratings, 1)
	assert.True(t, resp.Ratings[0].Hidden)
}

func TestListPendingReturnsUnratedCompletedBookings(t *testing.T) {
	node := mustNode(t)
	rated := completedBooking(node)
	unrated := completedBooking(node)
	unrated.OwnerID = rated.OwnerID
	inProgress := completedBooking(node)
	inProgress.OwnerID = rated.OwnerID
	inProgress.Status = bookingdomain.StatusInProgress

	stub := &bookingStub{bookings: map[string]bookingdomain.Booking{
		rated.ID.String():      rated,
		unrated.ID.String():    unrated,
		inProgress.ID.String(): inProgress,
	}}
	svc, db, fake := setupRatingService(t, node, stub)

	for _, booking := range []bookingdomain.Booking{rated, unrated, inProgress} {
		booking.ContactName = "Dana"
		booking.ContactEmail = "dana@example.com"
		booking.ServiceType = "oil_change"
		booking.PreferredDate = "2026-03-12"
		booking.PreferredTime = "10:00"
		booking.CreatedAt = fake.Now()
		booking.UpdatedAt = fake.Now()
		require.NoError(t, db.Create(&booking).Error)
	}

	_, err := svc.Submit(context.Background(), domain.SubmitRatingRequest{
		BookingID: rated.ID.String(), OwnerID: rated.OwnerID.String(), Rating: 4,
	})
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background(), rated.OwnerID.String())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, unrated.ID.String(), pending[0].BookingID)
	assert.Equal(t, "oil_change", pending[0].ServiceType)
}
