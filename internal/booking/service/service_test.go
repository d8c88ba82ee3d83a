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
	"github.com/motorlane/motorlane/internal/booking/domain"
	bookingrepo "github.com/motorlane/motorlane/internal/booking/repository"
	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/internal/config"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	notificationrepo "github.com/motorlane/motorlane/internal/notification/repository"
	notificationservice "github.com/motorlane/motorlane/internal/notification/service"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	vehicledomain "github.com/motorlane/motorlane/internal/vehicle/domain"
	"github.com/motorlane/motorlane/internal/workflow"
)

type vehicleStub struct {
	vehicles map[snowflake.ID]vehicledomain.Vehicle
}

func (s *vehicleStub) GetVehicle(ctx context.Context, id snowflake.ID) (vehicledomain.Vehicle, error) {
	vehicle, ok := s.vehicles[id]
	if !ok {
		return vehicledomain.Vehicle{}, vehicledomain.ErrNotFound
	}
	return vehicle, nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func setupBookingService(t *testing.T, node *snowflake.Node, vehicles vehicledomain.Service) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Booking{},
		&notificationdomain.NotificationEvent{},
	))

	fake := clock.NewFakeClock(testStart())
	m := metrics.New()

	notifier := notificationservice.New(notificationservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Metrics: m,
		Repo:    notificationrepo.Provide(),
	})

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Metrics:  m,
		Workflow: &config.WorkflowConfigHolder{},
		Repo:     bookingrepo.Provide(),
		Vehicles: vehicles,
		Notifier: notifier,
	})

	return svc, db, fake
}

func testStart() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func validSubmit(ownerID, workshopID snowflake.ID) domain.SubmitBookingRequest {
	return domain.SubmitBookingRequest{
		OwnerID:       ownerID.String(),
		WorkshopID:    workshopID.String(),
		ServiceType:   "oil_change",
		PreferredDate: "2026-03-15",
		PreferredTime: "10:30",
		Description:   "engine light on",
		Contact: domain.ContactSnapshot{
			Name:  "Pat Doe",
			Email: "pat@example.com",
			Phone: "555-0101",
		},
	}
}

func TestSubmitOpensPending(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	workshopID := node.Generate()
	svc, db, _ := setupBookingService(t, node, &vehicleStub{})
	ctx := actorcontext.WithActor(context.Background(), ownerID, identitydomain.RoleOwner)

	booking, err := svc.Submit(ctx, validSubmit(ownerID, workshopID))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Equal(t, "Pat Doe", booking.ContactName)
	assert.Equal(t, "2026-03-15", booking.PreferredDate)

	var count int64
	require.NoError(t, db.Model(&domain.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitValidation(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	workshopID := node.Generate()
	svc, _, _ := setupBookingService(t, node, &vehicleStub{})
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*domain.SubmitBookingRequest)
		wantErr error
	}{
		{"bad date", func(r *domain.SubmitBookingRequest) { r.PreferredDate = "15-03-2026" }, domain.ErrInvalidPreferredDate},
		{"bad time", func(r *domain.SubmitBookingRequest) { r.PreferredTime = "25:99" }, domain.ErrInvalidPreferredTime},
		{"missing service type", func(r *domain.SubmitBookingRequest) { r.ServiceType = " " }, domain.ErrInvalidServiceType},
		{"bad contact email", func(r *domain.SubmitBookingRequest) { r.Contact.Email = "not-an-email" }, domain.ErrInvalidContact},
		{"missing contact name", func(r *domain.SubmitBookingRequest) { r.Contact.Name = "" }, domain.ErrInvalidContact},
		{"bad owner", func(r *domain.SubmitBookingRequest) { r.OwnerID = "abc" }, domain.ErrInvalidOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmit(ownerID, workshopID)
			tc.mutate(&req)
			_, err := svc.Submit(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubmitRejectsForeignVehicle(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	otherOwnerID := node.Generate()
	workshopID := node.Generate()
	vehicleID := node.Generate()

	stub := &vehicleStub{vehicles: map[snowflake.ID]vehicledomain.Vehicle{
		vehicleID: {ID: vehicleID, OwnerID: otherOwnerID},
	}}
	svc, _, _ := setupBookingService(t, node, stub)

	req := validSubmit(ownerID, workshopID)
	req.VehicleID = vehicleID.String()
	_, err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidVehicle)
}

func TestSubmitOwnerCannotBookForAnother(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	otherOwnerID := node.Generate()
	workshopID := node.Generate()
	svc, _, _ := setupBookingService(t, node, &vehicleStub{})

	ctx := actorcontext.WithActor(context.Background(), otherOwnerID, identitydomain.RoleOwner)
	_, err := svc.Submit(ctx, validSubmit(ownerID, workshopID))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAdvanceStatusMonotonic(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	workshopID := node.Generate()
	svc, db, _ := setupBookingService(t, node, &vehicleStub{})
	ctx := context.Background()

	booking, err := svc.Submit(ctx, validSubmit(ownerID, workshopID))
	require.NoError(t, err)

	confirmed, err := svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	// Nothing ever re-enters pending.
	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusPending,
	})
	var transitionErr *workflow.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "booking", transitionErr.Entity)

	// Skipping in_progress is not a legal edge either.
	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusCompleted,
	})
	require.ErrorAs(t, err, &transitionErr)

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, notificationdomain.EventBookingConfirmed, events[0].EventType)
	assert.Equal(t, booking.OwnerID, events[0].ActorID)
}

func TestAdvanceStatusRejectedIsTerminal(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupBookingService(t, node, &vehicleStub{})
	ctx := context.Background()

	booking, err := svc.Submit(ctx, validSubmit(node.Generate(), node.Generate()))
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusRejected,
	})
	require.NoError(t, err)

	var transitionErr *workflow.InvalidTransitionError
	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusConfirmed,
	})
	assert.ErrorAs(t, err, &transitionErr)
}

func TestAdvanceStatusScopedToWorkshop(t *testing.T) {
	node := mustNode(t)
	workshopID := node.Generate()
	otherWorkshopID := node.Generate()
	svc, _, _ := setupBookingService(t, node, &vehicleStub{})

	booking, err := svc.Submit(context.Background(), validSubmit(node.Generate(), workshopID))
	require.NoError(t, err)

	ctx := actorcontext.WithActor(context.Background(), otherWorkshopID, identitydomain.RoleWorkshop)
	ctx = actorcontext.WithWorkshop(ctx, otherWorkshopID)
	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: booking.ID.String(),
		Status:    domain.StatusConfirmed,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListRequiresFilter(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupBookingService(t, node, &vehicleStub{})

	_, err := svc.List(context.Background(), domain.ListBookingRequest{})
	assert.ErrorIs(t, err, domain.ErrMissingFilter)
}

func TestListFiltersByStatus(t *testing.T) {
	node := mustNode(t)
	ownerID := node.Generate()
	workshopID := node.Generate()
	svc, _, fake := setupBookingService(t, node, &vehicleStub{})
	ctx := context.Background()

	first, err := svc.Submit(ctx, validSubmit(ownerID, workshopID))
	require.NoError(t, err)
	fake.Advance(time.Minute)
	_, err = svc.Submit(ctx, validSubmit(ownerID, workshopID))
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(ctx, domain.AdvanceStatusRequest{
		BookingID: first.ID.String(),
		Status:    domain.StatusConfirmed,
	})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListBookingRequest{
		OwnerID: ownerID.String(),
		Status:  domain.StatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, first.ID, resp.Bookings[0].ID)
}
