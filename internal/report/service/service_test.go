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
	"github.com/motorlane/motorlane/internal/clock"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	invoicedomain "github.com/motorlane/motorlane/internal/invoice/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	notificationrepo "github.com/motorlane/motorlane/internal/notification/repository"
	notificationservice "github.com/motorlane/motorlane/internal/notification/service"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/report/domain"
	reportrepo "github.com/motorlane/motorlane/internal/report/repository"
)

func setupReportService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.ReportRequest{},
		&invoicedomain.Invoice{},
		&notificationdomain.NotificationEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
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

	svc := New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Metrics:  m,
		Repo:     reportrepo.Provide(),
		Notifier: notifier,
	})

	return svc, db, fake, node
}

func adminCtx(node *snowflake.Node) context.Context {
	return actorcontext.WithActor(context.Background(), node.Generate(), identitydomain.RoleAdmin)
}

func marchInvoice(node *snowflake.Node, workshopID snowflake.ID, day int, total float64, status string) invoicedomain.Invoice {
	created := time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	return invoicedomain.Invoice{
		ID:         node.Generate(),
		OwnerID:    node.Generate(),
		WorkshopID: workshopID,
		Subtotal:   total,
		Total:      total,
		Status:     status,
		CreatedAt:  created,
		DueDate:    created.AddDate(0, 0, 14),
	}
}

func TestRequestReportValidation(t *testing.T) {
	svc, _, _, node := setupReportService(t)
	ctx := context.Background()
	workshopID := node.Generate().String()

	_, err := svc.RequestReport(ctx, domain.RequestReportRequest{WorkshopID: "nope", Month: 3, Year: 2026})
	assert.ErrorIs(t, err, domain.ErrInvalidWorkshop)

	for _, req := range []domain.RequestReportRequest{
		{WorkshopID: workshopID, Month: 0, Year: 2026},
		{WorkshopID: workshopID, Month: 13, Year: 2026},
		{WorkshopID: workshopID, Month: 3, Year: 1999},
	} {
		_, err := svc.RequestReport(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod, "month=%d year=%d", req.Month, req.Year)
	}
}

func TestRequestReportUpsertsPerPeriod(t *testing.T) {
	svc, db, _, node := setupReportService(t)
	ctx := context.Background()
	workshopID := node.Generate()

	first, err := svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, first.Status)

	// A generated report re-requested for the same period resets in place.
	require.NoError(t, db.Model(&domain.ReportRequest{}).
		Where("id = ?", first.ID).
		Update("status", domain.StatusGenerated).Error)

	second, err := svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusPending, second.Status)

	var count int64
	require.NoError(t, db.Model(&domain.ReportRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A different period gets its own row.
	third, err := svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 4, Year: 2026,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestRequestReportScopedToWorkshop(t *testing.T) {
	svc, _, _, node := setupReportService(t)
	mine := node.Generate()
	other := node.Generate()

	ctx := actorcontext.WithWorkshop(
		actorcontext.WithActor(context.Background(), mine, identitydomain.RoleWorkshop),
		mine,
	)

	_, err := svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: other.String(), Month: 3, Year: 2026,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: mine.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)
}

func TestGenerateAdminOnly(t *testing.T) {
	svc, _, _, node := setupReportService(t)
	workshopID := node.Generate()

	request, err := svc.RequestReport(context.Background(), domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)

	workshop := actorcontext.WithWorkshop(
		actorcontext.WithActor(context.Background(), workshopID, identitydomain.RoleWorkshop),
		workshopID,
	)
	_, err = svc.Generate(workshop, domain.GenerateRequest{RequestID: request.ID.String()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Generate(adminCtx(node), domain.GenerateRequest{RequestID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateAggregatesPeriodInvoices(t *testing.T) {
	svc, db, _, node := setupReportService(t)
	workshopID := node.Generate()

	for _, invoice := range []invoicedomain.Invoice{
		marchInvoice(node, workshopID, 5, 100, invoicedomain.StatusPaid),
		marchInvoice(node, workshopID, 12, 250, invoicedomain.StatusApproved),
		marchInvoice(node, workshopID, 20, 60, invoicedomain.StatusPaid),
		// Outside the period or the workshop, must be ignored.
		marchInvoice(node, node.Generate(), 8, 999, invoicedomain.StatusPaid),
		{
			ID: node.Generate(), OwnerID: node.Generate(), WorkshopID: workshopID,
			Subtotal: 500, Total: 500, Status: invoicedomain.StatusPaid,
			CreatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		},
	} {
		require.NoError(t, db.Create(&invoice).Error)
	}

	request, err := svc.RequestReport(context.Background(), domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)

	report, err := svc.Generate(adminCtx(node), domain.GenerateRequest{RequestID: request.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusGenerated, report.Status)
	assert.Equal(t, 3, report.InvoiceCount)
	assert.InDelta(t, 410.0, report.TotalRevenue, 0.005)
	assert.InDelta(t, 160.0, report.PaidRevenue, 0.005)
	require.NotNil(t, report.GeneratedAt)

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Where("event_type = ?", notificationdomain.EventReportGenerated).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, workshopID, events[0].ActorID)
}

func TestGenerateIsIdempotentAfterLatePayment(t *testing.T) {
	svc, db, _, node := setupReportService(t)
	workshopID := node.Generate()

	invoice := marchInvoice(node, workshopID, 15, 200, invoicedomain.StatusApproved)
	require.NoError(t, db.Create(&invoice).Error)

	request, err := svc.RequestReport(context.Background(), domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)

	admin := adminCtx(node)
	report, err := svc.Generate(admin, domain.GenerateRequest{RequestID: request.ID.String()})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, report.PaidRevenue, 0.005)

	// The invoice is paid after the first run; regeneration picks it up.
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", invoicedomain.StatusPaid).Error)

	report, err = svc.Generate(admin, domain.GenerateRequest{RequestID: request.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvoiceCount)
	assert.InDelta(t, 200.0, report.PaidRevenue, 0.005)

	var count int64
	require.NoError(t, db.Model(&domain.ReportRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _, node := setupReportService(t)
	ctx := context.Background()
	workshopID := node.Generate()

	march, err := svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 3, Year: 2026,
	})
	require.NoError(t, err)
	_, err = svc.RequestReport(ctx, domain.RequestReportRequest{
		WorkshopID: workshopID.String(), Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.Generate(adminCtx(node), domain.GenerateRequest{RequestID: march.ID.String()})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListReportRequest{WorkshopID: workshopID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Reports, 2)

	resp, err = svc.List(ctx, domain.ListReportRequest{
		WorkshopID: workshopID.String(), Status: domain.StatusGenerated,
	})
	require.NoError(t, err)
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, march.ID, resp.Reports[0].ID)

	_, err = svc.List(ctx, domain.ListReportRequest{WorkshopID: workshopID.String(), Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
