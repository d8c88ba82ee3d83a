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

	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/internal/config"
	"github.com/motorlane/motorlane/internal/invoice/domain"
	invoicerepo "github.com/motorlane/motorlane/internal/invoice/repository"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	notificationrepo "github.com/motorlane/motorlane/internal/notification/repository"
	notificationservice "github.com/motorlane/motorlane/internal/notification/service"
	"github.com/motorlane/motorlane/internal/observability/metrics"
	"github.com/motorlane/motorlane/internal/workflow"
)

type jobStub struct {
	jobs map[string]jobdomain.Job
}

func (s *jobStub) CreateFromBooking(context.Context, jobdomain.CreateFromBookingRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) Create(context.Context, jobdomain.CreateJobRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) AssignMechanic(context.Context, jobdomain.AssignMechanicRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) UpdateStatus(context.Context, jobdomain.UpdateStatusRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) AddPart(context.Context, jobdomain.AddPartRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) RemovePart(context.Context, jobdomain.RemovePartRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) AddRepairEntry(context.Context, jobdomain.AddRepairEntryRequest) (jobdomain.JobRepairEntry, error) {
	return jobdomain.JobRepairEntry{}, nil
}

func (s *jobStub) SetNotes(context.Context, jobdomain.SetNotesRequest) (jobdomain.Job, error) {
	return jobdomain.Job{}, nil
}

func (s *jobStub) GetByID(ctx context.Context, id string) (jobdomain.Job, error) {
	if _, err := snowflake.ParseString(id); err != nil {
		return jobdomain.Job{}, jobdomain.ErrInvalidID
	}
	job, ok := s.jobs[id]
	if !ok {
		return jobdomain.Job{}, jobdomain.ErrNotFound
	}
	return job, nil
}

func (s *jobStub) List(context.Context, jobdomain.ListJobRequest) (jobdomain.ListJobResponse, error) {
	return jobdomain.ListJobResponse{}, nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func setupInvoiceService(t *testing.T, node *snowflake.Node, jobs jobdomain.Service) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&notificationdomain.NotificationEvent{},
	))

	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
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
		Repo:     invoicerepo.Provide(),
		Jobs:     jobs,
		Notifier: notifier,
	})

	return svc, db, fake
}

func completedJob(node *snowflake.Node) jobdomain.Job {
	jobID := node.Generate()
	mechanicID := node.Generate()
	return jobdomain.Job{
		ID:          jobID,
		OwnerID:     node.Generate(),
		WorkshopID:  node.Generate(),
		MechanicID:  &mechanicID,
		ServiceType: "brake_service",
		Priority:    jobdomain.PriorityMedium,
		Status:      jobdomain.StatusCompleted,
		Parts: []jobdomain.JobPart{
			{ID: node.Generate(), JobID: jobID, Name: "Brake pads", Quantity: 1, UnitCost: 15.00},
			{ID: node.Generate(), JobID: jobID, Name: "Brake fluid", Quantity: 5, UnitCost: 8.00},
		},
	}
}

func TestGenerateFromJobTotals(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	svc, _, _ := setupInvoiceService(t, node, &jobStub{jobs: map[string]jobdomain.Job{job.ID.String(): job}})

	invoice, err := svc.GenerateFromJob(context.Background(), domain.GenerateFromJobRequest{
		JobID:   job.ID.String(),
		TaxRate: 0.1,
		Labor:   &domain.LaborLine{Description: "Labor", Amount: 45.00},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, invoice.Status)
	require.Len(t, invoice.Items, 3)
	assert.InDelta(t, 100.00, invoice.Subtotal, 0.005)
	assert.InDelta(t, 10.00, invoice.Tax, 0.005)
	assert.InDelta(t, 110.00, invoice.Total, 0.005)
	assert.True(t, invoice.TotalsConsistent(0.005))

	// Due date comes from the generation date plus the configured window.
	assert.Equal(t, time.Date(2026, 3, 24, 9, 0, 0, 0, time.UTC), invoice.DueDate)

	// Line items keep the part order, labor last.
	assert.Equal(t, "Brake pads", invoice.Items[0].Description)
	assert.Equal(t, "Labor", invoice.Items[2].Description)
	assert.Equal(t, 2, invoice.Items[2].Position)
}

func TestGenerateFromJobGuards(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	inProgress := completedJob(node)
	inProgress.Status = jobdomain.StatusInProgress
	empty := completedJob(node)
	empty.Parts = nil

	stub := &jobStub{jobs: map[string]jobdomain.Job{
		job.ID.String():        job,
		inProgress.ID.String(): inProgress,
		empty.ID.String():      empty,
	}}
	svc, _, _ := setupInvoiceService(t, node, stub)
	ctx := context.Background()

	_, err := svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)

	_, err = svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: inProgress.ID.String(), TaxRate: 0.1})
	assert.ErrorIs(t, err, domain.ErrJobNotCompleted)

	_, err = svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: empty.ID.String(), TaxRate: 0.1})
	assert.ErrorIs(t, err, domain.ErrNoBillableItems)

	_, err = svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: node.Generate().String(), TaxRate: 0.1})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestGenerateFromJobOnePerJob(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	svc, _, _ := setupInvoiceService(t, node, &jobStub{jobs: map[string]jobdomain.Job{job.ID.String(): job}})
	ctx := context.Background()

	_, err := svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 0.1})
	require.NoError(t, err)

	_, err = svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 0.1})
	assert.ErrorIs(t, err, domain.ErrJobAlreadyBilled)
}

func TestSetStatusGraph(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	svc, db, _ := setupInvoiceService(t, node, &jobStub{jobs: map[string]jobdomain.Job{job.ID.String(): job}})
	ctx := context.Background()

	invoice, err := svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 0.1})
	require.NoError(t, err)

	// draft cannot jump straight to paid.
	var transitionErr *workflow.InvalidTransitionError
	_, err = svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: domain.StatusPaid})
	require.ErrorAs(t, err, &transitionErr)

	for _, status := range []string{domain.StatusPendingApproval, domain.StatusApproved, domain.StatusPaid} {
		updated, err := svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: status})
		require.NoError(t, err, "transition to %s", status)
		assert.Equal(t, status, updated.Status)
		if status == domain.StatusPaid {
			assert.NotNil(t, updated.PaidDate)
		}
	}

	var events []notificationdomain.NotificationEvent
	require.NoError(t, db.Order("id asc").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, notificationdomain.EventInvoiceApproved, events[0].EventType)
	assert.Equal(t, notificationdomain.EventInvoicePaid, events[1].EventType)
}

func TestSetStatusRejectsDriftedTotals(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	svc, db, _ := setupInvoiceService(t, node, &jobStub{jobs: map[string]jobdomain.Job{job.ID.String(): job}})
	ctx := context.Background()

	invoice, err := svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 0.1})
	require.NoError(t, err)

	// Corrupt the stored total behind the service's back.
	require.NoError(t, db.Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("total", invoice.Total+10).Error)

	var invariantErr *workflow.InvariantViolationError
	_, err = svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: domain.StatusPendingApproval})
	require.ErrorAs(t, err, &invariantErr)
	assert.Equal(t, "invoice", invariantErr.Entity)
}

func TestOverdueIsDerivedAtReadTime(t *testing.T) {
	node := mustNode(t)
	job := completedJob(node)
	svc, _, fake := setupInvoiceService(t, node, &jobStub{jobs: map[string]jobdomain.Job{job.ID.String(): job}})
	ctx := context.Background()

	invoice, err := svc.GenerateFromJob(ctx, domain.GenerateFromJobRequest{JobID: job.ID.String(), TaxRate: 0.1})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: domain.StatusPendingApproval})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: domain.StatusApproved})
	require.NoError(t, err)

	view, err := svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, view.EffectiveStatus)

	fake.Advance(15 * 24 * time.Hour)

	view, err = svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, view.Invoice.Status)
	assert.Equal(t, domain.StatusOverdue, view.EffectiveStatus)

	// Paying an overdue invoice still works off the stored status.
	paid, err := svc.SetStatus(ctx, domain.SetStatusRequest{InvoiceID: invoice.ID.String(), Status: domain.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
}
