package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/motorlane/motorlane/internal/audit"
	auditdomain "github.com/motorlane/motorlane/internal/audit/domain"
	"github.com/motorlane/motorlane/internal/authorization"
	"github.com/motorlane/motorlane/internal/booking"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/config"
	"github.com/motorlane/motorlane/internal/identity"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	"github.com/motorlane/motorlane/internal/invoice"
	invoicedomain "github.com/motorlane/motorlane/internal/invoice/domain"
	"github.com/motorlane/motorlane/internal/job"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	"github.com/motorlane/motorlane/internal/notification"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	"github.com/motorlane/motorlane/internal/observability"
	obslogger "github.com/motorlane/motorlane/internal/observability/logger"
	obsmetrics "github.com/motorlane/motorlane/internal/observability/metrics"
	obstracing "github.com/motorlane/motorlane/internal/observability/tracing"
	"github.com/motorlane/motorlane/internal/rating"
	ratingdomain "github.com/motorlane/motorlane/internal/rating/domain"
	"github.com/motorlane/motorlane/internal/report"
	reportdomain "github.com/motorlane/motorlane/internal/report/domain"
	"github.com/motorlane/motorlane/internal/vehicle"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	identity.Module,
	vehicle.Module,
	notification.Module,
	booking.Module,
	job.Module,
	invoice.Module,
	rating.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, log, metrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	identitySvc     identitydomain.Service
	bookingSvc      bookingdomain.Service
	jobSvc          jobdomain.Service
	invoiceSvc      invoicedomain.Service
	ratingSvc       ratingdomain.Service
	notificationSvc notificationdomain.Service
	reportSvc       reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	IdentitySvc     identitydomain.Service
	BookingSvc      bookingdomain.Service
	JobSvc          jobdomain.Service
	InvoiceSvc      invoicedomain.Service
	RatingSvc       ratingdomain.Service
	NotificationSvc notificationdomain.Service
	ReportSvc       reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		identitySvc:     p.IdentitySvc,
		bookingSvc:      p.BookingSvc,
		jobSvc:          p.JobSvc,
		invoiceSvc:      p.InvoiceSvc,
		ratingSvc:       p.RatingSvc,
		notificationSvc: p.NotificationSvc,
		reportSvc:       p.ReportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.ActorRequired())

	// -------- Bookings --------
	api.POST("/bookings", s.Authorize(authorization.ObjectBooking, authorization.ActionBookingSubmit), s.SubmitBooking)
	api.GET("/bookings", s.Authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.ListBookings)
	api.GET("/bookings/:id", s.Authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.GetBookingByID)
	api.POST("/bookings/:id/status", s.Authorize(authorization.ObjectBooking, authorization.ActionBookingAdvance), s.AdvanceBookingStatus)

	// -------- Jobs --------
	api.POST("/jobs/from-booking", s.Authorize(authorization.ObjectJob, authorization.ActionJobCreate), s.CreateJobFromBooking)
	api.POST("/jobs", s.Authorize(authorization.ObjectJob, authorization.ActionJobCreate), s.CreateJob)
	api.GET("/jobs", s.Authorize(authorization.ObjectJob, authorization.ActionJobView), s.ListJobs)
	api.GET("/jobs/:id", s.Authorize(authorization.ObjectJob, authorization.ActionJobView), s.GetJobByID)
	api.POST("/jobs/:id/assign", s.Authorize(authorization.ObjectJob, authorization.ActionJobAssign), s.AssignMechanic)
	api.POST("/jobs/:id/status", s.Authorize(authorization.ObjectJob, authorization.ActionJobUpdateStatus), s.UpdateJobStatus)
	api.POST("/jobs/:id/parts", s.Authorize(authorization.ObjectJob, authorization.ActionJobEditParts), s.AddJobPart)
	api.POST("/jobs/:id/parts/:partId/delete", s.Authorize(authorization.ObjectJob, authorization.ActionJobEditParts), s.RemoveJobPart)
	api.POST("/jobs/:id/repairs", s.Authorize(authorization.ObjectJob, authorization.ActionJobLogRepair), s.AddRepairEntry)
	api.POST("/jobs/:id/notes", s.Authorize(authorization.ObjectJob, authorization.ActionJobSetNotes), s.SetJobNotes)

	// -------- Invoices --------
	api.POST("/invoices/from-job", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceGenerate), s.GenerateInvoice)
	api.GET("/invoices", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.GET("/invoices/:id", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	api.POST("/invoices/:id/status", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceSetStatus), s.SetInvoiceStatus)

	// -------- Ratings --------
	api.POST("/ratings", s.Authorize(authorization.ObjectRating, authorization.ActionRatingSubmit), s.SubmitRating)
	api.GET("/ratings", s.Authorize(authorization.ObjectRating, authorization.ActionRatingView), s.ListRatings)
	api.GET("/ratings/pending", s.Authorize(authorization.ObjectRating, authorization.ActionRatingView), s.ListPendingRatings)
	api.POST("/ratings/:id/response", s.Authorize(authorization.ObjectRating, authorization.ActionRatingRespond), s.RespondToRating)
	api.POST("/ratings/:id/request-delete", s.Authorize(authorization.ObjectRating, authorization.ActionRatingRequestDelete), s.RequestRatingDeletion)
	api.POST("/rating-requests/:id/resolve", s.Authorize(authorization.ObjectRatingRequest, authorization.ActionRatingRequestResolve), s.ResolveRatingRequest)

	// -------- Notifications --------
	api.GET("/notifications", s.Authorize(authorization.ObjectNotification, authorization.ActionNotificationView), s.ListNotifications)
	api.POST("/notifications/read", s.Authorize(authorization.ObjectNotification, authorization.ActionNotificationMarkRead), s.MarkNotificationsRead)

	// -------- Reports --------
	api.POST("/reports/request", s.Authorize(authorization.ObjectReport, authorization.ActionReportRequest), s.RequestReport)
	api.POST("/reports/:id/generate", s.Authorize(authorization.ObjectReport, authorization.ActionReportGenerate), s.GenerateReport)
	api.GET("/reports", s.Authorize(authorization.ObjectReport, authorization.ActionReportView), s.ListReports)

	// -------- Audit Logs --------
	api.GET("/audit-logs", s.Authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
