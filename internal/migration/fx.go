package migration

import (
	auditdomain "github.com/motorlane/motorlane/internal/audit/domain"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	"github.com/motorlane/motorlane/internal/config"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	invoicedomain "github.com/motorlane/motorlane/internal/invoice/domain"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	ratingdomain "github.com/motorlane/motorlane/internal/rating/domain"
	reportdomain "github.com/motorlane/motorlane/internal/report/domain"
	"github.com/motorlane/motorlane/internal/seed"
	vehicledomain "github.com/motorlane/motorlane/internal/vehicle/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql rely on the model tags, which carry the
			// same unique indexes as the SQL migrations.
			if err := conn.AutoMigrate(
				&identitydomain.Actor{},
				&vehicledomain.Vehicle{},
				&bookingdomain.Booking{},
				&jobdomain.Job{},
				&jobdomain.JobPart{},
				&jobdomain.JobRepairEntry{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&ratingdomain.Rating{},
				&ratingdomain.RatingRequest{},
				&reportdomain.ReportRequest{},
				&notificationdomain.NotificationEvent{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if !cfg.IsProduction() {
			return seed.EnsureDevActors(conn)
		}
		return nil
	}),
)
