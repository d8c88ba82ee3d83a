// Package authorization is the capability gate in front of the workflow
// engine. Every operation declares one (object, action) pair; the gate
// checks the resolved actor role against the seeded policies before any
// state machine runs, replacing per-handler role conditionals.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
)

//go:embed model.conf
var modelText string

const (
	ObjectBooking       = "booking"
	ObjectJob           = "job"
	ObjectInvoice       = "invoice"
	ObjectRating        = "rating"
	ObjectRatingRequest = "rating_request"
	ObjectNotification  = "notification"
	ObjectReport        = "report"
	ObjectAuditLog      = "audit_log"
)

const (
	ActionBookingSubmit  = "booking.submit"
	ActionBookingView    = "booking.view"
	ActionBookingAdvance = "booking.advance_status"

	ActionJobCreate       = "job.create"
	ActionJobView         = "job.view"
	ActionJobAssign       = "job.assign"
	ActionJobUpdateStatus = "job.update_status"
	ActionJobEditParts    = "job.edit_parts"
	ActionJobLogRepair    = "job.log_repair"
	ActionJobSetNotes     = "job.set_notes"

	ActionInvoiceGenerate  = "invoice.generate"
	ActionInvoiceView      = "invoice.view"
	ActionInvoiceSetStatus = "invoice.set_status"

	ActionRatingSubmit        = "rating.submit"
	ActionRatingView          = "rating.view"
	ActionRatingRespond       = "rating.respond"
	ActionRatingRequestDelete = "rating.request_delete"

	ActionRatingRequestResolve = "rating_request.resolve"

	ActionNotificationView     = "notification.view"
	ActionNotificationMarkRead = "notification.mark_read"

	ActionReportRequest  = "report.request"
	ActionReportGenerate = "report.generate"
	ActionReportView     = "report.view"

	ActionAuditLogView = "audit_log.view"
)

var (
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("operation_forbidden")
)

type Service interface {
	// Authorize checks whether the role may invoke (object, action).
	Authorize(ctx context.Context, role, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role, object, action string) error {
	role = strings.TrimSpace(role)
	if !identitydomain.ValidRole(role) {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("operation denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleSubject(identitydomain.RoleOwner), ObjectBooking, ActionBookingSubmit},
		{roleSubject(identitydomain.RoleOwner), ObjectBooking, ActionBookingView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectBooking, ActionBookingView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectBooking, ActionBookingAdvance},

		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobCreate},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobView},
		{roleSubject(identitydomain.RoleMechanic), ObjectJob, ActionJobView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobAssign},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobUpdateStatus},
		{roleSubject(identitydomain.RoleMechanic), ObjectJob, ActionJobUpdateStatus},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobEditParts},
		{roleSubject(identitydomain.RoleMechanic), ObjectJob, ActionJobEditParts},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobLogRepair},
		{roleSubject(identitydomain.RoleMechanic), ObjectJob, ActionJobLogRepair},
		{roleSubject(identitydomain.RoleWorkshop), ObjectJob, ActionJobSetNotes},
		{roleSubject(identitydomain.RoleMechanic), ObjectJob, ActionJobSetNotes},

		{roleSubject(identitydomain.RoleWorkshop), ObjectInvoice, ActionInvoiceGenerate},
		{roleSubject(identitydomain.RoleOwner), ObjectInvoice, ActionInvoiceView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectInvoice, ActionInvoiceView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectInvoice, ActionInvoiceSetStatus},

		{roleSubject(identitydomain.RoleOwner), ObjectRating, ActionRatingSubmit},
		{roleSubject(identitydomain.RoleOwner), ObjectRating, ActionRatingView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectRating, ActionRatingView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectRating, ActionRatingRespond},
		{roleSubject(identitydomain.RoleWorkshop), ObjectRating, ActionRatingRequestDelete},

		{roleSubject(identitydomain.RoleAdmin), ObjectRatingRequest, ActionRatingRequestResolve},

		{roleSubject(identitydomain.RoleOwner), ObjectNotification, ActionNotificationView},
		{roleSubject(identitydomain.RoleWorkshop), ObjectNotification, ActionNotificationView},
		{roleSubject(identitydomain.RoleMechanic), ObjectNotification, ActionNotificationView},
		{roleSubject(identitydomain.RoleOwner), ObjectNotification, ActionNotificationMarkRead},
		{roleSubject(identitydomain.RoleWorkshop), ObjectNotification, ActionNotificationMarkRead},
		{roleSubject(identitydomain.RoleMechanic), ObjectNotification, ActionNotificationMarkRead},

		{roleSubject(identitydomain.RoleWorkshop), ObjectReport, ActionReportRequest},
		{roleSubject(identitydomain.RoleAdmin), ObjectReport, ActionReportGenerate},
		{roleSubject(identitydomain.RoleWorkshop), ObjectReport, ActionReportView},

		{roleSubject(identitydomain.RoleAdmin), ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	// Admins hold every workshop and owner capability on top of their own.
	for _, grant := range [][]string{
		{roleSubject(identitydomain.RoleAdmin), roleSubject(identitydomain.RoleWorkshop)},
		{roleSubject(identitydomain.RoleAdmin), roleSubject(identitydomain.RoleOwner)},
	} {
		if _, err := enforcer.AddGroupingPolicy(grant[0], grant[1]); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
