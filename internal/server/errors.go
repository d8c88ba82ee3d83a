package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/motorlane/motorlane/internal/audit/domain"
	"github.com/motorlane/motorlane/internal/authorization"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	invoicedomain "github.com/motorlane/motorlane/internal/invoice/domain"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
	ratingdomain "github.com/motorlane/motorlane/internal/rating/domain"
	reportdomain "github.com/motorlane/motorlane/internal/report/domain"
	vehicledomain "github.com/motorlane/motorlane/internal/vehicle/domain"
	"github.com/motorlane/motorlane/internal/workflow"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var transitionErr *workflow.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: transitionErr.Error(),
		}
	}

	var invariantErr *workflow.InvariantViolationError
	if errors.As(err, &invariantErr) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "invariant_violation",
			Message: "internal consistency check failed",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, bookingdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, bookingdomain.ErrInvalidOwner),
		errors.Is(err, bookingdomain.ErrInvalidWorkshop),
		errors.Is(err, bookingdomain.ErrInvalidVehicle),
		errors.Is(err, bookingdomain.ErrInvalidServiceType),
		errors.Is(err, bookingdomain.ErrInvalidPreferredDate),
		errors.Is(err, bookingdomain.ErrInvalidPreferredTime),
		errors.Is(err, bookingdomain.ErrInvalidContact),
		errors.Is(err, bookingdomain.ErrInvalidStatus),
		errors.Is(err, bookingdomain.ErrInvalidID),
		errors.Is(err, bookingdomain.ErrMissingFilter):
		return true
	case errors.Is(err, jobdomain.ErrInvalidID),
		errors.Is(err, jobdomain.ErrInvalidBooking),
		errors.Is(err, jobdomain.ErrInvalidMechanic),
		errors.Is(err, jobdomain.ErrInvalidOwner),
		errors.Is(err, jobdomain.ErrInvalidWorkshop),
		errors.Is(err, jobdomain.ErrInvalidServiceType),
		errors.Is(err, jobdomain.ErrInvalidPriority),
		errors.Is(err, jobdomain.ErrInvalidStatus),
		errors.Is(err, jobdomain.ErrInvalidPart),
		errors.Is(err, jobdomain.ErrInvalidRepairEntry),
		errors.Is(err, jobdomain.ErrMissingFilter):
		return true
	case errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidJob),
		errors.Is(err, invoicedomain.ErrInvalidTaxRate),
		errors.Is(err, invoicedomain.ErrInvalidLabor),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrMissingFilter):
		return true
	case errors.Is(err, ratingdomain.ErrInvalidID),
		errors.Is(err, ratingdomain.ErrInvalidBooking),
		errors.Is(err, ratingdomain.ErrInvalidOwner),
		errors.Is(err, ratingdomain.ErrInvalidScore),
		errors.Is(err, ratingdomain.ErrInvalidReason),
		errors.Is(err, ratingdomain.ErrInvalidResolution),
		errors.Is(err, ratingdomain.ErrBookingNotDone),
		errors.Is(err, ratingdomain.ErrMissingFilter):
		return true
	case errors.Is(err, notificationdomain.ErrInvalidActor),
		errors.Is(err, notificationdomain.ErrInvalidTarget),
		errors.Is(err, notificationdomain.ErrInvalidEventType),
		errors.Is(err, notificationdomain.ErrInvalidID):
		return true
	case errors.Is(err, reportdomain.ErrInvalidID),
		errors.Is(err, reportdomain.ErrInvalidWorkshop),
		errors.Is(err, reportdomain.ErrInvalidPeriod),
		errors.Is(err, reportdomain.ErrInvalidStatus):
		return true
	case errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, identitydomain.ErrInvalidID),
		errors.Is(err, vehicledomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, bookingdomain.ErrNotFound),
		errors.Is(err, jobdomain.ErrNotFound),
		errors.Is(err, jobdomain.ErrPartNotFound),
		errors.Is(err, jobdomain.ErrBookingNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrJobNotFound),
		errors.Is(err, ratingdomain.ErrNotFound),
		errors.Is(err, ratingdomain.ErrRequestNotFound),
		errors.Is(err, ratingdomain.ErrBookingNotFound),
		errors.Is(err, reportdomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, vehicledomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, jobdomain.ErrBookingAlreadyHasJob),
		errors.Is(err, jobdomain.ErrBookingNotConfirmed),
		errors.Is(err, jobdomain.ErrJobCompleted),
		errors.Is(err, jobdomain.ErrMechanicNotInShop),
		errors.Is(err, invoicedomain.ErrJobNotCompleted),
		errors.Is(err, invoicedomain.ErrJobAlreadyBilled),
		errors.Is(err, invoicedomain.ErrNoBillableItems),
		errors.Is(err, ratingdomain.ErrAlreadyRated),
		errors.Is(err, ratingdomain.ErrDisputeOpen),
		errors.Is(err, ratingdomain.ErrAlreadyResolved):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, bookingdomain.ErrForbidden),
		errors.Is(err, jobdomain.ErrForbidden),
		errors.Is(err, invoicedomain.ErrForbidden),
		errors.Is(err, ratingdomain.ErrForbidden),
		errors.Is(err, reportdomain.ErrForbidden):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_filter":
		return "an owner_id or workshop_id filter is required"
	default:
		return "invalid value"
	}
}
