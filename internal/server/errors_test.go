package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
	ratingdomain "github.com/motorlane/motorlane/internal/rating/domain"
	"github.com/motorlane/motorlane/internal/workflow"
)

func TestMapErrorRatingPreconditions(t *testing.T) {
	// Rating a booking that is not yet completed is caller error, not a
	// conflict with existing state.
	status, payload := mapError(ratingdomain.ErrBookingNotDone)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "booking_not_completed", payload.Errors[0].Code)

	status, payload = mapError(ratingdomain.ErrAlreadyRated)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", payload.Type)
}

func TestMapErrorClasses(t *testing.T) {
	status, payload := mapError(ratingdomain.ErrInvalidScore)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)

	status, payload = mapError(jobdomain.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", payload.Type)

	status, payload = mapError(&workflow.InvalidTransitionError{Entity: "job", From: "unassigned", To: "completed"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", payload.Type)

	status, payload = mapError(ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", payload.Type)
}
