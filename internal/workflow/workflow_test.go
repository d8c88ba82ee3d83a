package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphCan(t *testing.T) {
	g := Graph{
		"pending":   {"confirmed", "rejected"},
		"confirmed": {"done"},
	}

	assert.True(t, g.Can("pending", "confirmed"))
	assert.True(t, g.Can("pending", "rejected"))
	assert.False(t, g.Can("confirmed", "pending"))
	assert.False(t, g.Can("done", "confirmed"), "absent statuses are terminal")
	assert.False(t, g.Can("unknown", "pending"))
}

func TestErrorMessages(t *testing.T) {
	transition := &InvalidTransitionError{Entity: "booking", From: "confirmed", To: "pending"}
	assert.Equal(t, "invalid_transition: booking confirmed -> pending", transition.Error())

	invariant := &InvariantViolationError{Entity: "invoice", Reason: "stored totals disagree with recomputed line items"}
	assert.Equal(t, "invariant_violation: invoice: stored totals disagree with recomputed line items", invariant.Error())
}
