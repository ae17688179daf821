package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewOrderTransitions(t *testing.T) {
	assert.True(t, ReviewOrderRequested.CanTransitionTo(ReviewOrderAssigned))
	assert.True(t, ReviewOrderAssigned.CanTransitionTo(ReviewOrderInProgress))
	assert.True(t, ReviewOrderInProgress.CanTransitionTo(ReviewOrderCompleted))

	// Skips and regressions are illegal.
	assert.False(t, ReviewOrderRequested.CanTransitionTo(ReviewOrderCompleted))
	assert.False(t, ReviewOrderRequested.CanTransitionTo(ReviewOrderInProgress))
	assert.False(t, ReviewOrderInProgress.CanTransitionTo(ReviewOrderRequested))
	assert.False(t, ReviewOrderAssigned.CanTransitionTo(ReviewOrderRequested))
}

func TestReviewOrderCancellation(t *testing.T) {
	for _, from := range []ReviewOrderStatus{ReviewOrderRequested, ReviewOrderAssigned, ReviewOrderInProgress} {
		assert.True(t, from.CanTransitionTo(ReviewOrderCancelled), "from %s", from)
	}
	assert.False(t, ReviewOrderCompleted.CanTransitionTo(ReviewOrderCancelled))
}

func TestReviewOrderTerminalStates(t *testing.T) {
	assert.True(t, ReviewOrderCompleted.Terminal())
	assert.True(t, ReviewOrderCancelled.Terminal())
	assert.False(t, ReviewOrderRequested.Terminal())
	assert.False(t, ReviewOrderAssigned.Terminal())
	assert.False(t, ReviewOrderInProgress.Terminal())

	assert.False(t, ReviewOrderCompleted.CanTransitionTo(ReviewOrderAssigned))
	assert.False(t, ReviewOrderCancelled.CanTransitionTo(ReviewOrderRequested))
}
