package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resumepilot-backend/internal/models"
)

func reviewFixture(t *testing.T, order *models.ReviewOrder, resume *models.Resume) (ReviewService, *fakeReviewOrderRepo, *fakeResumeRepo) {
	t.Helper()
	orders := newFakeReviewOrderRepo(order)
	resumes := newFakeResumeRepo(resume)
	return NewReviewService(orders, resumes, zap.NewNop()), orders, resumes
}

func requestedOrder() (*models.ReviewOrder, *models.Resume) {
	resume := ownedResumeFixture("user-1")
	resume.ReviewStatus = models.ReviewPending
	order := &models.ReviewOrder{
		ID:       "order-a",
		ResumeID: resume.ID,
		UserID:   "user-1",
		Status:   models.ReviewOrderRequested,
	}
	return order, resume
}

func TestReviewService_FullWorkflow(t *testing.T) {
	order, resume := requestedOrder()
	svc, _, resumes := reviewFixture(t, order, resume)
	ctx := context.Background()

	got, err := svc.UpdateStatus(ctx, order.ID, models.UpdateReviewOrderStatusRequest{
		Status:     string(models.ReviewOrderAssigned),
		ReviewerID: "reviewer-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "reviewer-7", got.ReviewerID)

	_, err = svc.UpdateStatus(ctx, order.ID, models.UpdateReviewOrderStatusRequest{Status: string(models.ReviewOrderInProgress)})
	require.NoError(t, err)

	got, err = svc.UpdateStatus(ctx, order.ID, models.UpdateReviewOrderStatusRequest{Status: string(models.ReviewOrderCompleted)})
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)

	// Completion flips the resume's review dimension.
	assert.Equal(t, models.ReviewComplete, resumes.get(resume.ID).ReviewStatus)
}

func TestReviewService_RejectsSkippedTransition(t *testing.T) {
	order, resume := requestedOrder()
	svc, _, _ := reviewFixture(t, order, resume)

	_, err := svc.UpdateStatus(context.Background(), order.ID, models.UpdateReviewOrderStatusRequest{Status: string(models.ReviewOrderCompleted)})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewService_TerminalOrderIsFrozen(t *testing.T) {
	order, resume := requestedOrder()
	order.Status = models.ReviewOrderCancelled
	svc, _, _ := reviewFixture(t, order, resume)

	for _, next := range []models.ReviewOrderStatus{
		models.ReviewOrderRequested,
		models.ReviewOrderAssigned,
		models.ReviewOrderInProgress,
		models.ReviewOrderCompleted,
	} {
		_, err := svc.UpdateStatus(context.Background(), order.ID, models.UpdateReviewOrderStatusRequest{Status: string(next)})
		assert.ErrorIs(t, err, ErrInvalidTransition, "cancelled order must not move to %s", next)
	}
}

func TestReviewService_CancellableFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []models.ReviewOrderStatus{
		models.ReviewOrderRequested,
		models.ReviewOrderAssigned,
		models.ReviewOrderInProgress,
	} {
		order, resume := requestedOrder()
		order.Status = from
		svc, _, _ := reviewFixture(t, order, resume)

		_, err := svc.UpdateStatus(context.Background(), order.ID, models.UpdateReviewOrderStatusRequest{Status: string(models.ReviewOrderCancelled)})
		assert.NoError(t, err, "cancel from %s", from)
	}
}

func TestReviewService_FeedbackEditableOnTerminalOrder(t *testing.T) {
	order, resume := requestedOrder()
	order.Status = models.ReviewOrderCompleted
	svc, orders, _ := reviewFixture(t, order, resume)

	got, err := svc.SetFeedback(context.Background(), order.ID, "Strong resume, tighten the summary.")
	require.NoError(t, err)
	assert.Equal(t, "Strong resume, tighten the summary.", got.ReviewerFeedback)

	stored, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strong resume, tighten the summary.", stored.ReviewerFeedback)
}

func TestReviewService_UnknownOrder(t *testing.T) {
	order, resume := requestedOrder()
	svc, _, _ := reviewFixture(t, order, resume)

	_, err := svc.GetByID(context.Background(), "no-such-order")
	require.ErrorIs(t, err, ErrOrderNotFound)
}
