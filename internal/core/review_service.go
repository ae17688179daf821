package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/models"
)

// Custom errors for the ReviewService.
var (
	ErrOrderNotFound     = errors.New("review order not found")
	ErrInvalidTransition = errors.New("illegal review order status transition")
)

type reviewService struct {
	orderRepo  db.ReviewOrderRepository
	resumeRepo db.ResumeRepository
	logger     *zap.Logger
}

// NewReviewService creates a ReviewService instance.
func NewReviewService(orderRepo db.ReviewOrderRepository, resumeRepo db.ResumeRepository, logger *zap.Logger) ReviewService {
	return &reviewService{orderRepo: orderRepo, resumeRepo: resumeRepo, logger: logger}
}

// List returns review orders, optionally filtered by status through the
// pagination params.
func (s *reviewService) List(ctx context.Context, paginationParams map[string]string) ([]*models.ReviewOrder, error) {
	orders, err := s.orderRepo.List(ctx, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list review orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves one review order.
func (s *reviewService) GetByID(ctx context.Context, orderID string) (*models.ReviewOrder, error) {
	return s.loadOrder(ctx, orderID)
}

// UpdateStatus moves an order through its workflow, rejecting skips,
// regressions and changes to terminal orders. Completing an order also flips
// the resume's review dimension to review_complete.
func (s *reviewService) UpdateStatus(ctx context.Context, orderID string, req models.UpdateReviewOrderStatusRequest) (*models.ReviewOrder, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := models.ReviewOrderStatus(req.Status)
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: '%s' -> '%s'", ErrInvalidTransition, order.Status, next)
	}

	order.Status = next
	if req.ReviewerID != "" {
		order.ReviewerID = req.ReviewerID
	}
	if next == models.ReviewOrderCompleted {
		now := time.Now().UTC()
		order.CompletedAt = &now
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update review order '%s': %w", orderID, err)
	}

	if next == models.ReviewOrderCompleted {
		s.markResumeReviewed(ctx, order)
	}
	return order, nil
}

// SetFeedback sets or replaces the reviewer's feedback text. Unlike status,
// feedback stays editable after the order reaches a terminal state.
func (s *reviewService) SetFeedback(ctx context.Context, orderID, feedback string) (*models.ReviewOrder, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.ReviewerFeedback = feedback
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store feedback for review order '%s': %w", orderID, err)
	}
	return order, nil
}

func (s *reviewService) loadOrder(ctx context.Context, orderID string) (*models.ReviewOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get review order '%s': %w", orderID, err)
	}
	return order, nil
}

// markResumeReviewed is best-effort: the order is already completed, and a
// failure here only delays the resume badge, so it is logged rather than
// unwound.
func (s *reviewService) markResumeReviewed(ctx context.Context, order *models.ReviewOrder) {
	resume, err := s.resumeRepo.GetByID(ctx, order.ResumeID)
	if err != nil {
		s.logger.Error("Completed review order references missing resume",
			zap.String("orderId", order.ID),
			zap.String("resumeId", order.ResumeID),
			zap.Error(err))
		return
	}
	resume.ReviewStatus = models.ReviewComplete
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.logger.Error("Failed to mark resume review complete",
			zap.String("orderId", order.ID),
			zap.String("resumeId", order.ResumeID),
			zap.Error(err))
	}
}
