package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/models"
)

// ErrInsufficientCredit is returned when a non-premium user attempts a gated
// operation with an empty counter.
var ErrInsufficientCredit = errors.New("insufficient credit")

// creditService implements CreditService on top of the repository's
// transactional counter operations.
type creditService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
}

// NewCreditService creates a CreditService instance.
func NewCreditService(userRepo db.UserRepository, logger *zap.Logger) CreditService {
	return &creditService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// HasEntitlement reports whether the user may run an operation of the given
// kind. The answer is advisory; Consume is the race-free gate.
func (s *creditService) HasEntitlement(user *models.User, kind models.CreditKind) bool {
	return user.IsPremium() || user.Credits(kind) > 0
}

// Consume takes one credit. Premium users never touch the counter. The
// decrement happens as a single conditional update in the repository, so two
// concurrent calls against one remaining credit cannot both succeed.
func (s *creditService) Consume(ctx context.Context, user *models.User, kind models.CreditKind) error {
	if user.IsPremium() {
		return nil
	}
	err := s.userRepo.ConsumeCredit(ctx, user.ID, kind)
	if err != nil {
		if errors.Is(err, db.ErrInsufficientCredit) {
			return fmt.Errorf("%w: no %s credits remaining for user '%s'", ErrInsufficientCredit, kind, user.ID)
		}
		return fmt.Errorf("failed to consume %s credit for user '%s': %w", kind, user.ID, err)
	}
	return nil
}

// Grant adds credits to the user's counter.
func (s *creditService) Grant(ctx context.Context, userID string, kind models.CreditKind, amount int) error {
	if err := s.userRepo.GrantCredit(ctx, userID, kind, amount); err != nil {
		return fmt.Errorf("failed to grant %d %s credit(s) to user '%s': %w", amount, kind, userID, err)
	}
	return nil
}

// Rollback restores one consumed credit after a failed downstream operation.
// A rollback failure is a reconciliation risk, so it is logged at error level
// in addition to being returned.
func (s *creditService) Rollback(ctx context.Context, userID string, kind models.CreditKind) error {
	if err := s.userRepo.GrantCredit(ctx, userID, kind, 1); err != nil {
		s.logger.Error("Credit rollback failed; user is owed a credit and needs manual reconciliation",
			zap.String("userId", userID),
			zap.String("creditKind", string(kind)),
			zap.Error(err))
		return fmt.Errorf("failed to roll back %s credit for user '%s': %w", kind, userID, err)
	}
	return nil
}
