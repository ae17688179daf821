package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/models"
)

// ErrUserNotFound indicates the requested user profile does not exist.
var ErrUserNotFound = errors.New("user not found")

type userService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a UserService instance.
func NewUserService(userRepo db.UserRepository, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

// GetOrCreate returns the profile for an authenticated user, provisioning it
// on first sign-in. New users start on the free tier with zero credits. The
// boolean return reports whether the profile was created by this call.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	user = &models.User{
		ID:                 userID,
		Email:              email,
		DisplayName:        displayName,
		SubscriptionStatus: models.SubscriptionFree,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user '%s': %w", userID, err)
	}
	s.logger.Info("Provisioned new user profile", zap.String("userId", userID))
	return user, true, nil
}

// GetByID retrieves a user profile.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}
