package db

import (
	"context"

	"resumepilot-backend/internal/models"
)

// UserRepository defines storage operations for users. ConsumeCredit and
// GrantCredit are atomic conditional updates at the storage layer; the service
// layer must never implement the decrement as a read-then-write.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error

	// ConsumeCredit decrements the counter for kind by one, failing with
	// ErrInsufficientCredit when it is already zero. Linearizable per user.
	ConsumeCredit(ctx context.Context, userID string, kind models.CreditKind) error
	// GrantCredit increments the counter for kind by amount. Also used to roll
	// back a consumed credit after a failed downstream operation.
	GrantCredit(ctx context.Context, userID string, kind models.CreditKind, amount int) error
}

// ResumeRepository defines storage operations for resumes.
type ResumeRepository interface {
	Create(ctx context.Context, resume *models.Resume) (string, error)
	GetByID(ctx context.Context, resumeID string) (*models.Resume, error)
	GetByUserID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Resume, error)
	Update(ctx context.Context, resume *models.Resume) error

	// ConsumeOptimizationClick decrements the re-analysis budget, returning
	// the remaining count. Fails with ErrClicksExhausted when the budget is
	// depleted or was never purchased.
	ConsumeOptimizationClick(ctx context.Context, resumeID string) (int, error)
	// SetOptimizationClicks resets the budget, normally to the purchase default.
	SetOptimizationClicks(ctx context.Context, resumeID string, clicks int) error
	// RestoreOptimizationClick atomically returns one click to the budget
	// after a failed analysis.
	RestoreOptimizationClick(ctx context.Context, resumeID string) error
}

// ReviewOrderRepository defines storage operations for human-review orders.
type ReviewOrderRepository interface {
	Create(ctx context.Context, order *models.ReviewOrder) (string, error)
	GetByID(ctx context.Context, orderID string) (*models.ReviewOrder, error)
	List(ctx context.Context, paginationParams map[string]string) ([]*models.ReviewOrder, error)
	Update(ctx context.Context, order *models.ReviewOrder) error
}

// BillingRepository holds the webhook reconciler's compound writes. Each
// operation runs in a single storage transaction keyed by the payment
// provider's event ID: the event marker and every entity mutation commit
// together or not at all, and a replayed event fails fast with
// ErrEventAlreadyProcessed.
type BillingRepository interface {
	ApplySubscriptionActivation(ctx context.Context, eventID, userID, subscriptionID string) error
	ApplySubscriptionDeleted(ctx context.Context, eventID, customerID string) error
	// ApplyCreditGrant increments a credit counter. For optimization purchases
	// resumeID is non-empty and the resume's click budget is reset to clicks in
	// the same transaction.
	ApplyCreditGrant(ctx context.Context, eventID, userID string, kind models.CreditKind, amount int, resumeID string, clicks int) error
	// ApplyReviewPurchase creates the ReviewOrder and marks the resume
	// pending_review; returns the new order ID.
	ApplyReviewPurchase(ctx context.Context, eventID, userID, resumeID string) (string, error)
}
