package core

import (
	"context"

	"resumepilot-backend/internal/models"
)

// CreditService is the pay-per-use credit ledger. Premium subscribers bypass
// every check; for everyone else the decrement is an atomic conditional
// update at the storage layer.
type CreditService interface {
	HasEntitlement(user *models.User, kind models.CreditKind) bool
	// Consume takes one credit. No-op for premium users; fails with
	// ErrInsufficientCredit when the counter is zero.
	Consume(ctx context.Context, user *models.User, kind models.CreditKind) error
	// Grant adds credits, used by the webhook reconciler on confirmed payment.
	Grant(ctx context.Context, userID string, kind models.CreditKind, amount int) error
	// Rollback restores one credit after a failed downstream operation.
	Rollback(ctx context.Context, userID string, kind models.CreditKind) error
}

// AnalysisService is the single chokepoint for every analysis operation:
// ownership and entitlement checks, credit consumption with
// rollback-on-failure, lifecycle transitions, and result persistence.
type AnalysisService interface {
	// UploadAndCheck stores a new resume and runs the free basic ATS check
	// inline. userID may be empty for anonymous submissions.
	UploadAndCheck(ctx context.Context, userID, fileName, mimeType string, data []byte) (*models.Resume, error)
	GetResume(ctx context.Context, userID, resumeID string) (*models.Resume, error)
	ListResumes(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Resume, error)
	DownloadURL(ctx context.Context, userID, resumeID string) (string, error)
	SetJobDescription(ctx context.Context, userID, resumeID, jobDescription string) (*models.Resume, error)
	// DetailedATSReport runs the paid in-depth ATS analysis (ATS credit).
	DetailedATSReport(ctx context.Context, userID, resumeID string) (*models.Resume, error)
	// JobOptimization scores the resume against its stored job description
	// (optimization credit).
	JobOptimization(ctx context.Context, userID, resumeID string) (*models.Resume, error)
	// AnalyzeChanges re-analyzes user-edited text against the click budget.
	// The result is ephemeral: the resume's persisted scores are not touched.
	AnalyzeChanges(ctx context.Context, userID, resumeID, editedText string) (*models.ChangeAnalysis, error)
}

// BillingService creates payment sessions and reconciles asynchronous,
// possibly-replayed payment-provider events into user, resume and review
// order state.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (string, error)
	HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error
}

// ReviewService is the admin-facing human-review workflow.
type ReviewService interface {
	List(ctx context.Context, paginationParams map[string]string) ([]*models.ReviewOrder, error)
	GetByID(ctx context.Context, orderID string) (*models.ReviewOrder, error)
	UpdateStatus(ctx context.Context, orderID string, req models.UpdateReviewOrderStatusRequest) (*models.ReviewOrder, error)
	// SetFeedback replaces the reviewer's feedback text. Allowed on terminal
	// orders; everything else about them is immutable.
	SetFeedback(ctx context.Context, orderID, feedback string) (*models.ReviewOrder, error)
}

// UserService manages user profiles.
type UserService interface {
	GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}
