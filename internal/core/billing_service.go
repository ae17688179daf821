package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"resumepilot-backend/internal/config"
	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/models"
)

// Custom errors for the BillingService.
var (
	ErrWebhookSignature = errors.New("webhook signature verification failed")
	ErrStripeClient     = errors.New("payment provider request failed")
)

type billingService struct {
	userRepo    db.UserRepository
	resumeRepo  db.ResumeRepository
	billingRepo db.BillingRepository
	cfg         *config.Config
	logger      *zap.Logger
}

// NewBillingService creates a BillingService instance and sets the global
// Stripe API key, which the SDK requires.
func NewBillingService(
	userRepo db.UserRepository,
	resumeRepo db.ResumeRepository,
	billingRepo db.BillingRepository,
	cfg *config.Config,
	logger *zap.Logger,
) BillingService {
	stripe.Key = cfg.StripeSecretKey
	return &billingService{
		userRepo:    userRepo,
		resumeRepo:  resumeRepo,
		billingRepo: billingRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateCheckoutSession starts a payment flow and returns the hosted checkout
// URL. The purchase intent is embedded in session metadata so the webhook
// reconciler can act on it without a price-ID lookup.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (string, error) {
	priceID, mode, err := s.priceForService(req.ServiceType)
	if err != nil {
		return "", err
	}
	if (req.ServiceType == ServiceOptimizationCredit || req.ServiceType == ServiceReview) && req.ResumeID == "" {
		return "", ErrMissingResumeID
	}
	if req.ResumeID != "" {
		resume, err := s.resumeRepo.GetByID(ctx, req.ResumeID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return "", fmt.Errorf("%w: resume '%s'", ErrResumeNotFound, req.ResumeID)
			}
			return "", fmt.Errorf("failed to get resume '%s': %w", req.ResumeID, err)
		}
		if resume.UserID != userID {
			return "", fmt.Errorf("%w: resume '%s'", ErrForbiddenAccess, req.ResumeID)
		}
	}

	customerID, err := s.ensureStripeCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	clientURL := strings.TrimRight(s.cfg.ClientURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(mode)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(clientURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(clientURL + "/billing/cancel"),
	}
	for k, v := range sessionMetadata(req.ServiceType, userID, req.ResumeID) {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		s.logger.Error("Checkout session creation failed",
			zap.String("userId", userID),
			zap.String("serviceType", req.ServiceType),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return sess.URL, nil
}

// HandleStripeWebhook verifies the event signature and reconciles the event
// into application state. A nil return means the provider should receive a
// 200 and stop retrying; that includes replays of already-processed events.
func (s *billingService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	return s.processEvent(ctx, event)
}

// processEvent dispatches one verified event. Split from signature handling
// so the reconciliation logic is exercisable without signed payloads.
func (s *billingService) processEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to decode checkout session from event '%s': %w", event.ID, err)
		}
		return s.applyCheckoutCompleted(ctx, event.ID, &sess)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to decode subscription from event '%s': %w", event.ID, err)
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return fmt.Errorf("subscription event '%s' carries no customer id", event.ID)
		}
		err := s.billingRepo.ApplySubscriptionDeleted(ctx, event.ID, sub.Customer.ID)
		return s.finishReconcile(event.ID, string(event.Type), err)

	case "checkout.session.expired", "payment_intent.payment_failed":
		// Nothing was granted, so there is nothing to reconcile.
		s.logger.Info("Payment did not complete",
			zap.String("eventId", event.ID),
			zap.String("eventType", string(event.Type)))
		return nil

	default:
		s.logger.Debug("Ignoring unhandled webhook event type",
			zap.String("eventId", event.ID),
			zap.String("eventType", string(event.Type)))
		return nil
	}
}

func (s *billingService) applyCheckoutCompleted(ctx context.Context, eventID string, sess *stripe.CheckoutSession) error {
	purpose, err := parseCheckoutPurpose(sess.Metadata)
	if err != nil {
		if errors.Is(err, ErrMalformedMetadata) || errors.Is(err, ErrUnknownServiceType) {
			// Not one of our products. Acknowledge so the provider stops
			// retrying, but keep a record of the skip.
			s.logger.Warn("Skipping checkout session with unrecognized metadata",
				zap.String("eventId", eventID),
				zap.Error(err))
			return nil
		}
		return err
	}

	switch {
	case purpose.Subscription != nil:
		p := purpose.Subscription
		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}
		err = s.billingRepo.ApplySubscriptionActivation(ctx, eventID, p.UserID, subscriptionID)

	case purpose.Credit != nil:
		p := purpose.Credit
		clicks := 0
		if p.Kind == models.CreditOptimization {
			clicks = models.DefaultOptimizationClicks
		}
		err = s.billingRepo.ApplyCreditGrant(ctx, eventID, p.UserID, p.Kind, 1, p.ResumeID, clicks)

	case purpose.Review != nil:
		p := purpose.Review
		var orderID string
		orderID, err = s.billingRepo.ApplyReviewPurchase(ctx, eventID, p.UserID, p.ResumeID)
		if err == nil {
			s.logger.Info("Review order created from completed checkout",
				zap.String("eventId", eventID),
				zap.String("orderId", orderID),
				zap.String("resumeId", p.ResumeID))
		}
	}
	return s.finishReconcile(eventID, "checkout.session.completed", err)
}

// finishReconcile folds the replay case into success: an event that was
// already applied must be acknowledged, not retried.
func (s *billingService) finishReconcile(eventID, eventType string, err error) error {
	if err == nil {
		s.logger.Info("Webhook event reconciled",
			zap.String("eventId", eventID),
			zap.String("eventType", eventType))
		return nil
	}
	if errors.Is(err, db.ErrEventAlreadyProcessed) {
		s.logger.Info("Webhook event already processed; skipping",
			zap.String("eventId", eventID),
			zap.String("eventType", eventType))
		return nil
	}
	return fmt.Errorf("failed to reconcile event '%s' (%s): %w", eventID, eventType, err)
}

// priceForService maps a service type to its configured price and checkout
// mode.
func (s *billingService) priceForService(serviceType string) (string, stripe.CheckoutSessionMode, error) {
	switch serviceType {
	case ServiceSubscription:
		return s.cfg.StripePricePremiumMonthly, stripe.CheckoutSessionModeSubscription, nil
	case ServiceATSCredit:
		return s.cfg.StripePriceATSCredit, stripe.CheckoutSessionModePayment, nil
	case ServiceOptimizationCredit:
		return s.cfg.StripePriceOptimization, stripe.CheckoutSessionModePayment, nil
	case ServiceReview:
		return s.cfg.StripePriceProfessionalView, stripe.CheckoutSessionModePayment, nil
	default:
		return "", "", fmt.Errorf("%w: '%s'", ErrUnknownServiceType, serviceType)
	}
}

// ensureStripeCustomer finds or creates the Stripe customer for a user and
// persists the mapping, so webhook events can be resolved back to the user.
func (s *billingService) ensureStripeCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: '%s'", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
	}
	params.AddMetadata(metaKeyUserID, userID)
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: customer creation: %v", ErrStripeClient, err)
	}

	if err := s.userRepo.SetStripeCustomerID(ctx, userID, cust.ID); err != nil {
		return "", fmt.Errorf("failed to persist customer id for user '%s': %w", userID, err)
	}
	return cust.ID, nil
}
