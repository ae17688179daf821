package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"resumepilot-backend/internal/models"
)

const webhookEventsCollection = "webhookEvents"

// webhookEventMarker records that a payment-provider event has been applied.
// The marker is created in the same transaction as the event's side effects,
// so a replayed delivery either sees the marker or sees none of the effects.
type webhookEventMarker struct {
	EventType   string    `firestore:"eventType"`
	ProcessedAt time.Time `firestore:"processedAt,serverTimestamp"`
}

// firestoreBillingRepository implements BillingRepository using Firestore
// transactions for the reconciler's multi-entity writes.
type firestoreBillingRepository struct {
	client *firestore.Client
}

// NewFirestoreBillingRepository creates a Firestore-backed BillingRepository.
func NewFirestoreBillingRepository(client *firestore.Client) BillingRepository {
	return &firestoreBillingRepository{client: client}
}

// checkEventUnprocessed reads the event marker inside the transaction. All
// transaction reads must happen before any write, so every Apply method calls
// this first.
func (r *firestoreBillingRepository) checkEventUnprocessed(tx *firestore.Transaction, eventID string) (*firestore.DocumentRef, error) {
	eventRef := r.client.Collection(webhookEventsCollection).Doc(eventID)
	_, err := tx.Get(eventRef)
	if err == nil {
		return nil, ErrEventAlreadyProcessed
	}
	if status.Code(err) != codes.NotFound {
		return nil, err
	}
	return eventRef, nil
}

// ApplySubscriptionActivation marks the user premium and records the Stripe
// subscription reference.
func (r *firestoreBillingRepository) ApplySubscriptionActivation(ctx context.Context, eventID, userID, subscriptionID string) error {
	if eventID == "" || userID == "" {
		return errors.New("eventID and userID are required for subscription activation")
	}
	userRef := r.client.Collection(usersCollection).Doc(userID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		eventRef, err := r.checkEventUnprocessed(tx, eventID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(userRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Create(eventRef, webhookEventMarker{EventType: "subscription_activation"}); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "subscriptionStatus", Value: string(models.SubscriptionPremium)},
			{Path: "stripeSubscriptionId", Value: subscriptionID},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return wrapReconcileErr(err, "subscription activation", eventID)
}

// ApplySubscriptionDeleted sets the user's subscription inactive. The user is
// located by Stripe customer ID outside the transaction; subscription
// lifecycle events for one customer do not race each other in practice.
func (r *firestoreBillingRepository) ApplySubscriptionDeleted(ctx context.Context, eventID, customerID string) error {
	if eventID == "" || customerID == "" {
		return errors.New("eventID and customerID are required for subscription deletion")
	}

	users := NewFirestoreUserRepository(r.client)
	user, err := users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	userRef := r.client.Collection(usersCollection).Doc(user.ID)

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		eventRef, err := r.checkEventUnprocessed(tx, eventID)
		if err != nil {
			return err
		}

		if err := tx.Create(eventRef, webhookEventMarker{EventType: "subscription_deleted"}); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "subscriptionStatus", Value: string(models.SubscriptionInactive)},
			{Path: "stripeSubscriptionId", Value: ""},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return wrapReconcileErr(err, "subscription deletion", eventID)
}

// ApplyCreditGrant increments the user's credit counter and, for optimization
// purchases scoped to a resume, resets that resume's click budget in the same
// transaction.
func (r *firestoreBillingRepository) ApplyCreditGrant(ctx context.Context, eventID, userID string, kind models.CreditKind, amount int, resumeID string, clicks int) error {
	if eventID == "" || userID == "" {
		return errors.New("eventID and userID are required for credit grant")
	}
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	userRef := r.client.Collection(usersCollection).Doc(userID)
	var resumeRef *firestore.DocumentRef
	if resumeID != "" {
		resumeRef = r.client.Collection(resumesCollection).Doc(resumeID)
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		eventRef, err := r.checkEventUnprocessed(tx, eventID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(userRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		if resumeRef != nil {
			if _, err := tx.Get(resumeRef); err != nil {
				if status.Code(err) == codes.NotFound {
					return ErrNotFound
				}
				return err
			}
		}

		if err := tx.Create(eventRef, webhookEventMarker{EventType: "credit_grant_" + string(kind)}); err != nil {
			return err
		}
		if err := tx.Update(userRef, []firestore.Update{
			{Path: creditField(kind), Value: firestore.Increment(amount)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		if resumeRef != nil {
			return tx.Update(resumeRef, []firestore.Update{
				{Path: "ppuOptimizationClicksRemaining", Value: clicks},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			})
		}
		return nil
	})
	return wrapReconcileErr(err, "credit grant", eventID)
}

// ApplyReviewPurchase creates the ReviewOrder and marks the resume
// pending_review. Both writes and the event marker commit together.
func (r *firestoreBillingRepository) ApplyReviewPurchase(ctx context.Context, eventID, userID, resumeID string) (string, error) {
	if eventID == "" || userID == "" || resumeID == "" {
		return "", errors.New("eventID, userID and resumeID are required for review purchase")
	}
	resumeRef := r.client.Collection(resumesCollection).Doc(resumeID)
	orderRef := r.client.Collection(reviewOrdersCollection).NewDoc()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		eventRef, err := r.checkEventUnprocessed(tx, eventID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(resumeRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Create(eventRef, webhookEventMarker{EventType: "review_purchase"}); err != nil {
			return err
		}
		order := &models.ReviewOrder{
			ResumeID:      resumeID,
			UserID:        userID,
			Status:        models.ReviewOrderRequested,
			PaymentStatus: "paid",
			SubmittedAt:   time.Now().UTC(),
		}
		if err := tx.Create(orderRef, order); err != nil {
			return err
		}
		return tx.Update(resumeRef, []firestore.Update{
			{Path: "reviewStatus", Value: string(models.ReviewPending)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return "", wrapReconcileErr(err, "review purchase", eventID)
	}
	return orderRef.ID, nil
}

func wrapReconcileErr(err error, op, eventID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEventAlreadyProcessed) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("failed to apply %s for event '%s': %w", op, eventID, err)
}
