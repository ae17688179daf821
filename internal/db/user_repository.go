package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"resumepilot-backend/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements UserRepository using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a Firestore-backed UserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

func creditField(kind models.CreditKind) string {
	if kind == models.CreditOptimization {
		return "ppuOptimizationCredits"
	}
	return "ppuAtsCredits"
}

// Create adds a new user document. The Firebase Auth UID is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, err)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// GetByStripeCustomerID finds the user linked to a Stripe customer. Used by
// the webhook reconciler for subscription lifecycle events, which carry the
// customer ID rather than our user ID.
func (r *firestoreUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty for GetByStripeCustomerID operation")
	}
	iter := r.client.Collection(usersCollection).
		Where("stripeCustomerId", "==", customerID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user with Stripe customer '%s' not found: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by Stripe customer '%s': %w", customerID, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for Stripe customer '%s': %w", customerID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

// Update overwrites an existing user document with the given state.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// SetStripeCustomerID stores the Stripe customer link without touching the
// rest of the document.
func (r *firestoreUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "stripeCustomerId", Value: customerID},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to set Stripe customer for user '%s': %w", userID, err)
	}
	return nil
}

// ConsumeCredit decrements the counter for kind inside a Firestore
// transaction. The read and conditional write commit atomically, so two
// concurrent calls against a single remaining credit cannot both succeed.
func (r *firestoreUserRepository) ConsumeCredit(ctx context.Context, userID string, kind models.CreditKind) error {
	if userID == "" {
		return errors.New("userID cannot be empty for ConsumeCredit operation")
	}
	ref := r.client.Collection(usersCollection).Doc(userID)
	field := creditField(kind)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		remaining := int64(0)
		if v, err := snap.DataAt(field); err == nil {
			if n, ok := v.(int64); ok {
				remaining = n
			}
		}
		if remaining <= 0 {
			return ErrInsufficientCredit
		}

		return tx.Update(ref, []firestore.Update{
			{Path: field, Value: firestore.Increment(-1)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredit) || errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to consume %s credit for user '%s': %w", kind, userID, err)
	}
	return nil
}

// GrantCredit increments the counter for kind by amount.
func (r *firestoreUserRepository) GrantCredit(ctx context.Context, userID string, kind models.CreditKind, amount int) error {
	if userID == "" {
		return errors.New("userID cannot be empty for GrantCredit operation")
	}
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: creditField(kind), Value: firestore.Increment(amount)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to grant %d %s credit(s) to user '%s': %w", amount, kind, userID, err)
	}
	return nil
}
