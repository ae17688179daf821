package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"resumepilot-backend/internal/models"
)

const reviewOrdersCollection = "reviewOrders"

// firestoreReviewOrderRepository implements ReviewOrderRepository using Firestore.
type firestoreReviewOrderRepository struct {
	client *firestore.Client
}

// NewFirestoreReviewOrderRepository creates a Firestore-backed ReviewOrderRepository.
func NewFirestoreReviewOrderRepository(client *firestore.Client) ReviewOrderRepository {
	return &firestoreReviewOrderRepository{client: client}
}

// Create adds a new review order document with an auto-generated ID. Orders
// created by the webhook reconciler go through BillingRepository instead so
// the write shares a transaction with the resume status change.
func (r *firestoreReviewOrderRepository) Create(ctx context.Context, order *models.ReviewOrder) (string, error) {
	docRef := r.client.Collection(reviewOrdersCollection).NewDoc()
	order.ID = docRef.ID

	_, err := docRef.Create(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to create review order: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a review order document by its ID.
func (r *firestoreReviewOrderRepository) GetByID(ctx context.Context, orderID string) (*models.ReviewOrder, error) {
	if orderID == "" {
		return nil, errors.New("orderID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(reviewOrdersCollection).Doc(orderID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("review order with ID '%s' not found: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review order with ID '%s': %w", orderID, err)
	}

	var order models.ReviewOrder
	if err := docSnap.DataTo(&order); err != nil {
		return nil, fmt.Errorf("failed to decode review order data for ID '%s': %w", orderID, err)
	}
	order.ID = docSnap.Ref.ID

	return &order, nil
}

// List retrieves review orders newest first, optionally filtered by status.
// Pagination supports "limit" and "startAfter" (a document ID).
func (r *firestoreReviewOrderRepository) List(ctx context.Context, paginationParams map[string]string) ([]*models.ReviewOrder, error) {
	var query firestore.Query
	if statusFilter, ok := paginationParams["status"]; ok && statusFilter != "" {
		query = r.client.Collection(reviewOrdersCollection).
			Where("status", "==", statusFilter).
			OrderBy("createdAt", firestore.Desc)
	} else {
		query = r.client.Collection(reviewOrdersCollection).
			OrderBy("createdAt", firestore.Desc)
	}

	if limitStr, ok := paginationParams["limit"]; ok {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}
	if startAfterID, ok := paginationParams["startAfter"]; ok && startAfterID != "" {
		startSnap, err := r.client.Collection(reviewOrdersCollection).Doc(startAfterID).Get(ctx)
		if err == nil {
			query = query.StartAfter(startSnap)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orders []*models.ReviewOrder
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate review orders: %w", err)
		}

		var order models.ReviewOrder
		if err := doc.DataTo(&order); err != nil {
			continue
		}
		order.ID = doc.Ref.ID
		orders = append(orders, &order)
	}

	return orders, nil
}

// Update overwrites an existing review order document.
func (r *firestoreReviewOrderRepository) Update(ctx context.Context, order *models.ReviewOrder) error {
	if order.ID == "" {
		return errors.New("order ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(reviewOrdersCollection).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to update review order with ID '%s': %w", order.ID, err)
	}
	return nil
}
