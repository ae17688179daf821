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

const resumesCollection = "resumes"

// firestoreResumeRepository implements ResumeRepository using Firestore.
type firestoreResumeRepository struct {
	client *firestore.Client
}

// NewFirestoreResumeRepository creates a Firestore-backed ResumeRepository.
func NewFirestoreResumeRepository(client *firestore.Client) ResumeRepository {
	return &firestoreResumeRepository{client: client}
}

// Create adds a new resume document with an auto-generated ID.
func (r *firestoreResumeRepository) Create(ctx context.Context, resume *models.Resume) (string, error) {
	docRef := r.client.Collection(resumesCollection).NewDoc()
	resume.ID = docRef.ID

	_, err := docRef.Create(ctx, resume)
	if err != nil {
		return "", fmt.Errorf("failed to create resume: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a resume document by its ID.
func (r *firestoreResumeRepository) GetByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	if resumeID == "" {
		return nil, errors.New("resumeID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(resumesCollection).Doc(resumeID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("resume with ID '%s' not found: %w", resumeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get resume with ID '%s': %w", resumeID, err)
	}

	var resume models.Resume
	if err := docSnap.DataTo(&resume); err != nil {
		return nil, fmt.Errorf("failed to decode resume data for ID '%s': %w", resumeID, err)
	}
	resume.ID = docSnap.Ref.ID

	return &resume, nil
}

// GetByUserID retrieves the resumes owned by a user, newest first. Pagination
// supports "limit" and "startAfter" (a document ID from the previous page).
func (r *firestoreResumeRepository) GetByUserID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Resume, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByUserID operation")
	}

	query := r.client.Collection(resumesCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	if limitStr, ok := paginationParams["limit"]; ok {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}
	if startAfterID, ok := paginationParams["startAfter"]; ok && startAfterID != "" {
		startSnap, err := r.client.Collection(resumesCollection).Doc(startAfterID).Get(ctx)
		if err == nil {
			query = query.StartAfter(startSnap)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var resumes []*models.Resume
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate resumes for user '%s': %w", userID, err)
		}

		var resume models.Resume
		if err := doc.DataTo(&resume); err != nil {
			continue
		}
		resume.ID = doc.Ref.ID
		resumes = append(resumes, &resume)
	}

	return resumes, nil
}

// Update overwrites an existing resume document. Score, feedback and stage
// fields are last-writer-wins; only the click budget goes through the
// transactional decrement below.
func (r *firestoreResumeRepository) Update(ctx context.Context, resume *models.Resume) error {
	if resume.ID == "" {
		return errors.New("resume ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(resumesCollection).Doc(resume.ID).Set(ctx, resume)
	if err != nil {
		return fmt.Errorf("failed to update resume with ID '%s': %w", resume.ID, err)
	}
	return nil
}

// ConsumeOptimizationClick decrements the re-analysis budget inside a
// Firestore transaction and returns the remaining count. A null budget means
// no pay-per-use optimization purchase is active, which is treated the same
// as a depleted one.
func (r *firestoreResumeRepository) ConsumeOptimizationClick(ctx context.Context, resumeID string) (int, error) {
	if resumeID == "" {
		return 0, errors.New("resumeID cannot be empty for ConsumeOptimizationClick operation")
	}
	ref := r.client.Collection(resumesCollection).Doc(resumeID)

	remaining := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		v, err := snap.DataAt("ppuOptimizationClicksRemaining")
		if err != nil || v == nil {
			return ErrClicksExhausted
		}
		clicks, ok := v.(int64)
		if !ok || clicks <= 0 {
			return ErrClicksExhausted
		}

		remaining = int(clicks) - 1
		return tx.Update(ref, []firestore.Update{
			{Path: "ppuOptimizationClicksRemaining", Value: firestore.Increment(-1)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		if errors.Is(err, ErrClicksExhausted) || errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to consume optimization click for resume '%s': %w", resumeID, err)
	}
	return remaining, nil
}

// SetOptimizationClicks resets the re-analysis budget, typically to the
// purchase default when a new optimization credit is granted.
func (r *firestoreResumeRepository) SetOptimizationClicks(ctx context.Context, resumeID string, clicks int) error {
	if resumeID == "" {
		return errors.New("resumeID cannot be empty for SetOptimizationClicks operation")
	}
	_, err := r.client.Collection(resumesCollection).Doc(resumeID).Update(ctx, []firestore.Update{
		{Path: "ppuOptimizationClicksRemaining", Value: clicks},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("resume with ID '%s' not found: %w", resumeID, ErrNotFound)
		}
		return fmt.Errorf("failed to set optimization clicks for resume '%s': %w", resumeID, err)
	}
	return nil
}

// RestoreOptimizationClick returns one click to the re-analysis budget after
// a failed analysis. The relative increment cannot clobber a decrement that
// landed concurrently on the same budget.
func (r *firestoreResumeRepository) RestoreOptimizationClick(ctx context.Context, resumeID string) error {
	if resumeID == "" {
		return errors.New("resumeID cannot be empty for RestoreOptimizationClick operation")
	}
	_, err := r.client.Collection(resumesCollection).Doc(resumeID).Update(ctx, []firestore.Update{
		{Path: "ppuOptimizationClicksRemaining", Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("resume with ID '%s' not found: %w", resumeID, ErrNotFound)
		}
		return fmt.Errorf("failed to restore optimization click for resume '%s': %w", resumeID, err)
	}
	return nil
}
