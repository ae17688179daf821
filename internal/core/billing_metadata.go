package core

import (
	"errors"
	"fmt"

	"resumepilot-backend/internal/models"
)

// Service types a checkout session can be created for. The value is embedded
// in session metadata and round-trips through the payment provider, so the
// webhook side can dispatch without guessing from price IDs.
const (
	ServiceSubscription       = "subscription"
	ServiceATSCredit          = "ats_credit"
	ServiceOptimizationCredit = "optimization_credit"
	ServiceReview             = "review"
)

const (
	metaKeyServiceType = "serviceType"
	metaKeyUserID      = "userId"
	metaKeyResumeID    = "resumeId"
)

var (
	ErrUnknownServiceType = errors.New("unknown service type")
	ErrMissingResumeID    = errors.New("resumeId is required for this service type")
	ErrMalformedMetadata  = errors.New("checkout session metadata is malformed")
)

// checkoutPurpose is the decoded intent of a completed checkout session.
// Exactly one variant is non-nil.
type checkoutPurpose struct {
	Subscription *subscriptionPurchase
	Credit       *creditPurchase
	Review       *reviewPurchase
}

type subscriptionPurchase struct {
	UserID string
}

type creditPurchase struct {
	UserID string
	Kind   models.CreditKind
	// ResumeID is set for optimization purchases, whose click budget is
	// scoped to one resume.
	ResumeID string
}

type reviewPurchase struct {
	UserID   string
	ResumeID string
}

// sessionMetadata builds the metadata map embedded when the session is
// created.
func sessionMetadata(serviceType, userID, resumeID string) map[string]string {
	m := map[string]string{
		metaKeyServiceType: serviceType,
		metaKeyUserID:      userID,
	}
	if resumeID != "" {
		m[metaKeyResumeID] = resumeID
	}
	return m
}

// parseCheckoutPurpose decodes session metadata back into a purchase variant.
// Sessions created outside this application carry no serviceType and are
// rejected as malformed rather than silently treated as one of our products.
func parseCheckoutPurpose(metadata map[string]string) (*checkoutPurpose, error) {
	serviceType := metadata[metaKeyServiceType]
	userID := metadata[metaKeyUserID]
	resumeID := metadata[metaKeyResumeID]

	if serviceType == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedMetadata, metaKeyServiceType)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedMetadata, metaKeyUserID)
	}

	switch serviceType {
	case ServiceSubscription:
		return &checkoutPurpose{Subscription: &subscriptionPurchase{UserID: userID}}, nil
	case ServiceATSCredit:
		return &checkoutPurpose{Credit: &creditPurchase{UserID: userID, Kind: models.CreditATS}}, nil
	case ServiceOptimizationCredit:
		if resumeID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMalformedMetadata, ServiceOptimizationCredit)
		}
		return &checkoutPurpose{Credit: &creditPurchase{
			UserID:   userID,
			Kind:     models.CreditOptimization,
			ResumeID: resumeID,
		}}, nil
	case ServiceReview:
		if resumeID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMalformedMetadata, ServiceReview)
		}
		return &checkoutPurpose{Review: &reviewPurchase{UserID: userID, ResumeID: resumeID}}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownServiceType, serviceType)
	}
}
