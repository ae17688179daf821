package models

import "time"

// SubscriptionStatus is the user's subscription tier.
type SubscriptionStatus string

const (
	SubscriptionFree     SubscriptionStatus = "free"
	SubscriptionPremium  SubscriptionStatus = "premium"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// CreditKind selects which pay-per-use counter an operation draws from.
type CreditKind string

const (
	CreditATS          CreditKind = "ats"
	CreditOptimization CreditKind = "optimization"
)

// User represents a registered user. The Firebase Auth UID is the document ID.
// Credit counters are only mutated through the transactional repository
// operations, so they never go negative.
type User struct {
	ID                     string             `json:"id" firestore:"-"`
	Email                  string             `json:"email" firestore:"email"`
	DisplayName            string             `json:"displayName,omitempty" firestore:"displayName"`
	SubscriptionStatus     SubscriptionStatus `json:"subscriptionStatus" firestore:"subscriptionStatus"`
	PPUATSCredits          int                `json:"ppuAtsCredits" firestore:"ppuAtsCredits"`
	PPUOptimizationCredits int                `json:"ppuOptimizationCredits" firestore:"ppuOptimizationCredits"`
	StripeCustomerID       string             `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId"`
	StripeSubscriptionID   string             `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId"`
	CreatedAt              time.Time          `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt              time.Time          `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// IsPremium reports whether the user bypasses credit and click-budget checks.
func (u *User) IsPremium() bool {
	return u.SubscriptionStatus == SubscriptionPremium
}

// Credits returns the counter value for the given kind.
func (u *User) Credits(kind CreditKind) int {
	if kind == CreditOptimization {
		return u.PPUOptimizationCredits
	}
	return u.PPUATSCredits
}
