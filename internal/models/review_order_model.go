package models

import "time"

// ReviewOrderStatus is the workflow state of a paid human-review request.
type ReviewOrderStatus string

const (
	ReviewOrderRequested  ReviewOrderStatus = "requested"
	ReviewOrderAssigned   ReviewOrderStatus = "assigned"
	ReviewOrderInProgress ReviewOrderStatus = "in_progress"
	ReviewOrderCompleted  ReviewOrderStatus = "completed"
	ReviewOrderCancelled  ReviewOrderStatus = "cancelled"
)

// reviewOrderTransitions lists the legal forward moves. Completed and
// cancelled are terminal; cancellation is reachable from every non-terminal
// state.
var reviewOrderTransitions = map[ReviewOrderStatus][]ReviewOrderStatus{
	ReviewOrderRequested:  {ReviewOrderAssigned, ReviewOrderCancelled},
	ReviewOrderAssigned:   {ReviewOrderInProgress, ReviewOrderCancelled},
	ReviewOrderInProgress: {ReviewOrderCompleted, ReviewOrderCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal workflow step.
func (s ReviewOrderStatus) CanTransitionTo(next ReviewOrderStatus) bool {
	for _, allowed := range reviewOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status changes are allowed. Feedback
// text remains editable on terminal orders.
func (s ReviewOrderStatus) Terminal() bool {
	return s == ReviewOrderCompleted || s == ReviewOrderCancelled
}

// ReviewOrder is a paid request for human review of exactly one resume,
// created by the webhook reconciler once the review payment settles.
type ReviewOrder struct {
	ID               string            `json:"id" firestore:"-"`
	ResumeID         string            `json:"resumeId" firestore:"resumeId"`
	UserID           string            `json:"userId" firestore:"userId"`
	Status           ReviewOrderStatus `json:"status" firestore:"status"`
	PaymentStatus    string            `json:"paymentStatus" firestore:"paymentStatus"`
	ReviewerID       string            `json:"reviewerId,omitempty" firestore:"reviewerId"`
	ReviewerFeedback string            `json:"reviewerFeedback,omitempty" firestore:"reviewerFeedback"`
	SubmittedAt      time.Time         `json:"submittedAt" firestore:"submittedAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty" firestore:"completedAt"`
	CreatedAt        time.Time         `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time         `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
