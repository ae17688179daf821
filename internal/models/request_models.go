package models

// UpdateJobDescriptionRequest stores the job description a later
// job-optimization run will target.
type UpdateJobDescriptionRequest struct {
	JobDescription string `json:"jobDescription" binding:"required"`
}

// AnalyzeChangesRequest carries the user-edited resume text for an ephemeral
// re-analysis.
type AnalyzeChangesRequest struct {
	EditedResumeText string `json:"editedResumeText" binding:"required"`
}

// CreateCheckoutSessionRequest starts a payment flow for one service type.
// ResumeID is required for optimization and review purchases, which are scoped
// to a single resume.
type CreateCheckoutSessionRequest struct {
	ServiceType string `json:"serviceType" binding:"required"`
	ResumeID    string `json:"resumeId,omitempty"`
}

// UpdateReviewOrderStatusRequest moves a review order through its workflow.
type UpdateReviewOrderStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ReviewerID string `json:"reviewerId,omitempty"`
}

// ReviewFeedbackRequest sets or replaces the reviewer's feedback text.
type ReviewFeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}
