package api

import "resumepilot-backend/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BasicCheckResponse is the result of the free upload-and-check flow.
type BasicCheckResponse struct {
	ResumeID string   `json:"resumeId"`
	ATSScore float64  `json:"atsScore"`
	Feedback []string `json:"feedback"`
}

// OptimizationResponse is the result of a paid job-optimization run.
type OptimizationResponse struct {
	ResumeID          string                 `json:"resumeId"`
	OptimizationScore float64                `json:"optimizationScore"`
	KeywordAnalysis   models.KeywordAnalysis `json:"keywordAnalysis"`
	Suggestions       []string               `json:"suggestions"`
}

// ChangeAnalysisResponse is the ephemeral result of a click-budgeted
// re-analysis. PPUClicksRemaining is omitted for premium users, who have no
// budget.
type ChangeAnalysisResponse struct {
	Score              float64                `json:"score"`
	KeywordAnalysis    models.KeywordAnalysis `json:"keywordAnalysis"`
	Suggestions        []string               `json:"suggestions"`
	PPUClicksRemaining *int                   `json:"ppuClicksRemaining,omitempty"`
}

// CheckoutSessionResponse carries the hosted payment page URL.
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// DownloadURLResponse carries a time-limited link to the stored file.
type DownloadURLResponse struct {
	URL string `json:"url"`
}
