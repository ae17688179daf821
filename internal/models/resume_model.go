package models

import "time"

// StageStatus tracks a single analysis dimension of a resume. Each dimension
// (basic ATS, detailed ATS, job optimization) progresses independently, so a
// failed detailed report never blocks a later job-optimization run.
type StageStatus string

const (
	StageNone     StageStatus = ""
	StagePending  StageStatus = "pending"
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
)

// ReviewStatus tracks the human-review dimension, driven by ReviewOrder
// payment and completion rather than by the analysis orchestrator.
type ReviewStatus string

const (
	ReviewNone     ReviewStatus = ""
	ReviewPending  ReviewStatus = "pending_review"
	ReviewComplete ReviewStatus = "review_complete"
)

// DefaultOptimizationClicks is the re-analysis budget granted with each
// pay-per-use job-optimization purchase.
const DefaultOptimizationClicks = 5

// KeywordAnalysis is the matched/missing keyword breakdown produced by a
// job-optimization run.
type KeywordAnalysis struct {
	Matched []string `json:"matched" firestore:"matched"`
	Missing []string `json:"missing" firestore:"missing"`
}

// Resume is one uploaded document plus its accumulated analysis results.
// UserID is empty for anonymous free-check submissions.
type Resume struct {
	ID       string `json:"id" firestore:"-"`
	UserID   string `json:"userId,omitempty" firestore:"userId"`
	FileName string `json:"fileName" firestore:"fileName"`
	FileRef  string `json:"-" firestore:"fileRef"`
	MimeType string `json:"mimeType" firestore:"mimeType"`

	BasicAtsStatus    StageStatus  `json:"basicAtsStatus" firestore:"basicAtsStatus"`
	DetailedAtsStatus StageStatus  `json:"detailedAtsStatus" firestore:"detailedAtsStatus"`
	JobOptStatus      StageStatus  `json:"jobOptStatus" firestore:"jobOptStatus"`
	ReviewStatus      ReviewStatus `json:"reviewStatus" firestore:"reviewStatus"`

	ATSScore          *float64         `json:"atsScore,omitempty" firestore:"atsScore"`
	OptimizationScore *float64         `json:"optimizationScore,omitempty" firestore:"optimizationScore"`
	Feedback          []string         `json:"feedback,omitempty" firestore:"feedback"`
	KeywordAnalysis   *KeywordAnalysis `json:"keywordAnalysis,omitempty" firestore:"keywordAnalysis"`
	Suggestions       []string         `json:"suggestions,omitempty" firestore:"suggestions"`

	JobDescription string `json:"jobDescription,omitempty" firestore:"jobDescription"`
	EditedText     string `json:"editedText,omitempty" firestore:"editedText"`

	// Nil means no pay-per-use optimization purchase is active (premium users
	// never get a budget). A non-nil value is a depleting counter that only the
	// transactional click decrement may lower.
	PPUOptimizationClicksRemaining *int `json:"ppuOptimizationClicksRemaining,omitempty" firestore:"ppuOptimizationClicksRemaining"`

	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Status summarizes the most advanced lifecycle dimension for display. The
// per-dimension fields are authoritative; this is a convenience for clients
// that show a single badge.
func (r *Resume) Status() string {
	switch {
	case r.ReviewStatus != ReviewNone:
		return string(r.ReviewStatus)
	case r.JobOptStatus != StageNone:
		return "job_opt_" + string(r.JobOptStatus)
	case r.DetailedAtsStatus != StageNone:
		return "detailed_ats_" + string(r.DetailedAtsStatus)
	case r.BasicAtsStatus != StageNone:
		return "basic_ats_" + string(r.BasicAtsStatus)
	default:
		return "uploaded"
	}
}

// Text returns the content an analysis run should operate on. A user-supplied
// edit always wins over the originally extracted file text.
func (r *Resume) Text(extracted string) string {
	if r.EditedText != "" {
		return r.EditedText
	}
	return extracted
}
