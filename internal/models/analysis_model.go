package models

// ATSReport is the structured result of a basic or detailed ATS check.
type ATSReport struct {
	Score    float64  `json:"score"`
	Feedback []string `json:"feedback"`
}

// OptimizationReport is the structured result of a job-specific optimization run.
type OptimizationReport struct {
	Score           float64         `json:"score"`
	KeywordAnalysis KeywordAnalysis `json:"keywordAnalysis"`
	Suggestions     []string        `json:"suggestions"`
}

// ChangeAnalysis is the ephemeral result of a re-analysis after edit. It is
// returned to the caller for preview and never persisted as the resume's
// official score.
type ChangeAnalysis struct {
	Score           float64         `json:"score"`
	KeywordAnalysis KeywordAnalysis `json:"keywordAnalysis"`
	Suggestions     []string        `json:"suggestions"`
	ClicksRemaining *int            `json:"ppuClicksRemaining,omitempty"`
}
