package ai

import (
	"context"

	"resumepilot-backend/internal/models"
)

// Analyzer is the external AI analysis capability the orchestrator consumes:
// given resume text (and optionally a job description), return a structured
// score/feedback object, or fail.
type Analyzer interface {
	// BasicCheck runs the free, coarse ATS compatibility check.
	BasicCheck(ctx context.Context, resumeText string) (*models.ATSReport, error)
	// DetailedReport runs the paid in-depth ATS analysis.
	DetailedReport(ctx context.Context, resumeText string) (*models.ATSReport, error)
	// OptimizeForJob scores the resume against a specific job description.
	OptimizeForJob(ctx context.Context, resumeText, jobDescription string) (*models.OptimizationReport, error)
	Close() error
}
