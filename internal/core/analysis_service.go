package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"resumepilot-backend/internal/ai"
	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/extract"
	"resumepilot-backend/internal/models"
	"resumepilot-backend/internal/storage"
)

// Custom errors for the AnalysisService. Ownership and entitlement failures
// are distinguished so handlers can report them differently.
var (
	ErrResumeNotFound        = errors.New("resume not found")
	ErrForbiddenAccess       = errors.New("user does not own this resume")
	ErrMissingJobDescription = errors.New("a job description must be stored before job optimization can run")
	ErrClicksExhausted       = errors.New("re-analysis click budget exhausted")
	ErrUnreadableDocument    = errors.New("could not extract text from the uploaded document")
	ErrAnalysisUnavailable   = errors.New("analysis service failed")
)

const downloadURLTTL = 15 * time.Minute

// analysisService implements AnalysisService. Every paid operation follows
// the same shape: authorize, consume the credit or click, mark the stage
// pending, call the external capability, then either persist the result or
// roll the credit back and mark the stage failed.
type analysisService struct {
	resumeRepo db.ResumeRepository
	userRepo   db.UserRepository
	credits    CreditService
	analyzer   ai.Analyzer
	extractor  extract.Extractor
	files      storage.FileStore
	logger     *zap.Logger
}

// NewAnalysisService creates an AnalysisService instance.
func NewAnalysisService(
	resumeRepo db.ResumeRepository,
	userRepo db.UserRepository,
	credits CreditService,
	analyzer ai.Analyzer,
	extractor extract.Extractor,
	files storage.FileStore,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		resumeRepo: resumeRepo,
		userRepo:   userRepo,
		credits:    credits,
		analyzer:   analyzer,
		extractor:  extractor,
		files:      files,
		logger:     logger,
	}
}

// UploadAndCheck stores the document and runs the free basic ATS check
// inline. Anonymous submissions (empty userID) are allowed for this stage
// only.
func (s *analysisService) UploadAndCheck(ctx context.Context, userID, fileName, mimeType string, data []byte) (*models.Resume, error) {
	text, err := s.extractor.Extract(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	resume := &models.Resume{
		UserID:         userID,
		FileName:       fileName,
		MimeType:       mimeType,
		BasicAtsStatus: models.StagePending,
	}
	resumeID, err := s.resumeRepo.Create(ctx, resume)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume record: %w", err)
	}

	resume.FileRef = fmt.Sprintf("resumes/%s/%s", resumeID, fileName)
	if err := s.files.Save(ctx, resume.FileRef, data, mimeType); err != nil {
		return nil, fmt.Errorf("failed to store resume file: %w", err)
	}

	report, err := s.analyzer.BasicCheck(ctx, text)
	if err != nil {
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.BasicAtsStatus = models.StageFailed })
		return nil, fmt.Errorf("%w: basic check: %v", ErrAnalysisUnavailable, err)
	}

	now := time.Now().UTC()
	resume.ATSScore = &report.Score
	resume.Feedback = report.Feedback
	resume.BasicAtsStatus = models.StageComplete
	resume.CompletedAt = &now
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to persist basic check result: %w", err)
	}
	return resume, nil
}

// GetResume retrieves a resume the caller owns.
func (s *analysisService) GetResume(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	return s.ownedResume(ctx, userID, resumeID)
}

// ListResumes retrieves the caller's resumes.
func (s *analysisService) ListResumes(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Resume, error) {
	resumes, err := s.resumeRepo.GetByUserID(ctx, userID, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes for user '%s': %w", userID, err)
	}
	return resumes, nil
}

// DownloadURL returns a time-limited link to the stored file bytes.
func (s *analysisService) DownloadURL(ctx context.Context, userID, resumeID string) (string, error) {
	resume, err := s.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return "", err
	}
	url, err := s.files.SignedURL(resume.FileRef, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for resume '%s': %w", resumeID, err)
	}
	return url, nil
}

// SetJobDescription stores the target job description, the precondition for
// job optimization.
func (s *analysisService) SetJobDescription(ctx context.Context, userID, resumeID, jobDescription string) (*models.Resume, error) {
	resume, err := s.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	resume.JobDescription = jobDescription
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to store job description for resume '%s': %w", resumeID, err)
	}
	return resume, nil
}

// DetailedATSReport runs the paid in-depth ATS analysis. The credit is
// consumed before the external call and rolled back if anything after that
// point fails.
func (s *analysisService) DetailedATSReport(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	resume, err := s.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}

	if err := s.credits.Consume(ctx, user, models.CreditATS); err != nil {
		return nil, err
	}

	resume.DetailedAtsStatus = models.StagePending
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.rollbackCredit(ctx, user, models.CreditATS)
		return nil, fmt.Errorf("failed to mark detailed analysis pending: %w", err)
	}

	text, err := s.resumeText(ctx, resume)
	if err != nil {
		s.rollbackCredit(ctx, user, models.CreditATS)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.DetailedAtsStatus = models.StageFailed })
		return nil, err
	}

	report, err := s.analyzer.DetailedReport(ctx, text)
	if err != nil {
		s.rollbackCredit(ctx, user, models.CreditATS)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.DetailedAtsStatus = models.StageFailed })
		return nil, fmt.Errorf("%w: detailed report: %v", ErrAnalysisUnavailable, err)
	}

	now := time.Now().UTC()
	resume.ATSScore = &report.Score
	resume.Feedback = report.Feedback
	resume.DetailedAtsStatus = models.StageComplete
	resume.CompletedAt = &now
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.rollbackCredit(ctx, user, models.CreditATS)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.DetailedAtsStatus = models.StageFailed })
		return nil, fmt.Errorf("failed to persist detailed analysis result: %w", err)
	}
	s.logger.Info("Detailed analysis stored",
		zap.String("resumeId", resume.ID),
		zap.String("lifecycle", resume.Status()))
	return resume, nil
}

// JobOptimization scores the resume against its stored job description.
func (s *analysisService) JobOptimization(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	resume, err := s.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	if resume.JobDescription == "" {
		return nil, ErrMissingJobDescription
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}

	if err := s.credits.Consume(ctx, user, models.CreditOptimization); err != nil {
		return nil, err
	}

	resume.JobOptStatus = models.StagePending
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.rollbackCredit(ctx, user, models.CreditOptimization)
		return nil, fmt.Errorf("failed to mark job optimization pending: %w", err)
	}

	text, err := s.resumeText(ctx, resume)
	if err != nil {
		s.rollbackCredit(ctx, user, models.CreditOptimization)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.JobOptStatus = models.StageFailed })
		return nil, err
	}

	report, err := s.analyzer.OptimizeForJob(ctx, text, resume.JobDescription)
	if err != nil {
		s.rollbackCredit(ctx, user, models.CreditOptimization)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.JobOptStatus = models.StageFailed })
		return nil, fmt.Errorf("%w: job optimization: %v", ErrAnalysisUnavailable, err)
	}

	now := time.Now().UTC()
	resume.OptimizationScore = &report.Score
	resume.KeywordAnalysis = &report.KeywordAnalysis
	resume.Suggestions = report.Suggestions
	resume.JobOptStatus = models.StageComplete
	resume.CompletedAt = &now
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.rollbackCredit(ctx, user, models.CreditOptimization)
		s.markStageFailed(ctx, resume, func(r *models.Resume) { r.JobOptStatus = models.StageFailed })
		return nil, fmt.Errorf("failed to persist job optimization result: %w", err)
	}
	s.logger.Info("Job optimization stored",
		zap.String("resumeId", resume.ID),
		zap.String("lifecycle", resume.Status()))
	return resume, nil
}

// AnalyzeChanges re-analyzes user-edited text. It draws on the per-resume
// click budget instead of the credit ledger, and the result is never
// committed as the resume's official score.
func (s *analysisService) AnalyzeChanges(ctx context.Context, userID, resumeID, editedText string) (*models.ChangeAnalysis, error) {
	resume, err := s.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}

	var clicksRemaining *int
	if !user.IsPremium() {
		remaining, err := s.resumeRepo.ConsumeOptimizationClick(ctx, resumeID)
		if err != nil {
			if errors.Is(err, db.ErrClicksExhausted) {
				zero := 0
				return &models.ChangeAnalysis{ClicksRemaining: &zero}, ErrClicksExhausted
			}
			return nil, fmt.Errorf("failed to consume optimization click for resume '%s': %w", resumeID, err)
		}
		clicksRemaining = &remaining
	}

	result, err := s.analyzeEdited(ctx, resume, editedText)
	if err != nil {
		s.rollbackClick(ctx, resume.ID, clicksRemaining)
		return nil, fmt.Errorf("%w: change analysis: %v", ErrAnalysisUnavailable, err)
	}
	result.ClicksRemaining = clicksRemaining
	return result, nil
}

// analyzeEdited targets the stored job description when one exists, and falls
// back to a plain ATS re-check otherwise.
func (s *analysisService) analyzeEdited(ctx context.Context, resume *models.Resume, editedText string) (*models.ChangeAnalysis, error) {
	if resume.JobDescription != "" {
		report, err := s.analyzer.OptimizeForJob(ctx, editedText, resume.JobDescription)
		if err != nil {
			return nil, err
		}
		return &models.ChangeAnalysis{
			Score:           report.Score,
			KeywordAnalysis: report.KeywordAnalysis,
			Suggestions:     report.Suggestions,
		}, nil
	}

	report, err := s.analyzer.DetailedReport(ctx, editedText)
	if err != nil {
		return nil, err
	}
	return &models.ChangeAnalysis{
		Score:       report.Score,
		Suggestions: report.Feedback,
	}, nil
}

// ownedResume loads a resume and enforces ownership. Anonymous resumes have
// no owner and are never accessible through owner-gated operations.
func (s *analysisService) ownedResume(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	resume, err := s.resumeRepo.GetByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: resume '%s'", ErrResumeNotFound, resumeID)
		}
		return nil, fmt.Errorf("failed to get resume '%s': %w", resumeID, err)
	}
	if resume.UserID == "" || resume.UserID != userID {
		return nil, fmt.Errorf("%w: resume '%s'", ErrForbiddenAccess, resumeID)
	}
	return resume, nil
}

// resumeText returns the content an analysis should run on: the user's edit
// when present, otherwise text extracted from the stored file bytes.
func (s *analysisService) resumeText(ctx context.Context, resume *models.Resume) (string, error) {
	if text := resume.Text(""); text != "" {
		return text, nil
	}
	data, err := s.files.Fetch(ctx, resume.FileRef)
	if err != nil {
		return "", fmt.Errorf("%w: could not fetch stored file: %v", ErrAnalysisUnavailable, err)
	}
	extracted, err := s.extractor.Extract(data, resume.MimeType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return resume.Text(extracted), nil
}

// rollbackCredit is best-effort: a rollback failure must not mask the
// original error, but it leaves the user short a credit, so it is logged at
// error level for reconciliation.
func (s *analysisService) rollbackCredit(ctx context.Context, user *models.User, kind models.CreditKind) {
	if user.IsPremium() {
		return
	}
	// Rollback logs its own failure; nothing more to do here.
	_ = s.credits.Rollback(ctx, user.ID, kind)
}

// rollbackClick restores a consumed re-analysis click after a failed call.
// The restore is a relative increment so it never overwrites a decrement that
// raced with this request.
func (s *analysisService) rollbackClick(ctx context.Context, resumeID string, remaining *int) {
	if remaining == nil {
		return
	}
	if err := s.resumeRepo.RestoreOptimizationClick(ctx, resumeID); err != nil {
		s.logger.Error("Click rollback failed; resume is owed a re-analysis click",
			zap.String("resumeId", resumeID),
			zap.Error(err))
	}
}

// markStageFailed records a terminal failure for one stage. The stage stays
// failed rather than reverting, so the user can see the attempt and retry.
func (s *analysisService) markStageFailed(ctx context.Context, resume *models.Resume, set func(*models.Resume)) {
	set(resume)
	if err := s.resumeRepo.Update(ctx, resume); err != nil {
		s.logger.Error("Failed to record failed analysis stage",
			zap.String("resumeId", resume.ID),
			zap.Error(err))
	}
}
