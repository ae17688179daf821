package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resumepilot-backend/internal/models"
)

type analysisFixture struct {
	users    *fakeUserRepo
	resumes  *fakeResumeRepo
	analyzer *fakeAnalyzer
	files    *fakeFileStore
	svc      AnalysisService
}

func newAnalysisFixture(t *testing.T, users *fakeUserRepo, resumes *fakeResumeRepo, analyzer *fakeAnalyzer) *analysisFixture {
	t.Helper()
	files := newFakeFileStore()
	logger := zap.NewNop()
	svc := NewAnalysisService(
		resumes,
		users,
		NewCreditService(users, logger),
		analyzer,
		fakeExtractor{text: "extracted resume text"},
		files,
		logger,
	)
	return &analysisFixture{users: users, resumes: resumes, analyzer: analyzer, files: files, svc: svc}
}

func ownedResumeFixture(userID string) *models.Resume {
	return &models.Resume{
		ID:             "resume-owned",
		UserID:         userID,
		FileName:       "resume.pdf",
		FileRef:        "resumes/resume-owned/resume.pdf",
		MimeType:       "application/pdf",
		EditedText:     "my current resume text",
		BasicAtsStatus: models.StageComplete,
	}
}

func TestUploadAndCheck_PersistsScoreAndFile(t *testing.T) {
	analyzer := &fakeAnalyzer{basicReport: &models.ATSReport{Score: 71.5, Feedback: []string{"Add a summary section"}}}
	f := newAnalysisFixture(t, newFakeUserRepo(), newFakeResumeRepo(), analyzer)

	resume, err := f.svc.UploadAndCheck(context.Background(), "user-1", "resume.pdf", "application/pdf", []byte("%PDF..."))
	require.NoError(t, err)

	assert.NotEmpty(t, resume.ID)
	require.NotNil(t, resume.ATSScore)
	assert.Equal(t, 71.5, *resume.ATSScore)
	assert.Equal(t, models.StageComplete, resume.BasicAtsStatus)
	assert.NotNil(t, resume.CompletedAt)

	stored := f.resumes.get(resume.ID)
	assert.Equal(t, models.StageComplete, stored.BasicAtsStatus)

	data, err := f.files.Fetch(context.Background(), resume.FileRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF..."), data)
}

func TestUploadAndCheck_AnonymousAllowed(t *testing.T) {
	analyzer := &fakeAnalyzer{basicReport: &models.ATSReport{Score: 50}}
	f := newAnalysisFixture(t, newFakeUserRepo(), newFakeResumeRepo(), analyzer)

	resume, err := f.svc.UploadAndCheck(context.Background(), "", "resume.txt", "text/plain", []byte("plain text resume"))
	require.NoError(t, err)
	assert.Empty(t, resume.UserID)
}

func TestUploadAndCheck_AnalyzerFailureMarksStageFailed(t *testing.T) {
	analyzer := &fakeAnalyzer{basicErr: errors.New("model overloaded")}
	f := newAnalysisFixture(t, newFakeUserRepo(), newFakeResumeRepo(), analyzer)

	_, err := f.svc.UploadAndCheck(context.Background(), "user-1", "resume.txt", "text/plain", []byte("text"))
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	stored := f.resumes.get("resume-1")
	assert.Equal(t, models.StageFailed, stored.BasicAtsStatus)
}

func TestDetailedATSReport_ConsumesCreditAndPersists(t *testing.T) {
	user := freeUser(1, 0)
	analyzer := &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 88, Feedback: []string{"Quantify achievements"}}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(ownedResumeFixture(user.ID)), analyzer)

	resume, err := f.svc.DetailedATSReport(context.Background(), user.ID, "resume-owned")
	require.NoError(t, err)

	assert.Equal(t, 0, f.users.credits(user.ID, models.CreditATS))
	require.NotNil(t, resume.ATSScore)
	assert.Equal(t, float64(88), *resume.ATSScore)
	assert.GreaterOrEqual(t, *resume.ATSScore, 0.0)
	assert.LessOrEqual(t, *resume.ATSScore, 100.0)
	assert.Equal(t, models.StageComplete, resume.DetailedAtsStatus)
}

func TestDetailedATSReport_InsufficientCreditLeavesResumeUntouched(t *testing.T) {
	user := freeUser(0, 0)
	analyzer := &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 88}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(ownedResumeFixture(user.ID)), analyzer)

	_, err := f.svc.DetailedATSReport(context.Background(), user.ID, "resume-owned")
	require.ErrorIs(t, err, ErrInsufficientCredit)

	assert.Equal(t, 0, analyzer.detailedCalls, "analyzer must not run without a credit")
	assert.Equal(t, models.StageNone, f.resumes.get("resume-owned").DetailedAtsStatus)
}

func TestDetailedATSReport_FailureRollsBackCredit(t *testing.T) {
	user := freeUser(1, 0)
	analyzer := &fakeAnalyzer{detailedErr: errors.New("model overloaded")}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(ownedResumeFixture(user.ID)), analyzer)

	_, err := f.svc.DetailedATSReport(context.Background(), user.ID, "resume-owned")
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	assert.Equal(t, 1, f.users.credits(user.ID, models.CreditATS), "credit must be restored after a failed run")
	assert.Equal(t, models.StageFailed, f.resumes.get("resume-owned").DetailedAtsStatus)
}

func TestDetailedATSReport_PremiumSkipsCreditLedger(t *testing.T) {
	user := premiumUser()
	analyzer := &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 90}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(ownedResumeFixture(user.ID)), analyzer)

	_, err := f.svc.DetailedATSReport(context.Background(), user.ID, "resume-owned")
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.detailedCalls)
}

func TestJobOptimization_RequiresJobDescription(t *testing.T) {
	user := freeUser(0, 1)
	resume := ownedResumeFixture(user.ID)
	analyzer := &fakeAnalyzer{optReport: &models.OptimizationReport{Score: 70}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	_, err := f.svc.JobOptimization(context.Background(), user.ID, "resume-owned")
	require.ErrorIs(t, err, ErrMissingJobDescription)
	assert.Equal(t, 1, f.users.credits(user.ID, models.CreditOptimization), "no credit may be taken before the precondition check")
}

func TestJobOptimization_PersistsKeywordAnalysis(t *testing.T) {
	user := freeUser(0, 1)
	resume := ownedResumeFixture(user.ID)
	resume.JobDescription = "Senior Go engineer"
	analyzer := &fakeAnalyzer{optReport: &models.OptimizationReport{
		Score: 64,
		KeywordAnalysis: models.KeywordAnalysis{
			Matched: []string{"Go"},
			Missing: []string{"Kubernetes"},
		},
		Suggestions: []string{"Mention container orchestration experience"},
	}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	got, err := f.svc.JobOptimization(context.Background(), user.ID, "resume-owned")
	require.NoError(t, err)

	assert.Equal(t, 0, f.users.credits(user.ID, models.CreditOptimization))
	require.NotNil(t, got.OptimizationScore)
	assert.Equal(t, float64(64), *got.OptimizationScore)
	require.NotNil(t, got.KeywordAnalysis)
	assert.Equal(t, []string{"Go"}, got.KeywordAnalysis.Matched)
	assert.Equal(t, []string{"Kubernetes"}, got.KeywordAnalysis.Missing)
	assert.Equal(t, models.StageComplete, got.JobOptStatus)
}

func TestAnalyzeChanges_DepletesClickBudget(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	resume.JobDescription = "Senior Go engineer"
	clicks := models.DefaultOptimizationClicks
	resume.PPUOptimizationClicksRemaining = &clicks
	analyzer := &fakeAnalyzer{optReport: &models.OptimizationReport{Score: 75}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	for want := models.DefaultOptimizationClicks - 1; want >= 0; want-- {
		result, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
		require.NoError(t, err)
		require.NotNil(t, result.ClicksRemaining)
		assert.Equal(t, want, *result.ClicksRemaining)
	}

	_, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.ErrorIs(t, err, ErrClicksExhausted)
	assert.Equal(t, models.DefaultOptimizationClicks, analyzer.optCalls, "the exhausted attempt must not reach the analyzer")
}

func TestAnalyzeChanges_NoBudgetWithoutPurchase(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), &fakeAnalyzer{})

	_, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.ErrorIs(t, err, ErrClicksExhausted)
}

func TestAnalyzeChanges_PremiumHasNoBudget(t *testing.T) {
	user := premiumUser()
	resume := ownedResumeFixture(user.ID)
	analyzer := &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 82, Feedback: []string{"Looks good"}}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	for i := 0; i < 10; i++ {
		result, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
		require.NoError(t, err)
		assert.Nil(t, result.ClicksRemaining)
	}
}

func TestAnalyzeChanges_ResultIsEphemeral(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	score := 40.0
	resume.ATSScore = &score
	clicks := 2
	resume.PPUOptimizationClicksRemaining = &clicks
	analyzer := &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 95}}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	result, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.NoError(t, err)
	assert.Equal(t, float64(95), result.Score)

	stored := f.resumes.get("resume-owned")
	require.NotNil(t, stored.ATSScore)
	assert.Equal(t, 40.0, *stored.ATSScore, "persisted score must not change")
}

func TestAnalyzeChanges_FailureRestoresClick(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	clicks := 3
	resume.PPUOptimizationClicksRemaining = &clicks
	analyzer := &fakeAnalyzer{detailedErr: errors.New("model overloaded")}
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), analyzer)

	_, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	stored := f.resumes.get("resume-owned")
	require.NotNil(t, stored.PPUOptimizationClicksRemaining)
	assert.Equal(t, 3, *stored.PPUOptimizationClicksRemaining)
}

func TestAnalyzeChanges_RollbackKeepsConcurrentClickSpend(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	clicks := 5
	resume.PPUOptimizationClicksRemaining = &clicks
	resumes := newFakeResumeRepo(resume)
	analyzer := &fakeAnalyzer{detailedErr: errors.New("model overloaded")}
	// Another request spends a click while this analysis is still in flight.
	analyzer.inFlight = func() {
		_, err := resumes.ConsumeOptimizationClick(context.Background(), "resume-owned")
		require.NoError(t, err)
	}
	f := newAnalysisFixture(t, newFakeUserRepo(user), resumes, analyzer)

	_, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	stored := resumes.get("resume-owned")
	require.NotNil(t, stored.PPUOptimizationClicksRemaining)
	assert.Equal(t, 4, *stored.PPUOptimizationClicksRemaining,
		"restoring the failed call's click must not undo the concurrent spend")
}

func TestClickBudgetResetOnRepurchase(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	zero := 0
	resume.PPUOptimizationClicksRemaining = &zero
	resumes := newFakeResumeRepo(resume)
	f := newAnalysisFixture(t, newFakeUserRepo(user), resumes, &fakeAnalyzer{detailedReport: &models.ATSReport{Score: 60}})

	// Webhook-side reset after a new optimization purchase.
	require.NoError(t, resumes.SetOptimizationClicks(context.Background(), "resume-owned", models.DefaultOptimizationClicks))

	result, err := f.svc.AnalyzeChanges(context.Background(), user.ID, "resume-owned", "edited text")
	require.NoError(t, err)
	require.NotNil(t, result.ClicksRemaining)
	assert.Equal(t, models.DefaultOptimizationClicks-1, *result.ClicksRemaining)
}

func TestOwnershipEnforcement(t *testing.T) {
	owner := freeUser(5, 5)
	intruder := &models.User{ID: "intruder", SubscriptionStatus: models.SubscriptionFree, PPUATSCredits: 5}
	resume := ownedResumeFixture(owner.ID)
	anonymous := &models.Resume{ID: "resume-anon", FileName: "anon.pdf", MimeType: "application/pdf"}
	f := newAnalysisFixture(t, newFakeUserRepo(owner, intruder), newFakeResumeRepo(resume, anonymous), &fakeAnalyzer{})

	_, err := f.svc.GetResume(context.Background(), intruder.ID, "resume-owned")
	assert.ErrorIs(t, err, ErrForbiddenAccess)

	_, err = f.svc.DetailedATSReport(context.Background(), intruder.ID, "resume-owned")
	assert.ErrorIs(t, err, ErrForbiddenAccess)
	assert.Equal(t, 5, f.users.credits(intruder.ID, models.CreditATS))

	// Anonymous resumes have no owner and stay out of reach.
	_, err = f.svc.GetResume(context.Background(), owner.ID, "resume-anon")
	assert.ErrorIs(t, err, ErrForbiddenAccess)

	_, err = f.svc.GetResume(context.Background(), owner.ID, "no-such-resume")
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestDownloadURL_SignsStoredRef(t *testing.T) {
	user := freeUser(0, 0)
	resume := ownedResumeFixture(user.ID)
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(resume), &fakeAnalyzer{})

	url, err := f.svc.DownloadURL(context.Background(), user.ID, "resume-owned")
	require.NoError(t, err)
	assert.Contains(t, url, resume.FileRef)
}

func TestSetJobDescription_Persists(t *testing.T) {
	user := freeUser(0, 0)
	f := newAnalysisFixture(t, newFakeUserRepo(user), newFakeResumeRepo(ownedResumeFixture(user.ID)), &fakeAnalyzer{})

	_, err := f.svc.SetJobDescription(context.Background(), user.ID, "resume-owned", "Platform engineer, Go and GCP")
	require.NoError(t, err)
	assert.Equal(t, "Platform engineer, Go and GCP", f.resumes.get("resume-owned").JobDescription)
}
