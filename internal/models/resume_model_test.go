package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResumeStatusSummary(t *testing.T) {
	r := &Resume{}
	assert.Equal(t, "uploaded", r.Status())

	r.BasicAtsStatus = StagePending
	assert.Equal(t, "basic_ats_pending", r.Status())

	r.BasicAtsStatus = StageComplete
	assert.Equal(t, "basic_ats_complete", r.Status())

	r.DetailedAtsStatus = StageFailed
	assert.Equal(t, "detailed_ats_failed", r.Status())

	r.JobOptStatus = StageComplete
	assert.Equal(t, "job_opt_complete", r.Status())

	r.ReviewStatus = ReviewPending
	assert.Equal(t, "pending_review", r.Status())

	r.ReviewStatus = ReviewComplete
	assert.Equal(t, "review_complete", r.Status())
}

func TestResumeTextPrefersEdit(t *testing.T) {
	r := &Resume{}
	assert.Equal(t, "from file", r.Text("from file"))

	r.EditedText = "edited by user"
	assert.Equal(t, "edited by user", r.Text("from file"))
}

func TestResumeDimensionsAreIndependent(t *testing.T) {
	// A failed detailed report never blocks job optimization state.
	r := &Resume{DetailedAtsStatus: StageFailed}
	r.JobOptStatus = StageComplete
	assert.Equal(t, StageFailed, r.DetailedAtsStatus)
	assert.Equal(t, StageComplete, r.JobOptStatus)
}
