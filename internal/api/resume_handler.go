package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/config"
	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/middleware"
	"resumepilot-backend/internal/models"
)

// maxUploadBytes caps resume uploads. Real resumes are a few hundred KB.
const maxUploadBytes = 10 << 20

// ResumeHandler handles API endpoints for resume upload and analysis.
type ResumeHandler struct {
	analysisService core.AnalysisService
	cfg             *config.Config
	logger          *zap.Logger
}

// NewResumeHandler creates a new ResumeHandler.
func NewResumeHandler(as core.AnalysisService, cfg *config.Config, logger *zap.Logger) *ResumeHandler {
	return &ResumeHandler{analysisService: as, cfg: cfg, logger: logger}
}

// mapResumeErrorToStatus maps errors from core.AnalysisService to HTTP status
// codes. Detail text is suppressed in production.
func (h *ResumeHandler) mapResumeErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrResumeNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrResumeNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrInsufficientCredit):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrInsufficientCredit.Error()}
	case errors.Is(err, core.ErrClicksExhausted):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrClicksExhausted.Error()}
	case errors.Is(err, core.ErrMissingJobDescription):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrMissingJobDescription.Error()}
	case errors.Is(err, core.ErrUnreadableDocument):
		statusCode = http.StatusUnprocessableEntity
		errResponse = ErrorResponse{Error: core.ErrUnreadableDocument.Error()}
	case errors.Is(err, core.ErrAnalysisUnavailable):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "The analysis service is temporarily unavailable. No credit was charged."}
	default:
		h.logger.Error("Unhandled resume handler error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}

	if !h.cfg.IsProduction() && errResponse.Details == "" && statusCode != http.StatusInternalServerError {
		errResponse.Details = err.Error()
	}
	c.JSON(statusCode, errResponse)
}

// UploadAndCheck handles POST /resumes. Authentication is optional:
// anonymous visitors get the free basic check, but the resume is then not
// tied to an account.
func (h *ResumeHandler) UploadAndCheck(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A 'resume' file field is required", Details: err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read uploaded file", Details: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read uploaded file", Details: err.Error()})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	resume, err := h.analysisService.UploadAndCheck(c.Request.Context(), userID, fileHeader.Filename, mimeType, data)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}

	resp := BasicCheckResponse{ResumeID: resume.ID, Feedback: resume.Feedback}
	if resume.ATSScore != nil {
		resp.ATSScore = *resume.ATSScore
	}
	c.JSON(http.StatusCreated, resp)
}

// ListResumes handles GET /resumes
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	paginationParams := map[string]string{
		"limit":      c.Query("limit"),
		"startAfter": c.Query("startAfter"),
	}
	resumes, err := h.analysisService.ListResumes(c.Request.Context(), userID, paginationParams)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, resumes)
}

// GetResume handles GET /resumes/:resumeId
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	resume, err := h.analysisService.GetResume(c.Request.Context(), userID, resumeID)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, resume)
}

// Download handles GET /resumes/:resumeId/download
func (h *ResumeHandler) Download(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	url, err := h.analysisService.DownloadURL(c.Request.Context(), userID, resumeID)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{URL: url})
}

// SetJobDescription handles PUT /resumes/:resumeId/job-description
func (h *ResumeHandler) SetJobDescription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	var req models.UpdateJobDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	resume, err := h.analysisService.SetJobDescription(c.Request.Context(), userID, resumeID, req.JobDescription)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, resume)
}

// DetailedReport handles POST /resumes/:resumeId/detailed-ats-report. Consumes
// one ATS credit unless the user is premium.
func (h *ResumeHandler) DetailedReport(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	resume, err := h.analysisService.DetailedATSReport(c.Request.Context(), userID, resumeID)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, resume)
}

// Optimize handles POST /resumes/:resumeId/job-optimization. Consumes one
// optimization credit unless the user is premium.
func (h *ResumeHandler) Optimize(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	resume, err := h.analysisService.JobOptimization(c.Request.Context(), userID, resumeID)
	if err != nil {
		h.mapResumeErrorToStatus(c, err)
		return
	}

	resp := OptimizationResponse{ResumeID: resume.ID, Suggestions: resume.Suggestions}
	if resume.OptimizationScore != nil {
		resp.OptimizationScore = *resume.OptimizationScore
	}
	if resume.KeywordAnalysis != nil {
		resp.KeywordAnalysis = *resume.KeywordAnalysis
	}
	c.JSON(http.StatusOK, resp)
}

// AnalyzeChanges handles POST /resumes/:resumeId/analyze-changes. Draws on
// the per-resume click budget; the result is not persisted.
func (h *ResumeHandler) AnalyzeChanges(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	resumeID := c.Param("resumeId")

	var req models.AnalyzeChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.analysisService.AnalyzeChanges(c.Request.Context(), userID, resumeID, req.EditedResumeText)
	if err != nil {
		if errors.Is(err, core.ErrClicksExhausted) && result != nil && result.ClicksRemaining != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":              core.ErrClicksExhausted.Error(),
				"ppuClicksRemaining": *result.ClicksRemaining,
			})
			return
		}
		h.mapResumeErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, ChangeAnalysisResponse{
		Score:              result.Score,
		KeywordAnalysis:    result.KeywordAnalysis,
		Suggestions:        result.Suggestions,
		PPUClicksRemaining: result.ClicksRemaining,
	})
}

// requireUserID extracts the authenticated user from the Gin context.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	return userID, true
}
