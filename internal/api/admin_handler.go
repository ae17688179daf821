package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/config"
	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/models"
)

// AdminHandler handles the reviewer-facing review order workflow. All routes
// sit behind the admin claim check.
type AdminHandler struct {
	reviewService core.ReviewService
	cfg           *config.Config
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rs core.ReviewService, cfg *config.Config, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{reviewService: rs, cfg: cfg, logger: logger}
}

func (h *AdminHandler) mapReviewErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrOrderNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrOrderNotFound.Error()}
	case errors.Is(err, core.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrInvalidTransition.Error()}
	default:
		h.logger.Error("Unhandled review handler error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}

	if !h.cfg.IsProduction() && errResponse.Details == "" && statusCode != http.StatusInternalServerError {
		errResponse.Details = err.Error()
	}
	c.JSON(statusCode, errResponse)
}

// ListReviewOrders handles GET /admin/review-orders
func (h *AdminHandler) ListReviewOrders(c *gin.Context) {
	paginationParams := map[string]string{
		"limit":      c.Query("limit"),
		"startAfter": c.Query("startAfter"),
		"status":     c.Query("status"),
	}
	orders, err := h.reviewService.List(c.Request.Context(), paginationParams)
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetReviewOrder handles GET /admin/review-orders/:orderId
func (h *AdminHandler) GetReviewOrder(c *gin.Context) {
	order, err := h.reviewService.GetByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateReviewOrderStatus handles PUT /admin/review-orders/:orderId/status
func (h *AdminHandler) UpdateReviewOrderStatus(c *gin.Context) {
	var req models.UpdateReviewOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	order, err := h.reviewService.UpdateStatus(c.Request.Context(), c.Param("orderId"), req)
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// SetReviewFeedback handles PUT /admin/review-orders/:orderId/feedback
func (h *AdminHandler) SetReviewFeedback(c *gin.Context) {
	var req models.ReviewFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	order, err := h.reviewService.SetFeedback(c.Request.Context(), c.Param("orderId"), req.Feedback)
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
