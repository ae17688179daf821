package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/models"
)

// maxWebhookBytes caps webhook payload reads, matching the payment
// provider's own limit.
const maxWebhookBytes = 65536

// BillingHandler handles checkout session creation and the provider webhook.
type BillingHandler struct {
	billingService core.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, logger: logger}
}

func (h *BillingHandler) mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUnknownServiceType):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrUnknownServiceType.Error()}
	case errors.Is(err, core.ErrMissingResumeID):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrMissingResumeID.Error()}
	case errors.Is(err, core.ErrResumeNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrResumeNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrStripeClient):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "Payment provider is temporarily unavailable"}
	default:
		h.logger.Error("Unhandled billing handler error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /billing/create-checkout-session
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), userID, req)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: url})
}

// HandleStripeWebhook handles POST /billing/webhooks/stripe. The endpoint is
// public; authentication is the signature check inside the service. A 200
// tells the provider to stop retrying, so processing failures return 500 to
// keep the event in the retry queue.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read webhook payload"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.billingService.HandleStripeWebhook(c.Request.Context(), signature, payload); err != nil {
		if errors.Is(err, core.ErrWebhookSignature) {
			h.logger.Warn("Webhook signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Signature verification failed"})
			return
		}
		h.logger.Error("Webhook reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Event processing failed"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
