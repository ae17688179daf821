package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/config"
	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/middleware"
)

// SetupRoutes configures all application routes. Global middleware (logging,
// recovery, CORS) is applied to the router before this is called, in main.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	userService core.UserService,
	analysisService core.AnalysisService,
	billingService core.BillingService,
	reviewService core.ReviewService,
) {
	userHandler := NewUserHandler(userService, logger)
	resumeHandler := NewResumeHandler(analysisService, appConfig, logger)
	billingHandler := NewBillingHandler(billingService, logger)
	adminHandler := NewAdminHandler(reviewService, appConfig, logger)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			usersGroup.POST("/initialize", authMW.VerifyToken(), userHandler.InitializeProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentProfile)
		}

		resumesGroup := apiV1.Group("/resumes")
		{
			// The free basic check is open to anonymous visitors; a valid
			// token, when present, ties the resume to the account.
			resumesGroup.POST("", authMW.OptionalToken(), resumeHandler.UploadAndCheck)

			resumesGroup.GET("", authMW.VerifyToken(), resumeHandler.ListResumes)
			resumesGroup.GET("/:resumeId", authMW.VerifyToken(), resumeHandler.GetResume)
			resumesGroup.GET("/:resumeId/download", authMW.VerifyToken(), resumeHandler.Download)
			resumesGroup.PUT("/:resumeId/job-description", authMW.VerifyToken(), resumeHandler.SetJobDescription)
			resumesGroup.POST("/:resumeId/detailed-ats-report", authMW.VerifyToken(), resumeHandler.DetailedReport)
			resumesGroup.POST("/:resumeId/job-optimization", authMW.VerifyToken(), resumeHandler.Optimize)
			resumesGroup.POST("/:resumeId/analyze-changes", authMW.VerifyToken(), resumeHandler.AnalyzeChanges)
		}

		billingGroup := apiV1.Group("/billing")
		{
			billingGroup.POST("/create-checkout-session", authMW.VerifyToken(), billingHandler.CreateCheckoutSession)

			// Public endpoint. The payment provider authenticates via the
			// signature header, verified inside the service.
			billingGroup.POST("/webhooks/stripe", billingHandler.HandleStripeWebhook)
		}

		adminGroup := apiV1.Group("/admin", authMW.RequireAdmin())
		{
			adminGroup.GET("/review-orders", adminHandler.ListReviewOrders)
			adminGroup.GET("/review-orders/:orderId", adminHandler.GetReviewOrder)
			adminGroup.PUT("/review-orders/:orderId/status", adminHandler.UpdateReviewOrderStatus)
			adminGroup.PUT("/review-orders/:orderId/feedback", adminHandler.SetReviewFeedback)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
