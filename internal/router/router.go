// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/config"
	"github.com/leaselink/leaselink-backend/internal/handlers"
	"github.com/leaselink/leaselink-backend/internal/middleware"
	"github.com/leaselink/leaselink-backend/internal/models"
	"github.com/leaselink/leaselink-backend/internal/services"
	"github.com/leaselink/leaselink-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	propertyService := services.NewPropertyService(db)
	viewingService := services.NewViewingService(db, notificationService)
	negotiationService := services.NewNegotiationService(db, notificationService)
	agreementService := services.NewAgreementService(db, notificationService)
	paymentService := services.NewPaymentService(db, cfg, propertyService, notificationService)
	verificationService := services.NewVerificationService(db, cfg)

	// Initialize handlers
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	viewingHandler := handlers.NewViewingHandler(viewingService)
	negotiationHandler := handlers.NewNegotiationHandler(negotiationService)
	agreementHandler := handlers.NewAgreementHandler(agreementService, verificationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.GeneralRateLimit())
	{
		// Property routes
		properties := v1.Group("/properties")
		{
			properties.GET("", middleware.OptionalAuth(), propertyHandler.Search)
			properties.GET("/:id", middleware.OptionalAuth(), propertyHandler.Get)

			protected := properties.Group("")
			protected.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleLandlord))
			{
				protected.POST("", propertyHandler.Create)
				protected.PATCH("/:id", propertyHandler.Update)
				protected.DELETE("/:id", propertyHandler.Delete)
			}
		}

		// Landlord dashboard routes
		landlord := v1.Group("/landlord")
		landlord.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleLandlord))
		{
			landlord.GET("/properties", propertyHandler.ListMine)
		}

		// Viewing routes
		viewings := v1.Group("/viewings")
		viewings.Use(middleware.AuthRequired())
		{
			viewings.POST("", middleware.RoleRequired(models.RoleTenant), viewingHandler.Request)
			viewings.GET("", viewingHandler.List)
			viewings.PATCH("/:id/status", viewingHandler.UpdateStatus)
		}

		// Negotiation routes
		negotiations := v1.Group("/negotiations")
		negotiations.Use(middleware.AuthRequired())
		{
			negotiations.POST("", middleware.RoleRequired(models.RoleTenant), negotiationHandler.Create)
			negotiations.GET("", negotiationHandler.List)
			negotiations.GET("/:id", negotiationHandler.Get)
			negotiations.PATCH("/:id", negotiationHandler.Update)
			negotiations.POST("/:id/messages", negotiationHandler.PostMessage)
			negotiations.GET("/:id/messages", negotiationHandler.GetMessages)
			negotiations.POST("/:id/agreement",
				middleware.RoleRequired(models.RoleLandlord), agreementHandler.CreateFromNegotiation)
		}

		// Agreement routes
		agreements := v1.Group("/agreements")
		agreements.Use(middleware.AuthRequired())
		{
			agreements.POST("", middleware.RoleRequired(models.RoleLandlord), agreementHandler.Create)
			agreements.GET("", agreementHandler.List)
			agreements.GET("/:id", agreementHandler.Get)
			agreements.PATCH("/:id", agreementHandler.Update)
			agreements.GET("/:id/versions/:version", agreementHandler.GetVersion)
			agreements.POST("/:id/comments", agreementHandler.AddComment)
			agreements.PATCH("/:id/comments/:commentId", agreementHandler.ResolveComment)
			agreements.POST("/:id/verify", agreementHandler.Verify)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", middleware.RoleRequired(models.RoleTenant), paymentHandler.CreateIntent)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
		}

		// Provider webhooks (no auth; signature-verified)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(middleware.WebhookRateLimit())
		{
			webhooks.POST("/stripe", paymentHandler.Webhook)
		}
	}

	return r
}
