// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/config"
	"github.com/ThatQne/drivora-backend/internal/handlers"
	"github.com/ThatQne/drivora-backend/internal/middleware"
	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	vehicleService := services.NewVehicleService(db)
	listingService := services.NewListingService(db)
	tradeService := services.NewTradeService(db, vehicleService, listingService, notificationService)

	// Initialize handlers
	tradeHandler := handlers.NewTradeHandler(tradeService)
	listingHandler := handlers.NewListingHandler(listingService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Trade routes (all require the caller's identity)
		trades := v1.Group("/trades")
		trades.Use(middleware.AuthRequired())
		{
			trades.POST("", tradeHandler.CreateTrade)
			trades.GET("", tradeHandler.GetMyTrades)
			trades.GET("/:id", tradeHandler.GetTrade)
			trades.POST("/:id/counter", tradeHandler.CounterTrade)
			trades.POST("/:id/accept", tradeHandler.AcceptTrade)
			trades.POST("/:id/reject", tradeHandler.RejectTrade)
			trades.POST("/:id/cancel", tradeHandler.CancelTrade)
			trades.POST("/:id/complete", tradeHandler.CompleteTrade)
			trades.POST("/:id/decline", tradeHandler.DeclineTrade)
		}

		// Listing routes
		listings := v1.Group("/listings")
		{
			listings.GET("", middleware.OptionalAuth(), listingHandler.GetListings)
			listings.GET("/:id", middleware.OptionalAuth(), listingHandler.GetListing)
			listings.POST("/:id/relist", middleware.AuthRequired(), listingHandler.RelistListing)
		}

		// Vehicle routes
		vehicles := v1.Group("/vehicles")
		vehicles.Use(middleware.AuthRequired())
		{
			vehicles.GET("", vehicleHandler.GetMyVehicles)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetMyNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
