package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fannu/booking-server/handlers"
	"github.com/fannu/booking-server/middleware"
	"github.com/fannu/booking-server/utils"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.Booking.CreateBookingHandler)
		api.GET("/track/:reference_code", hb.Booking.TrackBookingHandler)
		api.POST("/:id/quote", hb.Booking.IssueQuoteHandler)
		api.GET("/:id/quotes", hb.Booking.QuoteHistoryHandler)
		api.POST("/:id/quotes/:quoteID/decline", hb.Booking.DeclineQuoteHandler)
		api.POST("/:id/decline", hb.Booking.DeclineBookingHandler)
		api.POST("/:id/cancel", hb.Booking.CancelBookingHandler)
		api.POST("/:id/confirm", hb.Booking.ConfirmBookingHandler)
		api.POST("/:id/complete", hb.Booking.CompleteBookingHandler)
		api.POST("/:id/dispute", hb.Booking.DisputeBookingHandler)
	}
}

// RegisterCheckoutRoutes registers the checkout and webhook endpoints.
func RegisterCheckoutRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/checkout")
	{
		api.POST("/deposit", hb.Checkout.InitiateDepositHandler)
		api.GET("/receipt/:receipt_id", hb.Checkout.ReceiptHandler)
	}

	r.POST("/api/webhooks/psp", hb.Checkout.PSPWebhookHandler)
}

// RegisterVIPRoutes registers the VIP-list capture endpoint.
func RegisterVIPRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/vip", hb.VIP.SubscribeHandler)
}

// RegisterAdminRoutes sets up endpoints for admin moderation.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware())
		adminGroup.POST("/bookings/:id/resolve-dispute", hb.Admin.ResolveDisputeHandler)
		adminGroup.POST("/bookings/:id/issue-refund", hb.Admin.IssueRefundHandler)
		adminGroup.POST("/bookings/:id/process-refund", hb.Admin.ProcessRefundHandler)
		adminGroup.POST("/bookings/:id/override-status", hb.Admin.OverrideStatusHandler)
		adminGroup.PUT("/bookings/:id/notes", hb.Admin.SaveNotesHandler)
		adminGroup.GET("/bookings/:id/events", hb.Booking.ListEventsHandler)
		adminGroup.GET("/creators/:id/bookings", hb.Admin.CreatorOverviewHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "health": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterCheckoutRoutes(r, hb)
	RegisterVIPRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
