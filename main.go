package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	"github.com/fannu/booking-server/config"
	"github.com/fannu/booking-server/cron"
	"github.com/fannu/booking-server/database"
	bookingRepoPkg "github.com/fannu/booking-server/database/repository/booking"
	creatorRepoPkg "github.com/fannu/booking-server/database/repository/creator"
	eventlogRepoPkg "github.com/fannu/booking-server/database/repository/eventlog"
	paymentRepoPkg "github.com/fannu/booking-server/database/repository/payment"
	quoteRepoPkg "github.com/fannu/booking-server/database/repository/quote"
	vipRepoPkg "github.com/fannu/booking-server/database/repository/vip"
	"github.com/fannu/booking-server/handlers"
	"github.com/fannu/booking-server/middleware"
	"github.com/fannu/booking-server/routes"
	"github.com/fannu/booking-server/services/admin"
	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/services/notification"
	"github.com/fannu/booking-server/services/vip"
	"github.com/fannu/booking-server/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookings := bookingRepoPkg.NewMongoBookingRepo()
	quotes := quoteRepoPkg.NewMongoQuoteRepo()
	payments := paymentRepoPkg.NewMongoPaymentRepo()
	events := eventlogRepoPkg.NewMongoEventLogRepo()
	creators := creatorRepoPkg.NewMongoCreatorRepo()
	vipSubs := vipRepoPkg.NewMongoVIPRepo()

	// services.
	notifier := &notification.DefaultNotificationService{
		Client: cron.NewQueueClient(),
		Logger: logger,
	}

	bookingService := &booking.DefaultBookingService{
		Bookings: bookings,
		Quotes:   quotes,
		Creators: creators,
		Events:   events,
		Notifier: notifier,
		Logger:   logger,
	}

	paymentService := &booking.DefaultPaymentService{
		Payments: payments,
		Quotes:   quotes,
		Bookings: bookings,
		Gateway:  booking.NewGatewayFromConfig(logger),
		Notifier: notifier,
		Logger:   logger,
	}

	vipService := &vip.DefaultVIPService{
		Subs:     vipSubs,
		Creators: creators,
		Notifier: notifier,
		Logger:   logger,
	}

	adminService := &admin.DefaultAdminService{
		Bookings: bookings,
		Payments: payments,
		Events:   events,
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Booking:  handlers.NewBookingHandler(bookingService, logger),
		Checkout: handlers.NewCheckoutHandler(paymentService, logger),
		VIP:      handlers.NewVIPHandler(vipService, logger),
		Admin:    handlers.NewAdminHandler(adminService, bookings, vipSubs, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background worker: outbound messages and the quote-expiry sweep.
	cron.InitWorker(quotes, logger)

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
