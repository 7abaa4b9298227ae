package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/handlers"
	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/middleware"
	"github.com/creatorly/affiliates/internal/notifier"
	"github.com/creatorly/affiliates/internal/storage"
)

func main() {
	config.ParseFlags()

	if err := logger.Initialize(config.LogLevel); err != nil {
		logger.Log.Fatal("Failed to initialize logger", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Log.Error("Failed to init storage", zap.Error(err))
		return
	}

	notifier.Init()

	if err := run(); err != nil {
		logger.Log.Fatal("Failed to run server", zap.Error(err))
	}
}

func run() error {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Post("/api/user/register", handlers.RegisterHandler)
	app.Post("/api/user/login", handlers.LoginHandler)

	app.Get("/r/:code", handlers.TrackClickHandler)

	affiliateRoutes := app.Group("/api/affiliate", middleware.AuthMiddleware)
	affiliateRoutes.Post("/", handlers.CreateAffiliateHandler)
	affiliateRoutes.Get("/", handlers.GetAffiliateHandler)
	affiliateRoutes.Get("/balance", handlers.GetBalanceHandler)
	affiliateRoutes.Get("/stats", handlers.GetStatsHandler)
	affiliateRoutes.Get("/commissions", handlers.GetCommissionsHandler)
	affiliateRoutes.Get("/payouts", handlers.GetPayoutsHandler)
	affiliateRoutes.Post("/payouts", handlers.RequestPayoutHandler)

	app.Post("/api/webhooks/payment", middleware.AdminMiddleware, handlers.PaymentWebhookHandler)

	adminRoutes := app.Group("/api/admin", middleware.AdminMiddleware)
	adminRoutes.Post("/payouts/:id/complete", handlers.CompletePayoutHandler)
	adminRoutes.Post("/payouts/:id/reject", handlers.RejectPayoutHandler)

	logger.Log.Info("Running server", zap.String("address", config.RunAddress))
	return app.Listen(config.RunAddress)
}
