package main

import (
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/mireb1/alimireb/config"
	"github.com/mireb1/alimireb/middleware"
	"github.com/mireb1/alimireb/routes"
	"github.com/mireb1/alimireb/utils"
)

func main() {
	logger := logrus.New()

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
	}

	// The service refuses to serve without its store
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Mireb Commercial API",
		ErrorHandler: utils.ErrorHandler,
	})

	// A panic inside a request becomes a 500 envelope, never a crash
	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.DefaultCORSConfig(config.AppConfig.CORSOrigins)))

	routes.SetupRoutes(app, config.DB, logger)

	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
