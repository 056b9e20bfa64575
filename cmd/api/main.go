/**
 * @description
 * Main entry point for the PriceBet Backend API.
 * Initializes the Fiber web server, loads configuration, runs migrations,
 * and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/db: Database connections
 * - backend/internal/api: Route setup and engine wiring
 *
 * @notes
 * - Connects to Postgres and Redis on startup.
 * - Sets up basic middleware (CORS, Logger, Recover).
 */

package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pricebet-project/backend/internal/api"
	"github.com/pricebet-project/backend/internal/config"
	"github.com/pricebet-project/backend/internal/db"
	"github.com/pricebet-project/backend/internal/ledger"
	"github.com/pricebet-project/backend/internal/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}

	// 3. Run Migrations
	if err := ledger.New(pgDB, redisClient).AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate ledger tables: %v", err)
	}

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "PriceBet Backend",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 5. Global Middleware
	app.Use(recover.New())     // Panic recovery
	app.Use(fiberlogger.New()) // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // TODO: Lock this down in production
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// 6. Routes
	if err := api.SetupRoutes(app, pgDB, redisClient, cfg); err != nil {
		logger.Fatal("Failed to set up routes: %v", err)
	}

	// 7. Start Server
	logger.Info("🚀 Starting PriceBet Backend on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
