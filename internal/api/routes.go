/**
 * @description
 * API route definitions.
 * Sets up the router groups, wires the engine to its gateways, and assigns
 * handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/betting
 * - backend/internal/ledger, oracle, escrow
 */

package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pricebet-project/backend/internal/api/handlers"
	"github.com/pricebet-project/backend/internal/api/middleware"
	"github.com/pricebet-project/backend/internal/betting"
	"github.com/pricebet-project/backend/internal/config"
	"github.com/pricebet-project/backend/internal/escrow"
	"github.com/pricebet-project/backend/internal/ledger"
	"github.com/pricebet-project/backend/internal/logger"
	"github.com/pricebet-project/backend/internal/oracle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) error {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		logger.Error("Failed to init auth middleware: %v", err)
		// We don't abort here so the app can start in dev modes without valid
		// keys, but protected routes will fail.
	}

	// 2. Initialize the engine with its gateways
	store := ledger.New(db, rdb)
	engine, err := BuildEngine(cfg, store, rdb)
	if err != nil {
		return err
	}

	// 3. Initialize Handlers
	gameHandler := handlers.NewGameHandler(engine)
	adminHandler := handlers.NewAdminHandler(engine)

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	games := v1.Group("/games")
	games.Post("/", gameHandler.CreateGame)
	games.Get("/:id", gameHandler.GetGame)
	games.Get("/:id/predictions/:player", gameHandler.GetPrediction)
	games.Post("/:id/execute", gameHandler.ExecuteGame)

	// Protected: staking and withdrawal need the caller's verified identity
	games.Post("/:id/predictions", middleware.Protected(), gameHandler.PlacePrediction)
	games.Post("/:id/withdraw", middleware.Protected(), gameHandler.Withdraw)

	// Admin
	admin := v1.Group("/admin")
	admin.Post("/init", adminHandler.Init) // guarded by being callable once
	admin.Post("/address", middleware.Protected(), adminHandler.UpdateAddress)
	admin.Post("/upgrade", middleware.Protected(), adminHandler.Upgrade)

	return nil
}

// BuildEngine assembles the betting engine on the production gateways.
// The ERC-20 escrow adapter needs the settlement-asset address, which Init
// writes into CoreConfig, so it is resolved lazily on the first transfer:
// a service booted before initialization settles real funds once Init has
// run, without a restart. The in-memory escrow stand-in is allowed only
// outside production.
func BuildEngine(cfg *config.Config, store *ledger.Store, rdb *redis.Client) (*betting.Engine, error) {
	oracleGateway := oracle.NewClient(rdb)

	var escrowGateway betting.EscrowGateway
	if cfg.Chain.RPCURL != "" {
		escrowGateway = escrow.NewLazy(func(ctx context.Context) (betting.EscrowGateway, error) {
			core, err := store.Core(ctx)
			if err != nil {
				return nil, err
			}
			if core == nil {
				return nil, fmt.Errorf("escrow unavailable: core config not initialized")
			}
			return escrow.NewERC20(cfg, core.PayingAsset)
		})
	} else {
		if cfg.Server.Env == "production" {
			return nil, fmt.Errorf("CHAIN_RPC_URL is required in production")
		}
		logger.Info("⚠️ Escrow running on the in-memory double (CHAIN_RPC_URL is empty); fine for dev, not for production")
		escrowGateway = escrow.NewMemory(nil)
	}

	return betting.NewEngine(store, oracleGateway, escrowGateway, cfg.Chain.TreasuryAddress, nil), nil
}
