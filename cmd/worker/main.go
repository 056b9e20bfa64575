/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Ingesting the oracle price feed via WebSocket.
 * 2. Executing games whose target date has passed.
 * 3. Extending storage leases so unresolved games stay mirrored.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/api: engine wiring shared with the API process
 * - backend/internal/ledger
 * - backend/internal/oracle
 */

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pricebet-project/backend/internal/api"
	"github.com/pricebet-project/backend/internal/betting"
	"github.com/pricebet-project/backend/internal/config"
	"github.com/pricebet-project/backend/internal/db"
	"github.com/pricebet-project/backend/internal/ledger"
	"github.com/pricebet-project/backend/internal/logger"
	"github.com/pricebet-project/backend/internal/oracle"
)

const executeBatchSize = 50

func main() {
	logger.Info("🔥 Starting PriceBet Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	store := ledger.New(pgDB, redisClient)
	engine, err := api.BuildEngine(cfg, store, redisClient)
	if err != nil {
		logger.Fatal("Engine wiring failed: %v", err)
	}
	feed := oracle.NewFeed(cfg, redisClient, pgDB)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Connect the price feed
	if cfg.Oracle.FeedURL != "" {
		go func() {
			if err := feed.Connect(ctx); err != nil {
				logger.Error("❌ Oracle feed failed: %v", err)
			}
		}()
	} else {
		logger.Info("⚠️ ORACLE_FEED_URL is empty; price ingestion disabled")
	}

	// 6. Subscription Loop
	// Periodically collect the assets of unresolved games and subscribe
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		syncSubscriptions(ctx, store, feed)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				syncSubscriptions(ctx, store, feed)
			}
		}
	}()

	// 7. Executor Loop
	go func() {
		interval := time.Duration(cfg.Worker.ExecuteIntervalSec) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				executeDueGames(ctx, engine)
			}
		}
	}()

	// 8. Keep-Alive Loop
	go func() {
		interval := time.Duration(cfg.Worker.KeepAliveIntervalSec) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.KeepAliveSweep(ctx); err != nil {
					logger.Error("Keep-alive sweep failed: %v", err)
				}
			}
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	if err := feed.Close(); err != nil {
		logger.Error("Error closing feed: %v", err)
	}

	time.Sleep(1 * time.Second) // Give connections time to close
	logger.Info("Worker exited.")
}

// syncSubscriptions subscribes the feed to every asset with an open game
func syncSubscriptions(ctx context.Context, store *ledger.Store, feed *oracle.Feed) {
	assets, err := store.ActiveAssets(ctx)
	if err != nil {
		logger.Error("Failed to list active assets: %v", err)
		return
	}
	if len(assets) == 0 {
		logger.Info("No assets to subscribe to.")
		return
	}

	logger.Info("🔄 Subscribing to %d assets...", len(assets))
	if err := feed.Subscribe(ctx, assets); err != nil {
		logger.Error("Failed to subscribe: %v", err)
	}
}

// executeDueGames resolves every game whose target date has passed.
// A stale price is expected while the feed catches up, so it is logged
// at info level and retried on the next tick.
func executeDueGames(ctx context.Context, engine *betting.Engine) {
	runID := uuid.New().String()

	games, err := engine.DueGames(ctx, executeBatchSize)
	if err != nil {
		logger.Error("[run %s] Failed to list due games: %v", runID, err)
		return
	}
	if len(games) == 0 {
		return
	}

	logger.Info("[run %s] Executing %d due games", runID, len(games))
	for _, game := range games {
		_, err := engine.ExecuteGame(ctx, game.ID)
		switch {
		case err == nil:
			logger.Info("[run %s] ✅ Executed game %s", runID, game.ID)
		case errors.Is(err, betting.ErrAssetPriceIsNotUpdated),
			errors.Is(err, betting.ErrAssetPriceNotFound):
			logger.Info("[run %s] Game %s waiting on a fresh %s price", runID, game.ID, game.Asset)
		case errors.Is(err, betting.ErrGameAlreadyExecuted):
			// Another executor won the race; nothing to do.
		default:
			logger.Error("[run %s] Failed to execute game %s: %v", runID, game.ID, err)
		}
	}
}
