/**
 * @description
 * WebSocket client for the oracle price feed.
 * Manages the persistent connection, subscriptions, and keep-alive logic.
 *
 * Key features:
 * - Handles automatic reconnection with exponential backoff.
 * - Manages subscriptions (which asset symbols to track).
 * - Thread-safe writing.
 * - Each observation updates the Redis oracle store and appends a
 *   price_history row.
 *
 * @dependencies
 * - github.com/gorilla/websocket
 * - github.com/redis/go-redis/v9
 * - gorm.io/gorm
 */

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pricebet-project/backend/internal/config"
	"github.com/pricebet-project/backend/internal/logger"
	"github.com/pricebet-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	WriteWait         = 10 * time.Second
	PongWait          = 60 * time.Second
	PingPeriod        = (PongWait * 9) / 10
	MaxConnectRetries = 5
)

// SubscriptionMessage asks the feed to stream the given symbols.
type SubscriptionMessage struct {
	Type   string   `json:"type"` // "subscribe"
	Assets []string `json:"assets"`
}

// Observation is one price tick from the feed.
type Observation struct {
	Asset      string `json:"asset"`
	Price      uint64 `json:"price"`       // smallest units, 7 decimals
	ObservedAt int64  `json:"observed_at"` // unix seconds
}

// Feed ingests the oracle price stream.
type Feed struct {
	url  string
	conn *websocket.Conn
	mu   sync.Mutex
	done chan struct{}

	rdb *redis.Client
	db  *gorm.DB

	// subscriptions holds the current list of symbols to track
	subscriptions []string
	subMu         sync.Mutex
}

// NewFeed creates a feed ingester for the configured endpoint.
func NewFeed(cfg *config.Config, rdb *redis.Client, db *gorm.DB) *Feed {
	return &Feed{
		url:  cfg.Oracle.FeedURL,
		rdb:  rdb,
		db:   db,
		done: make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (f *Feed) Connect(ctx context.Context) error {
	return f.connectWithRetry(ctx)
}

func (f *Feed) connectWithRetry(ctx context.Context) error {
	var err error
	backoff := 1 * time.Second

	for i := 0; i < MaxConnectRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return fmt.Errorf("feed closed")
		default:
		}

		logger.Info("Connecting to oracle feed: %s (attempt %d)", f.url, i+1)
		var conn *websocket.Conn
		conn, _, err = websocket.DefaultDialer.Dial(f.url, nil)
		if err == nil {
			logger.Info("✅ Connected to oracle feed")

			// The write side reads f.conn under f.mu, so publish it there too.
			f.mu.Lock()
			f.conn = conn
			f.mu.Unlock()

			// Resubscribe on reconnect
			f.subMu.Lock()
			if len(f.subscriptions) > 0 {
				go f.sendSubscribe(f.subscriptions)
			}
			f.subMu.Unlock()

			go f.readLoop(ctx, conn)
			go f.pingLoop(ctx)
			return nil
		}

		logger.Error("Feed connect failed: %v. Retrying in %v...", err, backoff)
		time.Sleep(backoff)
		backoff *= 2
	}

	return fmt.Errorf("failed to connect after %d attempts: %w", MaxConnectRetries, err)
}

// Subscribe adds symbols to the tracking list, registers them in the
// supported-asset set, and sends the subscription message.
func (f *Feed) Subscribe(ctx context.Context, assets []string) error {
	f.subMu.Lock()
	f.subscriptions = append(f.subscriptions, assets...)
	f.subMu.Unlock()

	if len(assets) > 0 {
		members := make([]interface{}, len(assets))
		for i, a := range assets {
			members[i] = a
		}
		if err := f.rdb.SAdd(ctx, AssetsKey, members...).Err(); err != nil {
			return fmt.Errorf("registering assets: %w", err)
		}
	}

	return f.sendSubscribe(assets)
}

func (f *Feed) sendSubscribe(assets []string) error {
	msg := SubscriptionMessage{Type: "subscribe", Assets: assets}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	_ = f.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return f.conn.WriteJSON(msg)
}

// readLoop consumes one connection until it breaks; on reconnect a new loop
// takes over with the fresh connection.
func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Error("Feed read error: %v. Reconnecting...", err)
			if rerr := f.connectWithRetry(ctx); rerr != nil {
				logger.Error("Feed reconnect failed: %v", rerr)
			}
			return
		}

		var obs Observation
		if err := json.Unmarshal(raw, &obs); err != nil || obs.Asset == "" {
			continue // not an observation frame
		}
		f.HandleObservation(ctx, obs)
	}
}

// HandleObservation persists one tick: latest-price hash in Redis plus a
// price_history row. Exported so tests can drive it without a socket.
func (f *Feed) HandleObservation(ctx context.Context, obs Observation) {
	err := f.rdb.HSet(ctx, PriceKey(obs.Asset), map[string]interface{}{
		"price":       obs.Price,
		"observed_at": obs.ObservedAt,
	}).Err()
	if err != nil {
		logger.Error("Failed to store price for %s: %v", obs.Asset, err)
		return
	}

	if f.db != nil {
		row := models.PriceHistory{
			Asset:      obs.Asset,
			Price:      obs.Price,
			ObservedAt: obs.ObservedAt,
		}
		if err := f.db.WithContext(ctx).Create(&row).Error; err != nil {
			logger.Error("Failed to append price history for %s: %v", obs.Asset, err)
		}
	}
}

func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.conn != nil {
				_ = f.conn.SetWriteDeadline(time.Now().Add(WriteWait))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logger.Error("Feed ping failed: %v", err)
				}
			}
			f.mu.Unlock()
		}
	}
}

// Close shuts the feed down.
func (f *Feed) Close() error {
	close(f.done)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
