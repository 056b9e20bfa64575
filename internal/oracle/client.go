/**
 * @description
 * Redis-backed OracleGateway adapter.
 * The worker's feed ingester maintains a supported-asset set and one hash
 * per asset holding the latest {price, observed_at}; this client is the
 * read side the betting engine consumes.
 *
 * Keys:
 * - oracle:assets            SET of supported symbols
 * - oracle:price:<SYMBOL>    HASH {price, observed_at}
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package oracle

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pricebet-project/backend/internal/betting"
	"github.com/redis/go-redis/v9"
)

const (
	AssetsKey   = "oracle:assets"
	priceKeyFmt = "oracle:price:%s"
)

// Client reads oracle state out of Redis.
type Client struct {
	rdb *redis.Client
}

// NewClient wraps a Redis connection as an OracleGateway.
func NewClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Assets returns the feed's supported asset symbols.
func (c *Client) Assets(ctx context.Context) ([]string, error) {
	assets, err := c.rdb.SMembers(ctx, AssetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading oracle asset set: %w", err)
	}
	return assets, nil
}

// LastPrice returns the latest observation for an asset, or (nil, nil) when
// the feed has not reported it yet.
func (c *Client) LastPrice(ctx context.Context, asset string) (*betting.PriceData, error) {
	key := PriceKey(asset)
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	price, err := strconv.ParseUint(fields["price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt price in %s: %w", key, err)
	}
	observedAt, err := strconv.ParseInt(fields["observed_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt observed_at in %s: %w", key, err)
	}

	return &betting.PriceData{Price: price, ObservedAt: observedAt}, nil
}

// PriceKey returns the Redis key holding an asset's latest observation.
func PriceKey(asset string) string {
	return fmt.Sprintf(priceKeyFmt, strings.ToUpper(asset))
}
