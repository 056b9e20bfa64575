/**
 * @description
 * In-memory OracleGateway double for tests: a fixed asset set and
 * settable latest prices.
 */

package oracle

import (
	"context"
	"strings"
	"sync"

	"github.com/pricebet-project/backend/internal/betting"
)

// Memory is an in-memory oracle.
type Memory struct {
	mu     sync.Mutex
	assets []string
	prices map[string]betting.PriceData
	err    error
}

// NewMemory creates an oracle double supporting the given assets.
func NewMemory(assets ...string) *Memory {
	return &Memory{
		assets: assets,
		prices: make(map[string]betting.PriceData),
	}
}

// SetPrice records the latest observation for an asset.
func (m *Memory) SetPrice(asset string, price uint64, observedAt int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[strings.ToUpper(asset)] = betting.PriceData{Price: price, ObservedAt: observedAt}
}

// Fail makes every subsequent call return err (nil restores normal behavior).
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Assets(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, len(m.assets))
	copy(out, m.assets)
	return out, nil
}

func (m *Memory) LastPrice(ctx context.Context, asset string) (*betting.PriceData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.prices[strings.ToUpper(asset)]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}
