/**
 * @description
 * Lazily resolved EscrowGateway.
 * The ERC-20 adapter needs the settlement-asset address, which only exists
 * after Init writes it into the core configuration. Lazy defers building the
 * real gateway until the first transfer, then caches it for the process
 * lifetime — so a service booted before initialization still settles real
 * funds once initialized, without a restart.
 */

package escrow

import (
	"context"
	"sync"

	"github.com/pricebet-project/backend/internal/betting"
)

// Resolver builds the real gateway once its configuration is available.
// It is retried on every transfer until it succeeds.
type Resolver func(ctx context.Context) (betting.EscrowGateway, error)

// Lazy resolves its underlying gateway on first use.
type Lazy struct {
	mu      sync.Mutex
	resolve Resolver
	gw      betting.EscrowGateway
}

// NewLazy wraps a resolver as an EscrowGateway.
func NewLazy(resolve Resolver) *Lazy {
	return &Lazy{resolve: resolve}
}

// Transfer resolves the gateway if needed and delegates. A resolution
// failure fails the transfer, which rolls back the enclosing ledger
// transaction; nothing is ever silently dropped.
func (l *Lazy) Transfer(ctx context.Context, from, to string, amount uint64) error {
	gw, err := l.gateway(ctx)
	if err != nil {
		return err
	}
	return gw.Transfer(ctx, from, to, amount)
}

func (l *Lazy) gateway(ctx context.Context) (betting.EscrowGateway, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gw != nil {
		return l.gw, nil
	}
	gw, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	l.gw = gw
	return gw, nil
}
