package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/pricebet-project/backend/internal/betting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferFunc func(ctx context.Context, from, to string, amount uint64) error

func (f transferFunc) Transfer(ctx context.Context, from, to string, amount uint64) error {
	return f(ctx, from, to, amount)
}

func TestLazyResolvesOnFirstTransfer(t *testing.T) {
	ctx := context.Background()

	var delegated int
	var configured bool
	var resolved int
	lazy := NewLazy(func(ctx context.Context) (betting.EscrowGateway, error) {
		resolved++
		if !configured {
			return nil, errors.New("core config not initialized")
		}
		return transferFunc(func(ctx context.Context, from, to string, amount uint64) error {
			delegated++
			return nil
		}), nil
	})

	// Before initialization every transfer fails and nothing is cached.
	err := lazy.Transfer(ctx, "a", "b", 1)
	require.Error(t, err)
	assert.Zero(t, delegated)

	// Once the configuration exists the gateway resolves without a restart.
	configured = true
	require.NoError(t, lazy.Transfer(ctx, "a", "b", 1))
	require.NoError(t, lazy.Transfer(ctx, "a", "b", 2))
	assert.Equal(t, 2, delegated)

	// Resolution ran once per failed attempt plus once for the cached hit.
	assert.Equal(t, 2, resolved)
}

func TestMemoryTransferZeroAmountAlwaysSucceeds(t *testing.T) {
	m := NewMemory(nil)
	m.Fail(errors.New("rpc down"))
	m.FailTo("host", errors.New("wallet frozen"))

	// The production adapter never touches the chain for zero amounts, so
	// the double must not fail them either.
	require.NoError(t, m.Transfer(context.Background(), "treasury", "host", 0))
	require.Error(t, m.Transfer(context.Background(), "treasury", "host", 1))
}
