/**
 * @description
 * In-memory EscrowGateway double for tests.
 * Tracks balances, journals every transfer with a reference id, and can be
 * told to fail all transfers or only those to a particular destination
 * (host-share vs protocol-share failure cases).
 */

package escrow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TransferRecord is one journaled movement.
type TransferRecord struct {
	Ref    string
	From   string
	To     string
	Amount uint64
}

// Memory is an in-memory escrow with programmable failures.
type Memory struct {
	mu       sync.Mutex
	balances map[string]uint64
	journal  []TransferRecord
	failAll  error
	failTo   map[string]error
}

// NewMemory creates an escrow double with the given starting balances.
func NewMemory(balances map[string]uint64) *Memory {
	m := &Memory{
		balances: make(map[string]uint64),
		failTo:   make(map[string]error),
	}
	for k, v := range balances {
		m.balances[k] = v
	}
	return m
}

// Fail makes every subsequent transfer return err (nil restores normal behavior).
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

// FailTo makes transfers to a specific destination fail.
func (m *Memory) FailTo(to string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failTo, to)
		return
	}
	m.failTo[to] = err
}

// Transfer moves funds between accounts, failing on insufficient balance.
func (m *Memory) Transfer(ctx context.Context, from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Zero amounts are a no-op before any failure programming, matching the
	// production adapter, which never touches the chain for them.
	if amount == 0 {
		return nil
	}
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failTo[to]; ok {
		return err
	}
	if m.balances[from] < amount {
		return fmt.Errorf("insufficient balance: %s holds %d, needs %d", from, m.balances[from], amount)
	}

	m.balances[from] -= amount
	m.balances[to] += amount
	m.journal = append(m.journal, TransferRecord{
		Ref:    uuid.NewString(),
		From:   from,
		To:     to,
		Amount: amount,
	})
	return nil
}

// Balance returns an account's current balance.
func (m *Memory) Balance(account string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account]
}

// Journal returns a copy of all recorded transfers.
func (m *Memory) Journal() []TransferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransferRecord, len(m.journal))
	copy(out, m.journal)
	return out
}
