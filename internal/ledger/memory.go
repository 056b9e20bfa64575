/**
 * @description
 * In-memory GameLedger double for tests.
 * Transactions snapshot the whole state and restore it when fn fails, which
 * mirrors the all-or-nothing commit contract of the Postgres store. Leases
 * are tracked as plain expiry timestamps so tests can assert that expiry
 * never changes a business outcome.
 */

package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/pricebet-project/backend/internal/betting"
	"github.com/pricebet-project/backend/internal/models"
)

// Memory is a transactional in-memory ledger.
type Memory struct {
	mu          sync.Mutex
	core        *models.CoreConfig
	games       map[string]models.Game
	predictions map[string]models.Prediction // key: gameID + "|" + player
	leases      map[string]int64             // gameID -> unix expiry

	// Now feeds lease bookkeeping; defaults to wall time.
	Now func() int64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		games:       make(map[string]models.Game),
		predictions: make(map[string]models.Prediction),
		leases:      make(map[string]int64),
		Now:         func() int64 { return time.Now().Unix() },
	}
}

func predictionKey(gameID, player string) string {
	return gameID + "|" + player
}

// memTx is the view handed to Transaction callbacks; it reuses the parent's
// maps without re-locking.
type memTx struct {
	m *Memory
}

// Transaction snapshots state, runs fn, and restores the snapshot if fn
// returns an error.
func (m *Memory) Transaction(ctx context.Context, fn func(tx betting.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapCore := m.core
	if m.core != nil {
		c := *m.core
		snapCore = &c
	}
	snapGames := make(map[string]models.Game, len(m.games))
	for k, v := range m.games {
		snapGames[k] = v
	}
	snapPredictions := make(map[string]models.Prediction, len(m.predictions))
	for k, v := range m.predictions {
		snapPredictions[k] = v
	}
	snapLeases := make(map[string]int64, len(m.leases))
	for k, v := range m.leases {
		snapLeases[k] = v
	}

	if err := fn(&memTx{m: m}); err != nil {
		m.core = snapCore
		m.games = snapGames
		m.predictions = snapPredictions
		m.leases = snapLeases
		return err
	}
	return nil
}

func (m *Memory) coreLocked() (*models.CoreConfig, error) {
	if m.core == nil {
		return nil, nil
	}
	c := *m.core
	return &c, nil
}

func (m *Memory) saveCoreLocked(core *models.CoreConfig) error {
	c := *core
	m.core = &c
	return nil
}

func (m *Memory) gameLocked(id string) (*models.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	copied := g
	return &copied, nil
}

func (m *Memory) createGameLocked(game *models.Game) error {
	if _, ok := m.games[game.ID]; ok {
		return betting.ErrConflict
	}
	m.games[game.ID] = *game
	return nil
}

func (m *Memory) saveGameLocked(game *models.Game) error {
	m.games[game.ID] = *game
	return nil
}

func (m *Memory) predictionLocked(gameID, player string) (*models.Prediction, error) {
	p, ok := m.predictions[predictionKey(gameID, player)]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (m *Memory) createPredictionLocked(p *models.Prediction) error {
	key := predictionKey(p.GameID, p.Player)
	if _, ok := m.predictions[key]; ok {
		return betting.ErrConflict
	}
	m.predictions[key] = *p
	return nil
}

func (m *Memory) savePredictionLocked(p *models.Prediction) error {
	m.predictions[predictionKey(p.GameID, p.Player)] = *p
	return nil
}

func (m *Memory) dueGamesLocked(now int64, limit int) ([]models.Game, error) {
	var due []models.Game
	for _, g := range m.games {
		if g.Result == models.ResultUnresolved && g.TargetDate <= now {
			due = append(due, g)
			if limit > 0 && len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

func (m *Memory) keepAliveLocked(gameID string) {
	m.leases[gameID] = m.Now() + int64(LeaseTTL/time.Second)
}

// Top-level (non-transactional) accessors lock per call.

func (m *Memory) Core(ctx context.Context) (*models.CoreConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coreLocked()
}

func (m *Memory) SaveCore(ctx context.Context, core *models.CoreConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCoreLocked(core)
}

func (m *Memory) Game(ctx context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gameLocked(id)
}

func (m *Memory) GameForUpdate(ctx context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gameLocked(id)
}

func (m *Memory) CreateGame(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createGameLocked(game)
}

func (m *Memory) SaveGame(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveGameLocked(game)
}

func (m *Memory) Prediction(ctx context.Context, gameID, player string) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictionLocked(gameID, player)
}

func (m *Memory) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPredictionLocked(p)
}

func (m *Memory) SavePrediction(ctx context.Context, p *models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePredictionLocked(p)
}

func (m *Memory) DueGames(ctx context.Context, now int64, limit int) ([]models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dueGamesLocked(now, limit)
}

func (m *Memory) KeepAlive(ctx context.Context, gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keepAliveLocked(gameID)
}

// LeaseActive reports whether a game's lease is still live. Expiry makes the
// mirrored copy unretrievable; the authoritative record stays.
func (m *Memory) LeaseActive(gameID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.leases[gameID]
	return ok && exp > m.Now()
}

// ExpireLeases drops every lease, simulating a storage sweep after TTL.
func (m *Memory) ExpireLeases() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases = make(map[string]int64)
}

// memTx delegates to the already-locked parent.

func (t *memTx) Transaction(ctx context.Context, fn func(tx betting.Ledger) error) error {
	return fn(t) // nested transactions join the outer one
}

func (t *memTx) Core(ctx context.Context) (*models.CoreConfig, error) { return t.m.coreLocked() }
func (t *memTx) SaveCore(ctx context.Context, core *models.CoreConfig) error {
	return t.m.saveCoreLocked(core)
}
func (t *memTx) Game(ctx context.Context, id string) (*models.Game, error) {
	return t.m.gameLocked(id)
}
func (t *memTx) GameForUpdate(ctx context.Context, id string) (*models.Game, error) {
	return t.m.gameLocked(id)
}
func (t *memTx) CreateGame(ctx context.Context, game *models.Game) error {
	return t.m.createGameLocked(game)
}
func (t *memTx) SaveGame(ctx context.Context, game *models.Game) error {
	return t.m.saveGameLocked(game)
}
func (t *memTx) Prediction(ctx context.Context, gameID, player string) (*models.Prediction, error) {
	return t.m.predictionLocked(gameID, player)
}
func (t *memTx) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	return t.m.createPredictionLocked(p)
}
func (t *memTx) SavePrediction(ctx context.Context, p *models.Prediction) error {
	return t.m.savePredictionLocked(p)
}
func (t *memTx) DueGames(ctx context.Context, now int64, limit int) ([]models.Game, error) {
	return t.m.dueGamesLocked(now, limit)
}
func (t *memTx) KeepAlive(ctx context.Context, gameID string) {
	t.m.keepAliveLocked(gameID)
}
