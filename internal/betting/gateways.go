/**
 * @description
 * Collaborator interfaces consumed by the betting engine.
 * The engine owns only the state machine and payout arithmetic; storage,
 * price discovery and asset movement are narrow, fallible gateways with a
 * production adapter and an in-memory double each.
 *
 * @notes
 * - Ledger lookups return (nil, nil) for absent records so the engine can
 *   translate absence into its own numbered errors.
 * - KeepAlive is the storage-lease obligation: best-effort, never allowed
 *   to change a business outcome.
 */

package betting

import (
	"context"

	"github.com/pricebet-project/backend/internal/models"
)

// Ledger is keyed storage for CoreConfig, Game and Prediction records.
// Pure data access; no business rules.
type Ledger interface {
	// Transaction runs fn against a transactional view of the ledger.
	// Every effect inside fn commits atomically or not at all.
	Transaction(ctx context.Context, fn func(tx Ledger) error) error

	Core(ctx context.Context) (*models.CoreConfig, error)
	SaveCore(ctx context.Context, core *models.CoreConfig) error

	Game(ctx context.Context, id string) (*models.Game, error)
	// GameForUpdate loads a game and locks it against concurrent writers
	// for the remainder of the enclosing transaction.
	GameForUpdate(ctx context.Context, id string) (*models.Game, error)
	// CreateGame inserts a new game; ErrConflict when the id already exists.
	CreateGame(ctx context.Context, game *models.Game) error
	SaveGame(ctx context.Context, game *models.Game) error

	Prediction(ctx context.Context, gameID, player string) (*models.Prediction, error)
	// CreatePrediction inserts a new prediction; ErrConflict when the
	// (game, player) pair already exists.
	CreatePrediction(ctx context.Context, p *models.Prediction) error
	SavePrediction(ctx context.Context, p *models.Prediction) error

	// DueGames lists unresolved games whose target date has passed.
	DueGames(ctx context.Context, now int64, limit int) ([]models.Game, error)

	// KeepAlive extends the storage lease on a game's records.
	KeepAlive(ctx context.Context, gameID string)
}

// PriceData is the oracle's latest observation for an asset.
type PriceData struct {
	Price      uint64 `json:"price"`       // smallest units
	ObservedAt int64  `json:"observed_at"` // unix seconds
}

// OracleGateway exposes the price feed's supported assets and latest prices.
type OracleGateway interface {
	Assets(ctx context.Context) ([]string, error)
	// LastPrice returns (nil, nil) when the feed has no observation yet.
	LastPrice(ctx context.Context, asset string) (*PriceData, error)
}

// EscrowGateway moves settlement-asset funds. Every call is fallible and the
// engine never assumes success.
type EscrowGateway interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
}

// Clock supplies the single per-call time read, in unix seconds.
type Clock func() int64
