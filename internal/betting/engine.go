/**
 * @description
 * The betting engine: the state machine and escrow/payout arithmetic for
 * binary-outcome price-prediction games.
 *
 * Lifecycle: Init (once) → CreateGame → PlacePrediction (until deadline) →
 * ExecuteGame (from target date) → Withdraw (winners, once each).
 * Game.result moves exactly once, Unresolved → {Higher, Lower, Cancelled}.
 *
 * Every operation runs as one ledger transaction: storage writes and
 * outbound transfers commit together or not at all. Identity verification
 * happens upstream (auth middleware); the engine receives already-verified
 * caller addresses.
 *
 * @dependencies
 * - backend/internal/models
 * - Ledger / OracleGateway / EscrowGateway (see gateways.go)
 */

package betting

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pricebet-project/backend/internal/models"
)

const (
	// A game must stay open for predictions for at least an hour
	minDeadlineLead = 3600
	// and cannot resolve sooner than a day after creation.
	minTargetLead = 86400
)

// UpdateTarget selects which CoreConfig field UpdateAddress rotates.
type UpdateTarget string

const (
	UpdateAdmin       UpdateTarget = "ADMIN"
	UpdateFeeTaker    UpdateTarget = "FEE_TAKER"
	UpdatePayingAsset UpdateTarget = "PAYING_ASSET"
	UpdateOracle      UpdateTarget = "ORACLE"
)

// Engine is the betting state machine.
type Engine struct {
	ledger   Ledger
	oracle   OracleGateway
	escrow   EscrowGateway
	treasury string // escrow account holding pooled deposits
	now      Clock
}

// NewEngine wires the engine to its collaborators. A nil clock defaults to
// wall time; tests inject a fixed one.
func NewEngine(ledger Ledger, oracle OracleGateway, escrow EscrowGateway, treasury string, clock Clock) *Engine {
	if clock == nil {
		clock = func() int64 { return time.Now().Unix() }
	}
	return &Engine{
		ledger:   ledger,
		oracle:   oracle,
		escrow:   escrow,
		treasury: treasury,
		now:      clock,
	}
}

// NormalizeGameID validates a caller-supplied 32-byte game identifier and
// returns its canonical lowercase 0x-prefixed hex form.
func NormalizeGameID(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	raw := strings.TrimPrefix(id, "0x")
	if len(raw) != 64 {
		return "", fmt.Errorf("game id must be 32 bytes of hex, got %d chars", len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("game id is not valid hex: %w", err)
	}
	return "0x" + raw, nil
}

// Init creates the singleton core configuration. Callable exactly once.
func (e *Engine) Init(ctx context.Context, admin, feeTaker string, feeRate uint64, payingAsset, oracle string) error {
	if feeRate > Scale {
		return ErrInvalidFeeRate
	}
	return e.ledger.Transaction(ctx, func(tx Ledger) error {
		core, err := tx.Core(ctx)
		if err != nil {
			return err
		}
		if core != nil {
			return ErrAlreadyInitiated
		}
		return tx.SaveCore(ctx, &models.CoreConfig{
			ID:          models.CoreConfigID,
			Admin:       admin,
			FeeTaker:    feeTaker,
			FeeRate:     feeRate,
			PayingAsset: payingAsset,
			Oracle:      oracle,
		})
	})
}

// Upgrade records the 32-byte release hash the deployment should be running.
// Admin only.
func (e *Engine) Upgrade(ctx context.Context, caller, codeHash string) error {
	hash, err := NormalizeGameID(codeHash) // same 32-byte hex shape
	if err != nil {
		return fmt.Errorf("invalid code hash: %w", err)
	}
	return e.ledger.Transaction(ctx, func(tx Ledger) error {
		core, err := e.requireAdmin(ctx, tx, caller)
		if err != nil {
			return err
		}
		core.CodeHash = hash
		return tx.SaveCore(ctx, core)
	})
}

// UpdateAddress rotates one CoreConfig field. Admin only.
func (e *Engine) UpdateAddress(ctx context.Context, caller string, target UpdateTarget, address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("address cannot be empty")
	}
	return e.ledger.Transaction(ctx, func(tx Ledger) error {
		core, err := e.requireAdmin(ctx, tx, caller)
		if err != nil {
			return err
		}
		switch target {
		case UpdateAdmin:
			core.Admin = address
		case UpdateFeeTaker:
			core.FeeTaker = address
		case UpdatePayingAsset:
			core.PayingAsset = address
		case UpdateOracle:
			core.Oracle = address
		default:
			return fmt.Errorf("unknown update target %q", target)
		}
		return tx.SaveCore(ctx, core)
	})
}

// CreateGame opens a new prediction market. No funds move.
func (e *Engine) CreateGame(ctx context.Context, id, host, asset string, deadline, targetDate int64, targetPrice uint64) (*models.Game, error) {
	gameID, err := NormalizeGameID(id)
	if err != nil {
		// There is no game to miss yet; this is plain input validation.
		return nil, fmt.Errorf("invalid game id: %w", err)
	}
	now := e.now()

	var game *models.Game
	err = e.ledger.Transaction(ctx, func(tx Ledger) error {
		if err := e.requireInitiated(ctx, tx); err != nil {
			return err
		}

		supported, err := e.oracle.Assets(ctx)
		if err != nil {
			return fmt.Errorf("listing oracle assets: %w", err)
		}
		if !containsFold(supported, asset) {
			return ErrInvalidAsset
		}

		existing, err := tx.Game(ctx, gameID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrGameAlreadyExists
		}

		if deadline < now+minDeadlineLead || deadline > targetDate {
			return ErrInvalidDeadline
		}
		if targetDate < now+minTargetLead {
			return ErrInvalidTargetDate
		}

		game = &models.Game{
			ID:          gameID,
			Host:        host,
			Asset:       asset,
			Deadline:    deadline,
			TargetDate:  targetDate,
			TargetPrice: targetPrice,
			Result:      models.ResultUnresolved,
		}
		if err := tx.CreateGame(ctx, game); err != nil {
			if errors.Is(err, ErrConflict) {
				return ErrGameAlreadyExists
			}
			return err
		}
		tx.KeepAlive(ctx, gameID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// PlacePrediction stakes deposit on one side of a game. The prediction row,
// the game counters, and the escrow deposit commit as one atomic unit.
func (e *Engine) PlacePrediction(ctx context.Context, gameID, caller string, side models.GameResult, deposit uint64) (*models.Prediction, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, ErrUnauthorized
	}
	id, err := NormalizeGameID(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameDoesntExist, err)
	}
	if !side.IsSide() {
		return nil, ErrInvalidPredictionResult
	}
	if deposit < MinStake {
		return nil, ErrInvalidPredictionAmount
	}
	now := e.now()

	var prediction *models.Prediction
	err = e.ledger.Transaction(ctx, func(tx Ledger) error {
		if err := e.requireInitiated(ctx, tx); err != nil {
			return err
		}

		game, err := tx.GameForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if game == nil {
			return ErrGameDoesntExist
		}
		if now >= game.Deadline {
			return ErrGameDeadlineReached
		}

		existing, err := tx.Prediction(ctx, id, caller)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyPredicted
		}

		prediction = &models.Prediction{
			GameID:   id,
			Player:   caller,
			Side:     side,
			Deposit:  deposit,
			PlacedAt: now,
		}
		if err := tx.CreatePrediction(ctx, prediction); err != nil {
			if errors.Is(err, ErrConflict) {
				return ErrAlreadyPredicted
			}
			return err
		}

		switch side {
		case models.ResultHigher:
			game.HighsDeposit = checkedAdd(game.HighsDeposit, deposit)
			game.HighsParticipants++
		case models.ResultLower:
			game.LowsDeposit = checkedAdd(game.LowsDeposit, deposit)
			game.LowsParticipants++
		}

		if err := e.escrow.Transfer(ctx, caller, e.treasury, deposit); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToDeposit, err)
		}

		if err := tx.SaveGame(ctx, game); err != nil {
			return err
		}
		tx.KeepAlive(ctx, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

// ExecuteGame resolves a game once its target date has passed. A game with an
// empty side cancels with no fee, no prize and no transfers; otherwise the
// oracle price decides the outcome and the fee is paid out host/protocol.
func (e *Engine) ExecuteGame(ctx context.Context, gameID string) (*models.Game, error) {
	id, err := NormalizeGameID(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameDoesntExist, err)
	}
	now := e.now()

	var resolved *models.Game
	err = e.ledger.Transaction(ctx, func(tx Ledger) error {
		core, err := tx.Core(ctx)
		if err != nil {
			return err
		}
		if core == nil {
			return ErrNotInitiated
		}

		game, err := tx.GameForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if game == nil {
			return ErrGameDoesntExist
		}
		if game.Result != models.ResultUnresolved {
			return ErrGameAlreadyExecuted
		}
		if now < game.TargetDate {
			return ErrGameCantBeExecuted
		}

		if game.HighsParticipants == 0 || game.LowsParticipants == 0 {
			// Nobody to pay out against: cancel, no fee, no transfers.
			game.Result = models.ResultCancelled
		} else {
			latest, err := e.oracle.LastPrice(ctx, game.Asset)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrAssetPriceNotFound, err)
			}
			if latest == nil {
				return ErrAssetPriceNotFound
			}
			if latest.ObservedAt < game.TargetDate {
				// Feed is stale; callers retry once it catches up.
				return ErrAssetPriceIsNotUpdated
			}

			var loserDeposit uint64
			if latest.Price < game.TargetPrice {
				game.Result = models.ResultLower
				loserDeposit = game.HighsDeposit
			} else {
				game.Result = models.ResultHigher
				loserDeposit = game.LowsDeposit
			}
			game.Fee = FeeOf(loserDeposit, core.FeeRate)
			game.Prize = loserDeposit - game.Fee

			hostShare := game.Fee / 2
			protocolShare := game.Fee - hostShare // protocol absorbs the odd unit

			if err := e.escrow.Transfer(ctx, e.treasury, game.Host, hostShare); err != nil {
				return fmt.Errorf("%w: %v", ErrFailedToPayHostShare, err)
			}
			if err := e.escrow.Transfer(ctx, e.treasury, core.FeeTaker, protocolShare); err != nil {
				return fmt.Errorf("%w: %v", ErrFailedToPayProtocolShare, err)
			}
		}

		game.ExecutedAt = now
		if err := tx.SaveGame(ctx, game); err != nil {
			return err
		}
		tx.KeepAlive(ctx, id)
		resolved = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Withdraw pays a winning prediction: the player's own deposit plus their
// prorated share of the prize. The claimed flag and the transfer commit
// atomically, so a failed transfer leaves the prediction claimable.
func (e *Engine) Withdraw(ctx context.Context, gameID, caller string) (uint64, error) {
	if strings.TrimSpace(caller) == "" {
		return 0, ErrUnauthorized
	}
	id, err := NormalizeGameID(gameID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGameDoesntExist, err)
	}

	var amount uint64
	err = e.ledger.Transaction(ctx, func(tx Ledger) error {
		if err := e.requireInitiated(ctx, tx); err != nil {
			return err
		}

		game, err := tx.GameForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if game == nil {
			return ErrGameDoesntExist
		}
		if !game.Result.IsSide() {
			// Unresolved and Cancelled games have no withdrawal path.
			return ErrGameHasNotBeenExecuted
		}

		prediction, err := tx.Prediction(ctx, id, caller)
		if err != nil {
			return err
		}
		if prediction == nil {
			return ErrPredictionDoesntExist
		}
		if prediction.Side != game.Result {
			return ErrPredictionWasIncorrect
		}
		if prediction.Claimed {
			return ErrPredictionAlreadyClaimed
		}

		participation := ParticipationOf(prediction.Deposit, game.SideDeposit(game.Result))
		reward := RewardOf(game.Prize, participation)

		prediction.Prize = reward
		prediction.Claimed = true
		if err := tx.SavePrediction(ctx, prediction); err != nil {
			return err
		}

		amount = checkedAdd(prediction.Deposit, reward)
		if err := e.escrow.Transfer(ctx, e.treasury, caller, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToWithdrawFunds, err)
		}
		tx.KeepAlive(ctx, id)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// GetGame returns a game by id.
func (e *Engine) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	id, err := NormalizeGameID(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameDoesntExist, err)
	}
	game, err := e.ledger.Game(ctx, id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameDoesntExist
	}
	return game, nil
}

// GetPrediction returns a player's prediction on a game.
func (e *Engine) GetPrediction(ctx context.Context, gameID, player string) (*models.Prediction, error) {
	id, err := NormalizeGameID(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameDoesntExist, err)
	}
	prediction, err := e.ledger.Prediction(ctx, id, player)
	if err != nil {
		return nil, err
	}
	if prediction == nil {
		return nil, ErrPredictionDoesntExist
	}
	return prediction, nil
}

// DueGames lists unresolved games past their target date; the worker feeds
// these back into ExecuteGame.
func (e *Engine) DueGames(ctx context.Context, limit int) ([]models.Game, error) {
	return e.ledger.DueGames(ctx, e.now(), limit)
}

func (e *Engine) requireInitiated(ctx context.Context, tx Ledger) error {
	core, err := tx.Core(ctx)
	if err != nil {
		return err
	}
	if core == nil {
		return ErrNotInitiated
	}
	return nil
}

func (e *Engine) requireAdmin(ctx context.Context, tx Ledger, caller string) (*models.CoreConfig, error) {
	core, err := tx.Core(ctx)
	if err != nil {
		return nil, err
	}
	if core == nil {
		return nil, ErrNotInitiated
	}
	if !strings.EqualFold(strings.TrimSpace(caller), strings.TrimSpace(core.Admin)) {
		return nil, ErrUnauthorized
	}
	return core, nil
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
