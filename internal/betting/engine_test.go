package betting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pricebet-project/backend/internal/betting"
	"github.com/pricebet-project/backend/internal/escrow"
	"github.com/pricebet-project/backend/internal/ledger"
	"github.com/pricebet-project/backend/internal/models"
	"github.com/pricebet-project/backend/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	treasury = "0x00000000000000000000000000000000000fee5"
	admin    = "0xad111111111111111111111111111111111111"
	feeTaker = "0xfe222222222222222222222222222222222222"
	host     = "0xh0333333333333333333333333333333333333"
	alice    = "0xa1444444444444444444444444444444444444"
	bob      = "0xb0555555555555555555555555555555555555"
	carol    = "0xca666666666666666666666666666666666666"

	gameID      = "0xabababababababababababababababababababababababababababababababab"
	otherGameID = "0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd"

	baseTime = int64(1_700_000_000)

	// 10% of the losing pool, Scale-denominated
	testFeeRate = uint64(1_000_000)
)

type fixture struct {
	t      *testing.T
	store  *ledger.Memory
	prices *oracle.Memory
	funds  *escrow.Memory
	engine *betting.Engine
	now    int64
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t, now: baseTime}
	f.store = ledger.NewMemory()
	f.store.Now = func() int64 { return f.now }
	f.prices = oracle.NewMemory("BTC", "ETH")
	f.funds = escrow.NewMemory(map[string]uint64{
		alice: 10_000 * betting.Scale,
		bob:   10_000 * betting.Scale,
		carol: 10_000 * betting.Scale,
	})
	f.engine = betting.NewEngine(f.store, f.prices, f.funds, treasury, func() int64 { return f.now })
	return f
}

func (f *fixture) initiated() *fixture {
	require.NoError(f.t, f.engine.Init(context.Background(), admin, feeTaker, testFeeRate, "0xtoken", "0xoracle"))
	return f
}

// createGame opens a game on BTC with a 2h prediction window, resolving in
// two days, against a target price of 100.0.
func (f *fixture) createGame(id string) *models.Game {
	game, err := f.engine.CreateGame(context.Background(), id, host, "BTC",
		f.now+7200, f.now+2*86400, 100*betting.Scale)
	require.NoError(f.t, err)
	return game
}

func (f *fixture) predict(player string, side models.GameResult, deposit uint64) {
	_, err := f.engine.PlacePrediction(context.Background(), gameID, player, side, deposit)
	require.NoError(f.t, err)
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Init(ctx, admin, feeTaker, testFeeRate, "0xtoken", "0xoracle"))

	err := f.engine.Init(ctx, admin, feeTaker, testFeeRate, "0xtoken", "0xoracle")
	require.ErrorIs(t, err, betting.ErrAlreadyInitiated)

	code, ok := betting.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, betting.CodeAlreadyInitiated, code)
}

func TestInitRejectsFeeRateAboveScale(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Init(context.Background(), admin, feeTaker, betting.Scale+1, "0xtoken", "0xoracle")
	require.ErrorIs(t, err, betting.ErrInvalidFeeRate)

	// A 100% fee rate is the inclusive maximum.
	require.NoError(t, f.engine.Init(context.Background(), admin, feeTaker, betting.Scale, "0xtoken", "0xoracle"))
}

func TestOperationsRequireInit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateGame(ctx, gameID, host, "BTC", f.now+7200, f.now+2*86400, 100*betting.Scale)
	require.ErrorIs(t, err, betting.ErrNotInitiated)

	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, betting.MinStake)
	require.ErrorIs(t, err, betting.ErrNotInitiated)

	_, err = f.engine.ExecuteGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrNotInitiated)
}

func TestUpgrade(t *testing.T) {
	f := newFixture(t).initiated()
	ctx := context.Background()

	err := f.engine.Upgrade(ctx, alice, otherGameID)
	require.ErrorIs(t, err, betting.ErrUnauthorized)

	// Mixed-case input is stored canonically.
	mixed := "0xCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCD"
	require.NoError(t, f.engine.Upgrade(ctx, admin, mixed))

	core, err := f.store.Core(ctx)
	require.NoError(t, err)
	assert.Equal(t, otherGameID, core.CodeHash)

	err = f.engine.Upgrade(ctx, admin, "0xnothex")
	require.Error(t, err)
}

func TestUpdateAddress(t *testing.T) {
	f := newFixture(t).initiated()
	ctx := context.Background()

	err := f.engine.UpdateAddress(ctx, alice, betting.UpdateFeeTaker, bob)
	require.ErrorIs(t, err, betting.ErrUnauthorized)

	err = f.engine.UpdateAddress(ctx, admin, betting.UpdateTarget("BOGUS"), bob)
	require.Error(t, err)

	err = f.engine.UpdateAddress(ctx, admin, betting.UpdateFeeTaker, "")
	require.Error(t, err)

	require.NoError(t, f.engine.UpdateAddress(ctx, admin, betting.UpdateAdmin, carol))

	// The old admin lost its authority with the rotation.
	err = f.engine.UpdateAddress(ctx, admin, betting.UpdateFeeTaker, bob)
	require.ErrorIs(t, err, betting.ErrUnauthorized)
	require.NoError(t, f.engine.UpdateAddress(ctx, carol, betting.UpdateFeeTaker, bob))

	core, err := f.store.Core(ctx)
	require.NoError(t, err)
	assert.Equal(t, carol, core.Admin)
	assert.Equal(t, bob, core.FeeTaker)
}

func TestCreateGame(t *testing.T) {
	f := newFixture(t).initiated()

	game := f.createGame(gameID)
	assert.Equal(t, gameID, game.ID)
	assert.Equal(t, host, game.Host)
	assert.Equal(t, models.ResultUnresolved, game.Result)
	assert.Zero(t, game.HighsDeposit)
	assert.Zero(t, game.LowsDeposit)

	// No funds move at creation.
	assert.Zero(t, f.funds.Balance(treasury))
	assert.Empty(t, f.funds.Journal())

	_, err := f.engine.CreateGame(context.Background(), gameID, host, "BTC",
		f.now+7200, f.now+2*86400, 100*betting.Scale)
	require.ErrorIs(t, err, betting.ErrGameAlreadyExists)
}

func TestCreateGameValidation(t *testing.T) {
	f := newFixture(t).initiated()
	ctx := context.Background()
	target := f.now + 2*86400

	tests := []struct {
		name       string
		id         string
		asset      string
		deadline   int64
		targetDate int64
		want       error
	}{
		{"unsupported asset", gameID, "DOGE", f.now + 7200, target, betting.ErrInvalidAsset},
		{"deadline below one hour", gameID, "BTC", f.now + 3599, target, betting.ErrInvalidDeadline},
		{"deadline after target date", gameID, "BTC", target + 1, target, betting.ErrInvalidDeadline},
		{"target date below one day", gameID, "BTC", f.now + 3600, f.now + 86399, betting.ErrInvalidTargetDate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateGame(ctx, tc.id, host, tc.asset, tc.deadline, tc.targetDate, 100*betting.Scale)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// A malformed id is plain input validation, not a coded lookup miss.
	_, err := f.engine.CreateGame(ctx, "0x1234", host, "BTC", f.now+7200, target, 100*betting.Scale)
	require.Error(t, err)
	_, coded := betting.CodeOf(err)
	assert.False(t, coded)

	// Nothing was persisted by the failed attempts.
	_, err = f.engine.GetGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrGameDoesntExist)

	// The boundary values themselves are accepted.
	_, err = f.engine.CreateGame(ctx, gameID, host, "BTC", f.now+3600, f.now+86400, 100*betting.Scale)
	require.NoError(t, err)
}

func TestCreateGameAssetMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t).initiated()

	_, err := f.engine.CreateGame(context.Background(), gameID, host, "btc",
		f.now+7200, f.now+2*86400, 100*betting.Scale)
	require.NoError(t, err)
}

func TestPlacePrediction(t *testing.T) {
	f := newFixture(t).initiated()
	f.createGame(gameID)
	ctx := context.Background()

	p, err := f.engine.PlacePrediction(ctx, gameID, alice, models.ResultLower, 700*betting.Scale)
	require.NoError(t, err)
	assert.Equal(t, alice, p.Player)
	assert.Equal(t, models.ResultLower, p.Side)
	assert.Equal(t, 700*betting.Scale, p.Deposit)
	assert.False(t, p.Claimed)

	game, err := f.engine.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, 700*betting.Scale, game.LowsDeposit)
	assert.Equal(t, uint64(1), game.LowsParticipants)
	assert.Zero(t, game.HighsDeposit)

	// The stake moved into escrow.
	assert.Equal(t, 700*betting.Scale, f.funds.Balance(treasury))
	assert.Equal(t, 9_300*betting.Scale, f.funds.Balance(alice))
}

func TestPlacePredictionValidation(t *testing.T) {
	f := newFixture(t).initiated()
	f.createGame(gameID)
	ctx := context.Background()

	_, err := f.engine.PlacePrediction(ctx, gameID, "", models.ResultHigher, betting.MinStake)
	require.ErrorIs(t, err, betting.ErrUnauthorized)

	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultCancelled, betting.MinStake)
	require.ErrorIs(t, err, betting.ErrInvalidPredictionResult)

	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, betting.MinStake-1)
	require.ErrorIs(t, err, betting.ErrInvalidPredictionAmount)

	_, err = f.engine.PlacePrediction(ctx, otherGameID, alice, models.ResultHigher, betting.MinStake)
	require.ErrorIs(t, err, betting.ErrGameDoesntExist)

	// Exactly the minimum stake is accepted.
	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, betting.MinStake)
	require.NoError(t, err)
}

func TestPlacePredictionDeadline(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	ctx := context.Background()

	// The deadline instant itself is closed.
	f.now = game.Deadline
	_, err := f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, betting.MinStake)
	require.ErrorIs(t, err, betting.ErrGameDeadlineReached)

	f.now = game.Deadline - 1
	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, betting.MinStake)
	require.NoError(t, err)
}

func TestPlacePredictionOncePerPlayer(t *testing.T) {
	f := newFixture(t).initiated()
	f.createGame(gameID)
	ctx := context.Background()

	f.predict(alice, models.ResultHigher, 100*betting.Scale)

	// A second wager is rejected even on the opposite side.
	_, err := f.engine.PlacePrediction(ctx, gameID, alice, models.ResultLower, 200*betting.Scale)
	require.ErrorIs(t, err, betting.ErrAlreadyPredicted)

	game, err := f.engine.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, 100*betting.Scale, game.HighsDeposit)
	assert.Equal(t, uint64(1), game.HighsParticipants)
	assert.Zero(t, game.LowsDeposit)
	assert.Equal(t, 100*betting.Scale, f.funds.Balance(treasury))
}

func TestPlacePredictionDepositFailureRollsBack(t *testing.T) {
	f := newFixture(t).initiated()
	f.createGame(gameID)
	ctx := context.Background()

	f.funds.Fail(errors.New("rpc timeout"))
	_, err := f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, 100*betting.Scale)
	require.ErrorIs(t, err, betting.ErrFailedToDeposit)

	// Neither the prediction nor the counters survived the rollback.
	_, err = f.engine.GetPrediction(ctx, gameID, alice)
	require.ErrorIs(t, err, betting.ErrPredictionDoesntExist)

	game, err := f.engine.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Zero(t, game.HighsDeposit)
	assert.Zero(t, game.HighsParticipants)

	// The same wager succeeds once the escrow recovers.
	f.funds.Fail(nil)
	_, err = f.engine.PlacePrediction(ctx, gameID, alice, models.ResultHigher, 100*betting.Scale)
	require.NoError(t, err)
}

// resolvedLowerGame sets up the canonical fee scenario: bob stakes 300 on
// Higher, alice 700 on Lower, and the price lands below the target.
func resolvedLowerGame(t *testing.T) (*fixture, *models.Game) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)

	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)

	f.now = game.TargetDate
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)

	resolved, err := f.engine.ExecuteGame(context.Background(), gameID)
	require.NoError(t, err)
	return f, resolved
}

func TestExecuteGame(t *testing.T) {
	f, game := resolvedLowerGame(t)

	assert.Equal(t, models.ResultLower, game.Result)
	assert.Equal(t, f.now, game.ExecutedAt)

	// 10% of the losing (Higher) pool of 300.
	assert.Equal(t, 30*betting.Scale, game.Fee)
	assert.Equal(t, 270*betting.Scale, game.Prize)
	assert.Equal(t, game.Fee+game.Prize, game.HighsDeposit)

	// The fee splits evenly between host and protocol.
	assert.Equal(t, 15*betting.Scale, f.funds.Balance(host))
	assert.Equal(t, 15*betting.Scale, f.funds.Balance(feeTaker))

	_, err := f.engine.ExecuteGame(context.Background(), gameID)
	require.ErrorIs(t, err, betting.ErrGameAlreadyExecuted)
}

func TestExecuteGameBeforeTargetDate(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)

	f.now = game.TargetDate - 1
	_, err := f.engine.ExecuteGame(context.Background(), gameID)
	require.ErrorIs(t, err, betting.ErrGameCantBeExecuted)
}

func TestExecuteGamePriceAtTargetResolvesHigher(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)

	f.now = game.TargetDate
	f.prices.SetPrice("BTC", game.TargetPrice, game.TargetDate)

	resolved, err := f.engine.ExecuteGame(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultHigher, resolved.Result)
	// The losing pool is the Lower side now.
	assert.Equal(t, 70*betting.Scale, resolved.Fee)
	assert.Equal(t, 630*betting.Scale, resolved.Prize)
}

func TestExecuteGamePriceFreshness(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)
	ctx := context.Background()

	f.now = game.TargetDate + 60

	// No observation at all.
	_, err := f.engine.ExecuteGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrAssetPriceNotFound)

	// An observation from before the target date does not count.
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate-1)
	_, err = f.engine.ExecuteGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrAssetPriceIsNotUpdated)

	unresolved, err := f.engine.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultUnresolved, unresolved.Result)

	// Retry succeeds once the feed catches up.
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)
	resolved, err := f.engine.ExecuteGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultLower, resolved.Result)
}

func TestExecuteGameCancelsOnEmptySide(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	ctx := context.Background()

	f.now = game.TargetDate
	journalBefore := len(f.funds.Journal())

	resolved, err := f.engine.ExecuteGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultCancelled, resolved.Result)
	assert.Zero(t, resolved.Fee)
	assert.Zero(t, resolved.Prize)

	// Cancellation moves no funds, even with a missing price.
	assert.Len(t, f.funds.Journal(), journalBefore)

	// And a cancelled game has no withdrawal path.
	_, err = f.engine.Withdraw(ctx, gameID, bob)
	require.ErrorIs(t, err, betting.ErrGameHasNotBeenExecuted)
}

func TestExecuteGameFeePayoutFailureRollsBack(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)
	ctx := context.Background()

	f.now = game.TargetDate
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)

	f.funds.FailTo(host, errors.New("host wallet frozen"))
	_, err := f.engine.ExecuteGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrFailedToPayHostShare)

	f.funds.FailTo(host, nil)
	f.funds.FailTo(feeTaker, errors.New("protocol wallet frozen"))
	_, err = f.engine.ExecuteGame(ctx, gameID)
	require.ErrorIs(t, err, betting.ErrFailedToPayProtocolShare)

	// The game stays unresolved and executable.
	unresolved, err := f.engine.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultUnresolved, unresolved.Result)

	f.funds.FailTo(feeTaker, nil)
	_, err = f.engine.ExecuteGame(ctx, gameID)
	require.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	f, _ := resolvedLowerGame(t)
	ctx := context.Background()

	// Sole winner: own 700 back plus the whole 270 prize.
	amount, err := f.engine.Withdraw(ctx, gameID, alice)
	require.NoError(t, err)
	assert.Equal(t, 970*betting.Scale, amount)
	assert.Equal(t, (10_000-700+970)*betting.Scale, f.funds.Balance(alice))

	p, err := f.engine.GetPrediction(ctx, gameID, alice)
	require.NoError(t, err)
	assert.True(t, p.Claimed)
	assert.Equal(t, 270*betting.Scale, p.Prize)

	_, err = f.engine.Withdraw(ctx, gameID, alice)
	require.ErrorIs(t, err, betting.ErrPredictionAlreadyClaimed)

	// The loser has nothing to claim.
	_, err = f.engine.Withdraw(ctx, gameID, bob)
	require.ErrorIs(t, err, betting.ErrPredictionWasIncorrect)

	// Bystanders never predicted.
	_, err = f.engine.Withdraw(ctx, gameID, carol)
	require.ErrorIs(t, err, betting.ErrPredictionDoesntExist)
}

func TestWithdrawBeforeExecution(t *testing.T) {
	f := newFixture(t).initiated()
	f.createGame(gameID)
	f.predict(alice, models.ResultLower, 700*betting.Scale)

	_, err := f.engine.Withdraw(context.Background(), gameID, alice)
	require.ErrorIs(t, err, betting.ErrGameHasNotBeenExecuted)
}

func TestWithdrawTransferFailureLeavesClaimable(t *testing.T) {
	f, _ := resolvedLowerGame(t)
	ctx := context.Background()

	f.funds.FailTo(alice, errors.New("rpc timeout"))
	_, err := f.engine.Withdraw(ctx, gameID, alice)
	require.ErrorIs(t, err, betting.ErrFailedToWithdrawFunds)

	// The claimed flag rolled back with the transaction.
	p, err := f.engine.GetPrediction(ctx, gameID, alice)
	require.NoError(t, err)
	assert.False(t, p.Claimed)

	f.funds.FailTo(alice, nil)
	amount, err := f.engine.Withdraw(ctx, gameID, alice)
	require.NoError(t, err)
	assert.Equal(t, 970*betting.Scale, amount)
}

func TestWithdrawConservation(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	ctx := context.Background()

	// Two winners split the prize prorated; 700 does not divide evenly.
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 400*betting.Scale)
	f.predict(carol, models.ResultLower, 300*betting.Scale)

	f.now = game.TargetDate
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)

	resolved, err := f.engine.ExecuteGame(ctx, gameID)
	require.NoError(t, err)
	require.Equal(t, models.ResultLower, resolved.Result)
	assert.Equal(t, resolved.HighsDeposit, resolved.Fee+resolved.Prize)

	got1, err := f.engine.Withdraw(ctx, gameID, alice)
	require.NoError(t, err)
	got2, err := f.engine.Withdraw(ctx, gameID, carol)
	require.NoError(t, err)

	// Winners get their own stakes back plus at most the prize; flooring
	// leaves any remainder in the treasury rather than overpaying.
	rewards := got1 + got2 - resolved.LowsDeposit
	assert.LessOrEqual(t, rewards, resolved.Prize)

	// Every unit is accounted for across treasury, winners, host and protocol.
	assert.Equal(t, resolved.Prize-rewards, f.funds.Balance(treasury))
	assert.Equal(t, resolved.Fee, f.funds.Balance(host)+f.funds.Balance(feeTaker))
}

func TestLeaseExpiryDoesNotChangeOutcomes(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	require.True(t, f.store.LeaseActive(gameID))

	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)

	// All leases lapse; the authoritative records are unaffected.
	f.store.ExpireLeases()
	require.False(t, f.store.LeaseActive(gameID))

	f.now = game.TargetDate
	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)

	resolved, err := f.engine.ExecuteGame(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultLower, resolved.Result)

	amount, err := f.engine.Withdraw(context.Background(), gameID, alice)
	require.NoError(t, err)
	assert.Equal(t, 970*betting.Scale, amount)
}

func TestDueGames(t *testing.T) {
	f := newFixture(t).initiated()
	game := f.createGame(gameID)
	f.predict(bob, models.ResultHigher, 300*betting.Scale)
	f.predict(alice, models.ResultLower, 700*betting.Scale)
	ctx := context.Background()

	due, err := f.engine.DueGames(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.now = game.TargetDate
	due, err = f.engine.DueGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, gameID, due[0].ID)

	f.prices.SetPrice("BTC", 90*betting.Scale, game.TargetDate)
	_, err = f.engine.ExecuteGame(ctx, gameID)
	require.NoError(t, err)

	due, err = f.engine.DueGames(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestNormalizeGameID(t *testing.T) {
	canonical := "0x" + "ab" + "cd" +
		"0123456789abcdef0123456789abcdef0123456789abcdef0123456789ab"

	got, err := betting.NormalizeGameID(canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, got)

	// Uppercase and missing prefix both normalize to the same id.
	got, err = betting.NormalizeGameID("0xABCD" + "0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789AB")
	require.NoError(t, err)
	assert.Equal(t, canonical, got)

	got, err = betting.NormalizeGameID(canonical[2:])
	require.NoError(t, err)
	assert.Equal(t, canonical, got)

	_, err = betting.NormalizeGameID("0x1234")
	require.Error(t, err)

	_, err = betting.NormalizeGameID("0x" + "zz" + canonical[4:])
	require.Error(t, err)
}
