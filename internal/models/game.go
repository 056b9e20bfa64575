/**
 * @description
 * Game and Prediction database models.
 * Map to the 'games' and 'predictions' tables in PostgreSQL.
 *
 * A Game is one prediction market instance for an asset/target-price/target-date
 * triple. A Prediction is one player's single wager on a Game's outcome; the
 * composite primary key (game_id, player) enforces at most one per player.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import "time"

// GameResult is the resolution state of a Game, and doubles as the side a
// player bets on (only Higher/Lower are valid sides).
type GameResult string

const (
	ResultUnresolved GameResult = "UNRESOLVED"
	ResultHigher     GameResult = "HIGHER"
	ResultLower      GameResult = "LOWER"
	ResultCancelled  GameResult = "CANCELLED"
)

// IsSide reports whether r is a side a player may bet on.
func (r GameResult) IsSide() bool {
	return r == ResultHigher || r == ResultLower
}

// IsTerminal reports whether r is a terminal resolution state.
func (r GameResult) IsTerminal() bool {
	return r == ResultHigher || r == ResultLower || r == ResultCancelled
}

// Game represents one binary-outcome price prediction market
type Game struct {
	// 32-byte caller-supplied identifier, 0x-prefixed hex
	ID string `gorm:"primaryKey;column:id;size:66" json:"id"`

	// The host of the game and whom the fee is shared with
	Host string `gorm:"column:host;not null" json:"host"`

	// Must be one of the oracle's supported assets
	Asset string `gorm:"column:asset;not null;index" json:"asset"`

	// Last prediction time (unix seconds)
	Deadline int64 `gorm:"column:deadline;not null" json:"deadline"`

	// Resolution time (unix seconds); execution is possible from here on
	TargetDate int64 `gorm:"column:target_date;not null;index" json:"target_date"`

	// The price to predict higher-or-lower against, smallest units
	TargetPrice uint64 `gorm:"column:target_price;not null" json:"target_price"`

	HighsDeposit      uint64 `gorm:"column:highs_deposit;not null;default:0" json:"highs_deposit"`
	HighsParticipants uint64 `gorm:"column:highs_participants;not null;default:0" json:"highs_participants"`

	LowsDeposit      uint64 `gorm:"column:lows_deposit;not null;default:0" json:"lows_deposit"`
	LowsParticipants uint64 `gorm:"column:lows_participants;not null;default:0" json:"lows_participants"`

	// Amount distributable to winners after fee
	Prize uint64 `gorm:"column:prize;not null;default:0" json:"prize"`

	// Commission retained from the losing pool, split host/protocol
	Fee uint64 `gorm:"column:fee;not null;default:0" json:"fee"`

	ExecutedAt int64      `gorm:"column:executed_at;not null;default:0" json:"executed_at"`
	Result     GameResult `gorm:"column:result;not null;default:UNRESOLVED;index" json:"result"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Game to `games`
func (Game) TableName() string {
	return "games"
}

// SideDeposit returns the pooled deposit of the given side.
func (g *Game) SideDeposit(side GameResult) uint64 {
	if side == ResultHigher {
		return g.HighsDeposit
	}
	return g.LowsDeposit
}

// Prediction represents one player's wager on a Game
type Prediction struct {
	GameID string     `gorm:"primaryKey;column:game_id;size:66" json:"game_id"`
	Player string     `gorm:"primaryKey;column:player" json:"player"`
	Side   GameResult `gorm:"column:side;not null" json:"side"`

	// Stake in smallest units (7 fractional decimals)
	Deposit uint64 `gorm:"column:deposit;not null" json:"deposit"`

	// Placement time (unix seconds)
	PlacedAt int64 `gorm:"column:placed_at;not null" json:"placed_at"`

	// Prorated reward, computed at withdrawal
	Prize   uint64 `gorm:"column:prize;not null;default:0" json:"prize"`
	Claimed bool   `gorm:"column:claimed;not null;default:false" json:"claimed"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Prediction to `predictions`
func (Prediction) TableName() string {
	return "predictions"
}
