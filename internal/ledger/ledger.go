/**
 * @description
 * GameLedger: keyed storage for CoreConfig, Game and Prediction records.
 * Postgres (GORM) is authoritative; Redis carries a leased read-mirror of
 * game records. Leases are storage housekeeping only: engine transactions
 * always read Postgres, the mirror serves plain lookups, and an expired
 * lease only costs a cache miss, never a business outcome.
 *
 * Uniqueness races (two creates for the same key) surface as Postgres
 * 23505 unique violations and are mapped to betting.ErrConflict so the
 * engine can translate them into its numbered errors.
 *
 * @dependencies
 * - gorm.io/gorm, gorm.io/gorm/clause
 * - github.com/jackc/pgx/v5/pgconn: unique-violation detection
 * - github.com/redis/go-redis/v9: read-mirror + leases
 */

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pricebet-project/backend/internal/betting"
	"github.com/pricebet-project/backend/internal/logger"
	"github.com/pricebet-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	gameMirrorPrefix       = "ledger:game:"
	predictionMirrorPrefix = "ledger:prediction:"

	// LeaseTTL is how long a mirrored record stays retrievable without a
	// touch; KeepAlive re-extends it.
	LeaseTTL = 30 * 24 * time.Hour

	pgUniqueViolation = "23505"
)

// Store is the production GameLedger.
type Store struct {
	db   *gorm.DB
	rdb  *redis.Client // optional; nil disables the mirror
	inTx bool
}

// New creates a Store. rdb may be nil.
func New(db *gorm.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

// AutoMigrate creates/updates the ledger tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.CoreConfig{},
		&models.Game{},
		&models.Prediction{},
		&models.PriceHistory{},
	)
}

// Transaction runs fn against a transactional view. The mirror is bypassed
// inside transactions so every read sees the locked, current row.
func (s *Store) Transaction(ctx context.Context, fn func(tx betting.Ledger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, rdb: s.rdb, inTx: true})
	})
}

func (s *Store) Core(ctx context.Context) (*models.CoreConfig, error) {
	var core models.CoreConfig
	err := s.db.WithContext(ctx).First(&core, models.CoreConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &core, nil
}

func (s *Store) SaveCore(ctx context.Context, core *models.CoreConfig) error {
	core.ID = models.CoreConfigID
	return s.db.WithContext(ctx).Save(core).Error
}

func (s *Store) Game(ctx context.Context, id string) (*models.Game, error) {
	if !s.inTx {
		if game := s.mirroredGame(ctx, id); game != nil {
			return game, nil
		}
	}

	var game models.Game
	err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !s.inTx {
		s.mirrorGame(ctx, &game)
	}
	return &game, nil
}

func (s *Store) GameForUpdate(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	if err := s.db.WithContext(ctx).Create(game).Error; err != nil {
		return mapDuplicate(err)
	}
	return nil
}

func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	if err := s.db.WithContext(ctx).Save(game).Error; err != nil {
		return err
	}
	// Drop the stale mirror entry; the next plain read refills it.
	s.dropMirror(ctx, gameMirrorPrefix+game.ID)
	return nil
}

func (s *Store) Prediction(ctx context.Context, gameID, player string) (*models.Prediction, error) {
	var p models.Prediction
	err := s.db.WithContext(ctx).
		First(&p, "game_id = ? AND player = ?", gameID, player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return mapDuplicate(err)
	}
	return nil
}

func (s *Store) SavePrediction(ctx context.Context, p *models.Prediction) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return err
	}
	s.dropMirror(ctx, predictionMirrorPrefix+p.GameID+":"+p.Player)
	return nil
}

func (s *Store) DueGames(ctx context.Context, now int64, limit int) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("result = ? AND target_date <= ?", models.ResultUnresolved, now).
		Order("target_date ASC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// KeepAlive extends the mirror lease for a game. Best-effort: failures are
// logged, never propagated, and never change what Postgres holds.
func (s *Store) KeepAlive(ctx context.Context, gameID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Expire(ctx, gameMirrorPrefix+gameID, LeaseTTL).Err(); err != nil {
		logger.Error("lease extension failed for game %s: %v", gameID, err)
	}
}

// ActiveAssets returns the distinct asset symbols of unresolved games,
// i.e. the symbols the price feed must keep streaming.
func (s *Store) ActiveAssets(ctx context.Context) ([]string, error) {
	var assets []string
	err := s.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("result = ?", models.ResultUnresolved).
		Distinct().
		Pluck("asset", &assets).Error
	return assets, err
}

// KeepAliveSweep extends leases for every game that is still unresolved.
// Called periodically by the worker.
func (s *Store) KeepAliveSweep(ctx context.Context) error {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("result = ?", models.ResultUnresolved).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.KeepAlive(ctx, id)
	}
	return nil
}

func (s *Store) mirroredGame(ctx context.Context, id string) *models.Game {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, gameMirrorPrefix+id).Bytes()
	if err != nil {
		return nil // miss or redis down; Postgres answers
	}
	var game models.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		s.dropMirror(ctx, gameMirrorPrefix+id)
		return nil
	}
	return &game
}

func (s *Store) mirrorGame(ctx context.Context, game *models.Game) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(game)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, gameMirrorPrefix+game.ID, raw, LeaseTTL).Err(); err != nil {
		logger.Error("mirror write failed for game %s: %v", game.ID, err)
	}
}

func (s *Store) dropMirror(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logger.Error("mirror invalidation failed for %s: %v", key, err)
	}
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return betting.ErrConflict
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return betting.ErrConflict
	}
	return err
}
