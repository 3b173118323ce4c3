package repositories

import (
	"time"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BattleRepository struct {
	db *gorm.DB
}

func NewBattleRepository(db *gorm.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

func (r *BattleRepository) GetBattleByID(id uint) (*models.Battle, error) {
	var battle models.Battle
	if err := r.db.First(&battle, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "battle not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get battle")
	}
	return &battle, nil
}

// GetBattleForUpdate locks the battle row; every mutating battle operation
// goes through this lock.
func (r *BattleRepository) GetBattleForUpdate(tx *gorm.DB, id uint) (*models.Battle, error) {
	var battle models.Battle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&battle, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "battle not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock battle")
	}
	return &battle, nil
}

// GetActiveByTerritoryTx finds the active battle on a territory, if any.
// Callers hold the territory lock so start is idempotent under concurrency.
func (r *BattleRepository) GetActiveByTerritoryTx(tx *gorm.DB, territoryID uint) (*models.Battle, error) {
	var battle models.Battle
	err := tx.Where("territory_id = ? AND status = ?", territoryID, models.BattleStatusActive).
		First(&battle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find active battle")
	}
	return &battle, nil
}

func (r *BattleRepository) CreateBattleTx(tx *gorm.DB, battle *models.Battle) error {
	if err := tx.Create(battle).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create battle")
	}
	return nil
}

// ApplyDamageTx lowers the defense pool and raises the acting side's score.
// Defense may go negative; the crossing hit triggers resolution.
func (r *BattleRepository) ApplyDamageTx(tx *gorm.DB, battleID uint, side models.BattleSide, amount int64) error {
	updates := map[string]interface{}{
		"current_defense": gorm.Expr("current_defense - ?", amount),
	}
	if side == models.SideAttacker {
		updates["attacker_score"] = gorm.Expr("attacker_score + ?", amount)
	} else {
		updates["defender_score"] = gorm.Expr("defender_score + ?", amount)
	}
	result := tx.Model(&models.Battle{}).
		Where("id = ? AND status = ?", battleID, models.BattleStatusActive).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to apply damage")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeBattleNotActive, "battle is not active")
	}
	return nil
}

// RepairDefenseTx restores defense up to the initial pool, defender side only.
func (r *BattleRepository) RepairDefenseTx(tx *gorm.DB, battleID uint, newDefense int64) error {
	result := tx.Model(&models.Battle{}).
		Where("id = ? AND status = ?", battleID, models.BattleStatusActive).
		Update("current_defense", newDefense)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to repair defense")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeBattleNotActive, "battle is not active")
	}
	return nil
}

// AddParticipantDamageTx accumulates damage on the (user, battle) row,
// creating it on first contact. Damage is additive, never overwritten.
func (r *BattleRepository) AddParticipantDamageTx(tx *gorm.DB, battleID, userID, communityID uint, side models.BattleSide, damage int64) error {
	var participant models.BattleParticipant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("battle_id = ? AND user_id = ?", battleID, userID).
		First(&participant).Error
	if err == gorm.ErrRecordNotFound {
		participant = models.BattleParticipant{
			BattleID:    battleID,
			UserID:      userID,
			CommunityID: communityID,
			Side:        side,
			DamageDealt: damage,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create participant")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock participant")
	}

	if err := tx.Model(&participant).
		Update("damage_dealt", gorm.Expr("damage_dealt + ?", damage)).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to accumulate damage")
	}
	return nil
}

func (r *BattleRepository) CreateActionTx(tx *gorm.DB, action *models.BattleAction) error {
	if err := tx.Create(action).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to log battle action")
	}
	return nil
}

func (r *BattleRepository) GetParticipantsTx(tx *gorm.DB, battleID uint) ([]models.BattleParticipant, error) {
	var participants []models.BattleParticipant
	if err := tx.Where("battle_id = ?", battleID).Find(&participants).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get participants")
	}
	return participants, nil
}

// MarkResolvedTx flips an active battle to its terminal status. The
// conditional WHERE makes resolution a no-op for concurrent resolvers.
func (r *BattleRepository) MarkResolvedTx(tx *gorm.DB, battleID uint, status models.BattleStatus, now time.Time) (bool, error) {
	result := tx.Model(&models.Battle{}).
		Where("id = ? AND status = ?", battleID, models.BattleStatusActive).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark battle resolved")
	}
	return result.RowsAffected > 0, nil
}

// MarkRankingsProcessedTx claims the cascade exactly once per battle.
func (r *BattleRepository) MarkRankingsProcessedTx(tx *gorm.DB, battleID uint, now time.Time) (bool, error) {
	result := tx.Model(&models.Battle{}).
		Where("id = ? AND rankings_processed_at IS NULL", battleID).
		Update("rankings_processed_at", now)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark rankings processed")
	}
	return result.RowsAffected > 0, nil
}

// SetWinnersTx flags the winning side's participant rows at resolution.
func (r *BattleRepository) SetWinnersTx(tx *gorm.DB, battleID uint, side models.BattleSide) error {
	err := tx.Model(&models.BattleParticipant{}).
		Where("battle_id = ? AND side = ?", battleID, side).
		Update("won", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to flag winners")
	}
	return nil
}

// FindDueBattleIDs lists active battles past their deadline or with a
// depleted pool. The sweep re-checks each one under its own lock.
func (r *BattleRepository) FindDueBattleIDs(now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Battle{}).
		Where("status = ? AND (ends_at <= ? OR current_defense <= 0)", models.BattleStatusActive, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find due battles")
	}
	return ids, nil
}
