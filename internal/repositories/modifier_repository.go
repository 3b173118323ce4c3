package repositories

import (
	"time"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModifierRepository struct {
	db *gorm.DB
}

func NewModifierRepository(db *gorm.DB) *ModifierRepository {
	return &ModifierRepository{db: db}
}

// GetOrCreateForUpdateTx locks the community's modifier row, creating it on
// first touch. All modifier reads in a combat path go through this lock so
// nothing works from a stale snapshot.
func (r *ModifierRepository) GetOrCreateForUpdateTx(tx *gorm.DB, communityID uint) (*models.CommunityModifierState, error) {
	var state models.CommunityModifierState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("community_id = ?", communityID).
		First(&state).Error
	if err == gorm.ErrRecordNotFound {
		state = models.CommunityModifierState{
			CommunityID:     communityID,
			RecentConquests: "[]",
		}
		if err := tx.Create(&state).Error; err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create modifier state")
		}
		return &state, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock modifier state")
	}
	return &state, nil
}

func (r *ModifierRepository) SaveTx(tx *gorm.DB, state *models.CommunityModifierState) error {
	if err := tx.Save(state).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save modifier state")
	}
	return nil
}

// ClearExpiredMomentum deactivates momentum rows past their expiry. The
// conditional update keeps overlapping sweeps idempotent.
func (r *ModifierRepository) ClearExpiredMomentum(now time.Time) (int64, error) {
	result := r.db.Model(&models.CommunityModifierState{}).
		Where("momentum_active = ? AND momentum_expires_at <= ?", true, now).
		Updates(map[string]interface{}{
			"momentum_active":     false,
			"momentum_expires_at": nil,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to clear momentum")
	}
	return result.RowsAffected, nil
}

// ClearExpiredDisarray deactivates disarray rows whose decay has finished.
func (r *ModifierRepository) ClearExpiredDisarray(now time.Time, durationHours int) (int64, error) {
	cutoff := now.Add(-time.Duration(durationHours) * time.Hour)
	result := r.db.Model(&models.CommunityModifierState{}).
		Where("disarray_active = ? AND disarray_started_at <= ?", true, cutoff).
		Updates(map[string]interface{}{
			"disarray_active":     false,
			"disarray_started_at": nil,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to clear disarray")
	}
	return result.RowsAffected, nil
}

// FindExhaustedCommunityIDs lists communities with the exhaustion flag set;
// the sweep re-evaluates each window under its own lock.
func (r *ModifierRepository) FindExhaustedCommunityIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CommunityModifierState{}).
		Where("exhaustion_active = ?", true).
		Pluck("community_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find exhausted communities")
	}
	return ids, nil
}
