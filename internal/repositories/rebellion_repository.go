package repositories

import (
	"time"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RebellionRepository struct {
	db *gorm.DB
}

func NewRebellionRepository(db *gorm.DB) *RebellionRepository {
	return &RebellionRepository{db: db}
}

func (r *RebellionRepository) GetRebellionByID(id uint) (*models.Rebellion, error) {
	var rebellion models.Rebellion
	if err := r.db.First(&rebellion, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "rebellion not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get rebellion")
	}
	return &rebellion, nil
}

// GetRebellionByIDTx reads the rebellion through the caller's transaction,
// so state transitions made earlier in the same transaction are visible.
func (r *RebellionRepository) GetRebellionByIDTx(tx *gorm.DB, id uint) (*models.Rebellion, error) {
	var rebellion models.Rebellion
	if err := tx.First(&rebellion, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "rebellion not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get rebellion")
	}
	return &rebellion, nil
}

// GetRebellionForUpdate locks the rebellion row for the duration of a
// state transition.
func (r *RebellionRepository) GetRebellionForUpdate(tx *gorm.DB, id uint) (*models.Rebellion, error) {
	var rebellion models.Rebellion
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rebellion, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "rebellion not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock rebellion")
	}
	return &rebellion, nil
}

// GetLiveByCommunityTx finds a rebellion in agitation or battle for the
// community. Callers hold the community lock, which is what makes "at most
// one live rebellion per community" hold under concurrent starts.
func (r *RebellionRepository) GetLiveByCommunityTx(tx *gorm.DB, communityID uint) (*models.Rebellion, error) {
	var rebellion models.Rebellion
	err := tx.Where("community_id = ? AND status IN ?", communityID,
		[]models.RebellionStatus{models.RebellionStatusAgitation, models.RebellionStatusBattle}).
		First(&rebellion).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find live rebellion")
	}
	return &rebellion, nil
}

// GetBlockingCooldownTx finds a terminal rebellion whose cooldown has not
// yet elapsed for the community.
func (r *RebellionRepository) GetBlockingCooldownTx(tx *gorm.DB, communityID uint, now time.Time) (*models.Rebellion, error) {
	var rebellion models.Rebellion
	err := tx.Where("community_id = ? AND cooldown_until > ?", communityID, now).
		Order("cooldown_until DESC").
		First(&rebellion).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check cooldown")
	}
	return &rebellion, nil
}

func (r *RebellionRepository) CreateRebellionTx(tx *gorm.DB, rebellion *models.Rebellion) error {
	if err := tx.Create(rebellion).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create rebellion")
	}
	return nil
}

func (r *RebellionRepository) HasSupport(rebellionID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.RebellionSupport{}).
		Where("rebellion_id = ? AND user_id = ?", rebellionID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check support")
	}
	return count > 0, nil
}

func (r *RebellionRepository) CreateSupportTx(tx *gorm.DB, rebellionID, userID uint) error {
	support := &models.RebellionSupport{
		RebellionID: rebellionID,
		UserID:      userID,
	}
	if err := tx.Create(support).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record support")
	}
	return nil
}

func (r *RebellionRepository) GetSupporterIDsTx(tx *gorm.DB, rebellionID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.RebellionSupport{}).
		Where("rebellion_id = ?", rebellionID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list supporters")
	}
	return ids, nil
}

func (r *RebellionRepository) SaveRebellionTx(tx *gorm.DB, rebellion *models.Rebellion) error {
	if err := tx.Save(rebellion).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save rebellion")
	}
	return nil
}

func (r *RebellionRepository) CreateCivilWarTx(tx *gorm.DB, civilWar *models.CivilWar) error {
	if err := tx.Create(civilWar).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create civil war")
	}
	return nil
}

func (r *RebellionRepository) GetCivilWarByID(id uint) (*models.CivilWar, error) {
	var civilWar models.CivilWar
	if err := r.db.Preload("Rebellion").Preload("Battle").First(&civilWar, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "civil war not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get civil war")
	}
	return &civilWar, nil
}

func (r *RebellionRepository) GetCivilWarByBattleTx(tx *gorm.DB, battleID uint) (*models.CivilWar, error) {
	var civilWar models.CivilWar
	err := tx.Where("battle_id = ?", battleID).First(&civilWar).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get civil war by battle")
	}
	return &civilWar, nil
}

func (r *RebellionRepository) CreateNegotiationTx(tx *gorm.DB, negotiation *models.RebellionNegotiation) error {
	if err := tx.Create(negotiation).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create negotiation")
	}
	return nil
}

// GetOpenNegotiationTx finds the unanswered negotiation for a rebellion.
func (r *RebellionRepository) GetOpenNegotiationTx(tx *gorm.DB, rebellionID uint) (*models.RebellionNegotiation, error) {
	var negotiation models.RebellionNegotiation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("rebellion_id = ? AND accepted IS NULL", rebellionID).
		First(&negotiation).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get negotiation")
	}
	return &negotiation, nil
}

func (r *RebellionRepository) SaveNegotiationTx(tx *gorm.DB, negotiation *models.RebellionNegotiation) error {
	if err := tx.Save(negotiation).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save negotiation")
	}
	return nil
}

// FindExpiredAgitationIDs lists agitations past deadline; the sweep fails
// them one by one under their own locks.
func (r *RebellionRepository) FindExpiredAgitationIDs(now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Rebellion{}).
		Where("status = ? AND agitation_expires_at <= ?", models.RebellionStatusAgitation, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find expired agitations")
	}
	return ids, nil
}

// FailExpiredTx fails a still-agitating rebellion with the given cooldown.
// The status condition makes overlapping sweeps affect zero rows.
func (r *RebellionRepository) FailExpiredTx(tx *gorm.DB, rebellionID uint, cooldownUntil time.Time) (bool, error) {
	result := tx.Model(&models.Rebellion{}).
		Where("id = ? AND status = ?", rebellionID, models.RebellionStatusAgitation).
		Updates(map[string]interface{}{
			"status":         models.RebellionStatusFailed,
			"cooldown_until": cooldownUntil,
			"cooldown_type":  models.CooldownFailure,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to expire rebellion")
	}
	return result.RowsAffected > 0, nil
}
