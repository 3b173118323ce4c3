package repositories

import (
	"time"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TerritoryRepository struct {
	db *gorm.DB
}

func NewTerritoryRepository(db *gorm.DB) *TerritoryRepository {
	return &TerritoryRepository{db: db}
}

func (r *TerritoryRepository) GetTerritoryByID(id uint) (*models.Territory, error) {
	var territory models.Territory
	if err := r.db.First(&territory, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "territory not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get territory")
	}
	return &territory, nil
}

// GetTerritoryForUpdate locks the territory row; the battle-start path holds
// this lock while checking for an existing active battle, which is what makes
// start idempotent under concurrent attackers.
func (r *TerritoryRepository) GetTerritoryForUpdate(tx *gorm.DB, id uint) (*models.Territory, error) {
	var territory models.Territory
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&territory, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "territory not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock territory")
	}
	return &territory, nil
}

// AreAtWar reports whether either community has declared war on the other.
func (r *TerritoryRepository) AreAtWar(communityA, communityB uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.WarDeclaration{}).
		Where("(declarer_community_id = ? AND target_community_id = ?) OR (declarer_community_id = ? AND target_community_id = ?)",
			communityA, communityB, communityB, communityA).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check war state")
	}
	return count > 0, nil
}

func (r *TerritoryRepository) DeclareWar(declarerID, targetID uint) error {
	declaration := &models.WarDeclaration{
		DeclarerCommunityID: declarerID,
		TargetCommunityID:   targetID,
	}
	if err := r.db.Create(declaration).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to declare war")
	}
	return nil
}

func (r *TerritoryRepository) FormAlliance(communityID, allyID uint) error {
	alliance := &models.Alliance{
		CommunityID: communityID,
		AllyID:      allyID,
	}
	if err := r.db.Create(alliance).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to form alliance")
	}
	return nil
}

// AllyIDs lists every community allied with the given one, regardless of
// which side recorded the pact.
func (r *TerritoryRepository) AllyIDs(communityID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Alliance{}).
		Where("community_id = ?", communityID).
		Pluck("ally_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list allies")
	}

	var reverse []uint
	err = r.db.Model(&models.Alliance{}).
		Where("ally_id = ?", communityID).
		Pluck("community_id", &reverse).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list allies")
	}
	return append(ids, reverse...), nil
}

// TransferOwnershipTx moves a territory to its conqueror. Only a won
// attacker-side battle calls this, inside the resolution transaction.
func (r *TerritoryRepository) TransferOwnershipTx(tx *gorm.DB, territoryID, newOwnerID uint, now time.Time) error {
	result := tx.Model(&models.Territory{}).Where("id = ?", territoryID).
		Updates(map[string]interface{}{
			"owner_community_id": newOwnerID,
			"last_conquered_at":  now,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to transfer territory")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "territory not found")
	}
	return nil
}
