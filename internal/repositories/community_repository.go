package repositories

import (
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

func (r *CommunityRepository) GetCommunityByID(id uint) (*models.Community, error) {
	var community models.Community
	if err := r.db.First(&community, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "community not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get community")
	}
	return &community, nil
}

// GetCommunityForUpdate locks the community row. The per-community lock is
// the serialization point for uprising creation and civil-war triggering.
func (r *CommunityRepository) GetCommunityForUpdate(tx *gorm.DB, id uint) (*models.Community, error) {
	var community models.Community
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&community, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "community not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock community")
	}
	return &community, nil
}

func (r *CommunityRepository) GetMember(communityID, userID uint) (*models.CommunityMember, error) {
	var member models.CommunityMember
	err := r.db.Where("community_id = ? AND user_id = ?", communityID, userID).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil // not a member
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get member")
	}
	return &member, nil
}

func (r *CommunityRepository) GetMembers(communityID uint) ([]models.CommunityMember, error) {
	var members []models.CommunityMember
	if err := r.db.Preload("User").Where("community_id = ?", communityID).Find(&members).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get members")
	}
	return members, nil
}

// NonRulerMemberCount counts the members eligible to support an uprising.
func (r *CommunityRepository) NonRulerMemberCount(communityID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.CommunityMember{}).
		Where("community_id = ? AND rank != ?", communityID, models.RankRuler).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count members")
	}
	return int(count), nil
}

// AverageMorale computes the community-wide morale average used by the
// uprising eligibility gate.
func (r *CommunityRepository) AverageMorale(communityID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&models.User{}).
		Select("AVG(users.morale)").
		Joins("JOIN community_members ON community_members.user_id = users.id").
		Where("community_members.community_id = ?", communityID).
		Scan(&avg).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to average morale")
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *CommunityRepository) AddMemberTx(tx *gorm.DB, communityID, userID uint, rank models.MemberRank) error {
	member := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Rank:        rank,
	}
	if err := tx.Create(member).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add member")
	}
	return tx.Model(&models.Community{}).Where("id = ?", communityID).
		Update("member_count", gorm.Expr("member_count + 1")).Error
}

func (r *CommunityRepository) RemoveMemberTx(tx *gorm.DB, communityID, userID uint) error {
	result := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to remove member")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "member not found")
	}
	return tx.Model(&models.Community{}).Where("id = ?", communityID).
		Update("member_count", gorm.Expr("member_count - 1")).Error
}

// SetMemberRankTx changes a member's rank within the caller's transaction.
func (r *CommunityRepository) SetMemberRankTx(tx *gorm.DB, communityID, userID uint, rank models.MemberRank) error {
	result := tx.Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Update("rank", rank)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to set rank")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "member not found")
	}
	return nil
}

// SetRulerTx swaps the community ruler reference after a successful rebellion.
func (r *CommunityRepository) SetRulerTx(tx *gorm.DB, communityID, rulerID uint) error {
	return tx.Model(&models.Community{}).Where("id = ?", communityID).
		Update("ruler_id", rulerID).Error
}

// AddRankScoreTx adjusts the community's military ranking, floored at zero.
func (r *CommunityRepository) AddRankScoreTx(tx *gorm.DB, communityID uint, delta int64) error {
	return tx.Model(&models.Community{}).Where("id = ?", communityID).
		Update("rank_score", gorm.Expr("GREATEST(rank_score + ?, 0)", delta)).Error
}

// GetLeaderboard returns communities ordered by military rank score.
func (r *CommunityRepository) GetLeaderboard(limit int) ([]models.Community, error) {
	var communities []models.Community
	if err := r.db.Order("rank_score DESC").Limit(limit).Find(&communities).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get leaderboard")
	}
	return communities, nil
}
