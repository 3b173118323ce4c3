package repositories

import (
	"fmt"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository owns the user counters (morale, rage, energy). Every delta
// is a locked read-modify-write with clamping plus an append-only audit row,
// so no caller can push a counter outside its bounds.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get user")
	}
	return &user, nil
}

func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get user by username")
	}
	return &user, nil
}

// ApplyMoraleDelta adjusts a user's morale inside its own transaction.
func (r *UserRepository) ApplyMoraleDelta(userID uint, delta int64, trigger, context string) (int64, error) {
	var newValue int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		newValue, err = r.ApplyMoraleDeltaTx(tx, userID, delta, trigger, context)
		return err
	})
	return newValue, err
}

// ApplyMoraleDeltaTx adjusts morale inside the caller's transaction, clamped
// to [0, 100], and appends a MoraleEvent carrying the resulting value.
func (r *UserRepository) ApplyMoraleDeltaTx(tx *gorm.DB, userID uint, delta int64, trigger, context string) (int64, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock user")
	}

	newValue := models.ClampMorale(user.Morale + delta)
	if err := tx.Model(&user).Update("morale", newValue).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update morale")
	}

	event := &models.MoraleEvent{
		UserID:   userID,
		Delta:    delta,
		NewValue: newValue,
		Trigger:  trigger,
		Context:  context,
	}
	if err := tx.Create(event).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to log morale event")
	}

	return newValue, nil
}

// SetMoraleTx forces morale to an absolute value (negotiation resets both
// principals to the neutral midpoint). Logged like any other delta.
func (r *UserRepository) SetMoraleTx(tx *gorm.DB, userID uint, value int64, trigger, context string) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock user")
	}

	clamped := models.ClampMorale(value)
	if err := tx.Model(&user).Update("morale", clamped).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set morale")
	}

	event := &models.MoraleEvent{
		UserID:   userID,
		Delta:    clamped - user.Morale,
		NewValue: clamped,
		Trigger:  trigger,
		Context:  context,
	}
	if err := tx.Create(event).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to log morale event")
	}
	return nil
}

// ApplyRageDeltaTx adjusts rage inside the caller's transaction, clamped to
// [0, ceiling], and appends a RageEvent.
func (r *UserRepository) ApplyRageDeltaTx(tx *gorm.DB, userID uint, delta, ceiling int64, trigger, context string) (int64, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock user")
	}

	newValue := models.ClampRage(user.Rage+delta, ceiling)
	if err := tx.Model(&user).Update("rage", newValue).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update rage")
	}

	event := &models.RageEvent{
		UserID:   userID,
		Delta:    delta,
		NewValue: newValue,
		Trigger:  trigger,
		Context:  context,
	}
	if err := tx.Create(event).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to log rage event")
	}

	return newValue, nil
}

// SpendEnergyTx deducts an action's energy cost under the user lock,
// rejecting the action when the balance is short. Returns the locked user so
// callers can read rage and morale from the same snapshot.
func (r *UserRepository) SpendEnergyTx(tx *gorm.DB, userID uint, amount int64) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock user")
	}

	if user.Energy < amount {
		return nil, errors.New(errors.ErrCodeInsufficientEnergy,
			fmt.Sprintf("insufficient energy: have %d, need %d", user.Energy, amount))
	}

	if err := tx.Model(&user).Update("energy", user.Energy-amount).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to spend energy")
	}
	return &user, nil
}

// SpendEnergy is the standalone variant of SpendEnergyTx.
func (r *UserRepository) SpendEnergy(userID uint, amount int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		_, err := r.SpendEnergyTx(tx, userID, amount)
		return err
	})
}

// RegenerateEnergy tops up every user by rate, halved for members of
// exhausted communities, capped at the energy ceiling. Two conditional
// UPDATEs keep overlapping sweeps from over-crediting only by a bounded cap.
func (r *UserRepository) RegenerateEnergy(rate int64, exhaustedCommunityIDs []uint) error {
	exhaustedMembers := r.db.Model(&models.CommunityMember{}).
		Select("user_id").
		Where("community_id IN ?", exhaustedCommunityIDs)

	full := r.db.Model(&models.User{}).Where("energy < ?", models.EnergyMax)
	if len(exhaustedCommunityIDs) > 0 {
		full = full.Where("id NOT IN (?)", exhaustedMembers)
	}
	if err := full.Update("energy", gorm.Expr("LEAST(energy + ?, ?)", rate, models.EnergyMax)).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to regenerate energy")
	}

	if len(exhaustedCommunityIDs) > 0 {
		halved := r.db.Model(&models.User{}).
			Where("energy < ? AND id IN (?)", models.EnergyMax, exhaustedMembers)
		if err := halved.Update("energy", gorm.Expr("LEAST(energy + ?, ?)", rate/2, models.EnergyMax)).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to regenerate energy (exhausted)")
		}
	}
	return nil
}

// FindRagingUserIDs lists users carrying any rage. The decay sweep walks
// them one by one so every decay step lands in the rage ledger.
func (r *UserRepository) FindRagingUserIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).Where("rage > 0").Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find raging users")
	}
	return ids, nil
}

// RecordBattleResultTx bumps win/loss tallies and the military rank score.
func (r *UserRepository) RecordBattleResultTx(tx *gorm.DB, userID uint, won bool, scoreDelta int64) error {
	updates := map[string]interface{}{
		"rank_score": gorm.Expr("GREATEST(rank_score + ?, 0)", scoreDelta),
	}
	if won {
		updates["wins"] = gorm.Expr("wins + 1")
	} else {
		updates["losses"] = gorm.Expr("losses + 1")
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record battle result")
	}
	return nil
}
