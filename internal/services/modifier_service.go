package services

import (
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/pkg/logger"
	"gorm.io/gorm"
)

// ModifierService owns the community combat modifiers: disarray, momentum,
// exhaustion and the community-scoped rage triggers.
type ModifierService struct {
	cfg           *config.Config
	modifierRepo  *repositories.ModifierRepository
	communityRepo *repositories.CommunityRepository
	userRepo      *repositories.UserRepository
}

func NewModifierService(
	cfg *config.Config,
	modifierRepo *repositories.ModifierRepository,
	communityRepo *repositories.CommunityRepository,
	userRepo *repositories.UserRepository,
) *ModifierService {
	return &ModifierService{
		cfg:           cfg,
		modifierRepo:  modifierRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
	}
}

// DisarrayMultiplierTx reads the community's current cost multiplier under
// the modifier row lock. A fully decayed penalty is cleared on this read
// rather than waiting for the sweep.
func (s *ModifierService) DisarrayMultiplierTx(tx *gorm.DB, communityID uint, now time.Time) (float64, error) {
	state, err := s.modifierRepo.GetOrCreateForUpdateTx(tx, communityID)
	if err != nil {
		return 1.0, err
	}

	if state.DisarrayExpired(now, s.cfg.DisarrayDurationHours) {
		state.DisarrayActive = false
		state.DisarrayStartedAt = nil
		if err := s.modifierRepo.SaveTx(tx, state); err != nil {
			return 1.0, err
		}
		return 1.0, nil
	}

	return state.DisarrayMultiplier(now, s.cfg.DisarrayCeiling, s.cfg.DisarrayDurationHours), nil
}

// ApplyLossTx flips the losing community into disarray, resets its win
// streak, and raises member rage via the battle_lost trigger.
func (s *ModifierService) ApplyLossTx(tx *gorm.DB, communityID uint, now time.Time) error {
	state, err := s.modifierRepo.GetOrCreateForUpdateTx(tx, communityID)
	if err != nil {
		return err
	}

	started := now
	state.DisarrayActive = true
	state.DisarrayStartedAt = &started
	state.WinStreak = 0
	if err := s.modifierRepo.SaveTx(tx, state); err != nil {
		return err
	}

	return s.TriggerCommunityRageTx(tx, communityID, models.RageTriggerBattleLost, rageBaseBattleLost)
}

// ApplyWinTx grants the winning community momentum (a flat morale bonus to
// every current member, not later joiners), bumps the win streak, and when
// the win was a conquest records it against the exhaustion window.
func (s *ModifierService) ApplyWinTx(tx *gorm.DB, communityID uint, now time.Time, conquest bool) error {
	state, err := s.modifierRepo.GetOrCreateForUpdateTx(tx, communityID)
	if err != nil {
		return err
	}

	expires := now.Add(s.cfg.MomentumDuration())
	state.MomentumActive = true
	state.MomentumExpiresAt = &expires
	state.WinStreak++

	if conquest {
		count := state.RecordConquest(now, s.cfg.ExhaustionWindowHours)
		if count >= s.cfg.ExhaustionThreshold {
			state.ExhaustionActive = true
		}
	}

	if err := s.modifierRepo.SaveTx(tx, state); err != nil {
		return err
	}

	members, err := s.communityRepo.GetMembers(communityID)
	if err != nil {
		return err
	}
	for _, member := range members {
		_, err := s.userRepo.ApplyMoraleDeltaTx(tx, member.UserID,
			s.cfg.MomentumMoraleBonus, models.MoraleTriggerMomentum, "momentum activated")
		if err != nil {
			return err
		}
	}
	return nil
}

// Base magnitudes for the community rage triggers.
const (
	rageBaseTerritoryLost = 30
	rageBaseBattleLost    = 20
	rageBaseAllyDefeated  = 15
	rageBaseUnderAttack   = 10
)

// TriggerCommunityRageTx fans a rage trigger out to every member. The base
// magnitude is scaled per member by their morale so demoralized users heat
// up faster.
func (s *ModifierService) TriggerCommunityRageTx(tx *gorm.DB, communityID uint, trigger string, base int64) error {
	members, err := s.communityRepo.GetMembers(communityID)
	if err != nil {
		return err
	}
	for _, member := range members {
		gain := models.RageGain(base, member.User.Morale)
		_, err := s.userRepo.ApplyRageDeltaTx(tx, member.UserID, gain,
			s.cfg.RageCeiling, trigger, "community trigger")
		if err != nil {
			return err
		}
	}
	return nil
}

// SweepExpired clears expired momentum and disarray and re-evaluates
// exhaustion windows. Safe to run concurrently: every clear is conditional.
func (s *ModifierService) SweepExpired(db *gorm.DB, now time.Time) {
	if n, err := s.modifierRepo.ClearExpiredMomentum(now); err != nil {
		logger.Error("momentum sweep failed", "error", err)
	} else if n > 0 {
		logger.Info("momentum expired", "communities", n)
	}

	if n, err := s.modifierRepo.ClearExpiredDisarray(now, s.cfg.DisarrayDurationHours); err != nil {
		logger.Error("disarray sweep failed", "error", err)
	} else if n > 0 {
		logger.Info("disarray cleared", "communities", n)
	}

	ids, err := s.modifierRepo.FindExhaustedCommunityIDs()
	if err != nil {
		logger.Error("exhaustion sweep failed", "error", err)
		return
	}
	for _, id := range ids {
		err := db.Transaction(func(tx *gorm.DB) error {
			state, err := s.modifierRepo.GetOrCreateForUpdateTx(tx, id)
			if err != nil {
				return err
			}
			if !state.ExhaustionShouldClear(now, s.cfg.ExhaustionThreshold,
				s.cfg.ExhaustionWindowHours, s.cfg.ExhaustionIdleHours) {
				return nil
			}
			state.ExhaustionActive = false
			return s.modifierRepo.SaveTx(tx, state)
		})
		if err != nil {
			// Keep sweeping the rest; one bad row never halts the pass.
			logger.Error("exhaustion clear failed", "community_id", id, "error", err)
		}
	}
}

// ExhaustedCommunityIDs lists communities currently under the regen penalty.
func (s *ModifierService) ExhaustedCommunityIDs() ([]uint, error) {
	return s.modifierRepo.FindExhaustedCommunityIDs()
}
