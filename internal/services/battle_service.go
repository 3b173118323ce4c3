package services

import (
	"fmt"
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/pkg/errors"
	"github.com/dominionwar/dominion/pkg/logger"
	"gorm.io/gorm"
)

// Upper bound on a single hit, basic bounds validation only.
const maxRawDamage = 10000

// BattleService creates, scores and resolves territorial conflicts.
type BattleService struct {
	db            *gorm.DB
	cfg           *config.Config
	battleRepo    *repositories.BattleRepository
	territoryRepo *repositories.TerritoryRepository
	communityRepo *repositories.CommunityRepository
	userRepo      *repositories.UserRepository
	modifiers     *ModifierService
	cascade       *CascadeReconciler
	calc          *DamageCalculator
}

func NewBattleService(
	db *gorm.DB,
	cfg *config.Config,
	battleRepo *repositories.BattleRepository,
	territoryRepo *repositories.TerritoryRepository,
	communityRepo *repositories.CommunityRepository,
	userRepo *repositories.UserRepository,
	modifiers *ModifierService,
	cascade *CascadeReconciler,
	calc *DamageCalculator,
) *BattleService {
	return &BattleService{
		db:            db,
		cfg:           cfg,
		battleRepo:    battleRepo,
		territoryRepo: territoryRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		modifiers:     modifiers,
		cascade:       cascade,
		calc:          calc,
	}
}

// DeclareWar opens hostilities with another community. Only rulers and
// generals speak for their community abroad.
func (s *BattleService) DeclareWar(actorID, declarerCommunityID, targetCommunityID uint) error {
	if declarerCommunityID == targetCommunityID {
		return errors.New(errors.ErrCodeValidation, "cannot declare war on own community")
	}
	if err := s.requireCommand(declarerCommunityID, actorID); err != nil {
		return err
	}
	if _, err := s.communityRepo.GetCommunityByID(targetCommunityID); err != nil {
		return err
	}

	atWar, err := s.territoryRepo.AreAtWar(declarerCommunityID, targetCommunityID)
	if err != nil {
		return err
	}
	if atWar {
		return errors.New(errors.ErrCodeAlreadyExists, "already at war")
	}
	return s.territoryRepo.DeclareWar(declarerCommunityID, targetCommunityID)
}

// FormAlliance records a pact with another community.
func (s *BattleService) FormAlliance(actorID, communityID, allyID uint) error {
	if communityID == allyID {
		return errors.New(errors.ErrCodeValidation, "cannot ally with own community")
	}
	if err := s.requireCommand(communityID, actorID); err != nil {
		return err
	}
	if _, err := s.communityRepo.GetCommunityByID(allyID); err != nil {
		return err
	}

	allies, err := s.territoryRepo.AllyIDs(communityID)
	if err != nil {
		return err
	}
	for _, id := range allies {
		if id == allyID {
			return errors.New(errors.ErrCodeAlreadyExists, "alliance already exists")
		}
	}
	return s.territoryRepo.FormAlliance(communityID, allyID)
}

func (s *BattleService) requireCommand(communityID, actorID uint) error {
	member, err := s.communityRepo.GetMember(communityID, actorID)
	if err != nil {
		return err
	}
	if member == nil || !member.Rank.CanCommand() {
		return errors.New(errors.ErrCodeForbidden, "only rulers and generals may act for the community")
	}
	return nil
}

// StartBattle opens a conflict over a territory. The actor must hold a
// command rank in the attacking community, and attacking an owned territory
// requires an active war with the owner. Start is idempotent: an existing
// active battle on the territory is returned as-is.
func (s *BattleService) StartBattle(actorID, attackerCommunityID, territoryID uint) (*models.Battle, error) {
	if err := s.requireCommand(attackerCommunityID, actorID); err != nil {
		return nil, err
	}

	territory, err := s.territoryRepo.GetTerritoryByID(territoryID)
	if err != nil {
		return nil, err
	}

	if territory.Claimed() {
		ownerID := *territory.OwnerCommunityID
		if ownerID == attackerCommunityID {
			return nil, errors.New(errors.ErrCodeValidationFailed, "community already owns this territory")
		}
		atWar, err := s.territoryRepo.AreAtWar(attackerCommunityID, ownerID)
		if err != nil {
			return nil, err
		}
		if !atWar {
			return nil, errors.New(errors.ErrCodeNotAtWar, "no active war with the territory owner")
		}
	}

	var battle *models.Battle
	err = s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.territoryRepo.GetTerritoryForUpdate(tx, territoryID)
		if err != nil {
			return err
		}

		existing, err := s.battleRepo.GetActiveByTerritoryTx(tx, territoryID)
		if err != nil {
			return err
		}
		if existing != nil {
			battle = existing
			return nil
		}

		now := time.Now().UTC()
		defense := locked.DefenseBaseline
		if defense <= 0 {
			defense = s.cfg.InitialDefense
		}
		battle = &models.Battle{
			AttackerCommunityID: attackerCommunityID,
			DefenderCommunityID: locked.OwnerCommunityID,
			TerritoryID:         &territoryID,
			StartedAt:           now,
			EndsAt:              now.Add(s.cfg.BattleDuration()),
			InitialDefense:      defense,
			CurrentDefense:      defense,
			Status:              models.BattleStatusActive,
		}
		if err := s.battleRepo.CreateBattleTx(tx, battle); err != nil {
			return err
		}

		// The defenders learn they are under attack.
		if locked.OwnerCommunityID != nil {
			return s.modifiers.TriggerCommunityRageTx(tx, *locked.OwnerCommunityID,
				models.RageTriggerUnderAttack, rageBaseUnderAttack)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return battle, nil
}

// ApplyDamage records a hit: disarray scales the energy cost, rage fuels the
// critical roll, the participant row accumulates, and the action is logged.
// Inline resolution always follows; callers rely on sub-second resolution
// when a hit depletes the pool.
func (s *BattleService) ApplyDamage(battleID, userID uint, side models.BattleSide, rawAmount int64) (*models.Battle, error) {
	if !side.Valid() {
		return nil, errors.New(errors.ErrCodeValidation, "invalid battle side")
	}
	if rawAmount <= 0 || rawAmount > maxRawDamage {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("damage must be in (0, %d]", maxRawDamage))
	}

	var updated *models.Battle
	err := s.db.Transaction(func(tx *gorm.DB) error {
		battle, err := s.battleRepo.GetBattleForUpdate(tx, battleID)
		if err != nil {
			return err
		}
		if battle.Status != models.BattleStatusActive {
			return errors.New(errors.ErrCodeBattleNotActive, "battle is not active")
		}

		communityID, err := s.sideCommunity(battle, side)
		if err != nil {
			return err
		}
		member, err := s.communityRepo.GetMember(communityID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return errors.New(errors.ErrCodeNotEligible, "not a member of the fighting community")
		}

		now := time.Now().UTC()
		disarray, err := s.modifiers.DisarrayMultiplierTx(tx, communityID, now)
		if err != nil {
			return err
		}
		cost := EnergyCost(s.cfg.DamageEnergyCost, disarray)

		actor, err := s.userRepo.SpendEnergyTx(tx, userID, cost)
		if err != nil {
			return err
		}

		effective, crit := s.calc.EffectiveDamage(rawAmount, actor.Rage, actor.Focus)

		if err := s.battleRepo.ApplyDamageTx(tx, battleID, side, effective); err != nil {
			return err
		}
		if err := s.battleRepo.AddParticipantDamageTx(tx, battleID, userID, communityID, side, effective); err != nil {
			return err
		}
		action := &models.BattleAction{
			BattleID:        battleID,
			UserID:          userID,
			Side:            side,
			RawAmount:       rawAmount,
			EffectiveAmount: effective,
			Critical:        crit,
			EnergyCost:      cost,
		}
		return s.battleRepo.CreateActionTx(tx, action)
	})
	if err != nil {
		return nil, err
	}

	// Mandatory inline resolution attempt.
	if _, err := s.Resolve(battleID); err != nil {
		logger.Warn("inline resolution failed", "battle_id", battleID, "error", err)
	}

	updated, err = s.battleRepo.GetBattleByID(battleID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Repair restores part of the defense pool, defender side only, capped at
// the initial pool. Repairs pay the flat action cost (no disarray scaling:
// the defenders are on home ground).
func (s *BattleService) Repair(battleID, userID uint, amount int64) (*models.Battle, error) {
	if amount <= 0 || amount > maxRawDamage {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("repair must be in (0, %d]", maxRawDamage))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		battle, err := s.battleRepo.GetBattleForUpdate(tx, battleID)
		if err != nil {
			return err
		}
		if battle.Status != models.BattleStatusActive {
			return errors.New(errors.ErrCodeBattleNotActive, "battle is not active")
		}
		if battle.DefenderCommunityID == nil {
			return errors.New(errors.ErrCodeValidationFailed, "unclaimed territory has no defenders")
		}

		member, err := s.communityRepo.GetMember(*battle.DefenderCommunityID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return errors.New(errors.ErrCodeNotEligible, "not a member of the defending community")
		}

		if _, err := s.userRepo.SpendEnergyTx(tx, userID, s.cfg.DamageEnergyCost); err != nil {
			return err
		}

		newDefense := battle.RepairableTo(amount)
		restored := newDefense - battle.CurrentDefense
		if err := s.battleRepo.RepairDefenseTx(tx, battleID, newDefense); err != nil {
			return err
		}

		action := &models.BattleAction{
			BattleID:        battleID,
			UserID:          userID,
			Side:            models.SideDefender,
			RawAmount:       amount,
			EffectiveAmount: restored,
			EnergyCost:      s.cfg.DamageEnergyCost,
		}
		return s.battleRepo.CreateActionTx(tx, action)
	})
	if err != nil {
		return nil, err
	}
	return s.battleRepo.GetBattleByID(battleID)
}

// Resolve finalizes a battle when due: defense depleted (checked first, so
// depletion wins even exactly at the deadline) or deadline reached. The
// status flip and every critical cascade step share one transaction; the
// rankings marker makes the cascade run exactly once under concurrent
// resolvers.
func (s *BattleService) Resolve(battleID uint) (models.BattleStatus, error) {
	var status models.BattleStatus
	var event *BattleResolvedEvent
	var cascaded bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		battle, err := s.battleRepo.GetBattleForUpdate(tx, battleID)
		if err != nil {
			return err
		}
		status = battle.Status
		if battle.Status.Terminal() {
			return nil
		}

		now := time.Now().UTC()
		if !battle.DueForResolution(now) {
			return nil
		}
		outcome := battle.Outcome(now)

		flipped, err := s.battleRepo.MarkResolvedTx(tx, battleID, outcome, now)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		battle.Status = outcome
		status = outcome

		participants, err := s.battleRepo.GetParticipantsTx(tx, battleID)
		if err != nil {
			return err
		}

		winner := models.SideAttacker
		if outcome == models.BattleStatusDefenderWon {
			winner = models.SideDefender
		}
		event = &BattleResolvedEvent{
			Battle:       battle,
			Winner:       winner,
			Participants: participants,
			Now:          now,
		}
		cascaded, err = s.cascade.RunCriticalTx(tx, event)
		return err
	})
	if err != nil {
		return status, err
	}

	if cascaded && event != nil {
		s.cascade.RunBestEffort(event)
	}
	return status, nil
}

// SweepDue force-resolves every battle past its deadline or with a depleted
// pool. One failed battle never halts the pass.
func (s *BattleService) SweepDue(now time.Time) int {
	ids, err := s.battleRepo.FindDueBattleIDs(now)
	if err != nil {
		logger.Error("battle sweep query failed", "error", err)
		return 0
	}

	resolved := 0
	for _, id := range ids {
		status, err := s.Resolve(id)
		if err != nil {
			logger.Error("battle sweep resolution failed", "battle_id", id, "error", err)
			continue
		}
		if status.Terminal() {
			resolved++
		}
	}
	return resolved
}

func (s *BattleService) sideCommunity(battle *models.Battle, side models.BattleSide) (uint, error) {
	if side == models.SideAttacker {
		return battle.AttackerCommunityID, nil
	}
	if battle.DefenderCommunityID == nil {
		return 0, errors.New(errors.ErrCodeValidationFailed, "unclaimed territory has no defender side")
	}
	return *battle.DefenderCommunityID, nil
}
