package services

import (
	"fmt"
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/pkg/logger"
	"gorm.io/gorm"
)

// BattleResolvedEvent is the single fan-out point for everything that reacts
// to a battle ending. Adding a new cascade means registering a handler, not
// editing the resolver.
type BattleResolvedEvent struct {
	Battle       *models.Battle
	Winner       models.BattleSide
	Participants []models.BattleParticipant
	Now          time.Time
}

// WinnerCommunityID returns the community that won, or 0 when the winning
// side has no community (a defender win on unclaimed territory).
func (e *BattleResolvedEvent) WinnerCommunityID() uint {
	if e.Winner == models.SideAttacker {
		return e.Battle.AttackerCommunityID
	}
	if e.Battle.DefenderCommunityID != nil {
		return *e.Battle.DefenderCommunityID
	}
	return 0
}

// LoserCommunityID mirrors WinnerCommunityID for the losing side.
func (e *BattleResolvedEvent) LoserCommunityID() uint {
	if e.Winner == models.SideDefender {
		return e.Battle.AttackerCommunityID
	}
	if e.Battle.DefenderCommunityID != nil {
		return *e.Battle.DefenderCommunityID
	}
	return 0
}

// CriticalHandler runs inside the resolution transaction; an error aborts
// the resolution so the battle is never marked resolved with the cascade
// half-applied.
type CriticalHandler func(tx *gorm.DB, ev *BattleResolvedEvent) error

// BestEffortHandler runs after commit; failures are logged and swallowed.
type BestEffortHandler func(ev *BattleResolvedEvent)

// CascadeReconciler fans a resolution out to its handlers. The reconciler is
// claimed exactly once per battle via the rankings_processed_at marker, so
// re-running it against an already-processed battle is a no-op.
type CascadeReconciler struct {
	cfg           *config.Config
	battleRepo    *repositories.BattleRepository
	userRepo      *repositories.UserRepository
	communityRepo *repositories.CommunityRepository
	territoryRepo *repositories.TerritoryRepository
	modifiers     *ModifierService
	wallet        Wallet
	notifier      Notifier
	missions      MissionTracker

	critical   []CriticalHandler
	bestEffort []BestEffortHandler
}

func NewCascadeReconciler(
	cfg *config.Config,
	battleRepo *repositories.BattleRepository,
	userRepo *repositories.UserRepository,
	communityRepo *repositories.CommunityRepository,
	territoryRepo *repositories.TerritoryRepository,
	modifiers *ModifierService,
	wallet Wallet,
	notifier Notifier,
	missions MissionTracker,
) *CascadeReconciler {
	r := &CascadeReconciler{
		cfg:           cfg,
		battleRepo:    battleRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		territoryRepo: territoryRepo,
		modifiers:     modifiers,
		wallet:        wallet,
		notifier:      notifier,
		missions:      missions,
	}

	r.critical = []CriticalHandler{
		r.flagWinners,
		r.updateRankScores,
		r.applyMoraleCascade,
		r.applyModifierTransitions,
		r.transferTerritory,
	}
	r.bestEffort = []BestEffortHandler{
		r.paySpoils,
		r.notifyParticipants,
		r.trackMissions,
	}
	return r
}

// RegisterCritical appends a handler to the in-transaction chain. The
// rebellion service registers its civil-war outcome handler here.
func (r *CascadeReconciler) RegisterCritical(h CriticalHandler) {
	r.critical = append(r.critical, h)
}

func (r *CascadeReconciler) RegisterBestEffort(h BestEffortHandler) {
	r.bestEffort = append(r.bestEffort, h)
}

// RunCriticalTx claims the cascade marker and runs every critical handler.
// Returns false when another resolver already processed this battle.
func (r *CascadeReconciler) RunCriticalTx(tx *gorm.DB, ev *BattleResolvedEvent) (bool, error) {
	claimed, err := r.battleRepo.MarkRankingsProcessedTx(tx, ev.Battle.ID, ev.Now)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}
	for _, handler := range r.critical {
		if err := handler(tx, ev); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RunBestEffort runs the post-commit handlers. Panics and errors stay here.
func (r *CascadeReconciler) RunBestEffort(ev *BattleResolvedEvent) {
	for _, handler := range r.bestEffort {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("best-effort cascade handler panicked", "battle_id", ev.Battle.ID, "panic", rec)
				}
			}()
			handler(ev)
		}()
	}
}

func (r *CascadeReconciler) flagWinners(tx *gorm.DB, ev *BattleResolvedEvent) error {
	return r.battleRepo.SetWinnersTx(tx, ev.Battle.ID, ev.Winner)
}

func (r *CascadeReconciler) updateRankScores(tx *gorm.DB, ev *BattleResolvedEvent) error {
	if ev.Battle.IsCivilWar {
		return nil // internal conflict, no military ranking movement
	}

	totalWinnerDamage := int64(0)
	for _, p := range ev.Participants {
		if p.Side == ev.Winner {
			totalWinnerDamage += p.DamageDealt
		}
	}

	for _, p := range ev.Participants {
		if p.Side == ev.Winner {
			// Weight the reward by each winner's share of the damage.
			reward := r.cfg.RankScoreWinReward
			if totalWinnerDamage > 0 {
				share := float64(p.DamageDealt) / float64(totalWinnerDamage)
				reward += int64(share * float64(r.cfg.RankScoreWinReward))
			}
			if err := r.userRepo.RecordBattleResultTx(tx, p.UserID, true, reward); err != nil {
				return err
			}
		} else {
			if err := r.userRepo.RecordBattleResultTx(tx, p.UserID, false, -r.cfg.RankScoreLossPenalty); err != nil {
				return err
			}
		}
	}

	if winner := ev.WinnerCommunityID(); winner != 0 {
		if err := r.communityRepo.AddRankScoreTx(tx, winner, r.cfg.RankScoreWinReward); err != nil {
			return err
		}
	}
	if loser := ev.LoserCommunityID(); loser != 0 {
		if err := r.communityRepo.AddRankScoreTx(tx, loser, -r.cfg.RankScoreLossPenalty); err != nil {
			return err
		}
	}
	return nil
}

func (r *CascadeReconciler) applyMoraleCascade(tx *gorm.DB, ev *BattleResolvedEvent) error {
	if ev.Battle.IsCivilWar {
		return nil // the rebellion outcome handler owns civil-war morale
	}
	for _, p := range ev.Participants {
		var delta int64
		var trigger string
		if p.Side == ev.Winner {
			delta, trigger = r.cfg.WinnerMoraleBonus, models.MoraleTriggerBattleWon
		} else {
			delta, trigger = -r.cfg.LoserMoralePenalty, models.MoraleTriggerBattleLost
		}
		context := fmt.Sprintf("battle %d", ev.Battle.ID)
		if _, err := r.userRepo.ApplyMoraleDeltaTx(tx, p.UserID, delta, trigger, context); err != nil {
			return err
		}
	}
	return nil
}

func (r *CascadeReconciler) applyModifierTransitions(tx *gorm.DB, ev *BattleResolvedEvent) error {
	if ev.Battle.IsCivilWar {
		return nil
	}
	if winner := ev.WinnerCommunityID(); winner != 0 {
		conquest := ev.Winner == models.SideAttacker
		if err := r.modifiers.ApplyWinTx(tx, winner, ev.Now, conquest); err != nil {
			return err
		}
	}
	if loser := ev.LoserCommunityID(); loser != 0 {
		if err := r.modifiers.ApplyLossTx(tx, loser, ev.Now); err != nil {
			return err
		}
		// Allies of the defeated share the sting.
		allies, err := r.territoryRepo.AllyIDs(loser)
		if err != nil {
			return err
		}
		for _, ally := range allies {
			if ally == ev.WinnerCommunityID() {
				continue
			}
			if err := r.modifiers.TriggerCommunityRageTx(tx, ally,
				models.RageTriggerAllyDefeated, rageBaseAllyDefeated); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *CascadeReconciler) transferTerritory(tx *gorm.DB, ev *BattleResolvedEvent) error {
	if ev.Battle.IsCivilWar || ev.Winner != models.SideAttacker || ev.Battle.TerritoryID == nil {
		return nil
	}
	if err := r.territoryRepo.TransferOwnershipTx(tx, *ev.Battle.TerritoryID,
		ev.Battle.AttackerCommunityID, ev.Now); err != nil {
		return err
	}
	// The deposed owner seethes.
	if old := ev.Battle.DefenderCommunityID; old != nil {
		return r.modifiers.TriggerCommunityRageTx(tx, *old,
			models.RageTriggerTerritoryLost, rageBaseTerritoryLost)
	}
	return nil
}

// Flat currency reward per winning participant. Civil wars pay nothing; the
// spoils there are the throne.
const spoilsCurrency = "gold"
const spoilsAmount = 100

func (r *CascadeReconciler) paySpoils(ev *BattleResolvedEvent) {
	if ev.Battle.IsCivilWar {
		return
	}
	for _, p := range ev.Participants {
		if p.Side != ev.Winner {
			continue
		}
		userID := p.UserID
		bestEffort("spoils", func() error {
			return r.wallet.Credit(userID, spoilsCurrency, spoilsAmount)
		})
	}
}

func (r *CascadeReconciler) notifyParticipants(ev *BattleResolvedEvent) {
	for _, p := range ev.Participants {
		userID := p.UserID
		outcome := "defeat"
		if p.Side == ev.Winner {
			outcome = "victory"
		}
		payload := fmt.Sprintf(`{"type":"battle_resolved","battle_id":%d,"outcome":%q}`, ev.Battle.ID, outcome)
		bestEffort("notify", func() error { return r.notifier.Notify(userID, payload) })
	}
}

func (r *CascadeReconciler) trackMissions(ev *BattleResolvedEvent) {
	for _, p := range ev.Participants {
		if p.Side != ev.Winner {
			continue
		}
		userID := p.UserID
		bestEffort("mission", func() error {
			return r.missions.IncrementProgress(userID, "battles_won")
		})
	}
}
