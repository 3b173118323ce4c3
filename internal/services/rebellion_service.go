package services

import (
	"fmt"
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/internal/security"
	"github.com/dominionwar/dominion/pkg/errors"
	"github.com/dominionwar/dominion/pkg/logger"
	"gorm.io/gorm"
)

// CivilWarWinner names the faction an explicit civil-war resolution awards.
type CivilWarWinner string

const (
	WinnerLeader CivilWarWinner = "leader"
	WinnerRuler  CivilWarWinner = "ruler"
)

// RebellionService drives the uprising lifecycle: agitation, exile and
// reinvite, negotiation, and the civil war that decides it.
type RebellionService struct {
	db            *gorm.DB
	cfg           *config.Config
	rebellionRepo *repositories.RebellionRepository
	battleRepo    *repositories.BattleRepository
	communityRepo *repositories.CommunityRepository
	userRepo      *repositories.UserRepository
	cascade       *CascadeReconciler
	notifier      Notifier
}

func NewRebellionService(
	db *gorm.DB,
	cfg *config.Config,
	rebellionRepo *repositories.RebellionRepository,
	battleRepo *repositories.BattleRepository,
	communityRepo *repositories.CommunityRepository,
	userRepo *repositories.UserRepository,
	cascade *CascadeReconciler,
	notifier Notifier,
) *RebellionService {
	s := &RebellionService{
		db:            db,
		cfg:           cfg,
		rebellionRepo: rebellionRepo,
		battleRepo:    battleRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		cascade:       cascade,
		notifier:      notifier,
	}
	// Civil-war outcomes ride the same resolution cascade as every other
	// battle effect.
	cascade.RegisterCritical(s.civilWarOutcome)
	return s
}

// StartUprising opens an agitation. The requester must be a non-ruler member
// with low personal morale, or belong to a community whose average morale is
// below the (lower) community gate. The support threshold is frozen at
// creation and the requester counts as the first supporter.
func (s *RebellionService) StartUprising(userID, communityID uint) (*models.Rebellion, error) {
	community, err := s.communityRepo.GetCommunityByID(communityID)
	if err != nil {
		return nil, err
	}

	member, err := s.communityRepo.GetMember(communityID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Rank == models.RankRuler {
		return nil, errors.New(errors.ErrCodeNotEligible, "only a non-ruler member can start an uprising")
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Morale >= s.cfg.PersonalMoraleGate {
		avg, err := s.communityRepo.AverageMorale(communityID)
		if err != nil {
			return nil, err
		}
		if avg >= float64(s.cfg.CommunityMoraleGate) {
			return nil, errors.New(errors.ErrCodeMoraleTooHigh,
				"morale is too high for an uprising, personally and community-wide")
		}
	}

	var rebellion *models.Rebellion
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The community lock is the serialization point: at most one live
		// rebellion per community, even under concurrent starts.
		if _, err := s.communityRepo.GetCommunityForUpdate(tx, communityID); err != nil {
			return err
		}

		live, err := s.rebellionRepo.GetLiveByCommunityTx(tx, communityID)
		if err != nil {
			return err
		}
		if live != nil {
			return errors.New(errors.ErrCodeAlreadyInProgress, "a rebellion is already in progress")
		}

		now := time.Now().UTC()
		blocking, err := s.rebellionRepo.GetBlockingCooldownTx(tx, communityID, now)
		if err != nil {
			return err
		}
		if blocking != nil {
			return errors.New(errors.ErrCodeCooldownActive,
				fmt.Sprintf("rebellion cooldown active until %s", blocking.CooldownUntil.Format(time.RFC3339)))
		}

		nonRulers, err := s.communityRepo.NonRulerMemberCount(communityID)
		if err != nil {
			return err
		}

		rebellion = &models.Rebellion{
			CommunityID:        communityID,
			LeaderID:           userID,
			TargetRulerID:      community.RulerID,
			Status:             models.RebellionStatusAgitation,
			CurrentSupports:    1,
			RequiredSupports:   models.RequiredSupports(nonRulers, s.cfg.SupportRatio),
			AgitationExpiresAt: now.Add(s.cfg.AgitationWindow()),
		}
		if err := s.rebellionRepo.CreateRebellionTx(tx, rebellion); err != nil {
			return err
		}
		return s.rebellionRepo.CreateSupportTx(tx, rebellion.ID, userID)
	})
	if err != nil {
		return nil, err
	}

	return rebellion, nil
}

// SupportUprising adds a backer. The threshold check and the flip to battle
// happen under the rebellion lock together with the support insert, so two
// concurrent supporters can never double-trigger the civil war.
func (s *RebellionService) SupportUprising(userID, rebellionID uint) (*models.Rebellion, bool, error) {
	existing, err := s.rebellionRepo.GetRebellionByID(rebellionID)
	if err != nil {
		return nil, false, err
	}

	member, err := s.communityRepo.GetMember(existing.CommunityID, userID)
	if err != nil {
		return nil, false, err
	}
	if member == nil {
		return nil, false, errors.New(errors.ErrCodeNotEligible, "not a member of this community")
	}
	if member.Rank == models.RankRuler {
		return nil, false, errors.New(errors.ErrCodeNotEligible, "the ruler cannot support an uprising")
	}

	already, err := s.rebellionRepo.HasSupport(rebellionID, userID)
	if err != nil {
		return nil, false, err
	}
	if already {
		return nil, false, errors.New(errors.ErrCodeAlreadyExists, "already supporting this rebellion")
	}

	var rebellion *models.Rebellion
	civilWarStarted := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		rebellion, err = s.rebellionRepo.GetRebellionForUpdate(tx, rebellionID)
		if err != nil {
			return err
		}
		if rebellion.Status != models.RebellionStatusAgitation {
			return errors.New(errors.ErrCodeStateConflict, "rebellion is past agitation")
		}
		if rebellion.IsLeaderExiled {
			return errors.New(errors.ErrCodeStateConflict, "rebellion is paused while the leader is exiled")
		}

		if err := s.rebellionRepo.CreateSupportTx(tx, rebellionID, userID); err != nil {
			return err
		}
		rebellion.CurrentSupports++

		if rebellion.ThresholdReached() {
			if err := s.startCivilWarTx(tx, rebellion); err != nil {
				return err
			}
			rebellion.Status = models.RebellionStatusBattle
			civilWarStarted = true
		}
		return s.rebellionRepo.SaveRebellionTx(tx, rebellion)
	})
	if err != nil {
		return nil, false, err
	}

	if civilWarStarted {
		payload := fmt.Sprintf(`{"type":"civil_war_started","rebellion_id":%d}`, rebellionID)
		bestEffort("notify", func() error { return s.notifier.Notify(rebellion.TargetRulerID, payload) })
	}
	return rebellion, civilWarStarted, nil
}

// startCivilWarTx instantiates the paired battle: rebel faction attacks, the
// incumbent ruler's faction defends, within the same community.
func (s *RebellionService) startCivilWarTx(tx *gorm.DB, rebellion *models.Rebellion) error {
	now := time.Now().UTC()
	communityID := rebellion.CommunityID
	battle := &models.Battle{
		AttackerCommunityID: communityID,
		DefenderCommunityID: &communityID,
		StartedAt:           now,
		EndsAt:              now.Add(s.cfg.BattleDuration()),
		InitialDefense:      s.cfg.InitialDefense,
		CurrentDefense:      s.cfg.InitialDefense,
		Status:              models.BattleStatusActive,
		IsCivilWar:          true,
	}
	if err := s.battleRepo.CreateBattleTx(tx, battle); err != nil {
		return err
	}
	return s.rebellionRepo.CreateCivilWarTx(tx, &models.CivilWar{
		RebellionID: rebellion.ID,
		BattleID:    battle.ID,
	})
}

// ExileLeader lets the ruler banish the instigator. The rebellion pauses
// rather than ends, a cooldown opens, and exiling costs the ruler morale.
func (s *RebellionService) ExileLeader(rebellionID, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rebellion, err := s.rebellionRepo.GetRebellionForUpdate(tx, rebellionID)
		if err != nil {
			return err
		}
		if rebellion.Status != models.RebellionStatusAgitation {
			return errors.New(errors.ErrCodeStateConflict, "rebellion is past agitation")
		}
		if rebellion.IsLeaderExiled {
			return errors.New(errors.ErrCodeStateConflict, "leader is already exiled")
		}

		community, err := s.communityRepo.GetCommunityByID(rebellion.CommunityID)
		if err != nil {
			return err
		}
		if community.RulerID != actorID {
			return errors.New(errors.ErrCodeForbidden, "only the ruler can exile the rebellion leader")
		}

		if err := s.communityRepo.RemoveMemberTx(tx, rebellion.CommunityID, rebellion.LeaderID); err != nil {
			return err
		}

		now := time.Now().UTC()
		cooldown := now.Add(s.cfg.ExileCooldown())
		cooldownType := models.CooldownExile
		rebellion.IsLeaderExiled = true
		rebellion.CooldownUntil = &cooldown
		rebellion.CooldownType = &cooldownType
		if err := s.rebellionRepo.SaveRebellionTx(tx, rebellion); err != nil {
			return err
		}

		// Exiling is costly.
		_, err = s.userRepo.ApplyMoraleDeltaTx(tx, actorID, -s.cfg.ExileMoralePenalty,
			models.MoraleTriggerExilePenalty, fmt.Sprintf("exiled leader of rebellion %d", rebellionID))
		return err
	})
}

// ReinviteLeader restores an exiled leader's membership and lifts the pause.
// Only the two highest ranks may extend the invitation. Support accrual
// resumes from its prior count.
func (s *RebellionService) ReinviteLeader(rebellionID, inviterID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rebellion, err := s.rebellionRepo.GetRebellionForUpdate(tx, rebellionID)
		if err != nil {
			return err
		}
		if rebellion.Status != models.RebellionStatusAgitation || !rebellion.IsLeaderExiled {
			return errors.New(errors.ErrCodeStateConflict, "rebellion is not exile-paused")
		}

		inviter, err := s.communityRepo.GetMember(rebellion.CommunityID, inviterID)
		if err != nil {
			return err
		}
		if inviter == nil || !inviter.Rank.CanReinvite() {
			return errors.New(errors.ErrCodeForbidden, "rank too low to reinvite the leader")
		}

		if err := s.communityRepo.AddMemberTx(tx, rebellion.CommunityID, rebellion.LeaderID, models.RankSoldier); err != nil {
			return err
		}

		rebellion.IsLeaderExiled = false
		rebellion.CooldownUntil = nil
		rebellion.CooldownType = nil
		return s.rebellionRepo.SaveRebellionTx(tx, rebellion)
	})
}

// RequestNegotiation opens the ruler-initiated handshake. The terms payload
// is free-form and sanitized before storage.
func (s *RebellionService) RequestNegotiation(rebellionID, actorID uint, terms string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rebellion, err := s.rebellionRepo.GetRebellionForUpdate(tx, rebellionID)
		if err != nil {
			return err
		}
		if !rebellion.Status.Live() {
			return errors.New(errors.ErrCodeStateConflict, "rebellion already concluded")
		}

		community, err := s.communityRepo.GetCommunityByID(rebellion.CommunityID)
		if err != nil {
			return err
		}
		if community.RulerID != actorID {
			return errors.New(errors.ErrCodeForbidden, "only the ruler can request negotiation")
		}

		open, err := s.rebellionRepo.GetOpenNegotiationTx(tx, rebellionID)
		if err != nil {
			return err
		}
		if open != nil {
			return errors.New(errors.ErrCodeAlreadyExists, "negotiation already pending")
		}

		negotiation := &models.RebellionNegotiation{
			RebellionID: rebellionID,
			RequestedAt: time.Now().UTC(),
			Terms:       security.SanitizeText(terms),
		}
		if err := s.rebellionRepo.CreateNegotiationTx(tx, negotiation); err != nil {
			return err
		}

		payload := fmt.Sprintf(`{"type":"negotiation_requested","rebellion_id":%d}`, rebellionID)
		bestEffort("notify", func() error { return s.notifier.Notify(rebellion.LeaderID, payload) })
		return nil
	})
}

// RespondToNegotiation records the leader's answer. Acceptance ends the
// rebellion as negotiated with the long cooldown and resets both principals'
// morale to the neutral midpoint; rejection changes nothing.
func (s *RebellionService) RespondToNegotiation(rebellionID, actorID uint, accept bool) (models.RebellionStatus, error) {
	var status models.RebellionStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rebellion, err := s.rebellionRepo.GetRebellionForUpdate(tx, rebellionID)
		if err != nil {
			return err
		}
		status = rebellion.Status
		if !rebellion.Status.Live() {
			return errors.New(errors.ErrCodeStateConflict, "rebellion already concluded")
		}
		if rebellion.LeaderID != actorID {
			return errors.New(errors.ErrCodeForbidden, "only the rebellion leader can answer")
		}

		negotiation, err := s.rebellionRepo.GetOpenNegotiationTx(tx, rebellionID)
		if err != nil {
			return err
		}
		if negotiation == nil {
			return errors.New(errors.ErrCodeStateConflict, "no pending negotiation")
		}

		now := time.Now().UTC()
		negotiation.Accepted = &accept
		negotiation.ResponseAt = &now
		if err := s.rebellionRepo.SaveNegotiationTx(tx, negotiation); err != nil {
			return err
		}

		if !accept {
			return nil
		}

		cooldown := now.Add(s.cfg.NegotiationCooldown())
		cooldownType := models.CooldownNegotiation
		rebellion.Status = models.RebellionStatusNegotiated
		rebellion.CooldownUntil = &cooldown
		rebellion.CooldownType = &cooldownType
		if err := s.rebellionRepo.SaveRebellionTx(tx, rebellion); err != nil {
			return err
		}
		status = rebellion.Status

		// Both principals walk away at the neutral midpoint.
		context := fmt.Sprintf("negotiated settlement of rebellion %d", rebellionID)
		if err := s.userRepo.SetMoraleTx(tx, rebellion.LeaderID, s.cfg.NeutralMorale,
			models.MoraleTriggerNegotiation, context); err != nil {
			return err
		}
		return s.userRepo.SetMoraleTx(tx, rebellion.TargetRulerID, s.cfg.NeutralMorale,
			models.MoraleTriggerNegotiation, context)
	})
	return status, err
}

// ResolveCivilWar force-finishes a civil war for the named winner. The
// underlying battle flips terminal and the shared cascade (including the
// civil-war outcome handler) runs exactly once.
func (s *RebellionService) ResolveCivilWar(civilWarID uint, winner CivilWarWinner) (models.RebellionStatus, error) {
	if winner != WinnerLeader && winner != WinnerRuler {
		return "", errors.New(errors.ErrCodeValidation, "winner must be leader or ruler")
	}

	civilWar, err := s.rebellionRepo.GetCivilWarByID(civilWarID)
	if err != nil {
		return "", err
	}

	var event *BattleResolvedEvent
	var cascaded bool
	var status models.RebellionStatus

	err = s.db.Transaction(func(tx *gorm.DB) error {
		battle, err := s.battleRepo.GetBattleForUpdate(tx, civilWar.BattleID)
		if err != nil {
			return err
		}
		if battle.Status.Terminal() {
			return errors.New(errors.ErrCodeStateConflict, "civil war already resolved")
		}

		now := time.Now().UTC()
		outcome := models.BattleStatusAttackerWon
		side := models.SideAttacker
		if winner == WinnerRuler {
			outcome = models.BattleStatusDefenderWon
			side = models.SideDefender
		}
		if _, err := s.battleRepo.MarkResolvedTx(tx, battle.ID, outcome, now); err != nil {
			return err
		}
		battle.Status = outcome

		participants, err := s.battleRepo.GetParticipantsTx(tx, battle.ID)
		if err != nil {
			return err
		}
		event = &BattleResolvedEvent{
			Battle:       battle,
			Winner:       side,
			Participants: participants,
			Now:          now,
		}
		cascaded, err = s.cascade.RunCriticalTx(tx, event)
		if err != nil {
			return err
		}

		// Re-read through the transaction: the civil-war outcome handler has
		// just flipped the status, and that write is not committed yet.
		rebellion, err := s.rebellionRepo.GetRebellionByIDTx(tx, civilWar.RebellionID)
		if err != nil {
			return err
		}
		status = rebellion.Status
		return nil
	})
	if err != nil {
		return "", err
	}

	if cascaded && event != nil {
		s.cascade.RunBestEffort(event)
	}
	return status, nil
}

// civilWarOutcome is the critical cascade handler that turns a resolved
// civil-war battle into the rebellion's terminal state: promotion and morale
// fan-out on a rebel win, a long cooldown on a ruler win.
func (s *RebellionService) civilWarOutcome(tx *gorm.DB, ev *BattleResolvedEvent) error {
	if !ev.Battle.IsCivilWar {
		return nil
	}

	civilWar, err := s.rebellionRepo.GetCivilWarByBattleTx(tx, ev.Battle.ID)
	if err != nil {
		return err
	}
	if civilWar == nil {
		return nil
	}

	rebellion, err := s.rebellionRepo.GetRebellionForUpdate(tx, civilWar.RebellionID)
	if err != nil {
		return err
	}
	if rebellion.Status.Terminal() {
		return nil
	}

	if ev.Winner == models.SideAttacker {
		return s.rebelsWinTx(tx, rebellion, ev)
	}

	rebellion.ConcludeCivilWar(false, ev.Now, s.cfg.FailureCooldown())
	return s.rebellionRepo.SaveRebellionTx(tx, rebellion)
}

func (s *RebellionService) rebelsWinTx(tx *gorm.DB, rebellion *models.Rebellion, ev *BattleResolvedEvent) error {
	communityID := rebellion.CommunityID

	// The leader takes the throne, the old ruler falls to the ranks.
	if err := s.communityRepo.SetMemberRankTx(tx, communityID, rebellion.TargetRulerID, models.RankSoldier); err != nil {
		return err
	}
	if err := s.communityRepo.SetMemberRankTx(tx, communityID, rebellion.LeaderID, models.RankRuler); err != nil {
		return err
	}
	if err := s.communityRepo.SetRulerTx(tx, communityID, rebellion.LeaderID); err != nil {
		return err
	}

	supporterIDs, err := s.rebellionRepo.GetSupporterIDsTx(tx, rebellion.ID)
	if err != nil {
		return err
	}
	supporters := make(map[uint]bool, len(supporterIDs))
	for _, id := range supporterIDs {
		supporters[id] = true
	}

	members, err := s.communityRepo.GetMembers(communityID)
	if err != nil {
		return err
	}
	context := fmt.Sprintf("rebellion %d succeeded", rebellion.ID)
	for _, member := range members {
		switch {
		case supporters[member.UserID]:
			if _, err := s.userRepo.ApplyMoraleDeltaTx(tx, member.UserID,
				s.cfg.SupporterMoraleBonus, models.MoraleTriggerRebellionReward, context); err != nil {
				return err
			}
		case member.UserID != rebellion.TargetRulerID:
			if _, err := s.userRepo.ApplyMoraleDeltaTx(tx, member.UserID,
				-s.cfg.BystanderMoralePenalty, models.MoraleTriggerRebellionPenalty, context); err != nil {
				return err
			}
		}
	}

	rebellion.ConcludeCivilWar(true, ev.Now, s.cfg.FailureCooldown())
	return s.rebellionRepo.SaveRebellionTx(tx, rebellion)
}

// SweepExpiredAgitations fails every agitation whose deadline lapsed without
// reaching threshold. Each failure is its own conditional update, so
// overlapping sweeps and already-flipped rebellions are no-ops.
func (s *RebellionService) SweepExpiredAgitations(now time.Time) int {
	ids, err := s.rebellionRepo.FindExpiredAgitationIDs(now)
	if err != nil {
		logger.Error("agitation sweep query failed", "error", err)
		return 0
	}

	failed := 0
	cooldown := now.Add(s.cfg.FailureCooldown())
	for _, id := range ids {
		var flipped bool
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			flipped, err = s.rebellionRepo.FailExpiredTx(tx, id, cooldown)
			return err
		})
		if err != nil {
			logger.Error("agitation sweep failed", "rebellion_id", id, "error", err)
			continue
		}
		if flipped {
			failed++
		}
	}
	return failed
}
