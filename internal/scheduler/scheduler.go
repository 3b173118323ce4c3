package scheduler

import (
	"context"
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/internal/services"
	"github.com/dominionwar/dominion/pkg/logger"
	"gorm.io/gorm"
)

// Scheduler runs the periodic sweeps: a fast pass that force-resolves
// time-expired battles and rebellions, and a slow pass that decays rage,
// regenerates energy, and clears expired modifiers. Every sweep action is a
// conditional update, so overlapping invocations never double-apply effects.
type Scheduler struct {
	db         *gorm.DB
	cfg        *config.Config
	battles    *services.BattleService
	rebellions *services.RebellionService
	modifiers  *services.ModifierService
	userRepo   *repositories.UserRepository

	stop chan struct{}
}

func New(
	db *gorm.DB,
	cfg *config.Config,
	battles *services.BattleService,
	rebellions *services.RebellionService,
	modifiers *services.ModifierService,
	userRepo *repositories.UserRepository,
) *Scheduler {
	return &Scheduler{
		db:         db,
		cfg:        cfg,
		battles:    battles,
		rebellions: rebellions,
		modifiers:  modifiers,
		userRepo:   userRepo,
		stop:       make(chan struct{}),
	}
}

// Start launches both sweep loops. Call in a goroutine or rely on the
// internal ones; Start returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, s.cfg.BattleSweepInterval(), s.RunExpirySweep)
	go s.loop(ctx, s.cfg.DecaySweepInterval(), s.RunDecaySweep)
	logger.Info("scheduler started",
		"expiry_interval", s.cfg.BattleSweepInterval().String(),
		"decay_interval", s.cfg.DecaySweepInterval().String())
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, sweep func(time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case now := <-ticker.C:
			sweep(now.UTC())
		}
	}
}

// RunExpirySweep force-resolves due battles and fails lapsed agitations.
func (s *Scheduler) RunExpirySweep(now time.Time) {
	battles := s.battles.SweepDue(now)
	rebellions := s.rebellions.SweepExpiredAgitations(now)
	if battles > 0 || rebellions > 0 {
		logger.Info("expiry sweep finished", "battles_resolved", battles, "rebellions_failed", rebellions)
	}
}

// RunDecaySweep decays rage, regenerates energy (halved for exhausted
// communities), and clears expired modifier state.
func (s *Scheduler) RunDecaySweep(now time.Time) {
	if n := s.decayRage(); n > 0 {
		logger.Debug("rage decayed", "users", n)
	}

	exhausted, err := s.modifiers.ExhaustedCommunityIDs()
	if err != nil {
		logger.Error("exhaustion lookup failed", "error", err)
		exhausted = nil
	}
	if err := s.userRepo.RegenerateEnergy(s.cfg.DamageEnergyCost, exhausted); err != nil {
		logger.Error("energy regen failed", "error", err)
	}

	s.modifiers.SweepExpired(s.db, now)
}

// decayRage applies the hourly decay to every user carrying rage as an
// ordinary delta, so each step is clamped and lands in the rage ledger like
// any other trigger. One failed user never halts the pass.
func (s *Scheduler) decayRage() int {
	ids, err := s.userRepo.FindRagingUserIDs()
	if err != nil {
		logger.Error("rage decay query failed", "error", err)
		return 0
	}

	decayed := 0
	for _, id := range ids {
		userID := id
		err := s.db.Transaction(func(tx *gorm.DB) error {
			_, err := s.userRepo.ApplyRageDeltaTx(tx, userID, -s.cfg.RageHourlyDecay,
				s.cfg.RageCeiling, models.RageTriggerDecay, "hourly decay")
			return err
		})
		if err != nil {
			logger.Error("rage decay failed", "user_id", userID, "error", err)
			continue
		}
		decayed++
	}
	return decayed
}
