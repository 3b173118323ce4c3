package services

import (
	"github.com/dominionwar/dominion/pkg/logger"
)

// The combat core consumes the surrounding game systems through these narrow
// interfaces. They are collaborators, not owned subsystems: failures from any
// of them are logged and swallowed at the call site, never allowed to roll
// back a battle or rebellion transition.

// Wallet is the currency system boundary.
type Wallet interface {
	Credit(userID uint, currency string, amount int64) error
	Debit(userID uint, currency string, amount int64) error
}

// Notifier is the outbound notification boundary.
type Notifier interface {
	Notify(userID uint, payload string) error
}

// MissionTracker is the battle-pass/mission progress boundary.
type MissionTracker interface {
	IncrementProgress(userID uint, missionKey string) error
}

// NoopWallet satisfies Wallet when no economy backend is wired.
type NoopWallet struct{}

func (NoopWallet) Credit(userID uint, currency string, amount int64) error { return nil }
func (NoopWallet) Debit(userID uint, currency string, amount int64) error  { return nil }

// NoopNotifier drops notifications.
type NoopNotifier struct{}

func (NoopNotifier) Notify(userID uint, payload string) error { return nil }

// NoopMissionTracker drops mission progress.
type NoopMissionTracker struct{}

func (NoopMissionTracker) IncrementProgress(userID uint, missionKey string) error { return nil }

// bestEffort runs a collaborator call and logs the failure instead of
// propagating it. The discarded error is the visible non-critical boundary.
func bestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("non-critical side effect failed", "op", op, "error", err)
	}
}
