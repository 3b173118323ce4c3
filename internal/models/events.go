package models

import (
	"time"
)

// Rage trigger tags. Community-scoped events fan out one RageEvent per member.
const (
	RageTriggerTerritoryLost = "territory_lost"
	RageTriggerBattleLost    = "battle_lost"
	RageTriggerAllyDefeated  = "ally_defeated"
	RageTriggerUnderAttack   = "under_attack"
	RageTriggerDecay         = "decay"
)

// Morale trigger tags.
const (
	MoraleTriggerBattleWon        = "battle_won"
	MoraleTriggerBattleLost       = "battle_lost"
	MoraleTriggerMomentum         = "momentum"
	MoraleTriggerRebellionReward  = "rebellion_reward"
	MoraleTriggerRebellionPenalty = "rebellion_penalty"
	MoraleTriggerExilePenalty     = "exile_penalty"
	MoraleTriggerNegotiation      = "negotiation_reset"
)

// RageEvent is an append-only audit record of every rage delta. The
// authoritative value lives on the user row; these are for analytics and
// debugging.
type RageEvent struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Delta     int64     `gorm:"not null"`
	NewValue  int64     `gorm:"not null"`
	Trigger   string    `gorm:"type:varchar(50);not null;index"`
	Context   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (RageEvent) TableName() string {
	return "rage_events"
}

// MoraleEvent mirrors RageEvent for morale deltas.
type MoraleEvent struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Delta     int64     `gorm:"not null"`
	NewValue  int64     `gorm:"not null"`
	Trigger   string    `gorm:"type:varchar(50);not null;index"`
	Context   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MoraleEvent) TableName() string {
	return "morale_events"
}
