package models

import (
	"time"

	"gorm.io/gorm"
)

// BattleStatus is a closed set; battles only ever move active -> terminal.
type BattleStatus string

const (
	BattleStatusActive      BattleStatus = "active"
	BattleStatusAttackerWon BattleStatus = "attacker_won"
	BattleStatusDefenderWon BattleStatus = "defender_won"
)

func (s BattleStatus) Valid() bool {
	switch s {
	case BattleStatusActive, BattleStatusAttackerWon, BattleStatusDefenderWon:
		return true
	}
	return false
}

func (s BattleStatus) Terminal() bool {
	return s == BattleStatusAttackerWon || s == BattleStatusDefenderWon
}

// BattleSide identifies which faction a participant fights for.
type BattleSide string

const (
	SideAttacker BattleSide = "attacker"
	SideDefender BattleSide = "defender"
)

func (s BattleSide) Valid() bool {
	return s == SideAttacker || s == SideDefender
}

type Battle struct {
	ID                  uint         `gorm:"primaryKey"`
	AttackerCommunityID uint         `gorm:"not null;index"`
	DefenderCommunityID *uint        `gorm:"index"` // nil = unclaimed territory
	TerritoryID         *uint        `gorm:"index"` // nil for civil wars
	StartedAt           time.Time    `gorm:"not null"`
	EndsAt              time.Time    `gorm:"not null;index"`
	InitialDefense      int64        `gorm:"not null"`
	CurrentDefense      int64        `gorm:"not null"`
	AttackerScore       int64        `gorm:"default:0;not null"`
	DefenderScore       int64        `gorm:"default:0;not null"`
	Status              BattleStatus `gorm:"type:varchar(20);default:'active';index"`
	IsCivilWar          bool         `gorm:"default:false;not null"`
	ResolvedAt          *time.Time
	RankingsProcessedAt *time.Time // cascade idempotency marker
	CreatedAt           time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime"`
}

// DueForResolution reports whether an active battle is ready to resolve:
// defense depleted or deadline reached.
func (b *Battle) DueForResolution(now time.Time) bool {
	if b.Status != BattleStatusActive {
		return false
	}
	return b.CurrentDefense <= 0 || !now.Before(b.EndsAt)
}

// Outcome decides the terminal status for a due battle. Depletion is checked
// before the deadline, so dropping defense to zero wins even exactly at the
// end time.
func (b *Battle) Outcome(now time.Time) BattleStatus {
	if b.CurrentDefense <= 0 {
		return BattleStatusAttackerWon
	}
	if !now.Before(b.EndsAt) {
		return BattleStatusDefenderWon
	}
	return BattleStatusActive
}

// RepairableTo caps a defense repair so current never exceeds initial.
func (b *Battle) RepairableTo(amount int64) int64 {
	repaired := b.CurrentDefense + amount
	if repaired > b.InitialDefense {
		return b.InitialDefense
	}
	return repaired
}

func (b *Battle) BeforeSave(tx *gorm.DB) error {
	if !b.Status.Valid() {
		return gorm.ErrInvalidData
	}
	if b.CurrentDefense > b.InitialDefense {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Battle) TableName() string {
	return "battles"
}

type BattleParticipant struct {
	ID          uint       `gorm:"primaryKey"`
	BattleID    uint       `gorm:"not null;index:idx_battle_participant,unique"`
	UserID      uint       `gorm:"not null;index:idx_battle_participant,unique"`
	CommunityID uint       `gorm:"not null;index"`
	Side        BattleSide `gorm:"type:varchar(10);not null"`
	DamageDealt int64      `gorm:"default:0;not null"`
	Won         bool       `gorm:"default:false;not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (BattleParticipant) TableName() string {
	return "battle_participants"
}

// BattleAction is the raw per-hit log kept for audit and replay.
type BattleAction struct {
	ID              uint       `gorm:"primaryKey"`
	BattleID        uint       `gorm:"not null;index"`
	UserID          uint       `gorm:"not null;index"`
	Side            BattleSide `gorm:"type:varchar(10);not null"`
	RawAmount       int64      `gorm:"not null"`
	EffectiveAmount int64      `gorm:"not null"`
	Critical        bool       `gorm:"default:false;not null"`
	EnergyCost      int64      `gorm:"default:0;not null"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index"`
}

func (BattleAction) TableName() string {
	return "battle_actions"
}
