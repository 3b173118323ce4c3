package models

import (
	"time"

	"gorm.io/gorm"
)

// RebellionStatus is a closed set. agitation and battle are the live states;
// success, failed and negotiated are terminal.
type RebellionStatus string

const (
	RebellionStatusAgitation  RebellionStatus = "agitation"
	RebellionStatusBattle     RebellionStatus = "battle"
	RebellionStatusSuccess    RebellionStatus = "success"
	RebellionStatusFailed     RebellionStatus = "failed"
	RebellionStatusNegotiated RebellionStatus = "negotiated"
)

func (s RebellionStatus) Valid() bool {
	switch s {
	case RebellionStatusAgitation, RebellionStatusBattle,
		RebellionStatusSuccess, RebellionStatusFailed, RebellionStatusNegotiated:
		return true
	}
	return false
}

func (s RebellionStatus) Live() bool {
	return s == RebellionStatusAgitation || s == RebellionStatusBattle
}

func (s RebellionStatus) Terminal() bool {
	return s.Valid() && !s.Live()
}

// CooldownType tags why a community is blocked from starting a new rebellion.
type CooldownType string

const (
	CooldownExile       CooldownType = "exile"
	CooldownFailure     CooldownType = "failure"
	CooldownNegotiation CooldownType = "negotiation"
)

func (c CooldownType) Valid() bool {
	switch c {
	case CooldownExile, CooldownFailure, CooldownNegotiation:
		return true
	}
	return false
}

type Rebellion struct {
	ID                 uint            `gorm:"primaryKey"`
	CommunityID        uint            `gorm:"not null;index"`
	LeaderID           uint            `gorm:"not null;index"` // instigator
	TargetRulerID      uint            `gorm:"not null"`       // the ruler being deposed
	Status             RebellionStatus `gorm:"type:varchar(20);default:'agitation';index"`
	CurrentSupports    int             `gorm:"default:1;not null"`
	RequiredSupports   int             `gorm:"not null"` // frozen at creation
	AgitationExpiresAt time.Time       `gorm:"not null;index"`
	IsLeaderExiled     bool            `gorm:"default:false;not null"`
	CooldownUntil      *time.Time      `gorm:"index"`
	CooldownType       *CooldownType   `gorm:"type:varchar(20)"`
	CreatedAt          time.Time       `gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime"`
}

// ThresholdReached reports whether support has hit the frozen requirement.
func (r *Rebellion) ThresholdReached() bool {
	return r.CurrentSupports >= r.RequiredSupports
}

// AgitationExpired reports whether the agitation window has lapsed without
// the threshold being met. An exile pause does not stop the clock.
func (r *Rebellion) AgitationExpired(now time.Time) bool {
	return r.Status == RebellionStatusAgitation && !now.Before(r.AgitationExpiresAt)
}

// ConcludeCivilWar flips the rebellion to its terminal state for a decided
// civil war: success on a rebel win, failed with the failure cooldown on a
// ruler win.
func (r *Rebellion) ConcludeCivilWar(rebelsWon bool, now time.Time, failureCooldown time.Duration) {
	if rebelsWon {
		r.Status = RebellionStatusSuccess
		return
	}
	cooldown := now.Add(failureCooldown)
	cooldownType := CooldownFailure
	r.Status = RebellionStatusFailed
	r.CooldownUntil = &cooldown
	r.CooldownType = &cooldownType
}

// CooldownActive reports whether the rebellion still blocks a new uprising.
func (r *Rebellion) CooldownActive(now time.Time) bool {
	return r.CooldownUntil != nil && now.Before(*r.CooldownUntil)
}

func (r *Rebellion) BeforeSave(tx *gorm.DB) error {
	if !r.Status.Valid() {
		return gorm.ErrInvalidData
	}
	if r.CooldownType != nil && !r.CooldownType.Valid() {
		return gorm.ErrInvalidData
	}
	if r.RequiredSupports < 1 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Rebellion) TableName() string {
	return "rebellions"
}

// RebellionSupport existence is the unit of backing; one row per supporter.
type RebellionSupport struct {
	ID          uint      `gorm:"primaryKey"`
	RebellionID uint      `gorm:"not null;index:idx_rebellion_supporter,unique"`
	UserID      uint      `gorm:"not null;index:idx_rebellion_supporter,unique"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (RebellionSupport) TableName() string {
	return "rebellion_supports"
}

// CivilWar joins a rebellion in battle status to the battle that decides it.
type CivilWar struct {
	ID          uint      `gorm:"primaryKey"`
	RebellionID uint      `gorm:"uniqueIndex;not null"`
	BattleID    uint      `gorm:"uniqueIndex;not null"`
	Rebellion   Rebellion `gorm:"foreignKey:RebellionID"`
	Battle      Battle    `gorm:"foreignKey:BattleID"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (CivilWar) TableName() string {
	return "civil_wars"
}

// RebellionNegotiation records the ruler-initiated handshake. Terms is a
// free-form payload reserved for future extension; it is sanitized before
// being stored.
type RebellionNegotiation struct {
	ID          uint       `gorm:"primaryKey"`
	RebellionID uint       `gorm:"not null;index"`
	RequestedAt time.Time  `gorm:"not null"`
	Accepted    *bool      // nil = unanswered
	ResponseAt  *time.Time
	Terms       string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

// Answered reports whether the leader has already responded.
func (n *RebellionNegotiation) Answered() bool {
	return n.Accepted != nil
}

func (RebellionNegotiation) TableName() string {
	return "rebellion_negotiations"
}
