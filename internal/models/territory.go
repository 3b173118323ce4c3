package models

import (
	"time"
)

type Territory struct {
	ID               uint       `gorm:"primaryKey"`
	Name             string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	OwnerCommunityID *uint      `gorm:"index"` // nil = unclaimed
	DefenseBaseline  int64      `gorm:"default:10000;not null"`
	LastConqueredAt  *time.Time `gorm:"index"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (t *Territory) Claimed() bool {
	return t.OwnerCommunityID != nil
}

func (Territory) TableName() string {
	return "territories"
}

// WarDeclaration records an active hostile relationship between two
// communities. Attacking an owned territory requires one.
type WarDeclaration struct {
	ID                  uint      `gorm:"primaryKey"`
	DeclarerCommunityID uint      `gorm:"not null;index:idx_war_pair,unique"`
	TargetCommunityID   uint      `gorm:"not null;index:idx_war_pair,unique"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
}

func (WarDeclaration) TableName() string {
	return "war_declarations"
}

// Alliance records a friendly pact between two communities. Allies of a
// defeated community share in the ally_defeated rage trigger.
type Alliance struct {
	ID          uint      `gorm:"primaryKey"`
	CommunityID uint      `gorm:"not null;index:idx_alliance_pair,unique"`
	AllyID      uint      `gorm:"not null;index:idx_alliance_pair,unique"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Alliance) TableName() string {
	return "alliances"
}
