package models

import (
	"math"
	"time"
)

type Community struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	RulerID     uint      `gorm:"not null"`
	Ruler       User      `gorm:"foreignKey:RulerID"`
	Description string    `gorm:"type:text"`
	RankScore   int64     `gorm:"default:0;not null"` // military ranking
	MemberCount int       `gorm:"default:1;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type CommunityMember struct {
	ID          uint       `gorm:"primaryKey"`
	CommunityID uint       `gorm:"not null;index:idx_community_member,unique"`
	UserID      uint       `gorm:"not null;index:idx_community_member,unique"`
	Rank        MemberRank `gorm:"type:varchar(20);default:'soldier'"`
	JoinedAt    time.Time  `gorm:"autoCreateTime"`
	Community   Community  `gorm:"foreignKey:CommunityID"`
	User        User       `gorm:"foreignKey:UserID"`
}

// MemberRank is the community hierarchy, highest first: ruler, general,
// officer, soldier. Ruler and general are the two ranks allowed to reinvite
// an exiled rebellion leader.
type MemberRank string

const (
	RankRuler   MemberRank = "ruler"
	RankGeneral MemberRank = "general"
	RankOfficer MemberRank = "officer"
	RankSoldier MemberRank = "soldier"
)

func (r MemberRank) Valid() bool {
	switch r {
	case RankRuler, RankGeneral, RankOfficer, RankSoldier:
		return true
	}
	return false
}

// CanReinvite reports whether the rank is high enough to reinvite an exiled
// rebellion leader.
func (r MemberRank) CanReinvite() bool {
	return r == RankRuler || r == RankGeneral
}

// CanCommand reports whether the rank may act for the community in foreign
// affairs: war declarations and alliances.
func (r MemberRank) CanCommand() bool {
	return r == RankRuler || r == RankGeneral
}

// RequiredSupports computes the support threshold for a rebellion: a fixed
// share of the non-ruler membership, never below one. The value is frozen at
// rebellion creation.
func RequiredSupports(nonRulerMembers int, ratio float64) int {
	if nonRulerMembers <= 0 {
		return 1
	}
	n := int(math.Ceil(ratio * float64(nonRulerMembers)))
	if n < 1 {
		return 1
	}
	return n
}

func (Community) TableName() string {
	return "communities"
}

func (CommunityMember) TableName() string {
	return "community_members"
}
