package models

import (
	"time"

	"gorm.io/gorm"
)

// Counter bounds enforced by the ledger. Morale and rage are clamped on every
// write; energy floors at zero.
const (
	MoraleMin = 0
	MoraleMax = 100
	RageMin   = 0
	RageMax   = 100
	EnergyMax = 100
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Morale       int64     `gorm:"default:50;not null"`
	Rage         int64     `gorm:"default:0;not null"`
	Energy       int64     `gorm:"default:100;not null"`
	Focus        int64     `gorm:"default:0;not null"` // sharpens the critical roll at half weight
	RankScore    int64     `gorm:"default:0;not null"`
	Wins         int       `gorm:"default:0;not null"`
	Losses       int       `gorm:"default:0;not null"`
	ChatID       int64     `gorm:"default:0"` // companion bot channel, 0 = not linked
	LastActivity time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// ClampMorale bounds a candidate morale value to [MoraleMin, MoraleMax].
func ClampMorale(v int64) int64 {
	if v < MoraleMin {
		return MoraleMin
	}
	if v > MoraleMax {
		return MoraleMax
	}
	return v
}

// ClampRage bounds a candidate rage value to [RageMin, ceiling].
func ClampRage(v, ceiling int64) int64 {
	if v < RageMin {
		return RageMin
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

// ClampEnergy floors energy at zero and caps it at EnergyMax.
func ClampEnergy(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > EnergyMax {
		return EnergyMax
	}
	return v
}

// BeforeSave keeps persisted counters inside their ledger bounds.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Username == "" {
		return gorm.ErrInvalidData
	}
	if u.Morale < MoraleMin || u.Morale > MoraleMax {
		return gorm.ErrInvalidData
	}
	if u.Rage < RageMin || u.Rage > RageMax {
		return gorm.ErrInvalidData
	}
	return nil
}

func (User) TableName() string {
	return "users"
}
