package models

import (
	"encoding/json"
	"time"
)

// CommunityModifierState holds the three community-scoped combat modifiers
// plus streak counters. One row per community; every read-modify-write goes
// through a row lock so a resolution pass never works from stale values.
type CommunityModifierState struct {
	ID          uint `gorm:"primaryKey"`
	CommunityID uint `gorm:"uniqueIndex;not null"`

	// Disarray: loser-side energy-cost penalty, decaying linearly.
	DisarrayActive    bool `gorm:"default:false;not null"`
	DisarrayStartedAt *time.Time

	// Momentum: winner-side flat morale buff with a hard expiry.
	MomentumActive    bool `gorm:"default:false;not null"`
	MomentumExpiresAt *time.Time

	// Exhaustion: repeat-conqueror regen penalty driven by a rolling window
	// of conquest timestamps, stored as a JSON list trimmed on every write.
	ExhaustionActive bool   `gorm:"default:false;not null"`
	RecentConquests  string `gorm:"type:text;default:'[]'"`

	WinStreak         int       `gorm:"default:0;not null"`
	LifetimeConquests int64     `gorm:"default:0;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// DisarrayMultiplier returns the energy-cost multiplier at the given instant:
// linear decay from ceiling to 1.0 over durationHours, 1.0 once elapsed.
func (m *CommunityModifierState) DisarrayMultiplier(now time.Time, ceiling float64, durationHours int) float64 {
	if !m.DisarrayActive || m.DisarrayStartedAt == nil {
		return 1.0
	}
	elapsed := now.Sub(*m.DisarrayStartedAt).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	mult := ceiling - (elapsed/float64(durationHours))*(ceiling-1.0)
	if mult < 1.0 {
		return 1.0
	}
	return mult
}

// DisarrayExpired reports whether the penalty has fully decayed and the flag
// should be lazily cleared on this read.
func (m *CommunityModifierState) DisarrayExpired(now time.Time, durationHours int) bool {
	if !m.DisarrayActive || m.DisarrayStartedAt == nil {
		return false
	}
	return now.Sub(*m.DisarrayStartedAt) >= time.Duration(durationHours)*time.Hour
}

// MomentumLive reports whether the morale buff is still in its window.
func (m *CommunityModifierState) MomentumLive(now time.Time) bool {
	return m.MomentumActive && m.MomentumExpiresAt != nil && now.Before(*m.MomentumExpiresAt)
}

// ConquestTimes decodes the rolling conquest window. A corrupt payload is
// treated as empty rather than failing the combat path.
func (m *CommunityModifierState) ConquestTimes() []time.Time {
	var times []time.Time
	if m.RecentConquests == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(m.RecentConquests), &times); err != nil {
		return nil
	}
	return times
}

// RecordConquest appends a conquest timestamp and trims entries older than
// the window. Returns the count remaining inside the window.
func (m *CommunityModifierState) RecordConquest(now time.Time, windowHours int) int {
	times := append(m.ConquestTimes(), now)
	times = trimWindow(times, now, windowHours)
	encoded, err := json.Marshal(times)
	if err != nil {
		encoded = []byte("[]")
	}
	m.RecentConquests = string(encoded)
	m.LifetimeConquests++
	return len(times)
}

// ConquestsInWindow counts conquests still inside the rolling window without
// mutating the stored list.
func (m *CommunityModifierState) ConquestsInWindow(now time.Time, windowHours int) int {
	return len(trimWindow(m.ConquestTimes(), now, windowHours))
}

// ExhaustionShouldClear reports whether the penalty clears: the window has
// aged below the threshold, or the community has been idle past idleHours.
func (m *CommunityModifierState) ExhaustionShouldClear(now time.Time, threshold, windowHours, idleHours int) bool {
	if !m.ExhaustionActive {
		return false
	}
	times := m.ConquestTimes()
	if len(trimWindow(times, now, windowHours)) < threshold {
		return true
	}
	latest := latestTime(times)
	return !latest.IsZero() && now.Sub(latest) >= time.Duration(idleHours)*time.Hour
}

func trimWindow(times []time.Time, now time.Time, windowHours int) []time.Time {
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func latestTime(times []time.Time) time.Time {
	var latest time.Time
	for _, t := range times {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}

// RageGain scales a trigger's base magnitude by the target's current morale:
// demoralized users gain rage faster. scaled = base * ((100-morale)/100 + 1).
func RageGain(base, morale int64) int64 {
	factor := float64(MoraleMax-morale)/float64(MoraleMax) + 1.0
	return int64(float64(base) * factor)
}

func (CommunityModifierState) TableName() string {
	return "community_modifier_states"
}
