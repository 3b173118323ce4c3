package models

import (
	"testing"
	"time"
)

func TestCommunityModifierState_DisarrayMultiplier(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		active  bool
		elapsed time.Duration
		want    float64
	}{
		{
			name:    "Full penalty at loss",
			active:  true,
			elapsed: 0,
			want:    1.5,
		},
		{
			name:    "Half decayed",
			active:  true,
			elapsed: 12 * time.Hour,
			want:    1.25,
		},
		{
			name:    "Fully decayed at duration",
			active:  true,
			elapsed: 24 * time.Hour,
			want:    1.0,
		},
		{
			name:    "Past duration stays at one",
			active:  true,
			elapsed: 48 * time.Hour,
			want:    1.0,
		},
		{
			name:    "Inactive",
			active:  false,
			elapsed: 0,
			want:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &CommunityModifierState{
				DisarrayActive:    tt.active,
				DisarrayStartedAt: &start,
			}

			got := state.DisarrayMultiplier(start.Add(tt.elapsed), 1.5, 24)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("DisarrayMultiplier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommunityModifierState_DisarrayExpired(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	state := &CommunityModifierState{
		DisarrayActive:    true,
		DisarrayStartedAt: &start,
	}

	if state.DisarrayExpired(start.Add(23*time.Hour), 24) {
		t.Error("DisarrayExpired() = true before the duration elapsed")
	}
	if !state.DisarrayExpired(start.Add(24*time.Hour), 24) {
		t.Error("DisarrayExpired() = false at the duration boundary")
	}

	inactive := &CommunityModifierState{}
	if inactive.DisarrayExpired(start, 24) {
		t.Error("DisarrayExpired() = true for inactive state")
	}
}

func TestCommunityModifierState_MomentumLive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name      string
		active    bool
		expiresAt *time.Time
		want      bool
	}{
		{
			name:      "Active inside window",
			active:    true,
			expiresAt: &future,
			want:      true,
		},
		{
			name:      "Active but expired",
			active:    true,
			expiresAt: &past,
			want:      false,
		},
		{
			name:      "Inactive",
			active:    false,
			expiresAt: &future,
			want:      false,
		},
		{
			name:      "Active without expiry",
			active:    true,
			expiresAt: nil,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &CommunityModifierState{
				MomentumActive:    tt.active,
				MomentumExpiresAt: tt.expiresAt,
			}

			if got := state.MomentumLive(now); got != tt.want {
				t.Errorf("MomentumLive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommunityModifierState_RecordConquest(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	state := &CommunityModifierState{RecentConquests: "[]"}

	if got := state.RecordConquest(now.Add(-30*time.Hour), 24); got != 1 {
		t.Errorf("RecordConquest() first = %d, want 1", got)
	}
	if got := state.RecordConquest(now.Add(-2*time.Hour), 24); got != 1 {
		t.Errorf("RecordConquest() after trim = %d, want 1 (older entry outside window)", got)
	}
	if got := state.RecordConquest(now.Add(-time.Hour), 24); got != 2 {
		t.Errorf("RecordConquest() = %d, want 2", got)
	}
	if got := state.RecordConquest(now, 24); got != 3 {
		t.Errorf("RecordConquest() = %d, want 3", got)
	}

	if state.LifetimeConquests != 4 {
		t.Errorf("LifetimeConquests = %d, want 4 (trim never touches the lifetime counter)", state.LifetimeConquests)
	}
	if got := state.ConquestsInWindow(now, 24); got != 3 {
		t.Errorf("ConquestsInWindow() = %d, want 3", got)
	}
}

func TestCommunityModifierState_ConquestTimes_CorruptPayload(t *testing.T) {
	state := &CommunityModifierState{RecentConquests: "{not json"}
	if got := state.ConquestTimes(); got != nil {
		t.Errorf("ConquestTimes() = %v for corrupt payload, want nil", got)
	}
}

func TestCommunityModifierState_ExhaustionShouldClear(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	encode := func(offsets ...time.Duration) string {
		state := &CommunityModifierState{RecentConquests: "[]"}
		for _, off := range offsets {
			state.RecordConquest(now.Add(off), 1000)
		}
		return state.RecentConquests
	}

	tests := []struct {
		name    string
		active  bool
		payload string
		want    bool
	}{
		{
			name:    "Inactive never clears",
			active:  false,
			payload: encode(-time.Hour, -2*time.Hour, -3*time.Hour),
			want:    false,
		},
		{
			name:    "Window still saturated",
			active:  true,
			payload: encode(-time.Hour, -2*time.Hour, -3*time.Hour),
			want:    false,
		},
		{
			name:    "Aged below threshold",
			active:  true,
			payload: encode(-30*time.Hour, -28*time.Hour, -2*time.Hour),
			want:    true,
		},
		{
			name:    "Idle past the idle bar",
			active:  true,
			payload: encode(-23*time.Hour, -22*time.Hour, -13*time.Hour),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &CommunityModifierState{
				ExhaustionActive: tt.active,
				RecentConquests:  tt.payload,
			}

			if got := state.ExhaustionShouldClear(now, 3, 24, 12); got != tt.want {
				t.Errorf("ExhaustionShouldClear() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRageGain(t *testing.T) {
	tests := []struct {
		name   string
		base   int64
		morale int64
		want   int64
	}{
		{
			name:   "Neutral morale",
			base:   30,
			morale: 50,
			want:   45,
		},
		{
			name:   "Rock-bottom morale doubles the gain",
			base:   30,
			morale: 0,
			want:   60,
		},
		{
			name:   "Max morale gains the base",
			base:   30,
			morale: 100,
			want:   30,
		},
		{
			name:   "Battle-lost trigger at low morale",
			base:   20,
			morale: 25,
			want:   35,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RageGain(tt.base, tt.morale); got != tt.want {
				t.Errorf("RageGain(%d, %d) = %d, want %d", tt.base, tt.morale, got, tt.want)
			}
		})
	}
}
