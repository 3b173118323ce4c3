package models

import (
	"testing"
	"time"
)

func TestRebellionStatus_Live(t *testing.T) {
	tests := []struct {
		name   string
		status RebellionStatus
		want   bool
	}{
		{
			name:   "Agitation is live",
			status: RebellionStatusAgitation,
			want:   true,
		},
		{
			name:   "Battle is live",
			status: RebellionStatusBattle,
			want:   true,
		},
		{
			name:   "Success is terminal",
			status: RebellionStatusSuccess,
			want:   false,
		},
		{
			name:   "Failed is terminal",
			status: RebellionStatusFailed,
			want:   false,
		},
		{
			name:   "Negotiated is terminal",
			status: RebellionStatusNegotiated,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Live(); got != tt.want {
				t.Errorf("Live() = %v, want %v", got, tt.want)
			}

			// A valid status is either live or terminal, never both.
			if tt.status.Terminal() == tt.want {
				t.Errorf("Terminal() = %v, expected the opposite of Live()", tt.status.Terminal())
			}
		})
	}
}

func TestRebellionStatus_Terminal_InvalidStatus(t *testing.T) {
	if RebellionStatus("cancelled").Terminal() {
		t.Error("Terminal() = true for unknown status, want false")
	}
}

func TestRebellion_ThresholdReached(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		required int
		want     bool
	}{
		{
			name:     "Below threshold",
			current:  3,
			required: 4,
			want:     false,
		},
		{
			name:     "Exactly at threshold",
			current:  4,
			required: 4,
			want:     true,
		},
		{
			name:     "Above threshold",
			current:  5,
			required: 4,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebellion := &Rebellion{
				CurrentSupports:  tt.current,
				RequiredSupports: tt.required,
			}

			if got := rebellion.ThresholdReached(); got != tt.want {
				t.Errorf("ThresholdReached() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRebellion_AgitationExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    RebellionStatus
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "Window still open",
			status:    RebellionStatusAgitation,
			expiresAt: now.Add(time.Hour),
			want:      false,
		},
		{
			name:      "Window lapsed",
			status:    RebellionStatusAgitation,
			expiresAt: now.Add(-time.Minute),
			want:      true,
		},
		{
			name:      "Expiry exactly now",
			status:    RebellionStatusAgitation,
			expiresAt: now,
			want:      true,
		},
		{
			name:      "Already escalated to battle",
			status:    RebellionStatusBattle,
			expiresAt: now.Add(-time.Hour),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebellion := &Rebellion{
				Status:             tt.status,
				AgitationExpiresAt: tt.expiresAt,
			}

			if got := rebellion.AgitationExpired(now); got != tt.want {
				t.Errorf("AgitationExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRebellion_CooldownActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		until *time.Time
		want  bool
	}{
		{
			name:  "No cooldown set",
			until: nil,
			want:  false,
		},
		{
			name:  "Cooldown in effect",
			until: &future,
			want:  true,
		},
		{
			name:  "Cooldown elapsed",
			until: &past,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebellion := &Rebellion{CooldownUntil: tt.until}

			if got := rebellion.CooldownActive(now); got != tt.want {
				t.Errorf("CooldownActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRebellion_ConcludeCivilWar(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	failureCooldown := 72 * time.Hour

	tests := []struct {
		name         string
		rebelsWon    bool
		wantStatus   RebellionStatus
		wantCooldown bool
	}{
		{
			name:         "Leader win ends in success",
			rebelsWon:    true,
			wantStatus:   RebellionStatusSuccess,
			wantCooldown: false,
		},
		{
			name:         "Ruler win ends in failure with cooldown",
			rebelsWon:    false,
			wantStatus:   RebellionStatusFailed,
			wantCooldown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebellion := &Rebellion{Status: RebellionStatusBattle}
			rebellion.ConcludeCivilWar(tt.rebelsWon, now, failureCooldown)

			if rebellion.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", rebellion.Status, tt.wantStatus)
			}
			if !rebellion.Status.Terminal() {
				t.Error("Terminal() = false after conclusion, want true")
			}
			if tt.wantCooldown {
				if rebellion.CooldownUntil == nil || !rebellion.CooldownUntil.Equal(now.Add(failureCooldown)) {
					t.Errorf("CooldownUntil = %v, want %v", rebellion.CooldownUntil, now.Add(failureCooldown))
				}
				if rebellion.CooldownType == nil || *rebellion.CooldownType != CooldownFailure {
					t.Errorf("CooldownType = %v, want %q", rebellion.CooldownType, CooldownFailure)
				}
			} else if rebellion.CooldownUntil != nil {
				t.Errorf("CooldownUntil = %v, want nil", rebellion.CooldownUntil)
			}
		})
	}
}

func TestRebellion_BeforeSave(t *testing.T) {
	badCooldown := CooldownType("timeout")
	goodCooldown := CooldownExile

	tests := []struct {
		name     string
		status   RebellionStatus
		cooldown *CooldownType
		required int
		wantErr  bool
	}{
		{
			name:     "Valid agitation",
			status:   RebellionStatusAgitation,
			cooldown: nil,
			required: 3,
			wantErr:  false,
		},
		{
			name:     "Valid with exile cooldown",
			status:   RebellionStatusAgitation,
			cooldown: &goodCooldown,
			required: 3,
			wantErr:  false,
		},
		{
			name:     "Invalid status",
			status:   RebellionStatus("pending"),
			cooldown: nil,
			required: 3,
			wantErr:  true,
		},
		{
			name:     "Invalid cooldown type",
			status:   RebellionStatusFailed,
			cooldown: &badCooldown,
			required: 3,
			wantErr:  true,
		},
		{
			name:     "Zero required supports",
			status:   RebellionStatusAgitation,
			cooldown: nil,
			required: 0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebellion := &Rebellion{
				Status:           tt.status,
				CooldownType:     tt.cooldown,
				RequiredSupports: tt.required,
			}

			err := rebellion.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRebellionNegotiation_Answered(t *testing.T) {
	accepted := true

	unanswered := &RebellionNegotiation{}
	if unanswered.Answered() {
		t.Error("Answered() = true for unanswered negotiation, want false")
	}

	answered := &RebellionNegotiation{Accepted: &accepted}
	if !answered.Answered() {
		t.Error("Answered() = false for answered negotiation, want true")
	}
}
