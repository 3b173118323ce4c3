package models

import (
	"testing"
	"time"
)

func TestBattle_DueForResolution(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  BattleStatus
		defense int64
		endsAt  time.Time
		want    bool
	}{
		{
			name:    "Active with defense and time remaining",
			status:  BattleStatusActive,
			defense: 5000,
			endsAt:  now.Add(time.Hour),
			want:    false,
		},
		{
			name:    "Defense depleted",
			status:  BattleStatusActive,
			defense: 0,
			endsAt:  now.Add(time.Hour),
			want:    true,
		},
		{
			name:    "Defense driven negative",
			status:  BattleStatusActive,
			defense: -250,
			endsAt:  now.Add(time.Hour),
			want:    true,
		},
		{
			name:    "Deadline reached exactly",
			status:  BattleStatusActive,
			defense: 5000,
			endsAt:  now,
			want:    true,
		},
		{
			name:    "Deadline passed",
			status:  BattleStatusActive,
			defense: 5000,
			endsAt:  now.Add(-time.Minute),
			want:    true,
		},
		{
			name:    "Already resolved",
			status:  BattleStatusAttackerWon,
			defense: 0,
			endsAt:  now.Add(-time.Hour),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			battle := &Battle{
				Status:         tt.status,
				CurrentDefense: tt.defense,
				InitialDefense: 10000,
				EndsAt:         tt.endsAt,
			}

			if got := battle.DueForResolution(now); got != tt.want {
				t.Errorf("DueForResolution() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBattle_Outcome_DepletionBeatsDeadline(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Defense hit zero on the same tick the deadline passed: attackers win.
	battle := &Battle{
		Status:         BattleStatusActive,
		CurrentDefense: 0,
		InitialDefense: 10000,
		EndsAt:         now,
	}

	if got := battle.Outcome(now); got != BattleStatusAttackerWon {
		t.Errorf("Outcome() = %q, want %q", got, BattleStatusAttackerWon)
	}
}

func TestBattle_Outcome(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		defense int64
		endsAt  time.Time
		want    BattleStatus
	}{
		{
			name:    "Defense holds past deadline",
			defense: 3000,
			endsAt:  now.Add(-time.Second),
			want:    BattleStatusDefenderWon,
		},
		{
			name:    "Defense depleted before deadline",
			defense: -10,
			endsAt:  now.Add(time.Hour),
			want:    BattleStatusAttackerWon,
		},
		{
			name:    "Not yet due",
			defense: 3000,
			endsAt:  now.Add(time.Hour),
			want:    BattleStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			battle := &Battle{
				Status:         BattleStatusActive,
				CurrentDefense: tt.defense,
				InitialDefense: 10000,
				EndsAt:         tt.endsAt,
			}

			if got := battle.Outcome(now); got != tt.want {
				t.Errorf("Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBattle_RepairableTo(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		amount  int64
		want    int64
	}{
		{
			name:    "Normal repair",
			current: 5000,
			amount:  2000,
			want:    7000,
		},
		{
			name:    "Repair capped at initial",
			current: 9500,
			amount:  2000,
			want:    10000,
		},
		{
			name:    "Repair from negative defense",
			current: -500,
			amount:  1000,
			want:    500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			battle := &Battle{
				CurrentDefense: tt.current,
				InitialDefense: 10000,
			}

			if got := battle.RepairableTo(tt.amount); got != tt.want {
				t.Errorf("RepairableTo(%d) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestBattleStatus_Terminal(t *testing.T) {
	tests := []struct {
		name   string
		status BattleStatus
		want   bool
	}{
		{
			name:   "Active is not terminal",
			status: BattleStatusActive,
			want:   false,
		},
		{
			name:   "Attacker won is terminal",
			status: BattleStatusAttackerWon,
			want:   true,
		},
		{
			name:   "Defender won is terminal",
			status: BattleStatusDefenderWon,
			want:   true,
		},
		{
			name:   "Unknown status is not terminal",
			status: BattleStatus("attacker_win"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBattle_BeforeSave(t *testing.T) {
	tests := []struct {
		name    string
		status  BattleStatus
		current int64
		initial int64
		wantErr bool
	}{
		{
			name:    "Valid active battle",
			status:  BattleStatusActive,
			current: 5000,
			initial: 10000,
			wantErr: false,
		},
		{
			name:    "Invalid status",
			status:  BattleStatus("paused"),
			current: 5000,
			initial: 10000,
			wantErr: true,
		},
		{
			name:    "Defense above initial",
			status:  BattleStatusActive,
			current: 10001,
			initial: 10000,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			battle := &Battle{
				Status:         tt.status,
				CurrentDefense: tt.current,
				InitialDefense: tt.initial,
			}

			err := battle.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBattle_TableName(t *testing.T) {
	if got := (Battle{}).TableName(); got != "battles" {
		t.Errorf("TableName() = %q, want %q", got, "battles")
	}
}
