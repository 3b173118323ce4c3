package models

import (
	"testing"
)

func TestClampMorale(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{
			name:  "In range",
			value: 55,
			want:  55,
		},
		{
			name:  "Below floor",
			value: -20,
			want:  0,
		},
		{
			name:  "Above ceiling",
			value: 140,
			want:  100,
		},
		{
			name:  "At floor",
			value: 0,
			want:  0,
		},
		{
			name:  "At ceiling",
			value: 100,
			want:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampMorale(tt.value); got != tt.want {
				t.Errorf("ClampMorale(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestClampRage(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		ceiling int64
		want    int64
	}{
		{
			name:    "In range",
			value:   40,
			ceiling: 100,
			want:    40,
		},
		{
			name:    "Negative floors at zero",
			value:   -5,
			ceiling: 100,
			want:    0,
		},
		{
			name:    "Clamped to ceiling",
			value:   130,
			ceiling: 100,
			want:    100,
		},
		{
			name:    "Custom ceiling",
			value:   90,
			ceiling: 80,
			want:    80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRage(tt.value, tt.ceiling); got != tt.want {
				t.Errorf("ClampRage(%d, %d) = %d, want %d", tt.value, tt.ceiling, got, tt.want)
			}
		})
	}
}

func TestClampEnergy(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{
			name:  "In range",
			value: 60,
			want:  60,
		},
		{
			name:  "Negative floors at zero",
			value: -10,
			want:  0,
		},
		{
			name:  "Capped at max",
			value: 150,
			want:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampEnergy(tt.value); got != tt.want {
				t.Errorf("ClampEnergy(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestRageDecaySequence(t *testing.T) {
	// Successive hourly decay steps walk rage down and hold at the floor.
	rage := int64(12)
	for i := 0; i < 5; i++ {
		rage = ClampRage(rage-5, RageMax)
	}
	if rage != 0 {
		t.Errorf("rage after repeated decay = %d, want 0", rage)
	}
}

func TestUser_BeforeSave(t *testing.T) {
	tests := []struct {
		name     string
		username string
		morale   int64
		rage     int64
		wantErr  bool
	}{
		{
			name:     "Valid user",
			username: "warlord",
			morale:   50,
			rage:     0,
			wantErr:  false,
		},
		{
			name:     "Empty username",
			username: "",
			morale:   50,
			rage:     0,
			wantErr:  true,
		},
		{
			name:     "Morale out of range",
			username: "warlord",
			morale:   101,
			rage:     0,
			wantErr:  true,
		},
		{
			name:     "Negative morale",
			username: "warlord",
			morale:   -1,
			rage:     0,
			wantErr:  true,
		},
		{
			name:     "Rage out of range",
			username: "warlord",
			morale:   50,
			rage:     101,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{
				Username: tt.username,
				Morale:   tt.morale,
				Rage:     tt.rage,
				Energy:   100,
			}

			err := user.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_TableName(t *testing.T) {
	if got := (User{}).TableName(); got != "users" {
		t.Errorf("TableName() = %q, want %q", got, "users")
	}
}
