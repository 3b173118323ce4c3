package models

import (
	"testing"
)

func TestRequiredSupports(t *testing.T) {
	tests := []struct {
		name    string
		members int
		ratio   float64
		want    int
	}{
		{
			name:    "Twenty members at one fifth",
			members: 20,
			ratio:   0.2,
			want:    4,
		},
		{
			name:    "Rounds up",
			members: 21,
			ratio:   0.2,
			want:    5,
		},
		{
			name:    "Tiny community never below one",
			members: 2,
			ratio:   0.2,
			want:    1,
		},
		{
			name:    "Single member",
			members: 1,
			ratio:   0.2,
			want:    1,
		},
		{
			name:    "No non-ruler members",
			members: 0,
			ratio:   0.2,
			want:    1,
		},
		{
			name:    "Full ratio",
			members: 7,
			ratio:   1.0,
			want:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredSupports(tt.members, tt.ratio); got != tt.want {
				t.Errorf("RequiredSupports(%d, %v) = %d, want %d", tt.members, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestMemberRank_CanReinvite(t *testing.T) {
	tests := []struct {
		name string
		rank MemberRank
		want bool
	}{
		{
			name: "Ruler can reinvite",
			rank: RankRuler,
			want: true,
		},
		{
			name: "General can reinvite",
			rank: RankGeneral,
			want: true,
		},
		{
			name: "Officer cannot",
			rank: RankOfficer,
			want: false,
		},
		{
			name: "Soldier cannot",
			rank: RankSoldier,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rank.CanReinvite(); got != tt.want {
				t.Errorf("CanReinvite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberRank_CanCommand(t *testing.T) {
	tests := []struct {
		name string
		rank MemberRank
		want bool
	}{
		{
			name: "Ruler commands",
			rank: RankRuler,
			want: true,
		},
		{
			name: "General commands",
			rank: RankGeneral,
			want: true,
		},
		{
			name: "Officer cannot open hostilities",
			rank: RankOfficer,
			want: false,
		},
		{
			name: "Soldier cannot open hostilities",
			rank: RankSoldier,
			want: false,
		},
		{
			name: "Unknown rank cannot",
			rank: MemberRank("king"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rank.CanCommand(); got != tt.want {
				t.Errorf("CanCommand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberRank_Valid(t *testing.T) {
	for _, rank := range []MemberRank{RankRuler, RankGeneral, RankOfficer, RankSoldier} {
		if !rank.Valid() {
			t.Errorf("Valid() = false for %q", rank)
		}
	}
	if MemberRank("king").Valid() {
		t.Error("Valid() = true for unknown rank")
	}
}
