package services

import (
	"math"
	"math/rand"
)

// DamageCalculator turns a raw hit into its effective value. Rage fuels the
// critical roll and focus sharpens it at half weight; magnitude is flat.
type DamageCalculator struct {
	CritMagnitude float64
	RageCeiling   int64

	// roll returns a value in [0, 1); swapped out in tests.
	roll func() float64
}

func NewDamageCalculator(critMagnitude float64, rageCeiling int64) *DamageCalculator {
	return &DamageCalculator{
		CritMagnitude: critMagnitude,
		RageCeiling:   rageCeiling,
		roll:          rand.Float64,
	}
}

// CritChance maps rage and focus to a crit probability: half the combined
// ratio, capped so even a maxed-out user crits on at most half their hits.
// Focus counts at half the weight of rage.
func (c *DamageCalculator) CritChance(rage, focus int64) float64 {
	drive := rage
	if focus > 0 {
		drive += focus / 2
	}
	if drive <= 0 {
		return 0
	}
	if drive > c.RageCeiling {
		drive = c.RageCeiling
	}
	return float64(drive) / float64(c.RageCeiling) / 2
}

// EffectiveDamage applies the rage-driven critical multiplier to a raw hit.
func (c *DamageCalculator) EffectiveDamage(raw, rage, focus int64) (int64, bool) {
	if raw <= 0 {
		return 0, false
	}
	if c.roll() < c.CritChance(rage, focus) {
		return int64(math.Round(float64(raw) * c.CritMagnitude)), true
	}
	return raw, false
}

// EnergyCost applies the actor community's disarray multiplier to the base
// action cost, rounding up so the penalty always bites.
func EnergyCost(base int64, disarrayMultiplier float64) int64 {
	return int64(math.Ceil(float64(base) * disarrayMultiplier))
}
