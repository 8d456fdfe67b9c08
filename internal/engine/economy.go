package engine

import (
	"math"
	"time"

	"netrunner/internal/catalog"
)

// HeatTax is the reward factor at the given heat, never below 1-heatTaxMax.
func HeatTax(t catalog.Tuning, heat float64) float64 {
	e := t.Economy
	return math.Max(1-e.HeatTaxMax, 1-(heat/100)*e.HeatTaxMax)
}

// FarmDecay discounts count recent successes on the same server.
func FarmDecay(t catalog.Tuning, count int) float64 {
	if count <= 0 {
		return 1
	}
	e := t.Economy
	return math.Max(e.RepeatMin, 1-e.RepeatDecay*float64(count))
}

// RewardMultiplier scales a server's credit reward. Event reward
// multipliers are applied by the caller.
func RewardMultiplier(st *PlayerState, cat *catalog.Catalog, target catalog.Target, server catalog.Server, now time.Time) float64 {
	t := cat.Tuning
	e := t.Economy
	pm := ProgramModifiers(st, cat)
	um := UpgradeModifiers(st, cat)
	gear := GearBonuses(st, cat)

	m := e.Base
	if target.Kind == catalog.KindCity {
		m *= e.CityMul
	} else {
		m *= e.CorpMul
	}
	m *= pm.RewardMul * um.Num(ModRewardMul) * (1 + st.Reputation*e.RepRewardPerPoint)
	if g := gear[ModSuccessAdd]; g != 0 {
		m *= 1 + g*e.GearSuccessFactor
	}
	m *= HeatTax(t, st.Heat)
	recent := pruneWindow(st.FarmHistory, server.ID, now, e.RepeatWindow)
	return m * FarmDecay(t, len(recent))
}

// HeatOnFail is the base heat a failed hack costs before hardening scaling
// and the avoid roll.
func HeatOnFail(st *PlayerState, cat *catalog.Catalog, ev EventMods) float64 {
	a := cat.Tuning.Actions
	gear := GearBonuses(st, cat)
	pm := ProgramModifiers(st, cat)
	um := UpgradeModifiers(st, cat)
	base := a.FailHeatBase - gear[cat.Tuning.Retaliation.StealthSkill] - gear["heatReduce"]*100
	mul := pm.HeatOnFailMul * um.Num(ModCloakExtraHeatMul) * um.Num(ModHeatFailMul)
	return math.Max(a.FailHeatMin, math.Round(base*mul)+ev.HeatFailAdd)
}

// LootUnitPrice is what one unit of loot fetches at the current reputation.
func LootUnitPrice(st *PlayerState, t catalog.Tuning, base float64) float64 {
	bm := t.BlackMarket
	bonus := math.Min(bm.RepBonusCap, math.Max(0, st.Reputation)*bm.RepBonusPerPoint)
	if base <= 0 {
		base = 1
	}
	return base * (1 + math.Max(0, bonus))
}
