package engine

import (
	"math"
	"time"

	"netrunner/internal/catalog"
)

// HardeningLevel is the escalation level of a server, 0 when untouched.
func HardeningLevel(st *PlayerState, serverID string) int {
	return st.Hardening[serverID].Level
}

// DynamicCap is the highest success chance a server allows at a hardening level.
func DynamicCap(t catalog.Tuning, level int) float64 {
	a := t.Adaptive
	return math.Max(a.CapFloor, a.CapCeiling-float64(level)*a.CapDropPerLevel)
}

// RawDefense is the server's defense before bypass, events and hardening.
func RawDefense(cat *catalog.Catalog, server catalog.Server) float64 {
	d := float64(server.Level) * cat.Tuning.Probability.DefensePerServerLevel
	for _, tag := range server.ICE {
		d += cat.Strength(tag)
	}
	return d
}

// ComputeSuccess is the success probability of a hack against server,
// clamped to [minChance, DynamicCap]. It reads the state without changing
// anything except purging expired events. Transient event chance deltas are
// not included; the hack path adds them.
func ComputeSuccess(st *PlayerState, cat *catalog.Catalog, target catalog.Target, server catalog.Server, bypass float64, now time.Time) float64 {
	t := cat.Tuning
	gear := GearBonuses(st, cat)
	um := UpgradeModifiers(st, cat)
	pm := ProgramModifiers(st, cat)
	ev := EventModifiers(st, cat, target, now)

	var skillScore, gearScore float64
	for _, sk := range cat.Skills {
		skillScore += st.Skills[sk.ID] * sk.Weight
		gearScore += gear[sk.ID] * sk.GearWeight
	}

	level := HardeningLevel(st, server.ID)
	defense := math.Max(0, RawDefense(cat, server)-bypass)
	defense += ev.IceBonus + float64(level)*t.Adaptive.IcePerLevel

	chance := 0.5 + (skillScore+gearScore-defense)/cat.Denominator

	chance *= pm.SuccessMul
	chance += pm.SuccessAdd
	chance += um.Num(ModSuccessAdd)

	if vs := pm.VsBlackAdapt/100 + um.Num(ModVsBlackAdaptAdd); vs != 0 && hasHardenedTag(t, server) {
		chance += vs
	}
	if pm.CityBonusSuccess != 0 && target.Kind == catalog.KindCity {
		chance += pm.CityBonusSuccess / 100
	}
	if t.Adaptive.MulPerLevel > 0 {
		chance *= math.Pow(t.Adaptive.MulPerLevel, float64(level))
	}
	return clampFloat(chance, t.Probability.MinChance, DynamicCap(t, level))
}

func hasHardenedTag(t catalog.Tuning, server catalog.Server) bool {
	for _, tag := range t.Probability.HardenedTags {
		if server.HasTag(tag) {
			return true
		}
	}
	return false
}
