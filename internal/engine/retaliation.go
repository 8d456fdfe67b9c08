package engine

import (
	"math"
	"time"

	"netrunner/internal/catalog"
)

// Pressure is what live audit/sweep/bounty style events add to retaliation.
type Pressure struct {
	ChanceAdd float64
	HeatMul   float64
	CredMul   float64
}

// Damage is a retaliation strike.
type Damage struct {
	Chance     float64 `json:"chance"`
	Heat       float64 `json:"heat"`
	Credits    float64 `json:"credits"`
	Reputation float64 `json:"reputation"`
	Attempts   int     `json:"attempts"`
}

func eventPressure(st *PlayerState, t catalog.Tuning, target catalog.Target, now time.Time) Pressure {
	purgeExpired(st, now)
	p := Pressure{HeatMul: 1, CredMul: 1}
	for _, e := range st.Events {
		rule, ok := t.Retaliation.EventPressure[e.Type]
		if !ok || !scopeCovers(rule.Scope, e.Corp, target) {
			continue
		}
		p.ChanceAdd += rule.ChanceAdd
		if rule.HeatMul != 0 {
			p.HeatMul *= rule.HeatMul
		}
		if rule.CredMul != 0 {
			p.CredMul *= rule.CredMul
		}
	}
	return p
}

func recentAttempts(st *PlayerState, t catalog.Tuning, targetID string, now time.Time) int {
	return len(pruneWindow(st.AttemptHistory, targetID, now, t.Retaliation.PressureWindow))
}

// RetaliationChance is the probability a successful hack on server draws a
// counter-attack, clamped to [min, max].
func RetaliationChance(st *PlayerState, cat *catalog.Catalog, target catalog.Target, server catalog.Server, now time.Time) float64 {
	t := cat.Tuning
	r := t.Retaliation
	um := UpgradeModifiers(st, cat)

	p := r.Base + float64(server.Level)*r.PerLevel
	p += heatBlocks(st.Heat, r.HeatBonusFrom) * r.HeatBonusPer20
	if target.Kind == catalog.KindCorp {
		p *= r.CorpMul
	} else {
		p *= r.CityMul
	}
	p -= st.Skills[r.StealthSkill] * r.StealthMitigationPerLvl
	p += eventPressure(st, t, target, now).ChanceAdd

	attempts := recentAttempts(st, t, target.ID, now)
	p += float64(attempts) * r.PressurePerAttempt
	if attempts >= r.StreakThreshold {
		p += r.StreakBonus
	}
	p *= um.Num(ModRetaliationChanceMul)
	p *= 1 + float64(HardeningLevel(st, server.ID))*t.Adaptive.RetaliationChancePerLevel
	return clampFloat(p, r.Min, r.Max)
}

// RetaliationDamage rolls the size of a strike. lastGain is the credit
// reward the triggering hack paid.
func RetaliationDamage(st *PlayerState, cat *catalog.Catalog, rng Rand, target catalog.Target, server catalog.Server, lastGain float64, now time.Time) Damage {
	t := cat.Tuning
	r := t.Retaliation
	um := UpgradeModifiers(st, cat)
	ev := eventPressure(st, t, target, now)

	kindMul := r.HeatDamage.CorpMul
	if target.Kind == catalog.KindCity {
		kindMul = r.HeatDamage.CityMul
	}
	heat := math.Round((r.HeatDamage.Base + float64(server.Level)*r.HeatDamage.PerLevel) * kindMul * ev.HeatMul)

	cd := r.CreditDamage
	pct := cd.PctOfGainMin + rng.Float64()*(cd.PctOfGainMax-cd.PctOfGainMin)
	cred := math.Round(lastGain * pct * ev.CredMul)
	cred = math.Max(cd.Floor, cred)
	cred = math.Min(math.Min(math.Round(st.Credits*cd.CapPctOfWallet), cred), st.Credits)

	rep := r.RepDamage.City
	if target.Kind == catalog.KindCorp {
		rep = r.RepDamage.CorpMin + math.Floor(float64(server.Level)/3)
	}

	attempts := recentAttempts(st, t, target.ID, now)
	if attempts > r.DmgPressureMaxAttempts {
		attempts = r.DmgPressureMaxAttempts
	}
	for _, mul := range []float64{
		1 + float64(attempts)*r.DmgPressurePerAttempt,
		um.Num(ModRetaliationDmgMul),
		1 + float64(HardeningLevel(st, server.ID))*t.Adaptive.RetaliationDamagePerLevel,
	} {
		heat = math.Round(heat * mul)
		cred = math.Round(cred * mul)
		rep = math.Round(rep * mul)
	}
	return Damage{Heat: heat, Credits: cred, Reputation: rep, Attempts: attempts}
}

// maybeRetaliate rolls and applies a strike after a successful hack.
func maybeRetaliate(st *PlayerState, cat *catalog.Catalog, rng Rand, target catalog.Target, server catalog.Server, lastGain float64, now time.Time) *Damage {
	p := RetaliationChance(st, cat, target, server, now)
	if rng.Float64() >= p {
		return nil
	}
	d := RetaliationDamage(st, cat, rng, target, server, lastGain, now)
	d.Chance = p
	addHeat(st, cat, d.Heat)
	st.Credits = math.Max(0, st.Credits-d.Credits)
	st.Reputation = math.Max(0, st.Reputation-d.Reputation)
	return &d
}
