package engine

import (
	"time"

	"netrunner/internal/catalog"
)

// EventMods is what the active events contribute against one target.
type EventMods struct {
	IceBonus       float64 `json:"iceBonus"`
	HeatFailAdd    float64 `json:"heatFailAdd"`
	RewardMul      float64 `json:"rewardMul"`
	ChanceAdd      float64 `json:"chanceAdd"`
	HeatAttemptAdd float64 `json:"heatAttemptAdd"`
}

// ActiveEvents drops expired entries from the ledger and returns a copy of
// the rest.
func ActiveEvents(st *PlayerState, now time.Time) []Event {
	purgeExpired(st, now)
	return append([]Event{}, st.Events...)
}

func purgeExpired(st *PlayerState, now time.Time) {
	kept := st.Events[:0]
	for _, e := range st.Events {
		if e.Ends.IsZero() || e.Ends.After(now) {
			kept = append(kept, e)
		}
	}
	st.Events = kept
}

// EventModifiers folds every live event whose scope covers target.
func EventModifiers(st *PlayerState, cat *catalog.Catalog, target catalog.Target, now time.Time) EventMods {
	purgeExpired(st, now)
	mods := EventMods{RewardMul: 1}
	te := cat.Tuning.Trace.Effects
	for _, e := range st.Events {
		switch e.Type {
		case EventLockout:
			continue
		case EventTrace:
			if !traceCovers(e, target) {
				continue
			}
			l := float64(traceLevel(e))
			mods.IceBonus += te.IcePerLevel * l
			mods.ChanceAdd -= te.ChanceMinusPerLevel * l
			mods.HeatAttemptAdd += te.HeatAttemptAddPerLevel * l
			continue
		}
		def, ok := cat.EventDef(e.Type)
		if !ok || !scopeCovers(def.Scope, e.Corp, target) {
			continue
		}
		eff := def.Effects
		mods.IceBonus += eff.IceBonus
		mods.HeatFailAdd += eff.HeatFailAdd
		if eff.RewardMul != 0 {
			mods.RewardMul *= eff.RewardMul
		}
		mods.ChanceAdd += eff.ChanceAdd
		mods.HeatAttemptAdd += eff.HeatAttemptAdd
	}
	return mods
}

// scopeCovers matches a scoped event against a target. A corp event without
// a corp id covers every corporation.
func scopeCovers(scope catalog.EventScope, corp string, target catalog.Target) bool {
	switch scope {
	case catalog.ScopeCity:
		return target.Kind == catalog.KindCity
	case catalog.ScopeCorp:
		return target.Kind == catalog.KindCorp && (corp == "" || corp == target.ID)
	default:
		return true
	}
}

// traceCovers: a corp trace follows its corp, a city trace has no corp.
func traceCovers(e Event, target catalog.Target) bool {
	if target.Kind == catalog.KindCorp {
		return e.Corp == target.ID
	}
	return target.Kind == catalog.KindCity && e.Corp == ""
}

func traceLevel(e Event) int {
	if e.Level <= 0 {
		return 1
	}
	return e.Level
}

// findEvent returns the index of the first live event accepted by match, or -1.
func findEvent(st *PlayerState, match func(Event) bool) int {
	for i, e := range st.Events {
		if match(e) {
			return i
		}
	}
	return -1
}
