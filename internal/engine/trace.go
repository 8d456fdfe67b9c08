package engine

import (
	"math"
	"time"

	"github.com/google/uuid"

	"netrunner/internal/catalog"
)

// TraceOutcome reports what a scan did to the trace ledger.
type TraceOutcome struct {
	Attempts    int           `json:"attempts"`
	Probability float64       `json:"probability"`
	Armed       bool          `json:"armed"`
	Level       int           `json:"level,omitempty"`
	Ends        time.Time     `json:"ends,omitempty"`
	Panic       bool          `json:"panic,omitempty"`
	HeatSpike   float64       `json:"heatSpike,omitempty"`
	Lockout     time.Duration `json:"lockout,omitempty"`
}

// heatBlocks counts the 20-point heat tiers above from, 0 at or below it.
func heatBlocks(heat, from float64) float64 {
	if heat <= from {
		return 0
	}
	return math.Floor((heat-from)/20) + 1
}

// TraceProbability is the chance a scan arms a trace after attempts recent
// scans on target.
func TraceProbability(t catalog.Tuning, heat float64, kind catalog.Kind, attempts int) float64 {
	tr := t.Trace
	p := tr.Base + math.Max(0, float64(attempts-1))*tr.PerScan
	p += heatBlocks(heat, tr.HeatBonusFrom) * tr.HeatPer20Bonus
	if kind == catalog.KindCorp {
		p *= tr.CorpMul
	} else {
		p *= tr.CityMul
	}
	return clampFloat(p, 0, tr.MaxP)
}

func traceLevelFor(tr catalog.Trace, attempts int) int {
	lvl := 1
	if n := len(tr.LevelByAttempts); n > 0 {
		idx := attempts
		if idx > n-1 {
			idx = n - 1
		}
		if v := tr.LevelByAttempts[idx]; v > 0 {
			lvl = v
		}
	}
	if lvl > 3 {
		lvl = 3
	}
	return lvl
}

// evaluateTrace records a scan of target and rolls the trace. A requested
// lockout is returned in the outcome for the session to schedule.
func evaluateTrace(st *PlayerState, cat *catalog.Catalog, rng Rand, target catalog.Target, now time.Time) TraceOutcome {
	tr := cat.Tuning.Trace
	recent := pushWindow(st.ScanHistory, target.ID, now, tr.Window)
	out := TraceOutcome{Attempts: len(recent)}
	out.Probability = TraceProbability(cat.Tuning, st.Heat, target.Kind, out.Attempts)

	if rng.Float64() >= out.Probability {
		return out
	}
	out.Armed = true
	lvl := traceLevelFor(tr, out.Attempts)
	dur, ok := tr.Durations[lvl]
	if !ok {
		dur = tr.DefaultDuration
	}
	ends := now.Add(dur)

	purgeExpired(st, now)
	idx := findEvent(st, func(e Event) bool { return e.Type == EventTrace && traceCovers(e, target) })
	if idx >= 0 {
		e := &st.Events[idx]
		if lvl > traceLevel(*e) {
			e.Level = lvl
		} else {
			e.Level = traceLevel(*e)
		}
		if e.Start.IsZero() {
			e.Start = now
		}
		if ends.After(e.Ends) {
			e.Ends = ends
		}
		out.Level, out.Ends = e.Level, e.Ends
	} else {
		e := Event{ID: uuid.NewString(), Type: EventTrace, Start: now, Ends: ends, Level: lvl}
		if target.Kind == catalog.KindCorp {
			e.Corp = target.ID
		}
		st.Events = append(st.Events, e)
		out.Level, out.Ends = lvl, ends
	}

	if rng.Float64() < tr.ScanPanic.P {
		out.Panic = true
		spike, ok := tr.ScanPanic.HeatSpike[out.Level]
		if !ok {
			spike = 6
		}
		out.HeatSpike = spike
		addHeat(st, cat, spike)
		lock, ok := tr.ScanPanic.Lockout[out.Level]
		if !ok {
			lock = 2 * time.Second
		}
		out.Lockout = lock
	}
	return out
}
