package engine

import (
	"time"

	"netrunner/internal/catalog"
)

// bumpHardening escalates a server once observed crosses the trigger,
// climbing one level at a time until the recomputed chance sits at least
// minDrop below the trigger, the burst cap is spent or the max level is
// reached. It returns the number of levels applied.
func bumpHardening(st *PlayerState, cat *catalog.Catalog, target catalog.Target, server catalog.Server, observed float64, now time.Time) int {
	a := cat.Tuning.Adaptive
	h := st.Hardening[server.ID]

	guarded := observed < a.TriggerAt-1e-6 ||
		h.Level >= a.MaxLevels ||
		(!h.LastAppliedAt.IsZero() && now.Sub(h.LastAppliedAt) < a.Cooldown)
	if guarded {
		if a.StampOnGuardFailure {
			h.LastAppliedAt = now
			st.Hardening[server.ID] = h
		}
		return 0
	}

	burst := a.MaxBurstLevels
	if burst < 1 {
		burst = 1
	}
	applied := 0
	for {
		h.Level++
		applied++
		st.Hardening[server.ID] = h
		next := ComputeSuccess(st, cat, target, server, 0, now)
		if next < a.TriggerAt-a.MinDrop || applied >= burst || h.Level >= a.MaxLevels {
			break
		}
	}
	h.LastAppliedAt = now
	st.Hardening[server.ID] = h

	if _, ok := st.Discovered[server.ID]; ok {
		st.Discovered[server.ID] = ComputeSuccess(st, cat, target, server, 0, now)
	}
	return applied
}
