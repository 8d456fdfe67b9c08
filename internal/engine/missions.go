package engine

import (
	"math"

	"netrunner/internal/catalog"
)

// MissionOutcome is reported when a hack completes a mission step.
type MissionOutcome struct {
	Chain      string  `json:"chain"`
	Step       string  `json:"step"`
	Credits    float64 `json:"credits"`
	Reputation float64 `json:"reputation"`
	Finished   bool    `json:"finished"`
}

// CurrentStep returns the active mission step, if any.
func CurrentStep(st *PlayerState, cat *catalog.Catalog) (catalog.MissionStep, bool) {
	if st.Mission == nil {
		return catalog.MissionStep{}, false
	}
	chain := cat.Missions[st.Mission.Chain]
	if st.Mission.Step < 0 || st.Mission.Step >= len(chain) {
		return catalog.MissionStep{}, false
	}
	return chain[st.Mission.Step], true
}

func acceptMissionChain(st *PlayerState, cat *catalog.Catalog, chainID string) (catalog.MissionStep, error) {
	chain := cat.Missions[chainID]
	if len(chain) == 0 {
		return catalog.MissionStep{}, ErrNotFound
	}
	st.Mission = &MissionProgress{Chain: chainID}
	return chain[0], nil
}

// advanceMission pays out the active step when targetID/serverID is its
// objective.
func advanceMission(st *PlayerState, cat *catalog.Catalog, targetID, serverID string) *MissionOutcome {
	step, ok := CurrentStep(st, cat)
	if !ok || step.Objective.Target != targetID || step.Objective.Server != serverID {
		return nil
	}
	out := &MissionOutcome{
		Chain:      st.Mission.Chain,
		Step:       step.Name,
		Credits:    math.Max(0, math.Round(step.Reward.Credits*cat.Tuning.Economy.MissionMul)),
		Reputation: step.Reward.Reputation,
	}
	st.Credits += out.Credits
	st.Reputation += out.Reputation
	st.Mission.Step++
	if st.Mission.Step >= len(cat.Missions[st.Mission.Chain]) {
		st.Mission = nil
		out.Finished = true
	}
	return out
}
