package engine

import (
	"math"

	"netrunner/internal/catalog"
)

func spendSkillPoint(st *PlayerState, cat *catalog.Catalog, skill string) error {
	known := false
	for _, sk := range cat.Skills {
		if sk.ID == skill {
			known = true
			break
		}
	}
	if !known {
		return ErrNotFound
	}
	if st.SkillPoints <= 0 {
		return ErrInsufficientFunds
	}
	st.SkillPoints--
	st.Skills[skill]++
	return nil
}

// grantXP adds xp and converts every full block into a skill point,
// returning how many were awarded.
func grantXP(st *PlayerState, t catalog.Tuning, xp int) int {
	st.XP += xp
	per := t.Actions.XPPerSkillPoint
	if per <= 0 {
		return 0
	}
	points := 0
	for st.XP >= per {
		st.XP -= per
		st.SkillPoints++
		points++
	}
	return points
}

// rollSkillGains applies the catalog's small probabilistic skill gains.
func rollSkillGains(st *PlayerState, cat *catalog.Catalog, rng Rand) map[string]float64 {
	var gains map[string]float64
	for _, sk := range cat.Skills {
		if sk.GainOnSuccess <= 0 {
			continue
		}
		if rng.Float64() < sk.GainChance {
			st.Skills[sk.ID] += sk.GainOnSuccess
			if gains == nil {
				gains = map[string]float64{}
			}
			gains[sk.ID] = sk.GainOnSuccess
		}
	}
	return gains
}

func hasAllReq(st *PlayerState, node catalog.UpgradeNode) bool {
	for _, id := range node.Req {
		if !st.Unlocked[id] {
			return false
		}
	}
	return true
}

func researchUpgrade(st *PlayerState, cat *catalog.Catalog, id string) (catalog.UpgradeNode, error) {
	node, ok := cat.Node(id)
	if !ok {
		return catalog.UpgradeNode{}, ErrNotFound
	}
	if st.Unlocked[id] || st.Researched[id] {
		return node, ErrAlreadyDone
	}
	// a node without an RP cost is researched for free.
	if node.RP > 0 {
		if st.ResearchPoints < node.RP {
			return node, ErrInsufficientFunds
		}
		st.ResearchPoints = math.Max(0, round2(st.ResearchPoints-node.RP))
	}
	st.Researched[id] = true
	return node, nil
}

func unlockUpgrade(st *PlayerState, cat *catalog.Catalog, id string) (catalog.UpgradeNode, error) {
	node, ok := cat.Node(id)
	if !ok {
		return catalog.UpgradeNode{}, ErrNotFound
	}
	if st.Unlocked[id] {
		return node, ErrAlreadyDone
	}
	if !hasAllReq(st, node) || (node.RP > 0 && !st.Researched[id]) {
		return node, ErrMissingPrerequisite
	}
	cost := node.SkillPointCost()
	if st.SkillPoints < cost {
		return node, ErrInsufficientFunds
	}
	st.SkillPoints -= cost
	st.Unlocked[id] = true
	st.Heat = clampFloat(st.Heat, 0, HeatCap(st, cat))
	return node, nil
}
