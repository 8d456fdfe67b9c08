package engine

import (
	"sort"
	"strings"

	"netrunner/internal/catalog"
)

// Upgrade effect fields the engine reads.
const (
	ModHeatFailMul          = "heatFailMul"
	ModAvoidHeatOnFailPct   = "avoidHeatOnFailPct"
	ModHeatCapMinus         = "heatCapMinus"
	ModHeatDecayPerSec      = "heatDecayPerSec"
	ModEventProbMul         = "eventProbMul"
	ModCloakExtraHeatMul    = "cloakExtraHeatMul"
	ModSuccessAdd           = "successAdd"
	ModVsBlackAdaptAdd      = "vsBlackAdaptAdd"
	ModRewardMul            = "rewardMul"
	ModShowScanExact        = "showScanExact"
	ModScanLatencyMul       = "scanLatencyMul"
	ModBypassCooldownMs     = "bypassCooldownMs"
	ModLatencyCPUMul        = "latencyCpuMul"
	ModSlotAdd              = "slotAdd"
	ModCPUAdd               = "cpuAdd"
	ModLockoutMul           = "lockoutMul"
	ModExtraAttemptPct      = "extraAttemptPct"
	ModRetaliationChanceMul = "retaliationChanceMul"
	ModRetaliationDmgMul    = "retaliationDmgMul"
)

var upgradeDefaults = map[string]float64{
	ModHeatFailMul:          1,
	ModAvoidHeatOnFailPct:   0,
	ModHeatCapMinus:         0,
	ModHeatDecayPerSec:      0,
	ModEventProbMul:         1,
	ModCloakExtraHeatMul:    1,
	ModSuccessAdd:           0,
	ModVsBlackAdaptAdd:      0,
	ModRewardMul:            1,
	ModScanLatencyMul:       1,
	ModBypassCooldownMs:     0,
	ModLatencyCPUMul:        1,
	ModSlotAdd:              0,
	ModCPUAdd:               0,
	ModLockoutMul:           1,
	ModExtraAttemptPct:      0,
	ModRetaliationChanceMul: 1,
	ModRetaliationDmgMul:    1,
}

// UpgradeMods is the folded effect record of every unlocked upgrade node.
type UpgradeMods struct {
	nums   map[string]float64
	flags  map[string]bool
	values map[string]string
}

// Num returns a numeric field, falling back to its base default: 1 for
// multipliers, 0 otherwise.
func (m UpgradeMods) Num(field string) float64 {
	if v, ok := m.nums[field]; ok {
		return v
	}
	return defaultNum(field)
}

func (m UpgradeMods) Flag(field string) bool { return m.flags[field] }

func (m UpgradeMods) Value(field string) string { return m.values[field] }

// Fields flattens the record for display, base defaults included.
func (m UpgradeMods) Fields() map[string]any {
	out := make(map[string]any, len(upgradeDefaults)+len(m.nums)+len(m.flags)+len(m.values))
	for k, v := range upgradeDefaults {
		out[k] = v
	}
	out[ModShowScanExact] = false
	for k, v := range m.nums {
		out[k] = v
	}
	for k, v := range m.flags {
		out[k] = v
	}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func defaultNum(field string) float64 {
	if v, ok := upgradeDefaults[field]; ok {
		return v
	}
	if strings.HasSuffix(field, "Mul") {
		return 1
	}
	return 0
}

func (m *UpgradeMods) apply(e catalog.Effect) {
	switch e.Op {
	case catalog.OpAdd:
		m.nums[e.Field] = m.Num(e.Field) + e.Amount
	case catalog.OpMultiply:
		m.nums[e.Field] = m.Num(e.Field) * e.Amount
	case catalog.OpSetFlag:
		m.flags[e.Field] = true
	case catalog.OpOverride:
		m.values[e.Field] = e.Value
	}
}

// UpgradeModifiers folds the effects of every unlocked node. Unknown node
// ids are skipped.
func UpgradeModifiers(st *PlayerState, cat *catalog.Catalog) UpgradeMods {
	m := UpgradeMods{
		nums:   map[string]float64{},
		flags:  map[string]bool{},
		values: map[string]string{},
	}
	ids := setToSlice(st.Unlocked)
	for _, id := range ids {
		node, ok := cat.Node(id)
		if !ok {
			continue
		}
		for _, e := range node.Effects {
			m.apply(e)
		}
	}
	return m
}

// GearBonuses sums the bonus fields of every installed item, each id
// counted once.
func GearBonuses(st *PlayerState, cat *catalog.Catalog) map[string]float64 {
	out := map[string]float64{}
	for _, id := range installedIDs(st.Installed) {
		it, ok := cat.Item(id)
		if !ok {
			continue
		}
		for k, v := range it.Bonuses {
			out[k] += v
		}
	}
	return out
}

func installedIDs(g Gear) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	add(g.Deck)
	add(g.Console)
	add(g.Implant)
	for _, id := range g.Mods {
		add(id)
	}
	for _, id := range g.Tools {
		add(id)
	}
	sort.Strings(out)
	return out
}

// ProgramMods is the combined contribution of the active programs.
type ProgramMods struct {
	SuccessMul       float64 `json:"successMul"`
	HeatOnFailMul    float64 `json:"heatOnFailMul"`
	RewardMul        float64 `json:"rewardMul"`
	SuccessAdd       float64 `json:"successAdd"`
	VsBlackAdapt     float64 `json:"vsBlackAdapt"`
	CityBonusSuccess float64 `json:"cityBonusSuccess"`
	CityRep          float64 `json:"cityRep"`
	PassiveIncome    float64 `json:"passiveIncome"`
	ExtraAttempt     bool    `json:"extraAttemptOnSuccess"`
}

// ProgramModifiers folds the active programs in order. Multiplicative fields
// left at zero in the catalog are treated as absent.
func ProgramModifiers(st *PlayerState, cat *catalog.Catalog) ProgramMods {
	pm := ProgramMods{SuccessMul: 1, HeatOnFailMul: 1, RewardMul: 1}
	for _, id := range st.ActivePrograms {
		p, ok := cat.Program(id)
		if !ok {
			continue
		}
		m := p.Mods
		if m.SuccessMul != 0 {
			pm.SuccessMul *= m.SuccessMul
		}
		if m.HeatOnFailMul != 0 {
			pm.HeatOnFailMul *= m.HeatOnFailMul
		}
		if m.RewardMul != 0 {
			pm.RewardMul *= m.RewardMul
		}
		pm.SuccessAdd += m.SuccessAdd
		pm.VsBlackAdapt += m.VsBlackAdapt
		pm.CityBonusSuccess += m.CityBonusSuccess
		pm.CityRep += m.CityRep
		pm.PassiveIncome += m.PassiveIncome
		pm.ExtraAttempt = pm.ExtraAttempt || m.ExtraAttemptOnSuccess
	}
	return pm
}

// HeatCap is the ceiling heat is clamped to.
func HeatCap(st *PlayerState, cat *catalog.Catalog) float64 {
	return heatCapFrom(cat, UpgradeModifiers(st, cat))
}

func heatCapFrom(cat *catalog.Catalog, um UpgradeMods) float64 {
	return cat.Tuning.Actions.HeatCap - um.Num(ModHeatCapMinus)
}

func addHeat(st *PlayerState, cat *catalog.Catalog, delta float64) {
	st.Heat = clampFloat(st.Heat+delta, 0, HeatCap(st, cat))
}
