package engine

import (
	"math"
	"sort"
	"time"

	"netrunner/internal/catalog"
)

// Event kinds the engine creates itself. Catalog events use their catalog id.
const (
	EventTrace   = "trace"
	EventLockout = "lockout"
)

// Event is an entry of the active-event ledger.
type Event struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	Corp  string    `json:"corp,omitempty"`
	Start time.Time `json:"start"`
	Ends  time.Time `json:"ends"`
	Level int       `json:"level,omitempty"`
}

// Gear is what is currently installed.
type Gear struct {
	Deck    string   `json:"deck,omitempty"`
	Console string   `json:"console,omitempty"`
	Implant string   `json:"implant,omitempty"`
	Mods    []string `json:"mods"`
	Tools   []string `json:"tools"`
}

// Hardening is the escalation record of one server.
type Hardening struct {
	Level         int       `json:"level"`
	LastAppliedAt time.Time `json:"lastAppliedAt"`
}

// LootStack is a pile of one kind of loot waiting to be sold.
type LootStack struct {
	Name     string  `json:"name"`
	UnitBase float64 `json:"unitBase"`
	Quantity int     `json:"quantity"`
}

// MissionProgress points at the active step of a mission chain.
type MissionProgress struct {
	Chain string `json:"chain"`
	Step  int    `json:"step"`
}

// PlayerState is the single mutable aggregate every subsystem reads and
// writes. It is not safe for concurrent use; Session serializes access.
type PlayerState struct {
	Credits        float64
	Reputation     float64
	Heat           float64
	XP             int
	SkillPoints    int
	ResearchPoints float64

	Skills map[string]float64

	Installed      Gear
	OwnedGear      map[string]bool
	OwnedPrograms  map[string]bool
	ActivePrograms []string

	Unlocked   map[string]bool
	Researched map[string]bool

	Discovered map[string]float64
	Events     []Event
	Hardening  map[string]Hardening

	AttemptHistory map[string][]time.Time
	ScanHistory    map[string][]time.Time
	FarmHistory    map[string][]time.Time

	Loot          map[string]LootStack
	Mission       *MissionProgress
	BypassReadyAt time.Time
}

// NewPlayerState builds a fresh player from the catalog defaults.
func NewPlayerState(cat *catalog.Catalog) *PlayerState {
	st := emptyState()
	start := cat.Tuning.Start
	st.Credits = start.Credits
	for _, sk := range cat.Skills {
		st.Skills[sk.ID] = sk.Start
	}
	for _, id := range start.Items {
		it, ok := cat.Item(id)
		if !ok {
			continue
		}
		st.OwnedGear[id] = true
		installItem(&st.Installed, it)
	}
	for _, id := range start.Programs {
		if _, ok := cat.Program(id); ok {
			st.OwnedPrograms[id] = true
		}
	}
	return st
}

func emptyState() *PlayerState {
	return &PlayerState{
		Skills:         map[string]float64{},
		Installed:      Gear{Mods: []string{}, Tools: []string{}},
		OwnedGear:      map[string]bool{},
		OwnedPrograms:  map[string]bool{},
		ActivePrograms: []string{},
		Unlocked:       map[string]bool{},
		Researched:     map[string]bool{},
		Discovered:     map[string]float64{},
		Events:         []Event{},
		Hardening:      map[string]Hardening{},
		AttemptHistory: map[string][]time.Time{},
		ScanHistory:    map[string][]time.Time{},
		FarmHistory:    map[string][]time.Time{},
		Loot:           map[string]LootStack{},
	}
}

// Snapshot is the flat persisted form of PlayerState. Sets are sorted arrays.
type Snapshot struct {
	Credits        float64 `json:"credits"`
	Reputation     float64 `json:"reputation"`
	Heat           float64 `json:"heat"`
	XP             int     `json:"xp"`
	SkillPoints    int     `json:"skillPoints"`
	ResearchPoints float64 `json:"researchPoints"`

	Skills map[string]float64 `json:"skills"`

	Installed      Gear     `json:"installed"`
	OwnedGear      []string `json:"ownedGear"`
	OwnedPrograms  []string `json:"ownedPrograms"`
	ActivePrograms []string `json:"activePrograms"`

	Unlocked   []string `json:"unlocked"`
	Researched []string `json:"researched"`

	Discovered map[string]float64   `json:"discovered"`
	Events     []Event              `json:"events"`
	Hardening  map[string]Hardening `json:"hardening"`

	AttemptHistory map[string][]time.Time `json:"attemptHistory"`
	ScanHistory    map[string][]time.Time `json:"scanHistory"`
	FarmHistory    map[string][]time.Time `json:"farmHistory"`

	Loot          map[string]LootStack `json:"loot"`
	Mission       *MissionProgress     `json:"mission"`
	BypassReadyAt time.Time            `json:"bypassReadyAt"`
}

// Snapshot copies the state into its persisted form.
func (st *PlayerState) Snapshot() Snapshot {
	snap := Snapshot{
		Credits:        st.Credits,
		Reputation:     st.Reputation,
		Heat:           st.Heat,
		XP:             st.XP,
		SkillPoints:    st.SkillPoints,
		ResearchPoints: st.ResearchPoints,
		Skills:         copyFloats(st.Skills),
		Installed: Gear{
			Deck:    st.Installed.Deck,
			Console: st.Installed.Console,
			Implant: st.Installed.Implant,
			Mods:    append([]string{}, st.Installed.Mods...),
			Tools:   append([]string{}, st.Installed.Tools...),
		},
		OwnedGear:      setToSlice(st.OwnedGear),
		OwnedPrograms:  setToSlice(st.OwnedPrograms),
		ActivePrograms: append([]string{}, st.ActivePrograms...),
		Unlocked:       setToSlice(st.Unlocked),
		Researched:     setToSlice(st.Researched),
		Discovered:     copyFloats(st.Discovered),
		Events:         append([]Event{}, st.Events...),
		Hardening:      make(map[string]Hardening, len(st.Hardening)),
		AttemptHistory: copyHistory(st.AttemptHistory),
		ScanHistory:    copyHistory(st.ScanHistory),
		FarmHistory:    copyHistory(st.FarmHistory),
		Loot:           make(map[string]LootStack, len(st.Loot)),
		BypassReadyAt:  st.BypassReadyAt,
	}
	for k, v := range st.Hardening {
		snap.Hardening[k] = v
	}
	for k, v := range st.Loot {
		snap.Loot[k] = v
	}
	if st.Mission != nil {
		m := *st.Mission
		snap.Mission = &m
	}
	return snap
}

// RestoreState rebuilds a PlayerState from a snapshot. Missing collections
// come back empty.
func RestoreState(snap Snapshot) *PlayerState {
	st := emptyState()
	st.Credits = math.Max(0, snap.Credits)
	st.Reputation = math.Max(0, snap.Reputation)
	st.Heat = math.Max(0, snap.Heat)
	st.XP = snap.XP
	st.SkillPoints = snap.SkillPoints
	st.ResearchPoints = snap.ResearchPoints
	for k, v := range snap.Skills {
		st.Skills[k] = v
	}
	st.Installed.Deck = snap.Installed.Deck
	st.Installed.Console = snap.Installed.Console
	st.Installed.Implant = snap.Installed.Implant
	st.Installed.Mods = append(st.Installed.Mods, snap.Installed.Mods...)
	st.Installed.Tools = append(st.Installed.Tools, snap.Installed.Tools...)
	fillSet(st.OwnedGear, snap.OwnedGear)
	fillSet(st.OwnedPrograms, snap.OwnedPrograms)
	st.ActivePrograms = append(st.ActivePrograms, snap.ActivePrograms...)
	fillSet(st.Unlocked, snap.Unlocked)
	fillSet(st.Researched, snap.Researched)
	for k, v := range snap.Discovered {
		st.Discovered[k] = v
	}
	st.Events = append(st.Events, snap.Events...)
	for k, v := range snap.Hardening {
		st.Hardening[k] = v
	}
	st.AttemptHistory = copyHistory(snap.AttemptHistory)
	st.ScanHistory = copyHistory(snap.ScanHistory)
	st.FarmHistory = copyHistory(snap.FarmHistory)
	for k, v := range snap.Loot {
		st.Loot[k] = v
	}
	if snap.Mission != nil {
		m := *snap.Mission
		st.Mission = &m
	}
	st.BypassReadyAt = snap.BypassReadyAt
	return st
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func fillSet(set map[string]bool, ids []string) {
	for _, id := range ids {
		set[id] = true
	}
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyHistory(in map[string][]time.Time) map[string][]time.Time {
	out := make(map[string][]time.Time, len(in))
	for k, v := range in {
		out[k] = append([]time.Time{}, v...)
	}
	return out
}

// pruneWindow drops timestamps at least window old and stores the result.
func pruneWindow(hist map[string][]time.Time, key string, now time.Time, window time.Duration) []time.Time {
	list := hist[key]
	kept := list[:0]
	for _, ts := range list {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(hist, key)
		return nil
	}
	hist[key] = kept
	return kept
}

func pushWindow(hist map[string][]time.Time, key string, now time.Time, window time.Duration) []time.Time {
	hist[key] = append(hist[key], now)
	return pruneWindow(hist, key, now, window)
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
