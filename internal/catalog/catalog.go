// Package catalog holds the read-only content tables the simulation consults:
// skills, gear, programs, targets, ICE, the upgrade tree, mission chains and
// security events, plus the balance tuning.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes city networks from corporations.
type Kind string

const (
	KindCity Kind = "city"
	KindCorp Kind = "corp"
)

// ItemType is the gear slot an item occupies.
type ItemType string

const (
	ItemDeck    ItemType = "deck"
	ItemConsole ItemType = "console"
	ItemImplant ItemType = "implant"
	ItemMod     ItemType = "mod"
	ItemTool    ItemType = "tool"
)

// Skill is a leveled player attribute with its scoring weights.
type Skill struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	Weight        float64 `yaml:"weight" json:"weight"`
	GearWeight    float64 `yaml:"gearWeight" json:"gearWeight"`
	Start         float64 `yaml:"start" json:"start"`
	GainOnSuccess float64 `yaml:"gainOnSuccess" json:"gainOnSuccess"`
	GainChance    float64 `yaml:"gainChance" json:"gainChance"`
}

// Item is a purchasable piece of gear.
type Item struct {
	ID       string             `yaml:"id" json:"id"`
	Name     string             `yaml:"name" json:"name"`
	Type     ItemType           `yaml:"type" json:"type"`
	Bonuses  map[string]float64 `yaml:"bonuses" json:"bonuses,omitempty"`
	Slots    int                `yaml:"slots" json:"slots,omitempty"`
	CPU      int                `yaml:"cpu" json:"cpu,omitempty"`
	Cost     float64            `yaml:"cost" json:"cost"`
	Requires []string           `yaml:"requires" json:"requires,omitempty"`
}

// ProgramMods are the modifiers an active program contributes.
// Zero multiplicative fields mean "absent".
type ProgramMods struct {
	SuccessMul            float64 `yaml:"successMul" json:"successMul,omitempty"`
	HeatOnFailMul         float64 `yaml:"heatOnFailMul" json:"heatOnFailMul,omitempty"`
	RewardMul             float64 `yaml:"rewardMul" json:"rewardMul,omitempty"`
	SuccessAdd            float64 `yaml:"successAdd" json:"successAdd,omitempty"`
	VsBlackAdapt          float64 `yaml:"vsBlackAdapt" json:"vsBlackAdapt,omitempty"`
	CityBonusSuccess      float64 `yaml:"cityBonusSuccess" json:"cityBonusSuccess,omitempty"`
	CityRep               float64 `yaml:"cityRep" json:"cityRep,omitempty"`
	PassiveIncome         float64 `yaml:"passiveIncome" json:"passiveIncome,omitempty"`
	ExtraAttemptOnSuccess bool    `yaml:"extraAttemptOnSuccess" json:"extraAttemptOnSuccess,omitempty"`
}

// Program is installable software that occupies a slot and CPU.
type Program struct {
	ID   string      `yaml:"id" json:"id"`
	Name string      `yaml:"name" json:"name"`
	CPU  int         `yaml:"cpu" json:"cpu"`
	Cost float64     `yaml:"cost" json:"cost"`
	Mods ProgramMods `yaml:"mods" json:"mods"`
}

// LootEntry is one independent drop on a server's loot table.
type LootEntry struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name" json:"name"`
	Base float64  `yaml:"base" json:"base"`
	P    *float64 `yaml:"p" json:"p,omitempty"`
	Q    []int    `yaml:"q" json:"q,omitempty"`
}

// Chance is the drop probability; an omitted p always drops.
func (l LootEntry) Chance() float64 {
	if l.P == nil {
		return 1
	}
	return *l.P
}

// QuantityRange returns the inclusive [min, max] quantity, defaulting to [1, 1].
func (l LootEntry) QuantityRange() (int, int) {
	lo, hi := 1, 1
	if len(l.Q) > 0 {
		lo = l.Q[0]
		hi = lo
	}
	if len(l.Q) > 1 {
		hi = l.Q[1]
	}
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// UnitBase is the base sale value, at least 1 when omitted.
func (l LootEntry) UnitBase() float64 {
	if l.Base <= 0 {
		return 1
	}
	return l.Base
}

// Reward is what a successful hack pays before multipliers.
type Reward struct {
	Credits    float64     `yaml:"credits" json:"credits"`
	Reputation float64     `yaml:"reputation" json:"reputation"`
	Loot       []LootEntry `yaml:"loot" json:"loot,omitempty"`
}

// Server is a hackable node inside a target.
type Server struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Level  int      `yaml:"level" json:"level"`
	ICE    []string `yaml:"ice" json:"ice"`
	Reward Reward   `yaml:"reward" json:"reward"`
}

// HasTag reports whether the server carries the named defense tag.
func (s Server) HasTag(tag string) bool {
	for _, n := range s.ICE {
		if n == tag {
			return true
		}
	}
	return false
}

// Target is a city network or a corporation.
type Target struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Kind    Kind     `yaml:"kind" json:"kind"`
	Servers []Server `yaml:"servers" json:"servers"`
}

// Server looks a server up by id.
func (t Target) Server(id string) (Server, bool) {
	for _, s := range t.Servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

// ICE is a named defense with its strength.
type ICE struct {
	Strength float64 `yaml:"strength" json:"strength"`
}

// UpgradeNode is a node of the upgrade tree.
type UpgradeNode struct {
	ID      string         `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	Tier    int            `yaml:"tier" json:"tier"`
	Req     []string       `yaml:"req" json:"req,omitempty"`
	SP      int            `yaml:"sp" json:"sp"`
	RP      float64        `yaml:"rp" json:"rp,omitempty"`
	Effects []Effect       `yaml:"effects" json:"effects,omitempty"`
	Legacy  map[string]any `yaml:"effect" json:"-"`
	Branch  string         `yaml:"-" json:"branch"`
}

// SkillPointCost is the SP price, at least 1.
func (n UpgradeNode) SkillPointCost() int {
	if n.SP <= 0 {
		return 1
	}
	return n.SP
}

// Branch groups upgrade nodes.
type Branch struct {
	ID    string        `yaml:"id" json:"id"`
	Name  string        `yaml:"name" json:"name"`
	Nodes []UpgradeNode `yaml:"nodes" json:"nodes"`
}

// Objective names the server a mission step asks for.
type Objective struct {
	Target string `yaml:"target" json:"target"`
	Server string `yaml:"server" json:"server"`
}

// MissionStep is one link of a corp mission chain.
type MissionStep struct {
	Name      string    `yaml:"name" json:"name"`
	Objective Objective `yaml:"objective" json:"objective"`
	Reward    Reward    `yaml:"reward" json:"reward"`
}

// EventScope restricts which targets an event affects.
type EventScope string

const (
	ScopeAny  EventScope = "any"
	ScopeCity EventScope = "city"
	ScopeCorp EventScope = "corp"
)

// EventEffects are the modifiers a security event applies while active.
type EventEffects struct {
	IceBonus       float64 `yaml:"iceBonus" json:"iceBonus,omitempty"`
	HeatFailAdd    float64 `yaml:"heatFailAdd" json:"heatFailAdd,omitempty"`
	RewardMul      float64 `yaml:"rewardMul" json:"rewardMul,omitempty"`
	ChanceAdd      float64 `yaml:"chanceAdd" json:"chanceAdd,omitempty"`
	HeatAttemptAdd float64 `yaml:"heatAttemptAdd" json:"heatAttemptAdd,omitempty"`
}

// EventLog holds notification templates; {corp} is substituted.
type EventLog struct {
	Default string `yaml:"default" json:"default,omitempty"`
	Corp    string `yaml:"corp" json:"corp,omitempty"`
}

// EventDef is a spawnable security event.
type EventDef struct {
	ID         string       `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	Scope      EventScope   `yaml:"scope" json:"scope"`
	Weight     float64      `yaml:"weight" json:"weight"`
	DurationMs int64        `yaml:"duration_ms" json:"duration_ms"`
	Effects    EventEffects `yaml:"effects" json:"effects"`
	Log        EventLog     `yaml:"log" json:"log"`
}

// Catalog is the full set of content tables. Call Reindex after building one
// by hand; Load does it for you.
type Catalog struct {
	Skills      []Skill
	Denominator float64
	Items       []Item
	Programs    []Program
	Targets     []Target
	ICE         map[string]ICE
	Branches    []Branch
	Missions    map[string][]MissionStep
	Events      []EventDef
	Tuning      Tuning

	items    map[string]Item
	programs map[string]Program
	targets  map[string]Target
	nodes    map[string]UpgradeNode
	events   map[string]EventDef
}

// ErrMissingData marks catalog content the engine cannot run without.
var ErrMissingData = errors.New("catalog: required data missing")

// Reindex validates the tables, converts legacy upgrade effects and rebuilds
// the lookup indexes.
func (c *Catalog) Reindex() error {
	if len(c.Skills) == 0 {
		return fmt.Errorf("%w: skills", ErrMissingData)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("%w: targets", ErrMissingData)
	}
	if c.ICE == nil {
		return fmt.Errorf("%w: ice", ErrMissingData)
	}
	if c.Denominator <= 0 {
		c.Denominator = 120
	}
	if c.Missions == nil {
		c.Missions = map[string][]MissionStep{}
	}

	c.items = make(map[string]Item, len(c.Items))
	for _, it := range c.Items {
		if it.ID == "" {
			return errors.New("catalog: item without id")
		}
		c.items[it.ID] = it
	}
	c.programs = make(map[string]Program, len(c.Programs))
	for _, p := range c.Programs {
		c.programs[p.ID] = p
	}
	c.targets = make(map[string]Target, len(c.Targets))
	for _, t := range c.Targets {
		if t.Kind != KindCity && t.Kind != KindCorp {
			return fmt.Errorf("catalog: target %s has unknown kind %q", t.ID, t.Kind)
		}
		for _, s := range t.Servers {
			for _, tag := range s.ICE {
				if _, ok := c.ICE[tag]; !ok {
					return fmt.Errorf("catalog: server %s references unknown ice %q", s.ID, tag)
				}
			}
		}
		c.targets[t.ID] = t
	}
	c.nodes = map[string]UpgradeNode{}
	for bi := range c.Branches {
		b := &c.Branches[bi]
		for ni := range b.Nodes {
			n := &b.Nodes[ni]
			n.Branch = b.ID
			if len(n.Legacy) > 0 {
				converted, err := EffectsFromLegacy(n.Legacy)
				if err != nil {
					return fmt.Errorf("catalog: upgrade %s: %w", n.ID, err)
				}
				n.Effects = append(n.Effects, converted...)
				n.Legacy = nil
			}
			for _, e := range n.Effects {
				if err := e.Validate(); err != nil {
					return fmt.Errorf("catalog: upgrade %s: %w", n.ID, err)
				}
			}
			c.nodes[n.ID] = *n
		}
	}
	c.events = make(map[string]EventDef, len(c.Events))
	for _, e := range c.Events {
		c.events[e.ID] = e
	}
	for corp, chain := range c.Missions {
		for _, step := range chain {
			t, ok := c.targets[step.Objective.Target]
			if !ok {
				return fmt.Errorf("catalog: mission chain %s targets unknown %q", corp, step.Objective.Target)
			}
			if _, ok := t.Server(step.Objective.Server); !ok {
				return fmt.Errorf("catalog: mission chain %s targets unknown server %q", corp, step.Objective.Server)
			}
		}
	}
	return nil
}

func (c *Catalog) Item(id string) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

func (c *Catalog) Program(id string) (Program, bool) {
	p, ok := c.programs[id]
	return p, ok
}

func (c *Catalog) Target(id string) (Target, bool) {
	t, ok := c.targets[id]
	return t, ok
}

func (c *Catalog) Node(id string) (UpgradeNode, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

func (c *Catalog) EventDef(id string) (EventDef, bool) {
	e, ok := c.events[id]
	return e, ok
}

// Lookup resolves a (target, server) pair.
func (c *Catalog) Lookup(targetID, serverID string) (Target, Server, bool) {
	t, ok := c.targets[targetID]
	if !ok {
		return Target{}, Server{}, false
	}
	s, ok := t.Server(serverID)
	return t, s, ok
}

// Strength is the catalog strength of a defense tag; unknown tags are 0.
func (c *Catalog) Strength(tag string) float64 {
	return c.ICE[tag].Strength
}

// Corps lists corporation targets in catalog order.
func (c *Catalog) Corps() []Target {
	var out []Target
	for _, t := range c.Targets {
		if t.Kind == KindCorp {
			out = append(out, t)
		}
	}
	return out
}

// TierNodes returns a branch's nodes grouped by tier, tiers ascending.
func (c *Catalog) TierNodes(branchID string) [][]UpgradeNode {
	var branch *Branch
	for i := range c.Branches {
		if strings.EqualFold(c.Branches[i].ID, branchID) {
			branch = &c.Branches[i]
			break
		}
	}
	if branch == nil {
		return nil
	}
	byTier := map[int][]UpgradeNode{}
	var tiers []int
	for _, n := range branch.Nodes {
		if _, ok := byTier[n.Tier]; !ok {
			tiers = append(tiers, n.Tier)
		}
		byTier[n.Tier] = append(byTier[n.Tier], n)
	}
	sort.Ints(tiers)
	out := make([][]UpgradeNode, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, byTier[tier])
	}
	return out
}
