package catalog

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

func minimalFS() fstest.MapFS {
	return fstest.MapFS{
		SkillsFile: {Data: []byte(`
compute: { denominator: 100 }
skills:
  - { id: netrun, name: Netrunning, weight: 8, gearWeight: 6, start: 1 }
`)},
		ItemsFile: {Data: []byte(`
decks:
  - { id: deck_mk1, name: Deck, slots: 2, cpu: 4 }
mods:
  - { id: mod_a, name: Mod A, cost: 40, bonuses: { successAdd: 0.01 } }
`)},
		ProgramsFile: {Data: []byte(`
programs:
  - { id: brute, name: Brute, cpu: 2, mods: { successAdd: 0.03 } }
`)},
		TargetsFile: {Data: []byte(`
targets:
  - id: city
    name: City
    kind: city
    servers:
      - id: city_node
        name: Node
        level: 1
        ice: [Firewall]
        reward: { credits: 80, reputation: 1, loot: [ { id: shard, name: Shard, base: 10, p: 0.5, q: [1, 3] } ] }
`)},
		ICEFile: {Data: []byte("ice:\n  Firewall: { strength: 6 }\n")},
		UpgradesFile: {Data: []byte(`
branches:
  - id: breach
    name: Breach
    nodes:
      - { id: br_edge, name: Edge, tier: 1, sp: 1, effect: { successAdd: 0.02, rewardMul: 1.1, showScanExact: true, mode: loud } }
      - { id: br_next, name: Next, tier: 2, req: [br_edge], effects: [ { op: add, field: cpuAdd, amount: 2 } ] }
`)},
		MissionsFile: {Data: []byte(`
missions:
  city:
    - { name: First, objective: { target: city, server: city_node }, reward: { credits: 100, reputation: 1 } }
`)},
		EventsFile: {Data: []byte(`
events:
  - { id: sweep, name: Sweep, scope: city, weight: 2, duration_ms: 25000, effects: { heatFailAdd: 6 } }
`)},
	}
}

func TestLoadFS(t *testing.T) {
	c, err := LoadFS(minimalFS())
	if err != nil {
		t.Fatalf("LoadFS error: %v", err)
	}
	if c.Denominator != 100 {
		t.Fatalf("denominator = %v", c.Denominator)
	}
	if it, ok := c.Item("mod_a"); !ok || it.Type != ItemMod || it.Bonuses["successAdd"] != 0.01 {
		t.Fatalf("mod_a = %+v, %v", it, ok)
	}
	if it, ok := c.Item("deck_mk1"); !ok || it.Type != ItemDeck {
		t.Fatalf("deck_mk1 = %+v, %v", it, ok)
	}
	target, server, ok := c.Lookup("city", "city_node")
	if !ok || target.Kind != KindCity || server.Level != 1 {
		t.Fatalf("Lookup = %+v %+v %v", target, server, ok)
	}
	loot := server.Reward.Loot[0]
	if loot.Chance() != 0.5 {
		t.Fatalf("loot chance = %v", loot.Chance())
	}
	if lo, hi := loot.QuantityRange(); lo != 1 || hi != 3 {
		t.Fatalf("loot range = %d..%d", lo, hi)
	}
	if c.Strength("Firewall") != 6 || c.Strength("Nope") != 0 {
		t.Fatalf("strength lookup wrong")
	}
	if len(c.Corps()) != 0 {
		t.Fatalf("no corps expected: %+v", c.Corps())
	}
	if e, ok := c.EventDef("sweep"); !ok || e.Scope != ScopeCity || e.DurationMs != 25000 {
		t.Fatalf("event = %+v, %v", e, ok)
	}
	// no tuning.yaml keeps the shipped balance.
	if c.Tuning.Actions.HeatCap != 100 {
		t.Fatalf("tuning defaults not applied: %+v", c.Tuning.Actions)
	}
}

func TestLegacyEffectsConverted(t *testing.T) {
	c, err := LoadFS(minimalFS())
	if err != nil {
		t.Fatalf("LoadFS error: %v", err)
	}
	node, ok := c.Node("br_edge")
	if !ok {
		t.Fatalf("br_edge missing")
	}
	if node.Branch != "breach" || node.Legacy != nil {
		t.Fatalf("node = %+v", node)
	}
	want := []Effect{
		Override("mode", "loud"),
		Multiply("rewardMul", 1.1),
		SetFlag("showScanExact"),
		Add("successAdd", 0.02),
	}
	if len(node.Effects) != len(want) {
		t.Fatalf("effects = %+v", node.Effects)
	}
	for i := range want {
		if node.Effects[i] != want[i] {
			t.Fatalf("effect %d = %+v, want %+v", i, node.Effects[i], want[i])
		}
	}

	if tiers := c.TierNodes("BREACH"); len(tiers) != 2 || tiers[0][0].ID != "br_edge" || tiers[1][0].ID != "br_next" {
		t.Fatalf("TierNodes = %+v", tiers)
	}
	if n, _ := c.Node("br_next"); n.SkillPointCost() != 1 {
		t.Fatalf("sp cost default = %d", n.SkillPointCost())
	}
}

func TestEffectsFromLegacyRejectsNonNumericMul(t *testing.T) {
	if _, err := EffectsFromLegacy(map[string]any{"rewardMul": "big"}); err == nil {
		t.Fatalf("expected error for non-numeric multiplier")
	}
	got, err := EffectsFromLegacy(map[string]any{"hidden": false, "slotAdd": 1})
	if err != nil || len(got) != 1 || got[0] != Add("slotAdd", 1) {
		t.Fatalf("EffectsFromLegacy = %+v, %v", got, err)
	}
}

func TestLoadFSMissingData(t *testing.T) {
	fsys := minimalFS()
	delete(fsys, TargetsFile)
	if _, err := LoadFS(fsys); !errors.Is(err, ErrMissingData) {
		t.Fatalf("missing targets err = %v, want ErrMissingData", err)
	}

	fsys = minimalFS()
	fsys[SkillsFile] = &fstest.MapFile{Data: []byte("")}
	if _, err := LoadFS(fsys); !errors.Is(err, ErrMissingData) {
		t.Fatalf("empty skills err = %v, want ErrMissingData", err)
	}

	fsys = minimalFS()
	fsys[ICEFile] = &fstest.MapFile{Data: []byte("ice:\n  Sentry: { strength: 6 }\n")}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected unknown ice error")
	}

	fsys = minimalFS()
	fsys[ItemsFile] = &fstest.MapFile{Data: []byte("decks:\n  - { id: d, nmae: typo }\n")}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadFSTuningOverlay(t *testing.T) {
	fsys := minimalFS()
	fsys[TuningFile] = &fstest.MapFile{Data: []byte("actions:\n  lockout: 15s\ntrace:\n  durations: { 2: 90s }\n")}
	c, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS error: %v", err)
	}
	if c.Tuning.Actions.Lockout != 15*time.Second {
		t.Fatalf("lockout = %v", c.Tuning.Actions.Lockout)
	}
	if c.Tuning.Actions.HeatCap != 100 {
		t.Fatalf("untouched field lost its default: %v", c.Tuning.Actions.HeatCap)
	}
	if c.Tuning.Trace.Durations[2] != 90*time.Second {
		t.Fatalf("durations = %v", c.Tuning.Trace.Durations)
	}
}

func TestLoadShippedData(t *testing.T) {
	c, err := Load("../../data")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(c.Corps()) == 0 || len(c.Events) == 0 || len(c.Missions) == 0 {
		t.Fatalf("shipped catalog incomplete: corps=%d events=%d missions=%d", len(c.Corps()), len(c.Events), len(c.Missions))
	}
	if n, ok := c.Node("br_edge"); !ok || len(n.Effects) != 1 || n.Effects[0] != Add("successAdd", 0.02) {
		t.Fatalf("legacy br_edge = %+v", n)
	}
	for _, id := range c.Tuning.Start.Items {
		if _, ok := c.Item(id); !ok {
			t.Fatalf("start item %s not in catalog", id)
		}
	}
	for _, id := range c.Tuning.Start.Programs {
		if _, ok := c.Program(id); !ok {
			t.Fatalf("start program %s not in catalog", id)
		}
	}
}
