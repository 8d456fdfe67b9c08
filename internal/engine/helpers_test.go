package engine

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"netrunner/internal/catalog"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := &catalog.Catalog{
		Denominator: 120,
		Skills: []catalog.Skill{
			{ID: "netrun", Name: "Netrun", Weight: 8, GearWeight: 6, Start: 1, GainOnSuccess: 1, GainChance: 0.05},
			{ID: "stealth", Name: "Stealth", Weight: 5, GearWeight: 4, Start: 1, GainOnSuccess: 1, GainChance: 0.03},
		},
		Items: []catalog.Item{
			{ID: "deck_mk1", Name: "Deck Mk1", Type: catalog.ItemDeck, Slots: 2, CPU: 4, Bonuses: map[string]float64{"netrun": 1}},
			{ID: "deck_mk2", Name: "Deck Mk2", Type: catalog.ItemDeck, Slots: 3, CPU: 6, Cost: 500, Requires: []string{"deck_mk1"}, Bonuses: map[string]float64{"netrun": 2}},
			{ID: "deck_mk3", Name: "Deck Mk3", Type: catalog.ItemDeck, Slots: 4, CPU: 8, Cost: 900, Requires: []string{"deck_mk2"}},
			{ID: "mod_overclk", Name: "Overclock", Type: catalog.ItemMod, Cost: 50, Bonuses: map[string]float64{"successAdd": 0.01}},
			{ID: "implant_ghost", Name: "Ghost", Type: catalog.ItemImplant, Cost: 80, Bonuses: map[string]float64{"heatReduce": 0.02}},
		},
		Programs: []catalog.Program{
			{ID: "brute", Name: "Brute", CPU: 2, Mods: catalog.ProgramMods{SuccessAdd: 0.03}},
			{ID: "cloak", Name: "Cloak", CPU: 2, Cost: 100, Mods: catalog.ProgramMods{HeatOnFailMul: 0.5}},
			{ID: "leech", Name: "Leech", CPU: 1, Cost: 60, Mods: catalog.ProgramMods{PassiveIncome: 1}},
			{ID: "daemon", Name: "Daemon", CPU: 3, Cost: 200, Mods: catalog.ProgramMods{ExtraAttemptOnSuccess: true}},
		},
		ICE: map[string]catalog.ICE{
			"Firewall": {Strength: 6},
			"Sentry":   {Strength: 6},
			"Black":    {Strength: 18},
			"Adaptive": {Strength: 14},
		},
		Targets: []catalog.Target{
			{ID: "city", Name: "Night City", Kind: catalog.KindCity, Servers: []catalog.Server{
				{ID: "city_node", Name: "Traffic", Level: 1, ICE: []string{"Firewall"}, Reward: catalog.Reward{
					Credits: 100, Reputation: 1,
					Loot: []catalog.LootEntry{{ID: "data_shard", Name: "Data Shard", Base: 10}},
				}},
			}},
			{ID: "arasaka", Name: "Arasaka", Kind: catalog.KindCorp, Servers: []catalog.Server{
				{ID: "ara_lobby", Name: "Lobby", Level: 1, ICE: []string{"Firewall"}, Reward: catalog.Reward{Credits: 120, Reputation: 1}},
				{ID: "ara_mail", Name: "Mail", Level: 2, ICE: []string{"Sentry"}, Reward: catalog.Reward{Credits: 200, Reputation: 2}},
				{ID: "ara_vault", Name: "Vault", Level: 6, ICE: []string{"Black", "Adaptive"}, Reward: catalog.Reward{Credits: 900, Reputation: 5}},
			}},
		},
		Branches: []catalog.Branch{
			{ID: "stealth", Name: "Stealth", Nodes: []catalog.UpgradeNode{
				{ID: "st_cool", Name: "Coolant", Tier: 1, SP: 1, Effects: []catalog.Effect{catalog.Multiply(ModHeatFailMul, 0.9)}},
				{ID: "st_ghost", Name: "Ghost", Tier: 2, SP: 1, RP: 5, Req: []string{"st_cool"}, Effects: []catalog.Effect{catalog.Add(ModAvoidHeatOnFailPct, 15)}},
			}},
			{ID: "breach", Name: "Breach", Nodes: []catalog.UpgradeNode{
				{ID: "br_bypass", Name: "Bypass", Tier: 1, SP: 1, Effects: []catalog.Effect{catalog.Add(ModBypassCooldownMs, 90000)}},
			}},
			{ID: "rig", Name: "Rig", Nodes: []catalog.UpgradeNode{
				{ID: "rg_slot", Name: "Extra slot", Tier: 1, SP: 1, Effects: []catalog.Effect{catalog.Add(ModSlotAdd, 1)}},
				{ID: "rg_scan", Name: "Exact scan", Tier: 1, SP: 1, Effects: []catalog.Effect{catalog.SetFlag(ModShowScanExact)}},
			}},
			{ID: "sink", Name: "Heat sink", Nodes: []catalog.UpgradeNode{
				{ID: "hs_trim", Name: "Trimmed trace", Tier: 1, SP: 1, Effects: []catalog.Effect{catalog.Add(ModHeatCapMinus, 10)}},
			}},
		},
		Missions: map[string][]catalog.MissionStep{
			"arasaka": {
				{Name: "Mail sweep", Objective: catalog.Objective{Target: "arasaka", Server: "ara_mail"}, Reward: catalog.Reward{Credits: 200, Reputation: 2}},
				{Name: "Vault job", Objective: catalog.Objective{Target: "arasaka", Server: "ara_vault"}, Reward: catalog.Reward{Credits: 600, Reputation: 4}},
			},
		},
		Events: []catalog.EventDef{
			{ID: "audit", Name: "Audit", Scope: catalog.ScopeCorp, Weight: 2, DurationMs: 20000,
				Effects: catalog.EventEffects{IceBonus: 10}, Log: catalog.EventLog{Corp: "Audit at {corp}"}},
			{ID: "blackout", Name: "Blackout", Scope: catalog.ScopeAny, Weight: 1,
				Effects: catalog.EventEffects{ChanceAdd: 0.03}},
		},
		Tuning: catalog.DefaultTuning(),
	}
	if err := c.Reindex(); err != nil {
		t.Fatalf("Reindex() error: %v", err)
	}
	return c
}

// scriptedRand replays queued draws, then keeps returning the fallbacks.
type scriptedRand struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
	float  float64
}

func newScriptedRand(floats ...float64) *scriptedRand {
	return &scriptedRand{floats: floats, float: 0.99}
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return r.float
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	fn    func()
	done  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

// fakeClock only moves on Advance. Sleep returns at once unless gate is set,
// in which case it signals entered and waits for gate to close.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	gate    chan struct{}
	entered chan struct{}
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testNow}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	gate, entered := c.gate, c.entered
	c.mu.Unlock()
	if gate == nil {
		return ctx.Err()
	}
	if entered != nil {
		entered <- struct{}{}
	}
	select {
	case <-gate:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Advance moves time forward and fires due timers outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type recordingPersister struct {
	mu    sync.Mutex
	saves []Snapshot
}

func (p *recordingPersister) Save(_ context.Context, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, snap)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func newTestSession(t *testing.T, rng Rand, opts ...Option) (*Session, *fakeClock) {
	t.Helper()
	cat := newTestCatalog(t)
	clock := newFakeClock()
	all := append([]Option{WithClock(clock), WithRand(rng)}, opts...)
	s := NewSession(cat, all...)
	t.Cleanup(s.Close)
	return s, clock
}

func mustLookup(t *testing.T, cat *catalog.Catalog, targetID, serverID string) (catalog.Target, catalog.Server) {
	t.Helper()
	target, server, ok := cat.Lookup(targetID, serverID)
	if !ok {
		t.Fatalf("Lookup(%s, %s) not found", targetID, serverID)
	}
	return target, server
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
