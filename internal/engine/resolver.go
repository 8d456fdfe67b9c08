package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"netrunner/internal/catalog"
)

// ScanResult is what a completed scan revealed.
type ScanResult struct {
	Target   string       `json:"target"`
	Server   string       `json:"server"`
	Chance   float64      `json:"chance"`
	Exact    bool         `json:"exact"`
	Hardened int          `json:"hardened"`
	Trace    TraceOutcome `json:"trace"`
}

// HackResult is the outcome of one hack attempt.
type HackResult struct {
	Target       string             `json:"target"`
	Server       string             `json:"server"`
	Success      bool               `json:"success"`
	Chance       float64            `json:"chance"`
	BaseChance   float64            `json:"baseChance"`
	Roll         float64            `json:"roll"`
	Bypass       float64            `json:"bypass,omitempty"`
	Credits      float64            `json:"credits,omitempty"`
	Reputation   float64            `json:"reputation,omitempty"`
	XP           int                `json:"xp,omitempty"`
	SkillPoints  int                `json:"skillPoints,omitempty"`
	SkillGains   map[string]float64 `json:"skillGains,omitempty"`
	Loot         []LootDrop         `json:"loot,omitempty"`
	BonusAttempt bool               `json:"bonusAttempt,omitempty"`
	Hardened     int                `json:"hardened,omitempty"`
	Mission      *MissionOutcome    `json:"mission,omitempty"`
	Retaliation  *Damage            `json:"retaliation,omitempty"`
	Heat         float64            `json:"heat,omitempty"`
	CreditLoss   float64            `json:"creditLoss,omitempty"`
	LockedOut    bool               `json:"lockedOut,omitempty"`
}

// begin claims the busy flag for key.
func (s *Session) begin(key string) error {
	if s.busy[key] {
		return ErrBusy
	}
	s.busy[key] = true
	return nil
}

// Scan estimates the success chance against a server after a short delay,
// caches it, may harden the server and always evaluates trace pressure.
func (s *Session) Scan(ctx context.Context, targetID, serverID string) (ScanResult, error) {
	s.mu.Lock()
	target, server, err := s.lookupLocked(targetID, serverID)
	if err == nil {
		err = s.begin("scan:" + serverID)
	}
	if err != nil {
		s.mu.Unlock()
		return ScanResult{}, err
	}
	um := UpgradeModifiers(s.state, s.cat)
	delay := scale(s.cat.Tuning.Actions.ScanDelay, um.Num(ModScanLatencyMul))
	s.mu.Unlock()

	waitErr := s.clock.Sleep(ctx, delay)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, "scan:"+serverID)
	if waitErr != nil {
		return ScanResult{}, waitErr
	}
	res := s.resolveScanLocked(target, server)
	s.persistLocked()
	return res, nil
}

func (s *Session) resolveScanLocked(target catalog.Target, server catalog.Server) ScanResult {
	now := s.clock.Now()
	a := s.cat.Tuning.Adaptive
	st := s.state

	c := ComputeSuccess(st, s.cat, target, server, 0, now)
	st.Discovered[server.ID] = c
	res := ScanResult{
		Target: target.ID,
		Server: server.ID,
		Chance: c,
		Exact:  UpgradeModifiers(st, s.cat).Flag(ModShowScanExact),
	}
	s.notifyLocked("scan", "Scan %s > %s: %d%% chance", target.Name, server.Name, int(math.Round(c*100)))

	if c >= a.ScanTriggerAt && s.rng.Float64() < a.OnScanChance {
		res.Hardened = bumpHardening(st, s.cat, target, server, c, now)
		if res.Hardened > 0 {
			s.notifyHardenedLocked(target, server, res.Hardened, "after scan")
		}
		res.Chance = st.Discovered[server.ID]
	}

	res.Trace = evaluateTrace(st, s.cat, s.rng, target, now)
	if res.Trace.Armed {
		s.notifyLocked("trace", "Tracer active on %s, level %d", target.Name, res.Trace.Level)
	}
	if res.Trace.Panic {
		s.notifyLocked("trace", "Countermeasure detected: +%g heat", res.Trace.HeatSpike)
		s.lockoutLocked(res.Trace.Lockout)
	}
	return res
}

func (s *Session) notifyHardenedLocked(target catalog.Target, server catalog.Server, applied int, reason string) {
	a := s.cat.Tuning.Adaptive
	s.notifyLocked("hardening", "%s > %s fortified %s (ICE +%g, L%d)",
		target.Name, server.Name, reason, a.IcePerLevel*float64(applied), HardeningLevel(s.state, server.ID))
}

// Hack attempts a server after a delay scaled by the CPU load. It is
// rejected while a heat lockout is in force.
func (s *Session) Hack(ctx context.Context, targetID, serverID string) (HackResult, error) {
	s.mu.Lock()
	target, server, err := s.lookupLocked(targetID, serverID)
	if err == nil && s.hackDisabled {
		err = ErrLockedOut
	}
	if err == nil {
		err = s.begin("hack:" + serverID)
	}
	if err != nil {
		s.mu.Unlock()
		return HackResult{}, err
	}
	a := s.cat.Tuning.Actions
	um := UpgradeModifiers(s.state, s.cat)
	delay := a.HackDelayBase + time.Duration(CPUUsed(s.state, s.cat))*a.HackDelayPerCPU
	delay = scale(delay, um.Num(ModLatencyCPUMul))
	s.mu.Unlock()

	waitErr := s.clock.Sleep(ctx, delay)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, "hack:"+serverID)
	if waitErr != nil {
		return HackResult{}, waitErr
	}
	res := s.resolveHackLocked(target, server)
	s.persistLocked()
	return res, nil
}

func (s *Session) resolveHackLocked(target catalog.Target, server catalog.Server) HackResult {
	now := s.clock.Now()
	t := s.cat.Tuning
	st := s.state
	res := HackResult{Target: target.ID, Server: server.ID}

	pushWindow(st.AttemptHistory, target.ID, now, t.Retaliation.PressureWindow)
	ev := EventModifiers(st, s.cat, target, now)
	res.Bypass = s.maybeBypassLocked(server, now)
	res.BaseChance = ComputeSuccess(st, s.cat, target, server, res.Bypass, now)
	level := HardeningLevel(st, server.ID)
	res.Chance = clampFloat(res.BaseChance+ev.ChanceAdd, t.Probability.MinChance, DynamicCap(t, level))
	res.Roll = s.rng.Float64()
	if ev.HeatAttemptAdd != 0 {
		addHeat(st, s.cat, ev.HeatAttemptAdd)
	}

	if res.Roll <= res.Chance {
		res.Success = true
		s.applySuccessLocked(&res, target, server, ev, now)
		if res.BonusAttempt {
			return res
		}
	} else {
		s.applyFailureLocked(&res, target, server, ev)
	}

	if st.Heat >= HeatCap(st, s.cat) {
		res.LockedOut = true
		s.lockoutLocked(scale(t.Actions.Lockout, UpgradeModifiers(st, s.cat).Num(ModLockoutMul)))
	}
	return res
}

func (s *Session) applySuccessLocked(res *HackResult, target catalog.Target, server catalog.Server, ev EventMods, now time.Time) {
	t := s.cat.Tuning
	st := s.state
	pm := ProgramModifiers(st, s.cat)
	um := UpgradeModifiers(st, s.cat)

	rm := RewardMultiplier(st, s.cat, target, server, now) * ev.RewardMul
	res.Credits = math.Round(server.Reward.Credits * rm)
	res.Reputation = server.Reward.Reputation
	if pm.CityRep != 0 && target.Kind == catalog.KindCity {
		res.Reputation += pm.CityRep
	}
	st.Credits += res.Credits
	st.Reputation += res.Reputation
	res.XP = t.Actions.XPBase + server.Level*t.Actions.XPPerLevel
	pushWindow(st.FarmHistory, server.ID, now, t.Economy.RepeatWindow)

	res.BonusAttempt = pm.ExtraAttempt || rollPercent(s.rng, um.Num(ModExtraAttemptPct))
	bonus := ""
	if res.BonusAttempt {
		bonus = " (bonus attempt)"
	}
	s.notifyLocked("hack", "Success: %s > %s +%s, +%g rep%s", target.Name, server.Name, money(res.Credits), res.Reputation, bonus)

	res.Loot = rollLoot(s.rng, server)
	if len(res.Loot) > 0 {
		addLoot(st, res.Loot)
		s.notifyLocked("loot", "Loot: %s", describeLoot(res.Loot))
	}

	res.Hardened = bumpHardening(st, s.cat, target, server, math.Max(res.Chance, res.BaseChance), now)
	if res.Hardened > 0 {
		s.notifyHardenedLocked(target, server, res.Hardened, "after success")
	}

	res.SkillGains = rollSkillGains(st, s.cat, s.rng)
	res.SkillPoints = grantXP(st, t, res.XP)
	if res.SkillPoints > 0 {
		s.notifyLocked("skills", "Level up: +%d SP", res.SkillPoints)
	}

	res.Mission = advanceMission(st, s.cat, target.ID, server.ID)
	if m := res.Mission; m != nil {
		s.notifyLocked("missions", "Mission step completed: %s +%s (+%g rep)", m.Step, money(m.Credits), m.Reputation)
		if m.Finished {
			s.notifyLocked("missions", "Mission chain %s finished", m.Chain)
		}
	}

	res.Retaliation = maybeRetaliate(st, s.cat, s.rng, target, server, res.Credits, now)
	if d := res.Retaliation; d != nil {
		s.notifyLocked("retaliation", "Retaliation from %s: +%g heat, -%s, -%g rep (p=%d%%, %d attempts)",
			target.Name, d.Heat, money(d.Credits), d.Reputation, int(math.Round(d.Chance*100)), d.Attempts)
	}
}

func (s *Session) applyFailureLocked(res *HackResult, target catalog.Target, server catalog.Server, ev EventMods) {
	t := s.cat.Tuning
	st := s.state
	um := UpgradeModifiers(st, s.cat)

	h := HeatOnFail(st, s.cat, ev)
	if rollPercent(s.rng, um.Num(ModAvoidHeatOnFailPct)) {
		h = 0
	}
	level := HardeningLevel(st, server.ID)
	res.Heat = math.Round(h * (1 + float64(level)*t.Adaptive.FailHeatPerLevel))
	if server.HasTag(t.Probability.BlackIceTag) {
		res.CreditLoss = math.Min(math.Round(st.Credits*t.Actions.BlackIceLossPct), t.Actions.BlackIceLossCap)
	}
	addHeat(st, s.cat, res.Heat)
	st.Credits = math.Max(0, st.Credits-res.CreditLoss)
	if res.CreditLoss > 0 {
		s.notifyLocked("hack", "Failure: %s > %s, heat +%g, lost %s", target.Name, server.Name, res.Heat, money(res.CreditLoss))
	} else {
		s.notifyLocked("hack", "Failure: %s > %s, heat +%g", target.Name, server.Name, res.Heat)
	}
}

// maybeBypassLocked spends the bypass perk when an upgrade grants it and its
// cooldown has elapsed, returning the strongest defense tag's strength.
func (s *Session) maybeBypassLocked(server catalog.Server, now time.Time) float64 {
	cooldown := UpgradeModifiers(s.state, s.cat).Num(ModBypassCooldownMs)
	if cooldown <= 0 {
		return 0
	}
	if s.state.BypassReadyAt.After(now) {
		return 0
	}
	strongest := 0.0
	for _, tag := range server.ICE {
		strongest = math.Max(strongest, s.cat.Strength(tag))
	}
	s.state.BypassReadyAt = now.Add(time.Duration(cooldown * float64(time.Millisecond)))
	return strongest
}

// lockoutLocked disables hacking for d. The lockout event's end only moves
// forward; the release timer is replaced.
func (s *Session) lockoutLocked(d time.Duration) {
	if d <= 0 {
		return
	}
	now := s.clock.Now()
	ends := now.Add(d)
	purgeExpired(s.state, now)
	if idx := findEvent(s.state, func(e Event) bool { return e.Type == EventLockout }); idx >= 0 {
		e := &s.state.Events[idx]
		if e.Start.IsZero() {
			e.Start = now
		}
		if ends.After(e.Ends) {
			e.Ends = ends
		}
	} else {
		s.state.Events = append(s.state.Events, Event{ID: uuid.NewString(), Type: EventLockout, Start: now, Ends: ends})
	}
	s.notifyLocked("lockout", "Heat overload: hacking locked for %gs", d.Seconds())
	s.armLockoutTimerLocked(d)
}

func (s *Session) armLockoutTimerLocked(d time.Duration) {
	s.hackDisabled = true
	if s.lockTimer != nil {
		s.lockTimer.Stop()
	}
	s.lockGen++
	gen := s.lockGen
	s.lockTimer = s.clock.AfterFunc(d, func() { s.releaseLockout(gen) })
}

func (s *Session) releaseLockout(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.lockGen {
		return
	}
	s.lockTimer = nil
	s.hackDisabled = false
	s.state.Heat = math.Max(0, s.state.Heat-s.cat.Tuning.Actions.LockoutHeatRefund)
	s.notifyLocked("lockout", "Systems cooled down, hacking re-enabled")
	s.persistLocked()
}

func (s *Session) cancelLockoutLocked() {
	if s.lockTimer != nil {
		s.lockTimer.Stop()
		s.lockTimer = nil
	}
	s.lockGen++
	s.hackDisabled = false
}

// resumeLockoutLocked re-arms the release timer of a lockout restored from
// a snapshot.
func (s *Session) resumeLockoutLocked() {
	now := s.clock.Now()
	purgeExpired(s.state, now)
	idx := findEvent(s.state, func(e Event) bool { return e.Type == EventLockout })
	if idx < 0 {
		return
	}
	s.armLockoutTimerLocked(s.state.Events[idx].Ends.Sub(now))
}

func describeLoot(drops []LootDrop) string {
	parts := make([]string, 0, len(drops))
	for _, d := range drops {
		parts = append(parts, fmt.Sprintf("%d x %s", d.Quantity, d.Name))
	}
	return strings.Join(parts, ", ")
}

func scale(d time.Duration, mul float64) time.Duration {
	return time.Duration(math.Round(float64(d) * mul))
}
