package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"netrunner/internal/catalog"
)

// Run drives the background timers until ctx is cancelled: passive income,
// heat decay and the security-event spawner. Each tick takes the session lock.
func (s *Session) Run(ctx context.Context) {
	tk := s.cat.Tuning.Ticks
	income := time.NewTicker(positive(tk.PassiveIncomeEvery, time.Second))
	decay := time.NewTicker(positive(tk.HeatDecayEvery, 1500*time.Millisecond))
	spawn := time.NewTicker(positive(tk.EventSpawnEvery, 12*time.Second))
	defer income.Stop()
	defer decay.Stop()
	defer spawn.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-income.C:
			s.AccruePassiveIncome()
		case <-decay.C:
			s.DecayHeat()
		case <-spawn.C:
			s.MaybeSpawnSecurityEvent()
		}
	}
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// AccruePassiveIncome pays the active programs' passive income once.
func (s *Session) AccruePassiveIncome() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	income := ProgramModifiers(s.state, s.cat).PassiveIncome
	if income > 0 {
		s.state.Credits += income
	}
	return income
}

// DecayHeat cools the player by one decay step.
func (s *Session) DecayHeat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Heat <= 0 {
		return 0
	}
	step := s.cat.Tuning.Ticks.HeatDecayBase + UpgradeModifiers(s.state, s.cat).Num(ModHeatDecayPerSec)
	before := s.state.Heat
	s.state.Heat = math.Max(0, s.state.Heat-step)
	return before - s.state.Heat
}

// SecurityEventChance is the per-tick chance of a random security event.
func SecurityEventChance(st *PlayerState, cat *catalog.Catalog) float64 {
	tk := cat.Tuning.Ticks
	p := tk.EventBaseP
	if tk.EventHeatDivisor > 0 {
		p += st.Heat / tk.EventHeatDivisor
	}
	p = math.Min(tk.EventMaxP, p)
	return p * UpgradeModifiers(st, cat).Num(ModEventProbMul)
}

// MaybeSpawnSecurityEvent rolls the spawner once and checkpoints the state.
// It reports the spawned event, if any.
func (s *Session) MaybeSpawnSecurityEvent() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.persistLocked()
	if s.rng.Float64() >= SecurityEventChance(s.state, s.cat) {
		return Event{}, false
	}
	return s.spawnSecurityEventLocked()
}

func (s *Session) spawnSecurityEventLocked() (Event, bool) {
	defs := s.cat.Events
	if len(defs) == 0 {
		return Event{}, false
	}
	total := 0.0
	for _, d := range defs {
		total += math.Max(1, d.Weight)
	}
	r := s.rng.Float64() * total
	chosen := defs[0]
	for _, d := range defs {
		r -= math.Max(1, d.Weight)
		if r <= 0 {
			chosen = d
			break
		}
	}

	now := s.clock.Now()
	dur := time.Duration(chosen.DurationMs) * time.Millisecond
	if dur <= 0 {
		dur = s.cat.Tuning.Ticks.EventDuration
	}
	e := Event{ID: uuid.NewString(), Type: chosen.ID, Start: now, Ends: now.Add(dur)}

	name := chosen.Name
	if name == "" {
		name = chosen.ID
	}
	text := chosen.Log.Default
	if chosen.Scope == catalog.ScopeCorp {
		if corps := s.cat.Corps(); len(corps) > 0 {
			c := corps[s.rng.Intn(len(corps))]
			e.Corp = c.ID
			text = strings.ReplaceAll(chosen.Log.Corp, "{corp}", c.Name)
			if text == "" {
				text = "Event " + name + " at " + c.Name
			}
		}
	}
	if text == "" {
		text = "Event " + name
	}
	s.pushEventLocked(e, text)
	return e, true
}
