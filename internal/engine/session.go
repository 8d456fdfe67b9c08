package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"netrunner/internal/catalog"
)

const maxNotifications = 300

// Notification is one line of the player's activity log.
type Notification struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Kind string    `json:"kind"`
	Text string    `json:"text"`
}

// Notifier receives every notification as it is emitted.
type Notifier interface {
	Notify(Notification)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	log.Printf("%s: %s", n.Kind, n.Text)
}

// Persister stores a snapshot after each completed action.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Session owns one player's state and serializes every mutation behind a
// single mutex. Action delays run outside the lock; a per-action busy flag
// keeps two resolutions against the same server from overlapping.
type Session struct {
	mu sync.Mutex

	cat       *catalog.Catalog
	state     *PlayerState
	rng       Rand
	clock     Clock
	notifier  Notifier
	persister Persister

	busy         map[string]bool
	hackDisabled bool
	lockTimer    Timer
	lockGen      int

	log []Notification
}

type Option func(*Session)

func WithRand(r Rand) Option { return func(s *Session) { s.rng = r } }

func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

func WithPersister(p Persister) Option { return func(s *Session) { s.persister = p } }

// WithState resumes a restored player instead of starting fresh.
func WithState(st *PlayerState) Option { return func(s *Session) { s.state = st } }

// NewSession starts a session over cat. The catalog must already be
// validated; the engine never runs on partial data.
func NewSession(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		cat:   cat,
		clock: SystemClock(),
		busy:  map[string]bool{},
		log:   []Notification{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand(s.clock.Now().UnixNano())
	}
	if s.state == nil {
		s.state = NewPlayerState(cat)
	}
	for _, sk := range cat.Skills {
		if _, ok := s.state.Skills[sk.ID]; !ok {
			s.state.Skills[sk.ID] = sk.Start
		}
	}

	s.mu.Lock()
	// restored snapshots carry no catalog, so the heat cap is applied here.
	s.state.Heat = clampFloat(s.state.Heat, 0, HeatCap(s.state, cat))
	s.resumeLockoutLocked()
	s.mu.Unlock()
	return s
}

// Catalog is the read-only content the session runs on.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Close cancels a pending lockout release.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockTimer != nil {
		s.lockTimer.Stop()
		s.lockTimer = nil
	}
}

// State returns a snapshot of the player.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	purgeExpired(s.state, s.clock.Now())
	return s.state.Snapshot()
}

// HackEnabled is false while a heat lockout is in force.
func (s *Session) HackEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hackDisabled
}

// Notifications returns the newest limit entries, oldest first.
func (s *Session) Notifications(limit int) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.log
	if limit > 0 && len(src) > limit {
		src = src[len(src)-limit:]
	}
	return append([]Notification{}, src...)
}

func (s *Session) notifyLocked(kind, format string, args ...any) {
	n := Notification{
		ID:   uuid.NewString(),
		At:   s.clock.Now(),
		Kind: kind,
		Text: fmt.Sprintf(format, args...),
	}
	s.log = append(s.log, n)
	if len(s.log) > maxNotifications {
		s.log = s.log[len(s.log)-maxNotifications:]
	}
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *Session) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.Background(), s.state.Snapshot()); err != nil {
		log.Printf("persist state failed: %v", err)
	}
}

func money(v float64) string {
	return humanize.Commaf(round2(v)) + " cr"
}

func (s *Session) lookupLocked(targetID, serverID string) (catalog.Target, catalog.Server, error) {
	target, server, ok := s.cat.Lookup(targetID, serverID)
	if !ok {
		return catalog.Target{}, catalog.Server{}, fmt.Errorf("%w: %s/%s", ErrNotFound, targetID, serverID)
	}
	return target, server, nil
}

// PushEvent appends an event to the ledger and announces it.
func (s *Session) PushEvent(e Event, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushEventLocked(e, text)
	s.persistLocked()
}

// pushEventLocked appends e, or replaces the live event with the same id.
func (s *Session) pushEventLocked(e Event, text string) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Start.IsZero() {
		e.Start = s.clock.Now()
	}
	replaced := false
	for i := range s.state.Events {
		if s.state.Events[i].ID == e.ID {
			s.state.Events[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		s.state.Events = append(s.state.Events, e)
	}
	if text != "" {
		s.notifyLocked("event", "%s", text)
	}
}

// ActiveEvents lists the live events.
func (s *Session) ActiveEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveEvents(s.state, s.clock.Now())
}

func (s *Session) ComputeSuccess(targetID, serverID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, server, err := s.lookupLocked(targetID, serverID)
	if err != nil {
		return 0, err
	}
	return ComputeSuccess(s.state, s.cat, target, server, 0, s.clock.Now()), nil
}

func (s *Session) EventModifiers(targetID string) (EventMods, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.cat.Target(targetID)
	if !ok {
		return EventMods{}, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}
	return EventModifiers(s.state, s.cat, target, s.clock.Now()), nil
}

func (s *Session) GearBonuses() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GearBonuses(s.state, s.cat)
}

func (s *Session) ProgramModifiers() ProgramMods {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProgramModifiers(s.state, s.cat)
}

func (s *Session) UpgradeModifiers() UpgradeMods {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UpgradeModifiers(s.state, s.cat)
}

func (s *Session) HardeningLevel(serverID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HardeningLevel(s.state, serverID)
}

// ServerView is a server as the player currently sees it.
type ServerView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Level      int      `json:"level"`
	ICE        []string `json:"ice"`
	Hardening  int      `json:"hardening"`
	Cap        float64  `json:"cap"`
	Discovered *float64 `json:"discovered,omitempty"`
}

// TargetView groups server views under their target.
type TargetView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Kind    catalog.Kind `json:"kind"`
	Servers []ServerView `json:"servers"`
}

// Targets lists every target with the player's scan results and hardening.
func (s *Session) Targets() []TargetView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TargetView, 0, len(s.cat.Targets))
	for _, t := range s.cat.Targets {
		tv := TargetView{ID: t.ID, Name: t.Name, Kind: t.Kind}
		for _, srv := range t.Servers {
			lvl := HardeningLevel(s.state, srv.ID)
			sv := ServerView{
				ID:        srv.ID,
				Name:      srv.Name,
				Level:     srv.Level,
				ICE:       srv.ICE,
				Hardening: lvl,
				Cap:       DynamicCap(s.cat.Tuning, lvl),
			}
			if c, ok := s.state.Discovered[srv.ID]; ok {
				sv.Discovered = &c
			}
			tv.Servers = append(tv.Servers, sv)
		}
		out = append(out, tv)
	}
	return out
}

func (s *Session) BuyItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := buyItem(s.state, s.cat, id)
	if err != nil {
		return err
	}
	s.notifyLocked("store", "Purchased %s for %s", it.Name, money(it.Cost))
	s.persistLocked()
	return nil
}

func (s *Session) LearnProgram(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := learnProgram(s.state, s.cat, id)
	if err != nil {
		return err
	}
	s.notifyLocked("programs", "Acquired %s", p.Name)
	s.persistLocked()
	return nil
}

func (s *Session) EquipProgram(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := equipProgram(s.state, s.cat, id)
	if err != nil {
		return err
	}
	s.notifyLocked("programs", "Loaded %s (%d/%d CPU)", p.Name, CPUUsed(s.state, s.cat), CPUCapacity(s.state, s.cat))
	s.persistLocked()
	return nil
}

func (s *Session) UnequipProgram(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := unequipProgram(s.state, id); err != nil {
		return err
	}
	s.notifyLocked("programs", "Unloaded %s", id)
	s.persistLocked()
	return nil
}

func (s *Session) SpendSkillPoint(skill string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := spendSkillPoint(s.state, s.cat, skill); err != nil {
		return err
	}
	s.notifyLocked("skills", "%s +1", skill)
	s.persistLocked()
	return nil
}

func (s *Session) ResearchUpgrade(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := researchUpgrade(s.state, s.cat, id)
	if err != nil {
		return err
	}
	if node.RP > 0 {
		s.notifyLocked("upgrades", "Research completed: %s (-%g RP)", node.Name, node.RP)
	} else {
		s.notifyLocked("upgrades", "Research completed: %s", node.Name)
	}
	s.persistLocked()
	return nil
}

func (s *Session) UnlockUpgrade(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := unlockUpgrade(s.state, s.cat, id)
	if err != nil {
		return err
	}
	s.notifyLocked("upgrades", "Upgrade unlocked: %s (%d SP)", node.Name, node.SkillPointCost())
	s.persistLocked()
	return nil
}

// SellLoot sells qty units of id, or the whole stack when qty <= 0.
func (s *Session) SellLoot(id string, qty int) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := sellLoot(s.state, s.cat.Tuning, id, qty)
	if err != nil {
		return Sale{}, err
	}
	s.notifyLocked("market", "Sold %d x %s for %s", sale.Items[id], id, money(sale.Credits))
	s.persistLocked()
	return sale, nil
}

func (s *Session) SellAllLoot() (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := sellAllLoot(s.state, s.cat.Tuning)
	if err != nil {
		return Sale{}, err
	}
	s.notifyLocked("market", "Sold everything for %s", money(sale.Credits))
	s.persistLocked()
	return sale, nil
}

func (s *Session) AcceptMissionChain(chainID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, err := acceptMissionChain(s.state, s.cat, chainID)
	if err != nil {
		return err
	}
	s.notifyLocked("missions", "Mission accepted: %s", step.Name)
	s.persistLocked()
	return nil
}

// AbandonMission drops the active mission; it reports false when there was none.
func (s *Session) AbandonMission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mission == nil {
		return false
	}
	s.state.Mission = nil
	s.notifyLocked("missions", "Mission abandoned")
	s.persistLocked()
	return true
}

// Grant adds resources outside normal play.
func (s *Session) Grant(credits, researchPoints float64, skillPoints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Credits = round2(s.state.Credits + credits)
	s.state.ResearchPoints = round2(s.state.ResearchPoints + researchPoints)
	s.state.SkillPoints += skillPoints
	if s.state.Credits < 0 {
		s.state.Credits = 0
	}
	if s.state.ResearchPoints < 0 {
		s.state.ResearchPoints = 0
	}
	if s.state.SkillPoints < 0 {
		s.state.SkillPoints = 0
	}
	s.notifyLocked("admin", "Granted %s, %g RP, %d SP", money(credits), researchPoints, skillPoints)
	s.persistLocked()
}

// Reset overwrites the player with fresh defaults.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLockoutLocked()
	s.state = NewPlayerState(s.cat)
	s.busy = map[string]bool{}
	s.notifyLocked("admin", "Session reset")
	s.persistLocked()
}
