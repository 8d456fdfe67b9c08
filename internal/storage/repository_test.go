package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"netrunner/internal/config"
	"netrunner/internal/engine"
)

func openTestRepo(t *testing.T, path string) *SQLRepository {
	t.Helper()
	repo, err := Open(context.Background(), config.DB{Dialect: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("Open sqlite error: %v", err)
	}
	return repo
}

func TestOpenErrors(t *testing.T) {
	repo, err := Open(context.Background(), config.DB{Dialect: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "requires DB_POSTGRES_DSN or DATABASE_URL") {
		t.Fatalf("expected postgres DSN error, got repo=%v err=%v", repo, err)
	}

	repo, err = Open(context.Background(), config.DB{Dialect: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "unsupported DB_DIALECT") {
		t.Fatalf("expected unsupported dialect error, got repo=%v err=%v", repo, err)
	}

	repo, err = Open(context.Background(), config.DB{Dialect: "memory"})
	if err != nil || repo != nil {
		t.Fatalf("memory dialect should yield no repository, got repo=%v err=%v", repo, err)
	}
}

func TestLoadEmpty(t *testing.T) {
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "empty.sqlite"))
	defer repo.Close()

	_, ok, err := repo.Load(context.Background())
	if err != nil || ok {
		t.Fatalf("Load on empty db = ok=%v err=%v", ok, err)
	}
}

func TestRepositorySQLiteRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "state.sqlite")
	repo := openTestRepo(t, dbPath)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	snap := engine.Snapshot{
		Credits:        512.25,
		Reputation:     9,
		Heat:           33,
		XP:             40,
		SkillPoints:    1,
		ResearchPoints: 2.5,
		Skills:         map[string]float64{"netrun": 3, "stealth": 2},
		Installed:      engine.Gear{Deck: "deck_mk2", Mods: []string{"mod_overclk"}, Tools: []string{}},
		OwnedGear:      []string{"deck_mk1", "deck_mk2", "mod_overclk"},
		OwnedPrograms:  []string{"brute", "cloak"},
		ActivePrograms: []string{"brute"},
		Unlocked:       []string{"st_cool"},
		Researched:     []string{"st_ghost"},
		Discovered:     map[string]float64{"ara_mail": 0.41},
		Events: []engine.Event{
			{ID: "t1", Type: engine.EventTrace, Corp: "arasaka", Start: now, Ends: now.Add(45 * time.Second), Level: 2},
			{ID: "a1", Type: "audit", Corp: "arasaka", Start: now, Ends: now.Add(30 * time.Second)},
		},
		Hardening: map[string]engine.Hardening{
			"ara_mail":  {Level: 3, LastAppliedAt: now},
			"city_node": {Level: 0, LastAppliedAt: now.Add(-time.Minute)},
		},
		AttemptHistory: map[string][]time.Time{"arasaka": {now}},
		ScanHistory:    map[string][]time.Time{"arasaka": {now, now.Add(time.Second)}},
		FarmHistory:    map[string][]time.Time{},
		Loot:           map[string]engine.LootStack{"data_shard": {Name: "Data Shard", UnitBase: 4, Quantity: 3}},
		Mission:        &engine.MissionProgress{Chain: "arasaka", Step: 1},
		BypassReadyAt:  now.Add(90 * time.Second),
	}

	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	// a second save replaces rather than appends.
	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("second Save error: %v", err)
	}
	repo.Close()

	repo = openTestRepo(t, dbPath)
	defer repo.Close()
	got, ok, err := repo.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v err=%v", ok, err)
	}

	if got.Credits != snap.Credits || got.Heat != snap.Heat || got.ResearchPoints != snap.ResearchPoints {
		t.Fatalf("scalars mismatch: got %+v", got)
	}
	if got.Installed.Deck != "deck_mk2" || len(got.OwnedGear) != 3 || got.Skills["netrun"] != 3 {
		t.Fatalf("inventory mismatch: %+v", got)
	}
	if len(got.Events) != 2 || got.Events[0].ID != "t1" || got.Events[0].Level != 2 || !got.Events[1].Ends.Equal(now.Add(30*time.Second)) {
		t.Fatalf("events mismatch: %+v", got.Events)
	}
	if h := got.Hardening["ara_mail"]; h.Level != 3 || !h.LastAppliedAt.Equal(now) {
		t.Fatalf("hardening mismatch: %+v", got.Hardening)
	}
	if len(got.Hardening) != 2 {
		t.Fatalf("hardening rows = %d, want 2", len(got.Hardening))
	}
	if got.Mission == nil || got.Mission.Step != 1 || got.Loot["data_shard"].Quantity != 3 {
		t.Fatalf("mission/loot mismatch: %+v %+v", got.Mission, got.Loot)
	}
	if len(got.ScanHistory["arasaka"]) != 2 || !got.BypassReadyAt.Equal(snap.BypassReadyAt) {
		t.Fatalf("histories mismatch: %+v", got.ScanHistory)
	}

	st := engine.RestoreState(got)
	if st.Credits != snap.Credits || !st.Unlocked["st_cool"] {
		t.Fatalf("restored state mismatch: %+v", st)
	}
}

func TestSaveAcceptsRepeatedEventIDs(t *testing.T) {
	repo := openTestRepo(t, filepath.Join(t.TempDir(), "dup.sqlite"))
	defer repo.Close()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	snap := engine.Snapshot{Events: []engine.Event{
		{ID: "ops", Type: "audit", Start: now, Ends: now.Add(time.Minute)},
		{ID: "ops", Type: "audit", Start: now, Ends: now.Add(2 * time.Minute)},
	}}
	for i := 0; i < 2; i++ {
		if err := repo.Save(context.Background(), snap); err != nil {
			t.Fatalf("Save %d error: %v", i, err)
		}
	}
	got, ok, err := repo.Load(context.Background())
	if err != nil || !ok || len(got.Events) != 2 {
		t.Fatalf("Load = %d events ok=%v err=%v", len(got.Events), ok, err)
	}
}
