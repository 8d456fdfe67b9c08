package engine

import (
	"testing"
	"time"
)

func TestComputeSuccessBaseFormula(t *testing.T) {
	cat := newTestCatalog(t)
	st := NewPlayerState(cat)
	target, server := mustLookup(t, cat, "city", "city_node")

	// skills 8+5, gear 6, defense 12+6.
	want := 0.5 + (13.0+6.0-18.0)/120
	if got := ComputeSuccess(st, cat, target, server, 0, testNow); !near(got, want) {
		t.Fatalf("ComputeSuccess = %v, want %v", got, want)
	}

	st.ActivePrograms = []string{"brute"}
	if got := ComputeSuccess(st, cat, target, server, 0, testNow); !near(got, want+0.03) {
		t.Fatalf("ComputeSuccess with brute = %v, want %v", got, want+0.03)
	}

	// bypass removes defense.
	if got := ComputeSuccess(st, cat, target, server, 6, testNow); !near(got, want+0.03+6.0/120) {
		t.Fatalf("ComputeSuccess with bypass = %v", got)
	}
}

func TestComputeSuccessScanScenario(t *testing.T) {
	cat := newTestCatalog(t)
	st := NewPlayerState(cat)
	st.Skills["netrun"] = 2
	st.Skills["stealth"] = 1.6
	target, server := mustLookup(t, cat, "arasaka", "ara_mail")

	// skills 16+8=24, gear 6, defense 2*12+6=30: 0.5+(30-30)/120.
	if got := ComputeSuccess(st, cat, target, server, 0, testNow); !near(got, 0.5) {
		t.Fatalf("ComputeSuccess = %v, want 0.5", got)
	}
	st.Skills["netrun"] = 2.75
	if got := ComputeSuccess(st, cat, target, server, 0, testNow); !near(got, 0.55) {
		t.Fatalf("ComputeSuccess = %v, want 0.55", got)
	}
}

func TestComputeSuccessBoundsAndMonotoneInHardening(t *testing.T) {
	cat := newTestCatalog(t)
	minChance := cat.Tuning.Probability.MinChance

	for _, netrun := range []float64{1, 8, 20, 100} {
		for _, ids := range [][2]string{{"city", "city_node"}, {"arasaka", "ara_mail"}, {"arasaka", "ara_vault"}} {
			st := NewPlayerState(cat)
			st.Skills["netrun"] = netrun
			target, server := mustLookup(t, cat, ids[0], ids[1])

			prev := 2.0
			for level := 0; level <= 10; level++ {
				st.Hardening[server.ID] = Hardening{Level: level}
				got := ComputeSuccess(st, cat, target, server, 0, testNow)
				if got < minChance-1e-12 || got > DynamicCap(cat.Tuning, level)+1e-12 {
					t.Fatalf("netrun=%v %s L%d: chance %v outside [%v, %v]", netrun, server.ID, level, got, minChance, DynamicCap(cat.Tuning, level))
				}
				if got > prev+1e-12 {
					t.Fatalf("netrun=%v %s: chance rose from %v to %v at L%d", netrun, server.ID, prev, got, level)
				}
				prev = got
			}
		}
	}
}

func TestDynamicCap(t *testing.T) {
	tun := newTestCatalog(t).Tuning
	tests := []struct {
		level int
		want  float64
	}{
		{0, 0.95},
		{1, 0.92},
		{5, 0.80},
		{10, 0.65},
		{20, 0.65},
	}
	for _, tc := range tests {
		if got := DynamicCap(tun, tc.level); !near(got, tc.want) {
			t.Fatalf("DynamicCap(%d) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestComputeSuccessEventsAndUpgrades(t *testing.T) {
	cat := newTestCatalog(t)
	st := NewPlayerState(cat)
	target, server := mustLookup(t, cat, "arasaka", "ara_mail")
	base := ComputeSuccess(st, cat, target, server, 0, testNow)

	st.Events = append(st.Events, Event{ID: "e1", Type: "audit", Corp: "arasaka", Start: testNow, Ends: testNow.Add(time.Minute)})
	if got := ComputeSuccess(st, cat, target, server, 0, testNow); !near(got, base-10.0/120) {
		t.Fatalf("ComputeSuccess under audit = %v, want %v", got, base-10.0/120)
	}
	// expired by then.
	if got := ComputeSuccess(st, cat, target, server, 0, testNow.Add(2*time.Minute)); !near(got, base) {
		t.Fatalf("ComputeSuccess after audit = %v, want %v", got, base)
	}
	if len(st.Events) != 0 {
		t.Fatalf("expired event not purged: %+v", st.Events)
	}
}
