package core

import (
	"testing"
	"time"
)

func TestAllocateEmbbRate(t *testing.T) {
	cases := []struct {
		name      string
		budgetBps float64
		ueCount   int
		want      uint64
	}{
		{"no embb users gets default", 3e8, 0, 10e6},
		{"fair share within clamp", 3e8, 20, 15e6},
		{"clamped up to floor", 2e8, 50, 5e6},
		{"clamped down to ceiling", 2e8, 5, 20e6},
		{"exact floor", 2e8, 40, 5e6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllocateEmbbRate(tc.budgetBps, tc.ueCount); got != tc.want {
				t.Errorf("AllocateEmbbRate(%g, %d) = %d, want %d", tc.budgetBps, tc.ueCount, got, tc.want)
			}
		})
	}
}

func TestAllocateEmbbRate_AlwaysClamped(t *testing.T) {
	for _, scenario := range []ScenarioType{ScenarioDenseUrban, ScenarioSparseSuburban} {
		for n := 1; n <= 300; n++ {
			got := AllocateEmbbRate(scenario.EmbbBudgetBps(), n)
			if got < uint64(MinEmbbRateBps) || got > uint64(MaxEmbbRateBps) {
				t.Fatalf("%s scenario, %d UEs: rate %d outside [%g, %g]",
					scenario, n, got, MinEmbbRateBps, MaxEmbbRateBps)
			}
		}
	}
}

func TestClassifyUE_PrefixSplit(t *testing.T) {
	// 10 UEs at ratio 0.6: indices 0–5 are eMBB, 6–9 URLLC.
	embb := 0
	for i := 0; i < 10; i++ {
		class := ClassifyUE(i, 10, 0.6)
		if i < 6 && class != TrafficEmbb {
			t.Errorf("UE %d class = %v, want eMBB", i, class)
		}
		if i >= 6 && class != TrafficUrllc {
			t.Errorf("UE %d class = %v, want URLLC", i, class)
		}
		if class == TrafficEmbb {
			embb++
		}
	}
	if embb != 6 {
		t.Errorf("eMBB count = %d, want 6", embb)
	}
	if got := NumEmbbUEs(10, 0.6); got != 6 {
		t.Errorf("NumEmbbUEs(10, 0.6) = %d, want 6", got)
	}
}

func TestClassForPort(t *testing.T) {
	if class, ok := ClassForPort(EmbbPort); !ok || class != TrafficEmbb {
		t.Errorf("port %d → (%v, %v), want (eMBB, true)", EmbbPort, class, ok)
	}
	if class, ok := ClassForPort(UrllcPort); !ok || class != TrafficUrllc {
		t.Errorf("port %d → (%v, %v), want (URLLC, true)", UrllcPort, class, ok)
	}
	if _, ok := ClassForPort(8080); ok {
		t.Errorf("port 8080 should not map to a traffic class")
	}
}

func TestAppProfiles(t *testing.T) {
	embb := EmbbProfile(12e6)
	if embb.Port != EmbbPort || embb.PacketSizeBytes != 1400 || embb.RateBps != 12e6 {
		t.Errorf("unexpected eMBB profile: %+v", embb)
	}

	dense := UrllcProfile(ScenarioDenseUrban)
	sparse := UrllcProfile(ScenarioSparseSuburban)
	if dense.Interval != 500*time.Microsecond {
		t.Errorf("dense URLLC interval = %s, want 500µs", dense.Interval)
	}
	if sparse.Interval != time.Millisecond {
		t.Errorf("sparse URLLC interval = %s, want 1ms", sparse.Interval)
	}
	if dense.PacketSizeBytes != 100 || dense.Port != UrllcPort {
		t.Errorf("unexpected URLLC profile: %+v", dense)
	}
}
