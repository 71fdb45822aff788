package scheduler

import "testing"

func TestCycleNsMatchesRefreshRate(t *testing.T) {
	s := New(60, nil)
	if got := s.CycleNs(); got != 1_000_000_000/60 {
		t.Fatalf("expected 60hz cycle, got %d", got)
	}
}

func TestRecordDrawTimeEMARisesImmediatelyOnSpike(t *testing.T) {
	s := New(60, nil)
	s.SetDecayPercentage(75)

	s.RecordDrawTime(1_000_000) // 1ms
	first := s.Estimate().DrawEstimateNs

	s.RecordDrawTime(10_000_000) // 10ms spike
	second := s.Estimate().DrawEstimateNs

	if second <= first {
		t.Fatalf("expected estimate to rise after a slow frame: first=%d second=%d", first, second)
	}
	if second < 10_000_000 {
		t.Fatalf("estimate must never be below the latest observed draw time: got %d", second)
	}
}

func TestRecordDrawTimeEMADecaysTowardsBaseline(t *testing.T) {
	s := New(60, nil)
	s.SetDecayPercentage(75)

	s.RecordDrawTime(10_000_000)
	s.RecordDrawTime(1_000_000)
	s.RecordDrawTime(1_000_000)
	s.RecordDrawTime(1_000_000)

	if got := s.Estimate().DrawEstimateNs; got >= 10_000_000 {
		t.Fatalf("expected estimate to decay after repeated fast frames, got %d", got)
	}
}

func TestNextWakeNsAppliesRedZoneBias(t *testing.T) {
	s := New(60, nil)
	s.MarkVblank(1_000_000_000)
	s.RecordDrawTime(2_000_000)

	want := int64(1_000_000_000) + s.CycleNs() - (s.Estimate().DrawEstimateNs + s.Estimate().RedZoneNs)
	if got := s.NextWakeNs(); got != want {
		t.Fatalf("NextWakeNs = %d, want %d", got, want)
	}
}

func TestRequestDynamicRefreshWaitsForSettleTimer(t *testing.T) {
	s := New(60, nil)
	s.RequestDynamicRefresh(40, 0)

	s.Tick(100_000_000) // 100ms, before the 600ms settle default
	if got := s.CycleNs(); got != 1_000_000_000/60 {
		t.Fatalf("dynamic refresh should not have taken effect yet, got cycle %d", got)
	}

	s.Tick(700_000_000) // past the settle window
	if got := s.CycleNs(); got != 1_000_000_000/40 {
		t.Fatalf("expected dynamic refresh of 40hz to take effect, got cycle %d", got)
	}
}

func TestCancelDynamicRefreshRevertsToTarget(t *testing.T) {
	s := New(60, nil)
	s.RequestDynamicRefresh(40, 0)
	s.Tick(700_000_000)
	s.CancelDynamicRefresh()

	if got := s.CycleNs(); got != 1_000_000_000/60 {
		t.Fatalf("expected cancel to revert to the target refresh, got cycle %d", got)
	}
}

func TestShouldSkipOnlyWhenNothingChanged(t *testing.T) {
	s := New(60, nil)
	if !s.ShouldSkip(false, false, false) {
		t.Fatal("expected a wake with no new commit, no overlay animation and no fade to be skippable")
	}
	if s.ShouldSkip(true, false, false) {
		t.Fatal("a new ready commit must cancel the skip")
	}
	if s.ShouldSkip(false, true, false) {
		t.Fatal("an animating overlay must cancel the skip")
	}
	if s.ShouldSkip(false, false, true) {
		t.Fatal("an active fade must cancel the skip")
	}
}
