package surface

import (
	"testing"

	"github.com/gamescopecore/compositor/internal/wlcommit"
)

func TestCommitSupersedesPendingOfSameBuffer(t *testing.T) {
	r := New(nil, 0, nil)
	buf := &wlcommit.Buffer{Width: 4, Height: 4}

	c1, err := r.Commit(1, buf, nil, nil, false, false)
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	f1 := c1.AddFeedback()

	if _, err := r.Commit(1, buf, nil, nil, false, false); err != nil {
		t.Fatalf("second commit failed: %v", err)
	}

	if f1.State() != wlcommit.FeedbackDiscarded {
		t.Fatalf("expected the superseded pending commit's feedback to be discarded, got %v", f1.State())
	}
}

func TestCommitEnforcesMaxQueueDepth(t *testing.T) {
	r := New(nil, 2, nil)
	s := r.Ensure(1)

	for i := 0; i < 4; i++ {
		buf := &wlcommit.Buffer{Width: 4, Height: 4}
		if _, err := r.Commit(1, buf, nil, nil, false, false); err != nil {
			t.Fatalf("commit %d failed: %v", i, err)
		}
	}

	if got := len(s.doneQueue); got > 2 {
		t.Fatalf("expected done-queue to be capped at max_queue=2, got %d", got)
	}
}

func TestCommitNudgesOnReadyImplicitSync(t *testing.T) {
	var nudged Handle
	nudgeCount := 0
	r := New(nil, 0, func(h Handle) {
		nudged = h
		nudgeCount++
	})

	buf := &wlcommit.Buffer{Width: 4, Height: 4}
	if _, err := r.Commit(7, buf, nil, nil, false, false); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if nudgeCount != 1 || nudged != 7 {
		t.Fatalf("expected exactly one nudge for handle 7, got count=%d handle=%d", nudgeCount, nudged)
	}
}

func TestCommitOnDestroyedSurfaceFails(t *testing.T) {
	r := New(nil, 0, nil)
	r.Ensure(1)
	r.Destroy(1)

	buf := &wlcommit.Buffer{Width: 4, Height: 4}
	if _, err := r.Commit(1, buf, nil, nil, false, false); err == nil {
		t.Fatal("expected commit on a destroyed surface to fail")
	}
}

func TestLatchPicksNewestReadyAndReleasesSuperseded(t *testing.T) {
	r := New(nil, 0, nil)
	s := r.Ensure(1)

	buf1 := &wlcommit.Buffer{Width: 4, Height: 4}
	buf2 := &wlcommit.Buffer{Width: 4, Height: 4}

	c1, _ := r.Commit(1, buf1, nil, nil, false, false)
	c2, _ := r.Commit(1, buf2, nil, nil, false, false)

	latched := s.Latch()
	if latched != c2 {
		t.Fatalf("expected the newest ready commit to be latched, got %+v", latched)
	}
	if c1.Status() != wlcommit.StatusReleased {
		t.Fatalf("expected the superseded older commit to be released, got %v", c1.Status())
	}
	if s.Current() != c2 {
		t.Fatal("expected the latched commit to become Current")
	}
}

func TestLatchReturnsNilWhenNothingReady(t *testing.T) {
	r := New(nil, 0, nil)
	s := r.Ensure(1)

	if got := s.Latch(); got != nil {
		t.Fatalf("expected nil latch on an empty surface, got %+v", got)
	}
}

func TestDestroyReleasesCurrentAndPendingCommits(t *testing.T) {
	r := New(nil, 0, nil)
	s := r.Ensure(1)

	buf1 := &wlcommit.Buffer{Width: 4, Height: 4}
	c1, _ := r.Commit(1, buf1, nil, nil, false, false)
	s.Latch()

	buf2 := &wlcommit.Buffer{Width: 4, Height: 4}
	c2, _ := r.Commit(1, buf2, nil, nil, false, false)
	f2 := c2.AddFeedback()

	r.Destroy(1)

	if c1.Status() != wlcommit.StatusReleased {
		t.Fatalf("expected the displayed commit to be released on destroy, got %v", c1.Status())
	}
	if c2.Status() != wlcommit.StatusReleased {
		t.Fatalf("expected the queued commit to be released on destroy, got %v", c2.Status())
	}
	if f2.State() != wlcommit.FeedbackDiscarded {
		t.Fatalf("expected the queued commit's feedback to be discarded on destroy, got %v", f2.State())
	}
	if _, ok := r.Get(1); ok {
		t.Fatal("expected the registry entry to be removed after destroy")
	}
}

func TestPresentedMarksFeedbackExactlyOnce(t *testing.T) {
	r := New(nil, 0, nil)
	buf := &wlcommit.Buffer{Width: 4, Height: 4}
	c, _ := r.Commit(1, buf, nil, nil, false, false)
	f := c.AddFeedback()

	timings := r.Presented(1, c, 1_000_000_000, 16_666_667)
	if len(timings) != 1 {
		t.Fatalf("expected exactly one presented timing, got %d", len(timings))
	}
	if f.State() != wlcommit.FeedbackPresented {
		t.Fatalf("expected the feedback to be marked presented, got %v", f.State())
	}

	if timings := r.Presented(1, c, 2_000_000_000, 16_666_667); len(timings) != 0 {
		t.Fatalf("expected no further timings once the feedback already fired, got %d", len(timings))
	}
}

func TestSwapchainFeedbackRoundTrips(t *testing.T) {
	r := New(nil, 0, nil)
	want := SwapchainFeedback{ImageCount: 3, Format: 42}
	r.SetSwapchainFeedback(1, want)

	got, ok := r.LastSwapchainFeedback(1)
	if !ok {
		t.Fatal("expected a stored swapchain feedback")
	}
	if got.ImageCount != want.ImageCount || got.Format != want.Format {
		t.Fatalf("expected round-tripped feedback %+v, got %+v", want, got)
	}
}
