package wlcommit

import "testing"

func TestNewCommitImplicitSyncIsImmediatelyReady(t *testing.T) {
	buf := &Buffer{Width: 100, Height: 100}
	c := New(buf, nil, nil, true, false)

	if !c.Ready() {
		t.Fatal("implicit-sync commit should be ready immediately")
	}
	if c.Status() != StatusReady {
		t.Fatalf("expected StatusReady, got %v", c.Status())
	}
}

func TestNewCommitExplicitSyncWaitsForAcquireSignal(t *testing.T) {
	buf := &Buffer{Width: 100, Height: 100}
	tl := NewTimeline()
	acquire := &SyncPoint{Timeline: tl, Point: 5}

	c := New(buf, acquire, nil, true, false)
	if c.Ready() {
		t.Fatal("commit must not be ready before its acquire point is signalled")
	}

	tl.Signal(5)
	if !c.Ready() {
		t.Fatal("commit should become ready once its acquire point is signalled")
	}
}

func TestCommitReleaseSignalsExactlyOnce(t *testing.T) {
	buf := &Buffer{Width: 10, Height: 10}
	tl := NewTimeline()
	release := &SyncPoint{Timeline: tl, Point: 3}
	c := New(buf, nil, release, false, false)

	if err := c.Release(); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if !tl.IsSignalled(3) {
		t.Fatal("expected release point 3 to be signalled")
	}

	if err := c.Release(); err != nil {
		t.Fatalf("second release must be a harmless no-op, got: %v", err)
	}
}

func TestFeedbackResolvesExactlyOnce(t *testing.T) {
	buf := &Buffer{Width: 10, Height: 10}
	c := New(buf, nil, nil, true, false)
	f := c.AddFeedback()

	if !f.MarkPresented() {
		t.Fatal("first MarkPresented should fire")
	}
	if f.MarkPresented() {
		t.Fatal("second MarkPresented must not fire")
	}
	if f.MarkDiscarded() {
		t.Fatal("a presented feedback must not also become discarded")
	}
	if f.State() != FeedbackPresented {
		t.Fatalf("expected FeedbackPresented, got %v", f.State())
	}
}

func TestDiscardMarksAllPendingFeedbacksDiscarded(t *testing.T) {
	buf := &Buffer{Width: 10, Height: 10}
	c := New(buf, nil, nil, true, false)
	f1 := c.AddFeedback()
	f2 := c.AddFeedback()

	c.Discard()

	if f1.State() != FeedbackDiscarded || f2.State() != FeedbackDiscarded {
		t.Fatalf("expected both feedbacks discarded, got %v and %v", f1.State(), f2.State())
	}
}

func TestTextureCacheReusesEntryForSameBuffer(t *testing.T) {
	cache := NewTextureCache(func(fb any) {})
	buf := &Buffer{Width: 4, Height: 4}

	makeCount := 0
	makeTexture := func(b *Buffer) *Texture {
		makeCount++
		return &Texture{Buffer: b}
	}

	t1 := cache.Acquire(buf, makeTexture)
	t2 := cache.Acquire(buf, makeTexture)

	if t1 != t2 {
		t.Fatal("expected the same buffer identity to reuse the cached texture")
	}
	if makeCount != 1 {
		t.Fatalf("expected texture construction exactly once, got %d", makeCount)
	}

	cache.Release(t1)
	cache.Release(t2)
	if cache.Len() != 0 {
		t.Fatalf("expected the cache to evict the entry once refcount drops to zero, got len %d", cache.Len())
	}
}
