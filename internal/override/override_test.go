package override

import (
	"testing"

	"github.com/gamescopecore/compositor/internal/surface"
)

type fakeSwapchain struct{ retired bool }

func (f *fakeSwapchain) Retire() { f.retired = true }

func TestRegisterRetiresPreviousEntry(t *testing.T) {
	table := New()
	first := &fakeSwapchain{}
	table.Register(1, surface.Handle(100), first)

	second := &fakeSwapchain{}
	table.Register(1, surface.Handle(200), second)

	if !first.retired {
		t.Fatal("expected the replaced swapchain to be retired")
	}
	if second.retired {
		t.Fatal("the new swapchain must not be retired on registration")
	}

	got, ok := table.Lookup(1)
	if !ok || got != surface.Handle(200) {
		t.Fatalf("expected the newest surface to be looked up, got %v ok=%v", got, ok)
	}
}

func TestLookupMissReturnsFalse(t *testing.T) {
	table := New()
	if _, ok := table.Lookup(1); ok {
		t.Fatal("expected a lookup on an unregistered window to miss")
	}
}

func TestUnregisterRetiresAndRemoves(t *testing.T) {
	table := New()
	sc := &fakeSwapchain{}
	table.Register(1, surface.Handle(100), sc)

	table.Unregister(1)

	if !sc.retired {
		t.Fatal("expected the swapchain to be retired on unregister")
	}
	if _, ok := table.Lookup(1); ok {
		t.Fatal("expected the entry to be gone after unregister")
	}
}

func TestUnregisterBySurfaceMatchesBySurfaceHandle(t *testing.T) {
	table := New()
	sc := &fakeSwapchain{}
	table.Register(1, surface.Handle(100), sc)
	table.Register(2, surface.Handle(200), &fakeSwapchain{})

	table.UnregisterBySurface(surface.Handle(100))

	if !sc.retired {
		t.Fatal("expected the matching entry's swapchain to be retired")
	}
	if _, ok := table.Lookup(1); ok {
		t.Fatal("expected window 1's entry to be removed")
	}
	if _, ok := table.Lookup(2); !ok {
		t.Fatal("expected window 2's unrelated entry to survive")
	}
}

func TestNeedsReplayUntilMarked(t *testing.T) {
	table := New()
	table.Register(1, surface.Handle(100), nil)

	if !table.NeedsReplay(1) {
		t.Fatal("expected a freshly-registered entry to need replay")
	}
	table.MarkReplayed(1)
	if table.NeedsReplay(1) {
		t.Fatal("expected replay to be marked done")
	}
}

func TestPresentedSurfaceFallsBackToMainSurface(t *testing.T) {
	table := New()
	main := surface.Handle(1)

	if got := table.PresentedSurface(1, main); got != main {
		t.Fatalf("expected the main surface with no override, got %v", got)
	}

	table.Register(1, surface.Handle(999), nil)
	if got := table.PresentedSurface(1, main); got != surface.Handle(999) {
		t.Fatalf("expected the override surface once registered, got %v", got)
	}
}
