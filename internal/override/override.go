// Package override implements the content-override table (C4): a
// per-context map from an X window id to the surface the client asked
// be shown in its place, grounded on §4.3 and the gamescope_swapchain
// override_window_content flow.
package override

import (
	"sync"

	"github.com/gamescopecore/compositor/internal/surface"
)

// Swapchain is the opaque per-override swapchain resource; its lifetime
// is owned by the entry and torn down on replacement or surface
// destruction (§9 design note: model as small explicit state machines).
type Swapchain interface {
	Retire()
}

// Entry is one content-override registration.
type Entry struct {
	Surface   surface.Handle
	Swapchain Swapchain

	// replayed tracks whether the paint loop has latched this entry's
	// surface at least once since registration. The actual replay of
	// commits queued before registration happens for free in
	// internal/paint.Loop.latchReady: once PresentedSurface starts
	// resolving w's content to Surface, the surface's existing
	// done-queue (already holding, in commit order, anything the client
	// committed before override_window_content fired) is drained by the
	// very next per-frame Latch call instead of waiting on a fresh
	// post-registration commit. MarkReplayed just records that this has
	// happened at least once, for callers that want to know the
	// override's first frame was not silently dropped.
	replayed bool
}

// Table is a per-XWayland-context x11_window_id -> Entry map.
type Table struct {
	mu      sync.Mutex
	entries map[uint32]*Entry
}

func New() *Table {
	return &Table{entries: make(map[uint32]*Entry)}
}

// Register installs surf as the content override for window w. Any
// previous entry for w is retired and torn down first (§4.3).
func (t *Table) Register(w uint32, surf surface.Handle, sc Swapchain) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.entries[w]; ok && prev.Swapchain != nil {
		prev.Swapchain.Retire()
	}
	e := &Entry{Surface: surf, Swapchain: sc}
	t.entries[w] = e
	return e
}

// Lookup returns the override surface for window w, if one is registered.
func (t *Table) Lookup(w uint32) (surface.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[w]
	if !ok {
		return 0, false
	}
	return e.Surface, true
}

// MarkReplayed records that the paint loop has latched w's presented
// surface at least once since registration, meaning any commits queued
// against it before registration have now been drained from its
// done-queue in order (§4.3). Called by internal/paint.Loop.latchReady.
func (t *Table) MarkReplayed(w uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[w]; ok {
		e.replayed = true
	}
}

// NeedsReplay reports whether w's override surface has not yet been
// latched since registration.
func (t *Table) NeedsReplay(w uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[w]
	return ok && !e.replayed
}

// Unregister tears down the override for window w (automatic teardown
// when its surface is destroyed, §4.3).
func (t *Table) Unregister(w uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[w]; ok {
		if e.Swapchain != nil {
			e.Swapchain.Retire()
		}
		delete(t.entries, w)
	}
}

// UnregisterBySurface tears down whichever entry (if any) points at
// surf, used when a surface is destroyed directly rather than via its
// owning window.
func (t *Table) UnregisterBySurface(surf surface.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for w, e := range t.entries {
		if e.Surface == surf {
			if e.Swapchain != nil {
				e.Swapchain.Retire()
			}
			delete(t.entries, w)
		}
	}
}

// PresentedSurface returns the surface that should be used for
// focus/composition for window w: its override if any, else its own
// surface mainSurf. Input/keyboard events keep going to mainSurf
// regardless (§4.3: "main surface continues to receive input/keyboard
// events").
func (t *Table) PresentedSurface(w uint32, mainSurf surface.Handle) surface.Handle {
	if s, ok := t.Lookup(w); ok {
		return s
	}
	return mainSurf
}
