package focus

import "sort"

// Control carries the control properties that restrict/augment
// candidate selection (§4.4: "global focus ... augmented by two control
// properties ... an ordered list of app-ids and an optional single
// window-id").
type Control struct {
	FocusableAppIDs []uint32
	RestrictWindow  *uint32
}

func (c Control) restricts() bool {
	return len(c.FocusableAppIDs) > 0 || c.RestrictWindow != nil
}

func (c Control) allows(w *Window) bool {
	if !c.restricts() {
		return true
	}
	if c.RestrictWindow != nil {
		return w.ID == *c.RestrictWindow
	}
	for _, id := range c.FocusableAppIDs {
		if w.HasAppID && w.AppID == id {
			return true
		}
	}
	return false
}

// Tuple is the selected {focus, override, overlay, external-overlay,
// notification, input, keyboard, fade} record of window references
// (§3, §4.4). A nil field means the slot is empty this frame.
type Tuple struct {
	Focus *Window
	// FocusBase is the originally selected candidate before the
	// transient-for walk (§4.4 side effects: "focused-app-gfx (base
	// app-id before transient walk)"). Equal to Focus when the candidate
	// had no transient-for chain to climb.
	FocusBase       *Window
	Override        *Window
	Overlay         *Window
	ExternalOverlay *Window
	Notification    *Window
	InputFocus      *Window
	KeyboardFocus   *Window
	FadeOut         *Window
}

// Config tunes the selection algorithm (§9 open question: the
// win_is_useless threshold is exposed rather than hard-coded).
type Config struct {
	UselessSize int // default 1: a window exactly UselessSize x UselessSize is "useless"
	OverlayMinWidth int // default 1200
}

func DefaultConfig() Config {
	return Config{UselessSize: 1, OverlayMinWidth: 1200}
}

// candidateSet builds the focus-eligible subset of windows per §4.4:
// "mapped ∧ input-output ∧ (has-app-id ∨ is-steam ∨ is-steam-streaming-client)
// ∧ (opacity > 0 ∨ is-steam-streaming-client)".
func candidateSet(windows []*Window, control Control) []*Window {
	var out []*Window
	for _, w := range windows {
		if !w.Mapped || !w.InputOutput {
			continue
		}
		if !(w.HasAppID || w.IsSteam || w.IsSteamStreaming) {
			continue
		}
		if !(w.Opacity > 0 || w.IsSteamStreaming) {
			continue
		}
		if !control.allows(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// priorityLess implements §4.4's nine-criterion strict priority order.
// It returns true when a must sort before b (a has strictly higher
// priority). Criteria 6-7 only discriminate "when both are dropdowns"
// (§9 open question): this is a genuine partial order, so the caller
// must use a stable sort over input (map/X11) order for determinism,
// exactly as the original's stable_sort does.
func priorityLess(a, b *Window, cfg Config) bool {
	if a.HasAppID != b.HasAppID {
		return a.HasAppID
	}
	if a.IsOverrideRedirect != b.IsOverrideRedirect {
		return !a.IsOverrideRedirect
	}
	aUseless, bUseless := a.IsUseless(cfg.UselessSize), b.IsUseless(cfg.UselessSize)
	if aUseless != bUseless {
		return !aUseless
	}
	aDrop, bDrop := a.IsDropdown(cfg.UselessSize), b.IsDropdown(cfg.UselessSize)
	if aDrop != bDrop {
		return !aDrop
	}
	if a.skipsBoth() != b.skipsBoth() {
		return !a.skipsBoth()
	}
	if aDrop && bDrop {
		if a.IsDialog != b.IsDialog {
			return !a.IsDialog
		}
		if a.HasTransientFor != b.HasTransientFor {
			return !a.HasTransientFor
		}
	}
	if a.MapSequence != b.MapSequence {
		return a.MapSequence > b.MapSequence
	}
	return a.DamageSequence > b.DamageSequence
}

func sortByPriority(ws []*Window, cfg Config) {
	sort.SliceStable(ws, func(i, j int) bool {
		return priorityLess(ws[i], ws[j], cfg)
	})
}

// resolveTransientChain walks the transient-for chain from win through
// windows that are not dropdowns, per §4.4: "follow the transient-for
// chain through non-dropdown windows". The chain cannot cycle because
// windows only move forward in map-sequence, so a bounded hop count is
// just a defensive backstop, not load-bearing.
func resolveTransientChain(win *Window, byID map[uint32]*Window, cfg Config) *Window {
	current := win
	for hops := 0; hops < len(byID)+1; hops++ {
		if !current.HasTransientFor {
			return current
		}
		parent, ok := byID[current.TransientFor]
		if !ok || parent.IsDropdown(cfg.UselessSize) {
			return current
		}
		current = parent
	}
	return current
}

// chainLeadsTo reports whether following w's transient-for chain
// reaches target (§4.4: override is "the highest-priority dropdown
// window whose transient-for chain leads to focus").
func chainLeadsTo(w, target *Window, byID map[uint32]*Window) bool {
	current := w
	for hops := 0; hops < len(byID)+1; hops++ {
		if current.ID == target.ID {
			return true
		}
		if !current.HasTransientFor {
			return false
		}
		parent, ok := byID[current.TransientFor]
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

// Select runs the per-context (or global, when callers pass the union
// of candidate sets) focus selection algorithm of §4.4. allWindows is
// the full window list (used for overlay/transient lookups); output is
// a pure function of (allWindows, control) per §8's testable property.
func Select(allWindows []*Window, control Control, cfg Config, output Rect) Tuple {
	byID := make(map[uint32]*Window, len(allWindows))
	for _, w := range allWindows {
		byID[w.ID] = w
	}

	candidates := candidateSet(allWindows, control)
	sortByPriority(candidates, cfg)

	var tuple Tuple
	if len(candidates) == 0 {
		return tuple
	}

	tuple.FocusBase = candidates[0]
	tuple.Focus = resolveTransientChain(candidates[0], byID, cfg)

	var overrideCandidates []*Window
	for _, w := range candidates {
		if !w.IsDropdown(cfg.UselessSize) {
			continue
		}
		if !chainLeadsTo(w, tuple.Focus, byID) {
			continue
		}
		if !w.Geometry.OnScreen(output) {
			continue
		}
		overrideCandidates = append(overrideCandidates, w)
	}
	if len(overrideCandidates) > 0 {
		sortByPriority(overrideCandidates, cfg)
		tuple.Override = overrideCandidates[0]
	}

	var bestOverlay, bestExternal, bestNotification *Window
	for _, w := range allWindows {
		if !w.Mapped {
			continue
		}
		if w.IsOverlay && w.Geometry.Width >= cfg.OverlayMinWidth {
			if bestOverlay == nil || w.Opacity > bestOverlay.Opacity {
				bestOverlay = w
			}
		}
		if w.IsExternalOverlay {
			if bestExternal == nil || w.Opacity > bestExternal.Opacity {
				bestExternal = w
			}
		}
		if w.IsNotification {
			if bestNotification == nil || w.Opacity > bestNotification.Opacity {
				bestNotification = w
			}
		}
	}
	tuple.Overlay = bestOverlay
	tuple.ExternalOverlay = bestExternal
	tuple.Notification = bestNotification

	// Only the primary overlay can steal input focus; an external overlay
	// never does, and the override/dropdown never feeds InputFocus at
	// all — it only ever feeds KeyboardFocus below.
	tuple.InputFocus = tuple.Focus
	if tuple.Overlay != nil && tuple.Overlay.InputFocusMode != InputFocusNone {
		tuple.InputFocus = tuple.Overlay
	}

	tuple.KeyboardFocus = tuple.Focus
	if tuple.Override != nil {
		tuple.KeyboardFocus = tuple.Override
	}
	if tuple.InputFocus != nil && tuple.InputFocus.InputFocusMode == InputFocusStealAll {
		tuple.KeyboardFocus = tuple.InputFocus
	}

	return tuple
}
