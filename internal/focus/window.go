// Package focus implements the focus and window-stacking engine (C5):
// selection of the per-context and global focus tuples from the window
// list and control properties (§4.4), grounded on steamcompmgr_shared.hpp
// (steamcompmgr_win_t) and xwayland_ctx.hpp (focus_t).
package focus

// InputFocusMode mirrors steamcompmgr_win_t's inputFocusMode values.
type InputFocusMode int

const (
	InputFocusNone InputFocusMode = iota
	InputFocusStealMouseOnly
	InputFocusStealAll
)

// Rect is an on-screen geometry in output pixel coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) OnScreen(output Rect) bool {
	return r.X < output.X+output.Width && r.X+r.Width > output.X &&
		r.Y < output.Y+output.Height && r.Y+r.Height > output.Y
}

// Window is one client window's role/geometry/state snapshot, as seen
// by the focus engine. It is a plain value rebuilt by the caller from
// the X11/xdg event stream; the engine itself never mutates window
// lifecycle, only reads it (§9: Select is a pure function).
type Window struct {
	ID       uint32
	Surface  uint64 // surface.Handle, kept untyped here to avoid an import cycle
	Geometry Rect

	// PID is the owning client process id, sourced from the window's
	// _NET_WM_PID property. It has no bearing on selection; it exists
	// purely to fill the third element of the GAMESCOPE_FOCUSABLE_WINDOWS
	// (window, appid, pid) triples (§6).
	PID uint32

	ZOrder  int
	Opacity uint32 // 0..0xffffffff
	AppID   uint32
	HasAppID bool

	IsOverlay         bool
	IsExternalOverlay bool
	// IsNotification supplements the role-flag set of §3 with a slot the
	// data model names (the "notification" focus-tuple member, §4.7) but
	// never defines a selection rule for; it is treated like an overlay
	// variant, picked by highest opacity among mapped notification windows.
	IsNotification bool
	IsFullscreen      bool
	IsDialog          bool
	SkipTaskbar       bool
	SkipPager         bool
	IsSysTray         bool

	IsOverrideRedirect bool
	IsSteam            bool
	IsSteamStreaming   bool

	TransientFor   uint32
	HasTransientFor bool

	// HasFixedPositionHint is true when the window carries position/gravity
	// hints placing it at a fixed spot (part of the §4.4 criterion-4
	// "is a dropdown" heuristic).
	HasFixedPositionHint bool

	DamageSequence uint64
	MapSequence    uint64

	InputFocusMode InputFocusMode

	Mapped      bool
	InputOutput bool // false for InputOnly windows, which are never focusable

	// The "useless" size (the width=1, height=1 heuristic of §9's open
	// question) is not stored per window: IsUseless and IsDropdown take
	// it as an argument, and the focus engine passes Config.UselessSize
	// (see select.go).
}

// IsUseless reports whether the window is exactly threshold x threshold
// (default 1x1) and therefore excluded/deprioritized as a "useless"
// window (§9 open question: preserve behaviour, expose the threshold).
func (w *Window) IsUseless(threshold int) bool {
	return w.Geometry.Width == threshold && w.Geometry.Height == threshold
}

// IsDropdown implements §4.4 criterion 4: "a window is 'a dropdown' if
// it is override-redirect-and-useful OR has position/gravity hints
// placing it at a fixed spot and carries skip-taskbar/skip-pager and is
// not a dialog with other indicators".
func (w *Window) IsDropdown(uselessThreshold int) bool {
	overrideRedirectUseful := w.IsOverrideRedirect && !w.IsUseless(uselessThreshold)
	fixedPositionPopup := w.HasFixedPositionHint && w.SkipTaskbar && w.SkipPager && !w.IsDialog
	return overrideRedirectUseful || fixedPositionPopup
}

func (w *Window) skipsBoth() bool {
	return w.SkipTaskbar && w.SkipPager
}
