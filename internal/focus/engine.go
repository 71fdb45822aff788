package focus

// RootControl is the subset of X11-root-property and window-management
// operations the focus engine needs after selecting a new tuple (§4.4
// side effects). The embedded X11 server/protocol translation itself is
// out of scope (§1); Engine only needs this narrow collaborator
// interface, implemented by internal/server against the real X context.
type RootControl interface {
	SetNormalState(windowID uint32)
	RaiseAndPosition(windowID uint32, x, y, width, height int, fullscreen bool)
	PublishFocusProperties(props FocusProperties)
	SetNestedHints(title, appID string)
}

// FocusProperties mirrors the GAMESCOPE_FOCUSED_* root-window properties
// published on every focus change (§4.4, §6).
type FocusProperties struct {
	FocusedApp           uint32
	FocusedAppGfx        uint32
	FocusedWindow         uint32
	FocusDisplayName      string
	MouseFocusDisplayName string
	KeyboardFocusDisplayName string
	FocusableApps         []uint32
	FocusableWindows      []FocusableWindowEntry
}

// FocusableWindowEntry is one (window, appid, pid) triple published as
// GAMESCOPE_FOCUSABLE_WINDOWS (§6).
type FocusableWindowEntry struct {
	Window uint32
	AppID  uint32
	PID    uint32
}

// Engine owns the last-applied tuple so it can detect focus changes and
// drive the fade machine and root-property publication (§4.4, §4.8).
type Engine struct {
	cfg     Config
	control RootControl

	lastPerContext map[uint32]Tuple // keyed by XWayland context id
	lastGlobal     Tuple

	// allWindows is the window list from the most recent Run{Context,Global}
	// call, read back by applySideEffects to build the FOCUSABLE_* lists.
	allWindows []*Window

	// OnFocusChanged is invoked with (previous, next) whenever RunContext
	// or RunGlobal sees the focus window identity change to a non-nil
	// window, giving the fade machine (C8) a hook
	// without this package importing planner (avoids a cycle).
	OnFocusChanged func(prev, next *Window)
}

func NewEngine(cfg Config, control RootControl) *Engine {
	return &Engine{
		cfg:            cfg,
		control:        control,
		lastPerContext: make(map[uint32]Tuple),
	}
}

// RunContext recomputes the per-context tuple for ctxID and applies
// §4.4's side effects if the focus window changed.
func (e *Engine) RunContext(ctxID uint32, windows []*Window, ctl Control, output Rect) Tuple {
	tuple := Select(windows, ctl, e.cfg, output)
	prev := e.lastPerContext[ctxID]
	e.allWindows = windows
	e.applySideEffects(prev, tuple, output)
	e.lastPerContext[ctxID] = tuple
	return tuple
}

// RunGlobal recomputes the global tuple from the union of per-context
// candidate sets (§4.4: "global focus tuple is derived by running the
// per-context algorithm against the union of candidate sets").
func (e *Engine) RunGlobal(allWindows []*Window, ctl Control, output Rect) Tuple {
	tuple := Select(allWindows, ctl, e.cfg, output)
	prev := e.lastGlobal
	e.allWindows = allWindows
	e.applySideEffects(prev, tuple, output)
	e.lastGlobal = tuple
	return tuple
}

func (e *Engine) applySideEffects(prev, next Tuple, output Rect) {
	changed := (prev.Focus == nil) != (next.Focus == nil) ||
		(prev.Focus != nil && next.Focus != nil && prev.Focus.ID != next.Focus.ID)

	if !changed || next.Focus == nil {
		return
	}

	if e.OnFocusChanged != nil {
		e.OnFocusChanged(prev.Focus, next.Focus)
	}

	if e.control == nil {
		return
	}

	e.control.SetNormalState(next.Focus.ID)

	x, y, w, h := 0, 0, next.Focus.Geometry.Width, next.Focus.Geometry.Height
	if next.Focus.IsFullscreen {
		w, h = output.Width, output.Height
	}
	e.control.RaiseAndPosition(next.Focus.ID, x, y, w, h, next.Focus.IsFullscreen)

	e.control.PublishFocusProperties(buildFocusProperties(next, e.allWindows, e.cfg))
	e.control.SetNestedHints("", "")
}

// buildFocusProperties computes the GAMESCOPE_FOCUSED_*/FOCUSABLE_*
// properties published on every focus change (§4.4 side effects),
// excluding 1x1, override-redirect and fully-skipped windows from the
// focusable lists.
func buildFocusProperties(t Tuple, allWindows []*Window, cfg Config) FocusProperties {
	gfxSource := t.FocusBase
	if gfxSource == nil {
		gfxSource = t.Focus
	}
	props := FocusProperties{
		FocusedWindow: t.Focus.ID,
		FocusedApp:    t.Focus.AppID,
		FocusedAppGfx: gfxSource.AppID,
	}
	if t.InputFocus != nil {
		props.MouseFocusDisplayName = displayNameFor(t.InputFocus)
	}
	if t.KeyboardFocus != nil {
		props.KeyboardFocusDisplayName = displayNameFor(t.KeyboardFocus)
	}
	props.FocusDisplayName = displayNameFor(t.Focus)

	for _, w := range FocusableList(allWindows, cfg) {
		props.FocusableApps = append(props.FocusableApps, w.AppID)
		props.FocusableWindows = append(props.FocusableWindows, FocusableWindowEntry{
			Window: w.ID,
			AppID:  w.AppID,
			PID:    w.PID,
		})
	}
	return props
}

func displayNameFor(w *Window) string {
	if w == nil {
		return ""
	}
	return "display0"
}

// FocusableList filters windows eligible for GAMESCOPE_FOCUSABLE_APPS /
// GAMESCOPE_FOCUSABLE_WINDOWS (§4.4): excludes 1x1, override-redirect
// and windows that skip both the taskbar and the pager.
func FocusableList(windows []*Window, cfg Config) []*Window {
	var out []*Window
	for _, w := range windows {
		if w.IsUseless(cfg.UselessSize) || w.IsOverrideRedirect || w.skipsBoth() {
			continue
		}
		out = append(out, w)
	}
	return out
}
