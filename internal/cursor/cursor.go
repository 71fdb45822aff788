// Package cursor implements the cursor/pointer state machine (C7):
// position, hotspot, constraint region, hide-on-idle timer, and the
// hover-vs-trackpad mode described in §4.6.
package cursor

import "image"

// DefaultHideAfterIdleNs is the default 10s hide-after-idle timeout (§4.6).
const DefaultHideAfterIdleNs = 10_000_000_000

// ConstraintKind distinguishes locked-pointer (motion dropped entirely)
// from confined-pointer (motion clipped to the constraint region).
type ConstraintKind int

const (
	ConstraintNone ConstraintKind = iota
	ConstraintLocked
	ConstraintConfined
)

// Region approximates the pixman region used by the original to clip
// confined-pointer motion: a set of non-overlapping rectangles. Only the
// bounding clip needed by the confine algorithm is implemented.
type Region struct {
	Rects []image.Rectangle
}

// Contains reports whether p falls within any rectangle of the region.
// A region with no rectangles contains every point.
func (r Region) Contains(p image.Point) bool {
	for _, rect := range r.Rects {
		if p.In(rect) {
			return true
		}
	}
	return len(r.Rects) == 0
}

// ClipToNearest clips p to the nearest point on the region's boundary,
// used by the confined-pointer branch of the confine algorithm (§4.6).
func (r Region) ClipToNearest(p image.Point) image.Point {
	if len(r.Rects) == 0 {
		return p
	}
	best := p
	bestDist := -1
	for _, rect := range r.Rects {
		c := clipPointToRect(p, rect)
		d := dist2(p, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func clipPointToRect(p image.Point, r image.Rectangle) image.Point {
	x, y := p.X, p.Y
	if x < r.Min.X {
		x = r.Min.X
	} else if x >= r.Max.X {
		x = r.Max.X - 1
	}
	if y < r.Min.Y {
		y = r.Min.Y
	} else if y >= r.Max.Y {
		y = r.Max.Y - 1
	}
	return image.Pt(x, y)
}

func dist2(a, b image.Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Constraint is an active pointer constraint, set by the client
// requesting pointer-constraints semantics.
type Constraint struct {
	Kind   ConstraintKind
	Region Region
}

// State is the cursor/pointer state of §4.6.
type State struct {
	Position image.Point // surface-relative, tracked as integer pixels for simplicity
	Hotspot  image.Point

	lastMovedNs int64
	buttonHeld  bool

	HideAfterIdleNs int64
	hideForMovement bool
	visible         bool

	constraint Constraint

	// hoverTeleport records the position to restore when a "no focus when
	// hidden" window stops being focused (§4.6 Hover-vs-trackpad).
	hoverTeleport   image.Point
	hoverTeleported bool
}

// New creates a visible cursor with the default idle-hide timeout.
func New() *State {
	return &State{
		HideAfterIdleNs: DefaultHideAfterIdleNs,
		visible:         true,
	}
}

// MoveAbsolute implements an absolute-pointer or warp update: set
// position and clear hide-for-movement (§4.6).
func (s *State) MoveAbsolute(p image.Point, nowNs int64) {
	s.Position = p
	s.lastMovedNs = nowNs
	s.hideForMovement = false
}

// MoveRelative implements relative-pointer motion: scale by sensitivity,
// then apply the confine algorithm (§4.6).
func (s *State) MoveRelative(dx, dy float64, sensitivity float64, nowNs int64) {
	switch s.constraint.Kind {
	case ConstraintLocked:
		return // motion dropped entirely
	case ConstraintConfined:
		target := image.Pt(
			s.Position.X+int(dx*sensitivity),
			s.Position.Y+int(dy*sensitivity),
		)
		if !s.constraint.Region.Contains(target) {
			target = s.constraint.Region.ClipToNearest(target)
		}
		s.Position = target
	default:
		s.Position.X += int(dx * sensitivity)
		s.Position.Y += int(dy * sensitivity)
	}
	s.lastMovedNs = nowNs
	s.hideForMovement = false
}

// SetButtonHeld tracks whether any pointer button is currently held,
// which suppresses the idle-hide timer (§4.6).
func (s *State) SetButtonHeld(held bool) { s.buttonHeld = held }

// SetConstraint installs or clears the active pointer constraint.
func (s *State) SetConstraint(c Constraint) { s.constraint = c }

// Tick evaluates the idle timer: after HideAfterIdleNs without motion
// and with no held button, hide-for-movement becomes true (§4.6).
func (s *State) Tick(nowNs int64) {
	if s.buttonHeld {
		return
	}
	if nowNs-s.lastMovedNs >= s.HideAfterIdleNs {
		s.hideForMovement = true
	}
}

// Visible reports whether the cursor layer should be composited this
// frame.
func (s *State) Visible() bool {
	return s.visible && !s.hideForMovement
}

func (s *State) SetVisible(v bool) { s.visible = v }

// HideForMovement reports the idle-hide flag directly (test hook).
func (s *State) HideForMovement() bool { return s.hideForMovement }

// EnterHoverHidden teleports the cursor to the output's bottom-right
// corner so hover events do not fire on a "no focus when hidden"
// window, remembering the prior position for ExitHoverHidden (§4.6).
func (s *State) EnterHoverHidden(outputW, outputH int) {
	if s.hoverTeleported {
		return
	}
	s.hoverTeleport = s.Position
	s.hoverTeleported = true
	s.Position = image.Pt(outputW-1, outputH-1)
}

// ExitHoverHidden restores the position captured by EnterHoverHidden.
func (s *State) ExitHoverHidden() {
	if !s.hoverTeleported {
		return
	}
	s.Position = s.hoverTeleport
	s.hoverTeleported = false
}
