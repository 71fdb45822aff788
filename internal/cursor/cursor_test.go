package cursor

import (
	"image"
	"testing"
)

func TestMoveRelativeLockedDropsMotion(t *testing.T) {
	s := New()
	s.Position = image.Pt(100, 100)
	s.SetConstraint(Constraint{Kind: ConstraintLocked})

	s.MoveRelative(10, 10, 1, 1)

	if s.Position != (image.Point{X: 100, Y: 100}) {
		t.Fatalf("expected locked constraint to drop motion entirely, got %+v", s.Position)
	}
}

func TestMoveRelativeConfinedClipsToRegion(t *testing.T) {
	s := New()
	s.Position = image.Pt(5, 5)
	region := Region{Rects: []image.Rectangle{image.Rect(0, 0, 10, 10)}}
	s.SetConstraint(Constraint{Kind: ConstraintConfined, Region: region})

	s.MoveRelative(100, 100, 1, 1)

	if !region.Contains(s.Position) {
		t.Fatalf("expected confined motion to stay within the region, got %+v", s.Position)
	}
}

func TestMoveRelativeUnconstrainedAppliesSensitivity(t *testing.T) {
	s := New()
	s.Position = image.Pt(0, 0)

	s.MoveRelative(10, 5, 2, 1)

	if s.Position != (image.Point{X: 20, Y: 10}) {
		t.Fatalf("expected sensitivity-scaled motion, got %+v", s.Position)
	}
}

func TestTickHidesAfterIdleTimeout(t *testing.T) {
	s := New()
	s.HideAfterIdleNs = 1000
	s.MoveAbsolute(image.Pt(0, 0), 0)

	s.Tick(500)
	if s.HideForMovement() {
		t.Fatal("cursor should not hide before the idle timeout elapses")
	}

	s.Tick(1000)
	if !s.HideForMovement() {
		t.Fatal("expected the cursor to hide once the idle timeout elapses")
	}
}

func TestTickNeverHidesWhileButtonHeld(t *testing.T) {
	s := New()
	s.HideAfterIdleNs = 1000
	s.MoveAbsolute(image.Pt(0, 0), 0)
	s.SetButtonHeld(true)

	s.Tick(5000)
	if s.HideForMovement() {
		t.Fatal("expected a held button to suppress the idle-hide timer")
	}
}

func TestMoveAbsoluteClearsHideForMovement(t *testing.T) {
	s := New()
	s.HideAfterIdleNs = 1000
	s.MoveAbsolute(image.Pt(0, 0), 0)
	s.Tick(2000)
	if !s.HideForMovement() {
		t.Fatal("sanity check: expected idle-hide to trigger")
	}

	s.MoveAbsolute(image.Pt(1, 1), 2000)
	if s.HideForMovement() {
		t.Fatal("expected fresh motion to clear hide-for-movement")
	}
}

func TestVisibleRequiresBothFlagsSet(t *testing.T) {
	s := New()
	s.HideAfterIdleNs = 1000
	s.MoveAbsolute(image.Pt(0, 0), 0)

	if !s.Visible() {
		t.Fatal("expected a freshly-moved, visible cursor to be visible")
	}

	s.Tick(2000)
	if s.Visible() {
		t.Fatal("expected the cursor to become invisible once idle-hidden")
	}

	s.SetVisible(false)
	s.MoveAbsolute(image.Pt(2, 2), 2000)
	if s.Visible() {
		t.Fatal("expected an explicitly hidden cursor to stay hidden despite motion")
	}
}

func TestHoverHiddenRoundTripsPosition(t *testing.T) {
	s := New()
	s.Position = image.Pt(42, 24)

	s.EnterHoverHidden(1920, 1080)
	if s.Position != (image.Point{X: 1919, Y: 1079}) {
		t.Fatalf("expected the cursor to teleport to the bottom-right corner, got %+v", s.Position)
	}

	s.ExitHoverHidden()
	if s.Position != (image.Point{X: 42, Y: 24}) {
		t.Fatalf("expected the cursor position to be restored, got %+v", s.Position)
	}
}
