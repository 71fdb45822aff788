package focus

import "testing"

func baseWindow(id uint32) *Window {
	return &Window{
		ID:          id,
		Mapped:      true,
		InputOutput: true,
		HasAppID:    true,
		AppID:       id,
		Opacity:     1,
		Geometry:    Rect{Width: 800, Height: 600},
	}
}

func TestSelectPicksHighestAppIDWindowOverDropdown(t *testing.T) {
	app := baseWindow(1)
	app.MapSequence = 1

	dropdown := baseWindow(2)
	dropdown.HasAppID = false
	dropdown.IsOverrideRedirect = true
	dropdown.Geometry = Rect{Width: 200, Height: 100}
	dropdown.MapSequence = 2

	tuple := Select([]*Window{app, dropdown}, Control{}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Focus == nil || tuple.Focus.ID != 1 {
		t.Fatalf("expected window 1 to win focus, got %+v", tuple.Focus)
	}
}

func TestSelectExcludesUselessOneByOneWindow(t *testing.T) {
	useless := baseWindow(1)
	useless.Geometry = Rect{Width: 1, Height: 1}

	normal := baseWindow(2)
	normal.MapSequence = 1

	tuple := Select([]*Window{useless, normal}, Control{}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Focus == nil || tuple.Focus.ID != 2 {
		t.Fatalf("expected useless window to lose priority, got %+v", tuple.Focus)
	}
}

func TestSelectResolvesTransientForChain(t *testing.T) {
	root := baseWindow(1)
	root.MapSequence = 1

	dialog := baseWindow(2)
	dialog.MapSequence = 2
	dialog.HasTransientFor = true
	dialog.TransientFor = 1

	tuple := Select([]*Window{root, dialog}, Control{}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Focus == nil || tuple.Focus.ID != 1 {
		t.Fatalf("expected transient-for chain to resolve to root window, got %+v", tuple.Focus)
	}
}

func TestSelectOverrideChainMustLeadToFocus(t *testing.T) {
	focusWin := baseWindow(1)
	focusWin.MapSequence = 1

	unrelatedDropdown := baseWindow(2)
	unrelatedDropdown.HasAppID = false
	unrelatedDropdown.IsOverrideRedirect = true
	unrelatedDropdown.Geometry = Rect{Width: 200, Height: 100, X: 0, Y: 0}
	unrelatedDropdown.MapSequence = 2

	tuple := Select([]*Window{focusWin, unrelatedDropdown}, Control{}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Override != nil {
		t.Fatalf("expected no override since the dropdown's chain does not lead to focus, got %+v", tuple.Override)
	}
}

func TestSelectOverlayPicksHighestOpacity(t *testing.T) {
	low := baseWindow(1)
	low.IsOverlay = true
	low.Opacity = 10
	low.Geometry = Rect{Width: 1920, Height: 100}

	high := baseWindow(2)
	high.IsOverlay = true
	high.Opacity = 200
	high.Geometry = Rect{Width: 1920, Height: 100}

	tuple := Select([]*Window{low, high}, Control{}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Overlay == nil || tuple.Overlay.ID != 2 {
		t.Fatalf("expected window 2 to win the overlay slot, got %+v", tuple.Overlay)
	}
}

func TestSelectRestrictWindowLimitsCandidates(t *testing.T) {
	a := baseWindow(1)
	a.MapSequence = 1
	b := baseWindow(2)
	b.MapSequence = 2

	restrict := uint32(2)
	tuple := Select([]*Window{a, b}, Control{RestrictWindow: &restrict}, DefaultConfig(), Rect{Width: 1920, Height: 1080})

	if tuple.Focus == nil || tuple.Focus.ID != 2 {
		t.Fatalf("expected restrict-window control to force window 2, got %+v", tuple.Focus)
	}
}

func TestFocusableListExcludesOverrideRedirectAndSkipBoth(t *testing.T) {
	normal := baseWindow(1)
	skipBoth := baseWindow(2)
	skipBoth.SkipTaskbar = true
	skipBoth.SkipPager = true
	overrideRedirect := baseWindow(3)
	overrideRedirect.IsOverrideRedirect = true

	out := FocusableList([]*Window{normal, skipBoth, overrideRedirect}, DefaultConfig())

	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("expected only window 1 to remain focusable, got %+v", out)
	}
}
