package planner

import "testing"

func allClear() NeedsCompositeInputs {
	return NeedsCompositeInputs{
		BackendPlaneCount:   8,
		BackendHasModifiers: true,
		BackendColourManage: true,
	}
}

func TestNeedsCompositeFalseWhenNothingDemandsIt(t *testing.T) {
	if NeedsComposite(1, allClear()) {
		t.Fatal("expected a single plane-capable layer to need no composition")
	}
}

func TestNeedsCompositeWhenPlaneBudgetExceeded(t *testing.T) {
	in := allClear()
	in.BackendPlaneCount = 1
	if !NeedsComposite(2, in) {
		t.Fatal("expected composition when layer count exceeds backend plane budget")
	}
}

func TestNeedsCompositeWhenBaseNeedsUpscale(t *testing.T) {
	in := allClear()
	in.BaseNeedsUpscale = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when the base layer needs upscaling")
	}
}

func TestNeedsCompositeWhenBlurActive(t *testing.T) {
	in := allClear()
	in.BlurActive = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when blur is active")
	}
}

func TestNeedsCompositeWhenNearestRequestedWithoutBackendTap(t *testing.T) {
	in := allClear()
	in.NearestRequested = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when nearest filtering is requested but the backend can't tap it")
	}

	in.BackendNearestTap = true
	if NeedsComposite(1, in) {
		t.Fatal("expected no composition once the backend can satisfy the nearest tap itself")
	}
}

func TestNeedsCompositeWhenScreenshotRequested(t *testing.T) {
	in := allClear()
	in.ScreenshotRequested = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition whenever a screenshot is requested")
	}
}

func TestNeedsCompositeWhenFirstFrame(t *testing.T) {
	in := allClear()
	in.FirstFrame = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition on the first frame")
	}
}

func TestNeedsCompositeWhenBackendLacksModifiers(t *testing.T) {
	in := allClear()
	in.BackendHasModifiers = false
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when the backend has no modifier support")
	}
}

func TestNeedsCompositeWhenHDRItmActive(t *testing.T) {
	in := allClear()
	in.HDRItmActive = true
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when HDR tone-mapping is active")
	}
}

func TestNeedsCompositeWhenBaseHDRAndBackendCannotColourManage(t *testing.T) {
	in := allClear()
	in.BaseIsHDR = true
	in.BackendColourManage = false
	if !NeedsComposite(1, in) {
		t.Fatal("expected composition when the base is HDR and the backend can't colour-manage it")
	}

	in.BackendColourManage = true
	if NeedsComposite(1, in) {
		t.Fatal("expected no composition once the backend can colour-manage the HDR base itself")
	}
}
