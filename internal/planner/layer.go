// Package planner implements the composition planner (C8) and its fade
// machine (§4.7, §4.8): translating the focus state into an ordered
// layer list with scale/offset/opacity/colour-space/blur parameters.
package planner

import "github.com/gamescopecore/compositor/internal/wlcommit"

// ColourSpace enumerates the layer colour-space values (§3 Layer).
type ColourSpace int

const (
	ColourSpaceSRGB ColourSpace = iota
	ColourSpaceHDR10
	ColourSpaceLinear
)

// BlurMode enumerates the planner's blur parameter (§3 Layer).
type BlurMode int

const (
	BlurNone BlurMode = iota
	BlurBehindFocus
	BlurAlways
)

// UpscalerHint names the FSR/NIS-style upscaler request for a layer.
type UpscalerHint int

const (
	UpscalerNone UpscalerHint = iota
	UpscalerFSR
	UpscalerNIS
)

// ZPos names the fixed z-order slots of §3/§4.7: base, override pop-up,
// external overlay, overlay, notification, cursor.
type ZPos int

const (
	ZBase ZPos = iota
	ZFadeOut // previous focus during a fade, sits just above base
	ZOverride
	ZExternalOverlay
	ZOverlay
	ZNotification
	ZCursor
)

// MaxLayers is the "at most 8 layers" budget of §3.
const MaxLayers = 8

// Scale is a per-axis scale factor.
type Scale struct{ X, Y float64 }

// Offset is a per-axis pixel offset.
type Offset struct{ X, Y float64 }

// Rect is a generic pixel rectangle, duplicated from focus.Rect to avoid
// an import cycle between focus and planner.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Layer is one entry of the ordered composition plan (§3).
type Layer struct {
	Source     *wlcommit.Commit
	SourceRect Rect
	DestRect   Rect

	Scale  Scale
	Offset Offset

	Opacity float64
	ZPos    ZPos

	ColourSpace   ColourSpace
	LinearFilter  bool
	BlackBorder   bool
	Blur          BlurMode
	Upscaler      UpscalerHint
}
