package planner

import (
	"math"

	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/gamescopecore/compositor/internal/focus"
	"github.com/gamescopecore/compositor/internal/wlcommit"
)

// Config tunes the composition planner (§4.7).
type Config struct {
	MaxWindowScale  float64
	IntegerScale    bool
	ZoomScale       float64 // 1 disables the cursor-centred zoom offset
}

func DefaultConfig() Config {
	return Config{MaxWindowScale: 1.0, ZoomScale: 1.0}
}

// WindowSource resolves a focus.Window to the commit that should be
// drawn for it (its own surface, or its registered content override,
// §4.3) plus that commit's pixel geometry.
type WindowSource struct {
	Commit        *wlcommit.Commit
	SourceWidth   int
	SourceHeight  int
}

// NeedsCompositeInputs carries the facts the "needs-composite" policy of
// §4.7 reads to decide between direct backend scan-out and full Vulkan
// composition.
type NeedsCompositeInputs struct {
	BackendPlaneCount   int
	BaseNeedsUpscale    bool
	BlurActive          bool
	NearestRequested    bool
	BackendNearestTap   bool
	ScreenshotRequested bool
	FirstFrame          bool
	BackendHasModifiers bool
	HDRItmActive        bool
	BaseIsHDR           bool
	BackendColourManage bool
}

// NeedsComposite implements §4.7's "needs-composite" policy.
func NeedsComposite(nonCursorLayers int, in NeedsCompositeInputs) bool {
	if nonCursorLayers >= 2 && in.BackendPlaneCount < nonCursorLayers {
		return true
	}
	if in.BaseNeedsUpscale {
		return true
	}
	if in.BlurActive {
		return true
	}
	if in.NearestRequested && !in.BackendNearestTap {
		return true
	}
	if in.ScreenshotRequested {
		return true
	}
	if in.FirstFrame {
		return true
	}
	if !in.BackendHasModifiers {
		return true
	}
	if in.HDRItmActive {
		return true
	}
	if in.BaseIsHDR && !in.BackendColourManage {
		return true
	}
	return false
}

// TouchScaling is the shared record the planner publishes so touch input
// hitting the output can be converted back to surface-local coordinates
// (§4.7, last paragraph).
type TouchScaling struct {
	Scale  Scale
	Offset Offset
}

// Planner builds the ordered layer list for one frame.
type Planner struct {
	cfg  Config
	fade *FadeMachine

	lastBase *Layer // cached previous base layer, used when focus has no ready commit yet
	touch    TouchScaling
}

func New(cfg Config, fade *FadeMachine) *Planner {
	return &Planner{cfg: cfg, fade: fade}
}

func (p *Planner) TouchScaling() TouchScaling { return p.touch }

// Build computes the frame's layer list (§4.7) plus the fade overlay
// (§4.8). sources maps a focus.Window.ID to its WindowSource. outputW/H
// is the current output mode.
func (p *Planner) Build(tuple focus.Tuple, sources map[uint32]WindowSource, cur *cursor.State, outputW, outputH int, nowNs int64) []Layer {
	var layers []Layer

	base, haveBase := p.buildBase(tuple.Focus, sources, cur, outputW, outputH)
	if haveBase {
		layers = append(layers, base)
		p.lastBase = &base
	} else if p.lastBase != nil {
		cached := *p.lastBase
		layers = append(layers, cached)
	}

	if p.fade != nil && p.fade.Enabled() {
		if t, active := p.fade.Progress(nowNs); active {
			if prevCommit := p.fade.PreviousCommit(); prevCommit != nil && len(layers) > 0 {
				fadeOut := layers[0]
				fadeOut.Source = prevCommit
				fadeOut.Opacity = 1 - t
				fadeOut.ZPos = ZFadeOut
				layers[0].Opacity = t
				layers = append(layers, fadeOut)
			}
		}
	}

	if tuple.Override != nil && tuple.Focus != nil {
		if src, ok := sources[tuple.Override.ID]; ok && src.Commit != nil && src.Commit.Ready() {
			rel := Rect{
				X:      tuple.Override.Geometry.X - tuple.Focus.Geometry.X,
				Y:      tuple.Override.Geometry.Y - tuple.Focus.Geometry.Y,
				Width:  tuple.Override.Geometry.Width,
				Height: tuple.Override.Geometry.Height,
			}
			layers = append(layers, Layer{
				Source:     src.Commit,
				SourceRect: Rect{Width: src.SourceWidth, Height: src.SourceHeight},
				DestRect:   rel,
				Scale:      base.Scale,
				Opacity:    1,
				ZPos:       ZOverride,
			})
		}
	}

	if tuple.ExternalOverlay != nil {
		if l, ok := absoluteLayer(tuple.ExternalOverlay, sources, ZExternalOverlay); ok {
			layers = append(layers, l)
		}
	}
	if tuple.Overlay != nil {
		if l, ok := absoluteLayer(tuple.Overlay, sources, ZOverlay); ok {
			layers = append(layers, l)
		}
	}
	if tuple.Notification != nil {
		if l, ok := absoluteLayer(tuple.Notification, sources, ZNotification); ok {
			l.DestRect.X = outputW - l.DestRect.Width
			l.DestRect.Y = outputH - l.DestRect.Height
			layers = append(layers, l)
		}
	}

	if cur != nil && cur.Visible() {
		layers = append(layers, p.cursorLayer(cur, base))
	}

	if len(layers) > MaxLayers {
		layers = layers[:MaxLayers]
	}
	return layers
}

func (p *Planner) buildBase(focusWin *focus.Window, sources map[uint32]WindowSource, cur *cursor.State, outputW, outputH int) (Layer, bool) {
	if focusWin == nil {
		return Layer{}, false
	}
	src, ok := sources[focusWin.ID]
	if !ok || src.Commit == nil || !src.Commit.Ready() {
		return Layer{}, false
	}

	sw, sh := src.SourceWidth, src.SourceHeight
	if sw == 0 || sh == 0 {
		return Layer{}, false
	}

	scale := math.Min(float64(outputW)/float64(sw), float64(outputH)/float64(sh))
	if p.cfg.MaxWindowScale > 0 {
		scale = math.Min(scale, p.cfg.MaxWindowScale)
	}
	if p.cfg.IntegerScale && scale > 1 {
		scale = math.Floor(scale)
	}

	destW := float64(sw) * scale
	destH := float64(sh) * scale
	offX := (float64(outputW) - destW) / 2
	offY := (float64(outputH) - destH) / 2

	if p.cfg.ZoomScale != 0 && p.cfg.ZoomScale != 1 && cur != nil {
		offX += (float64(sw)/2 - float64(cur.Position.X)) * scale
	}

	blackBorder := destW < float64(outputW) || destH < float64(outputH)

	l := Layer{
		Source:       src.Commit,
		SourceRect:   Rect{Width: sw, Height: sh},
		DestRect:     Rect{X: int(offX), Y: int(offY), Width: int(destW), Height: int(destH)},
		Scale:        Scale{X: scale, Y: scale},
		Offset:       Offset{X: offX, Y: offY},
		Opacity:      1,
		ZPos:         ZBase,
		BlackBorder:  blackBorder,
		LinearFilter: true,
	}
	p.touch = TouchScaling{Scale: l.Scale, Offset: l.Offset}
	return l, true
}

func absoluteLayer(w *focus.Window, sources map[uint32]WindowSource, z ZPos) (Layer, bool) {
	src, ok := sources[w.ID]
	if !ok || src.Commit == nil || !src.Commit.Ready() {
		return Layer{}, false
	}
	return Layer{
		Source:     src.Commit,
		SourceRect: Rect{Width: src.SourceWidth, Height: src.SourceHeight},
		DestRect: Rect{
			X: w.Geometry.X, Y: w.Geometry.Y,
			Width: w.Geometry.Width, Height: w.Geometry.Height,
		},
		Scale:   Scale{X: 1, Y: 1},
		Opacity: float64(w.Opacity) / float64(0xffffffff),
		ZPos:    z,
	}, true
}

func (p *Planner) cursorLayer(cur *cursor.State, base Layer) Layer {
	x := float64(cur.Position.X)*base.Scale.X + base.Offset.X
	y := float64(cur.Position.Y)*base.Scale.Y + base.Offset.Y
	return Layer{
		DestRect: Rect{X: int(x), Y: int(y), Width: 32, Height: 32},
		Scale:    base.Scale,
		Opacity:  1,
		ZPos:     ZCursor,
	}
}
