// Package paint implements the compositor-thread paint loop (C10):
// each scheduled wake-up it resolves focus, asks the composition
// planner to build a layer list, hands that to the backend, and
// services done-fences. Grounded on main.go's run() event loop
// (WaitEventTimeout-driven dispatch with an explicit stopped flag) and
// §5's frame-done ordering guarantee.
package paint

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gamescopecore/compositor/internal/backend"
	"github.com/gamescopecore/compositor/internal/blit"
	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/gamescopecore/compositor/internal/focus"
	"github.com/gamescopecore/compositor/internal/logscope"
	"github.com/gamescopecore/compositor/internal/override"
	"github.com/gamescopecore/compositor/internal/planner"
	"github.com/gamescopecore/compositor/internal/reactor"
	"github.com/gamescopecore/compositor/internal/scheduler"
	"github.com/gamescopecore/compositor/internal/surface"
	"github.com/gamescopecore/compositor/internal/wire"
	"github.com/gamescopecore/compositor/internal/wlcommit"
)

var log = logscope.New("paint")

// ScreenshotRequest is the mutex-guarded pending-screenshot slot; only
// one request is serviced at a time, matching the single in-flight
// screenshot the control global's take_screenshot request implies.
type ScreenshotRequest struct {
	// Kind is a wire.ScreenshotType (BasePlaneOnly or FullComposite).
	Kind int
	Dest io.Writer
	Done chan error

	// Rect restricts the screenshot to a sub-rectangle of the composited
	// output, e.g. a single window's destination rect; the zero value
	// captures the full frame.
	Rect image.Rectangle
}

// WindowSourceFunc resolves a window's presented surface handle to its
// current committed buffer, letting the paint loop stay decoupled from
// the surface registry's internal locking.
type WindowSourceFunc func(windowSurface uint64) (planner.WindowSource, bool)

// Loop drives one compositor-thread paint cycle per wake-up.
type Loop struct {
	sched    *scheduler.Scheduler
	engine   *focus.Engine
	planr    *planner.Planner
	back     backend.Backend
	cur      *cursor.State
	registry *surface.Registry
	override *override.Table

	windows      []*focus.Window
	windowsMu    sync.Mutex
	outputW, outputH int

	sourceFor WindowSourceFunc

	screenshotMu      sync.Mutex
	pendingScreenshot *ScreenshotRequest

	nudge *reactor.EventFD

	vtSwitched atomic.Bool

	lastLayers []planner.Layer
}

// New builds a paint loop. sourceFor resolves windows to their latched
// commits; nudge is signalled by the server thread whenever a new
// commit becomes ready, per §5's commit-queue handoff.
func New(sched *scheduler.Scheduler, engine *focus.Engine, planr *planner.Planner, back backend.Backend, cur *cursor.State, reg *surface.Registry, ovr *override.Table, sourceFor WindowSourceFunc, nudge *reactor.EventFD) *Loop {
	return &Loop{
		sched:     sched,
		engine:    engine,
		planr:     planr,
		back:      back,
		cur:       cur,
		registry:  reg,
		override:  ovr,
		sourceFor: sourceFor,
		nudge:     nudge,
	}
}

// SetWindows replaces the window-stacking list under the paint loop's
// own lock, matching the §2 "window list protected by a mutex" model.
func (l *Loop) SetWindows(windows []*focus.Window) {
	l.windowsMu.Lock()
	l.windows = windows
	l.windowsMu.Unlock()
}

// SetOutputSize records the connector's current mode dimensions.
func (l *Loop) SetOutputSize(w, h int) {
	l.outputW, l.outputH = w, h
}

// RequestScreenshot installs the pending screenshot slot; a later frame
// fulfils it once composited, matching the "screenshot is satisfied
// from the next composited frame" semantics of the original's
// screenshot manager.
func (l *Loop) RequestScreenshot(req *ScreenshotRequest) {
	l.screenshotMu.Lock()
	defer l.screenshotMu.Unlock()
	l.pendingScreenshot = req
}

// SetVTSwitched marks whether the session has been VT-switched away;
// while true, Present calls are silently skipped per §7 (EACCES).
func (l *Loop) SetVTSwitched(v bool) { l.vtSwitched.Store(v) }

// RunOnce performs exactly one scheduled paint cycle: resolve focus,
// build layers, present, and service done-fences. It returns the
// backend's PresentResult for the caller to feed back into scheduling
// decisions (e.g. retry sooner on PresentBusy).
func (l *Loop) RunOnce(ctx context.Context, nowNs int64) (backend.PresentResult, error) {
	l.windowsMu.Lock()
	windows := append([]*focus.Window(nil), l.windows...)
	l.windowsMu.Unlock()

	// Latch each surface's newest ready commit *before* resolving sources
	// and building this frame's layers: a commit that just became ready
	// and nudged this wake must be the base layer of the frame it woke,
	// not the next one (§8 scenario 1, §5 ordering guarantee).
	latched := l.latchReady(windows)

	outputRect := focus.Rect{Width: l.outputW, Height: l.outputH}
	tuple := l.engine.RunGlobal(windows, focus.Control{}, outputRect)

	sources := l.collectSources(windows)

	layers := l.planr.Build(tuple, sources, l.cur, l.outputW, l.outputH, nowNs)
	l.lastLayers = layers

	conn, ok := l.back.GetConnector(backend.ScreenInternal)
	if !ok {
		conn = &backend.Connector{}
	}

	if l.vtSwitched.Load() {
		// §7: EACCES while VT-switched away is not an error, just a
		// skipped frame; the scheduler will wake again next cycle.
		return backend.PresentDenied, nil
	}

	result, err := l.back.Present(ctx, backend.FrameInfo{Layers: layers, Output: *conn}, false)
	if err != nil {
		log.Warnf("present failed: %v", err)
		return result, err
	}

	l.sendFeedback(latched)
	l.serviceScreenshot()

	return result, nil
}

// presentedSurface resolves which surface handle should actually be
// composited for w: its content override if one is registered (§4.3:
// "subsequent focus/composition uses the override's surface"), else
// its own client surface.
func (l *Loop) presentedSurface(w *focus.Window) surface.Handle {
	return l.override.PresentedSurface(w.ID, surface.Handle(w.Surface))
}

// latchReady promotes every presented surface's newest ready commit to
// Current, returning the commit latched this call keyed by surface
// handle (for the feedback pass once Present has succeeded). Surfaces
// with nothing newly ready keep their previous Current and are absent
// from the map.
//
// Because this always resolves through presentedSurface, a window whose
// override was only just registered is latched from the override
// surface's done-queue on this very call: whatever commits the client
// queued against it before registration are already sitting there in
// commit order, so the first Latch after Register replays them (newest
// ready wins, per §5) instead of requiring a second post-registration
// commit to be seen at all (§4.3).
func (l *Loop) latchReady(windows []*focus.Window) map[surface.Handle]*wlcommit.Commit {
	latched := make(map[surface.Handle]*wlcommit.Commit, len(windows))
	for _, w := range windows {
		surf := l.presentedSurface(w)
		st, ok := l.registry.Get(surf)
		if !ok {
			continue
		}
		if c := st.Latch(); c != nil {
			latched[surf] = c
			l.override.MarkReplayed(w.ID)
		}
	}
	return latched
}

func (l *Loop) collectSources(windows []*focus.Window) map[uint32]planner.WindowSource {
	sources := make(map[uint32]planner.WindowSource, len(windows))
	for _, w := range windows {
		src, ok := l.sourceFor(uint64(l.presentedSurface(w)))
		if !ok {
			continue
		}
		sources[w.ID] = src
	}
	return sources
}

// sendFeedback fires "frame done"/presentation-timing feedback for every
// surface latched this frame, after latch but before the next vblank
// wake, per §5's ordering guarantee.
func (l *Loop) sendFeedback(latched map[surface.Handle]*wlcommit.Commit) {
	lastVblankNs := uint64(l.sched.Estimate().LastVblankNs)
	cycleNs := uint64(l.sched.CycleNs())
	for handle, displayed := range latched {
		displayed.Present()
		l.registry.Presented(handle, displayed, lastVblankNs, cycleNs)
	}
}

func (l *Loop) serviceScreenshot() {
	l.screenshotMu.Lock()
	req := l.pendingScreenshot
	l.pendingScreenshot = nil
	l.screenshotMu.Unlock()
	if req == nil {
		return
	}
	err := l.encodeScreenshot(req)
	if req.Done != nil {
		req.Done <- err
	}
}

// encodeScreenshot rasterises the composited frame to PNG. A
// ScreenshotBasePlaneOnly request reads the focus window's buffer
// directly (cheap, matches direct scan-out); ScreenshotFullComposite
// rasterises every layer that carries a source commit (base, fade,
// override, overlays) through the software compositor
// (internal/blit.Compose), the stand-in this port uses for the Vulkan
// black box (§1). The cursor layer has no source buffer and is not drawn.
// AVIF output is an explicit open question: no AVIF encoder exists
// anywhere in the retrieved dependency pack, so only PNG is wired; a
// future backend-side AVIF path would slot in beside this method.
func (l *Loop) encodeScreenshot(req *ScreenshotRequest) error {
	var img image.Image
	if wire.ScreenshotType(req.Kind) == wire.ScreenshotFullComposite {
		img = l.composeFrame()
	} else {
		img = l.baseLayerImage()
	}
	if img == nil {
		return io.ErrUnexpectedEOF
	}
	if !req.Rect.Empty() {
		img = &blit.SubImage{Src: img, Rect: req.Rect}
	}
	return png.Encode(req.Dest, img)
}

func (l *Loop) baseLayerImage() image.Image {
	if len(l.lastLayers) == 0 {
		return nil
	}
	base := l.lastLayers[0]
	if base.Source == nil {
		return nil
	}
	buf := base.Source.Buffer()
	if buf == nil {
		return nil
	}
	return &bufferImage{buf: buf}
}

// composeFrame rasterises every layer of the last painted frame through
// the software compositor, in the same z-order the planner produced.
func (l *Loop) composeFrame() image.Image {
	if l.outputW <= 0 || l.outputH <= 0 {
		return nil
	}
	layers := make([]blit.Layer, 0, len(l.lastLayers))
	for _, pl := range l.lastLayers {
		if pl.Source == nil {
			continue
		}
		buf := pl.Source.Buffer()
		if buf == nil {
			continue
		}
		layers = append(layers, blit.Layer{
			Source: blit.LayerSource{
				Pix:      buf.Pix,
				Width:    buf.Width,
				Height:   buf.Height,
				Stride:   buf.Stride,
				BGROrder: buf.Format == wlcommit.FormatXRGB8888 || buf.Format == wlcommit.FormatARGB8888,
			},
			DestRect: image.Rect(pl.DestRect.X, pl.DestRect.Y, pl.DestRect.X+pl.DestRect.Width, pl.DestRect.Y+pl.DestRect.Height),
			Opacity:  pl.Opacity,
			Nearest:  !pl.LinearFilter,
		})
	}
	if len(layers) == 0 {
		return nil
	}
	return blit.Compose(layers, l.outputW, l.outputH)
}

// bufferImage adapts a wlcommit.Buffer's raw pixels to image.Image so
// the existing image/png encoder can be reused without a copy into a
// stdlib image type first.
type bufferImage struct {
	buf *wlcommit.Buffer
}

func (b *bufferImage) ColorModel() color.Model { return color.RGBAModel }

func (b *bufferImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.buf.Width, b.buf.Height)
}

func (b *bufferImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.buf.Width || y >= b.buf.Height {
		return color.RGBA{}
	}
	off := y*b.buf.Stride + x*4
	if off+4 > len(b.buf.Pix) {
		return color.RGBA{}
	}
	p := b.buf.Pix[off : off+4]
	switch b.buf.Format {
	case wlcommit.FormatXRGB8888, wlcommit.FormatARGB8888:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	default: // XBGR8888, ABGR8888
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	}
}
