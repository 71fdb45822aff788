// Package sdlbackend implements a windowed Backend (C9) on top of SDL2,
// grounded on ctxmenu.go's sdl.CreateWindow/CreateRenderer/event-pump
// usage and src/Backends/SDLBackend.cpp / src/sdlwindow.cpp.
package sdlbackend

import (
	"context"
	"fmt"
	"image"

	"github.com/gamescopecore/compositor/internal/backend"
	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/veandco/go-sdl2/sdl"
)

// Backend presents composited frames into an ordinary SDL window,
// standing in for gamescope's nested/windowed debug target.
type Backend struct {
	win    *sdl.Window
	render *sdl.Renderer

	width, height int
	title         string

	cursorState *cursor.State
}

// New creates an un-initialised SDL backend; call Init to open the
// window. cur, if non-nil, receives pumped mouse-motion events.
func New(title string, width, height int, cur *cursor.State) *Backend {
	return &Backend{title: title, width: width, height: height, cursorState: cur}
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		SupportsModifiers: false,
		SupportsTearing:   false,
		IsSessionBased:    true,
		PlaneCount:        1,
	}
}

func (b *Backend) Init(ctx context.Context) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdlbackend: sdl.Init: %w", err)
	}
	win, err := sdl.CreateWindow(b.title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(b.width), int32(b.height), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return fmt.Errorf("sdlbackend: CreateWindow: %w", err)
	}
	render, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("sdlbackend: CreateRenderer: %w", err)
	}
	b.win = win
	b.render = render
	return nil
}

func (b *Backend) PostInit() error { return nil }

func (b *Backend) DirtyState(force, forceModeset bool) {}

// PollState pumps the SDL event queue, feeding mouse motion into the
// cursor state the way ctxmenu.go's main loop drains sdl.WaitEventTimeout.
func (b *Backend) PollState() {
	for {
		event := sdl.PollEvent()
		if event == nil {
			return
		}
		switch ev := event.(type) {
		case *sdl.MouseMotionEvent:
			if b.cursorState != nil {
				b.cursorState.MoveAbsolute(image.Pt(int(ev.X), int(ev.Y)), 0)
			}
		case *sdl.MouseButtonEvent:
			if b.cursorState != nil {
				b.cursorState.SetButtonHeld(ev.State == sdl.PRESSED)
			}
		}
	}
}

func (b *Backend) ImportDMABuf(buf any, attrs backend.DMABufAttrs) (*backend.Framebuffer, error) {
	return nil, fmt.Errorf("sdlbackend: direct scan-out not supported, composite via Vulkan black box")
}

func (b *Backend) CreateBlob(data []byte) (*backend.Blob, error) {
	return &backend.Blob{Data: data}, nil
}

// Present only flips the window by presenting the renderer; the frame's
// layers are not drawn into the renderer, here or in the paint loop.
func (b *Backend) Present(ctx context.Context, frame backend.FrameInfo, async bool) (backend.PresentResult, error) {
	if b.render == nil {
		return backend.PresentFailed, fmt.Errorf("sdlbackend: not initialised")
	}
	b.render.Present()
	return backend.PresentOK, nil
}

func (b *Backend) GetConnector(screenType backend.ScreenType) (*backend.Connector, bool) {
	if screenType != backend.ScreenInternal {
		return nil, false
	}
	w, h := b.win.GetSize()
	return &backend.Connector{
		ScreenType: backend.ScreenInternal,
		Modes:      []backend.Mode{{Width: int(w), Height: int(h), RefreshHz: 60}},
	}, true
}

func (b *Backend) FrameSync() backend.FrameSync { return backend.FrameSync{} }

func (b *Backend) NestedHints() backend.NestedHints { return &hints{win: b.win} }

type hints struct{ win *sdl.Window }

func (h *hints) SetTitle(title string) {
	if h.win != nil {
		h.win.SetTitle(title)
	}
}
func (h *hints) SetIcon(icon []byte)                                     {}
func (h *hints) SetCursor(pix []byte, w, h2, hotspotX, hotspotY int)      {}
func (h *hints) SetRelativeMouse(enabled bool)                           { sdl.SetRelativeMouseMode(enabled) }
func (h *hints) SetVisible(visible bool) {
	if h.win == nil {
		return
	}
	if visible {
		h.win.Show()
	} else {
		h.win.Hide()
	}
}

// Close releases the SDL window/renderer.
func (b *Backend) Close() {
	if b.render != nil {
		b.render.Destroy()
	}
	if b.win != nil {
		b.win.Destroy()
	}
	sdl.Quit()
}
