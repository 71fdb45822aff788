// Package nested implements the nested-Wayland Backend (C9): gamescope
// running as an ordinary client of an outer compositor, presenting the
// composited frame through a single wl_surface. Grounded on wayland.go
// and wayland/window.go's Conn/registry/shm-pool wiring, adapted from
// the generated "proto" bindings those files use onto the real client
// package the module actually depends on.
package nested

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"syscall"

	"github.com/gamescopecore/compositor/internal/backend"
	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/gamescopecore/compositor/internal/logscope"
	gswire "github.com/gamescopecore/compositor/internal/wire"
	"github.com/rajveermalviya/go-wayland/wayland"
)

var log = logscope.New("nested")

func createTmpfile(size int64) (*os.File, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return nil, errors.New("nested: XDG_RUNTIME_DIR is not defined in env")
	}
	file, err := os.CreateTemp(dir, "gamescope_shm_*")
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(size); err != nil {
		return nil, err
	}
	if err := os.Remove(file.Name()); err != nil {
		return nil, err
	}
	return file, nil
}

// Backend presents the composited frame as a single toplevel surface of
// an outer Wayland compositor, standing in for gamescope's nested mode
// (running inside a desktop session rather than owning a KMS device).
type Backend struct {
	mu sync.Mutex

	conn       *wayland.Conn
	display    *wayland.Display
	registry   *wayland.Registry
	compositor *wayland.Compositor
	shm        *wayland.Shm
	seat       *wayland.Seat
	shell      *wayland.Shell
	output     *wayland.Output

	surface      *wayland.Surface
	shellSurface *wayland.ShellSurface

	pointer  *wayland.Pointer
	keyboard *wayland.Keyboard

	cursorState *cursor.State

	width, height int
	outputW, outputH int

	file *os.File
	pool *wayland.ShmPool
	pix  []byte

	// Control extends the single wl_surface with the gamescope_control
	// global (§6), advertised when the outer compositor is gamescope
	// itself or another host that implements it.
	Control *gswire.ControlGlobal

	closed bool
}

// New creates an un-initialised nested backend. cur, if non-nil, is fed
// pointer motion/button events pumped from the outer compositor's seat.
func New(width, height int, cur *cursor.State) *Backend {
	return &Backend{width: width, height: height, cursorState: cur}
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		SupportsModifiers:    false,
		SupportsTearing:      false,
		IsSessionBased:       true,
		SupportsExplicitSync: false,
		PlaneCount:           1,
	}
}

func (b *Backend) Init(ctx context.Context) error {
	var err error
	b.conn, err = wayland.Connect("")
	if err != nil {
		return fmt.Errorf("nested: connect: %w", err)
	}

	b.display = wayland.NewDisplay(&wayland.DisplayHandlers{
		OnError: func(evt wayland.Event) {
			e := evt.(*wayland.DisplayErrorEvent)
			log.Fatalf("display error on %s: [%d] %s", e.ObjectId.Name(), e.Code, e.Message)
		},
	})
	b.conn.Register(b.display)

	b.compositor = wayland.NewCompositor(nil)
	b.shm = wayland.NewShm(nil)
	b.shell = wayland.NewShell(nil)
	b.seat = wayland.NewSeat(&wayland.SeatHandlers{
		OnCapabilities: b.onSeatCapabilities,
	})
	b.output = wayland.NewOutput(&wayland.OutputHandlers{
		OnMode: func(evt wayland.Event) {
			e := evt.(*wayland.OutputModeEvent)
			b.outputW, b.outputH = int(e.Width), int(e.Height)
		},
	})

	reg := wayland.Registrar{b.compositor, b.shm, b.seat, b.shell, b.output}
	b.registry = b.display.GetRegistry(&wayland.RegistryHandlers{OnGlobal: reg.Handler})

	b.roundTrip()

	b.surface = b.compositor.CreateSurface(nil)
	b.shellSurface = b.shell.GetShellSurface(b.surface, &wayland.ShellSurfaceHandlers{
		OnPing: func(evt wayland.Event) {
			e := evt.(*wayland.ShellSurfacePingEvent)
			b.shellSurface.Pong(e.Serial)
		},
	})
	b.shellSurface.SetToplevel()
	b.shellSurface.SetTitle("gamescope")
	b.surface.Commit()

	return nil
}

func (b *Backend) roundTrip() {
	done := make(chan struct{})
	cb := b.display.Sync(&wayland.CallbackHandlers{
		OnDone: func(_ wayland.Event) { close(done) },
	})
	defer cb.Destroy()
	<-done
}

func (b *Backend) PostInit() error { return nil }

func (b *Backend) DirtyState(force, forceModeset bool) {}

// PollState pumps one round of the outer connection's dispatched events;
// the pointer handlers registered in onSeatCapabilities feed the cursor
// state directly, mirroring wayland/window.go's seat wiring. The keyboard
// is bound without handlers.
func (b *Backend) PollState() {
	if b.conn == nil {
		return
	}
	b.conn.Dispatch()
}

func (b *Backend) onSeatCapabilities(evt wayland.Event) {
	e := evt.(*wayland.SeatCapabilitiesEvent)

	havePointer := e.Capabilities&wayland.SeatCapabilityPointer != 0
	if havePointer && b.pointer == nil {
		b.pointer = b.seat.GetPointer(&wayland.PointerHandlers{
			OnMotion: func(evt wayland.Event) {
				e := evt.(*wayland.PointerMotionEvent)
				if b.cursorState != nil {
					b.cursorState.MoveAbsolute(image.Pt(int(e.SurfaceX), int(e.SurfaceY)), 0)
				}
			},
			OnButton: func(evt wayland.Event) {
				e := evt.(*wayland.PointerButtonEvent)
				if b.cursorState != nil {
					b.cursorState.SetButtonHeld(e.State == wayland.PointerButtonStatePressed)
				}
			},
		})
	} else if !havePointer && b.pointer != nil {
		b.pointer.Release()
		b.pointer = nil
	}

	haveKeyboard := e.Capabilities&wayland.SeatCapabilityKeyboard != 0
	if haveKeyboard && b.keyboard == nil {
		b.keyboard = b.seat.GetKeyboard(nil)
	} else if !haveKeyboard && b.keyboard != nil {
		b.keyboard.Release()
		b.keyboard = nil
	}
}

func (b *Backend) ImportDMABuf(buf any, attrs backend.DMABufAttrs) (*backend.Framebuffer, error) {
	return nil, fmt.Errorf("nested: direct scan-out not supported, composite via Vulkan black box")
}

func (b *Backend) CreateBlob(data []byte) (*backend.Blob, error) {
	return &backend.Blob{Data: data}, nil
}

// Present creates a new buffer over the shm pool and attaches and
// commits it, the way wayland/window.go's drawFrame creates-and-attaches
// a buffer per redraw. The frame's layers are not rasterised and no
// pixels are copied into the pool, so the attached buffer shows whatever
// the pool already holds.
func (b *Backend) Present(ctx context.Context, frame backend.FrameInfo, async bool) (backend.PresentResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return backend.PresentFailed, fmt.Errorf("nested: not initialised")
	}

	width, height := b.width, b.height
	if err := b.ensurePool(width, height); err != nil {
		return backend.PresentFailed, err
	}

	buf := b.pool.CreateBuffer(0, int32(width), int32(height), int32(width*4), wayland.ShmFormatArgb8888, &wayland.BufferHandlers{
		OnRelease: func(evt wayland.Event) {
			evt.Proxy().(*wayland.Buffer).Destroy()
		},
	})

	b.surface.Attach(buf, 0, 0)
	b.surface.DamageBuffer(0, 0, int32(width), int32(height))
	b.surface.Commit()

	return backend.PresentOK, nil
}

func (b *Backend) ensurePool(width, height int) error {
	size := int64(width * height * 4)
	if b.file != nil {
		return nil
	}
	file, err := createTmpfile(size)
	if err != nil {
		return fmt.Errorf("nested: create shm file: %w", err)
	}
	pix, err := syscall.Mmap(int(file.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("nested: mmap shm file: %w", err)
	}
	b.file = file
	b.pix = pix
	b.pool = b.shm.CreatePool(int(file.Fd()), int32(size), nil)
	return nil
}

func (b *Backend) GetConnector(screenType backend.ScreenType) (*backend.Connector, bool) {
	if screenType != backend.ScreenInternal {
		return nil, false
	}
	w, h := b.outputW, b.outputH
	if w == 0 || h == 0 {
		w, h = b.width, b.height
	}
	return &backend.Connector{
		ScreenType: backend.ScreenInternal,
		Modes:      []backend.Mode{{Width: w, Height: h, RefreshHz: 60}},
	}, true
}

func (b *Backend) FrameSync() backend.FrameSync { return backend.FrameSync{} }

func (b *Backend) NestedHints() backend.NestedHints { return &hints{b: b} }

type hints struct{ b *Backend }

func (h *hints) SetTitle(title string) {
	if h.b.shellSurface != nil {
		h.b.shellSurface.SetTitle(title)
	}
}
func (h *hints) SetIcon(icon []byte)                                {}
func (h *hints) SetCursor(pix []byte, w, hh, hotspotX, hotspotY int) {}
func (h *hints) SetRelativeMouse(enabled bool)                       {}
func (h *hints) SetVisible(visible bool)                             {}

// Close tears down the outer connection, mirroring Window.Cleanup.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.pointer != nil {
		b.pointer.Release()
	}
	if b.keyboard != nil {
		b.keyboard.Release()
	}
	if b.pool != nil {
		b.pool.Destroy()
	}
	if b.pix != nil {
		syscall.Munmap(b.pix)
	}
	if b.file != nil {
		b.file.Close()
	}
	if b.shellSurface != nil {
		b.shellSurface.Destroy()
	}
	if b.surface != nil {
		b.surface.Destroy()
	}
	if b.seat != nil {
		b.seat.Release()
	}
	if b.compositor != nil {
		b.compositor.Destroy()
	}
	if b.registry != nil {
		b.registry.Destroy()
	}
	if b.display != nil {
		b.display.Destroy()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
