// Package server implements the server-thread side of the compositor
// (§2, §5): it owns the Waitable reactor (C1), the surface registry
// (C3), the content-override table (C4), and the X11-facing control
// surface that publishes focus decisions back to window properties,
// grounded on wlserver.hpp/wlserver.cpp's wlserver_t and
// gamescope_xwayland_server_t, and on xwayland_ctx.hpp's per-context
// window bookkeeping.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/gamescopecore/compositor/internal/focus"
	"github.com/gamescopecore/compositor/internal/logscope"
	"github.com/gamescopecore/compositor/internal/override"
	"github.com/gamescopecore/compositor/internal/reactor"
	"github.com/gamescopecore/compositor/internal/surface"
	"github.com/gamescopecore/compositor/internal/wlcommit"
)

var log = logscope.New("server")

// XWindow mirrors one X11 window's server-side bookkeeping, grounded on
// xwayland_ctx.hpp's win_info_t-adjacent fields the focus engine and
// composition planner need to read.
type XWindow struct {
	mu sync.Mutex

	win *focus.Window

	normalState bool
	x, y, w, h  int
	fullscreen  bool
}

// Server owns the server-thread state: the event reactor, surface
// registry, content-override table, and the live X-window list, all
// protected the way wlserver_lock guards wlserver_t in the original.
type Server struct {
	mu sync.Mutex

	reactor  *reactor.Reactor
	registry *surface.Registry
	override *override.Table
	nudge    *reactor.EventFD

	windows    map[uint32]*XWindow
	doneLists  map[uint32]*surface.DoneCommitList

	focusProps focus.FocusProperties
}

// New builds a Server. Its nudge eventfd (see NudgeFD) is signalled
// whenever a commit is ready at commit time, waking the compositor
// thread blocked on its own reactor poll (§2 point 4, §5).
func New(r *reactor.Reactor, maxQueue int) (*Server, error) {
	nudge, err := reactor.NewEventFD()
	if err != nil {
		return nil, fmt.Errorf("server: create nudge eventfd: %w", err)
	}
	if err := r.Add(nudge); err != nil {
		return nil, fmt.Errorf("server: register nudge eventfd: %w", err)
	}

	s := &Server{
		reactor:   r,
		override:  override.New(),
		nudge:     nudge,
		windows:   make(map[uint32]*XWindow),
		doneLists: make(map[uint32]*surface.DoneCommitList),
	}
	s.registry = surface.New(r, maxQueue, s.onCommitReady)
	return s, nil
}

func (s *Server) onCommitReady(h surface.Handle) {
	if err := s.nudge.Signal(); err != nil {
		log.Warnf("nudge signal failed: %v", err)
	}
}

// NudgeFD returns the eventfd the compositor thread should register with
// its own reactor to be woken on new ready commits.
func (s *Server) NudgeFD() *reactor.EventFD { return s.nudge }

// Registry exposes the surface registry (C3) for the wire-level request
// handlers to drive.
func (s *Server) Registry() *surface.Registry { return s.registry }

// OverrideTable exposes the content-override table (C4).
func (s *Server) OverrideTable() *override.Table { return s.override }

// RegisterWindow adds an X window to the server-side list, returning its
// XWindow record; the focus.Window inside it reaches the compositor
// thread's focus engine through Windows.
func (s *Server) RegisterWindow(id uint32, surf uint64) *XWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	xw := &XWindow{win: &focus.Window{ID: id, Surface: surf, Mapped: false}}
	s.windows[id] = xw
	s.doneLists[id] = &surface.DoneCommitList{}
	return xw
}

// UnregisterWindow removes an X window and destroys its client surface.
func (s *Server) UnregisterWindow(id uint32) {
	s.mu.Lock()
	xw, ok := s.windows[id]
	delete(s.windows, id)
	delete(s.doneLists, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.registry.Destroy(surface.Handle(xw.win.Surface))
	s.override.UnregisterBySurface(surface.Handle(xw.win.Surface))
}

// Windows returns a snapshot of the live window-stacking list, the way
// the paint loop's SetWindows consumer expects it (§2 point 3: window
// list protected by its own mutex, read each scheduled wake).
func (s *Server) Windows() []*focus.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*focus.Window, 0, len(s.windows))
	for _, xw := range s.windows {
		xw.mu.Lock()
		out = append(out, xw.win)
		xw.mu.Unlock()
	}
	return out
}

// HandleOverrideWindowContent implements the gamescope_xwayland global's
// override_window_content request (§6): the given surface replaces
// x11Window's displayed content until retired.
func (s *Server) HandleOverrideWindowContent(surf surface.Handle, x11Window uint32) {
	s.override.Register(x11Window, surf, nil)
}

// ---- focus.RootControl implementation ----

// SetNormalState implements focus.RootControl: marks the window as
// having NormalState (mapped, not iconified), mirroring
// steamcompmgr.cpp's set_wm_state(NormalState) call on focus changes.
func (s *Server) SetNormalState(windowID uint32) {
	s.mu.Lock()
	xw, ok := s.windows[windowID]
	s.mu.Unlock()
	if !ok {
		return
	}
	xw.mu.Lock()
	xw.normalState = true
	xw.mu.Unlock()
}

// RaiseAndPosition implements focus.RootControl: restacks windowID to
// the top and applies its on-screen geometry, mirroring
// XConfigureWindow/XRaiseWindow pairs in steamcompmgr.cpp.
func (s *Server) RaiseAndPosition(windowID uint32, x, y, width, height int, fullscreen bool) {
	s.mu.Lock()
	xw, ok := s.windows[windowID]
	s.mu.Unlock()
	if !ok {
		return
	}
	xw.mu.Lock()
	xw.x, xw.y, xw.w, xw.h = x, y, width, height
	xw.fullscreen = fullscreen
	xw.mu.Unlock()
}

// PublishFocusProperties implements focus.RootControl: records the
// computed focus tuple as X11 root-window properties would be, for the
// steam client / overlay to read (GAMESCOPE_FOCUSED_WINDOW and friends).
func (s *Server) PublishFocusProperties(props focus.FocusProperties) {
	s.mu.Lock()
	s.focusProps = props
	s.mu.Unlock()
}

// FocusProperties returns the last-published focus properties.
func (s *Server) FocusProperties() focus.FocusProperties {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusProps
}

// SetNestedHints implements focus.RootControl for the nested-backend
// title/app-id hints. It is a no-op: the hints are not forwarded to any
// backend.
func (s *Server) SetNestedHints(title, appID string) {}

// Run blocks servicing the server-thread reactor until ctx is cancelled,
// mirroring wlserver_run's event_loop dispatch.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.reactor.Wait(100); err != nil {
			return fmt.Errorf("server: reactor wait: %w", err)
		}
	}
}

// Commit submits a client buffer against surf, implementing the
// wl_surface.commit path into the C3 registry (§4.1/§4.2).
func (s *Server) Commit(surf surface.Handle, buf *wlcommit.Buffer, acquire, release *wlcommit.SyncPoint, fifo, async bool) (*wlcommit.Commit, error) {
	return s.registry.Commit(surf, buf, acquire, release, fifo, async)
}
