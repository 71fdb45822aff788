// Package compositorloop wires the compositor-thread components (C5–C10)
// into a single runnable unit: the focus engine, frame scheduler,
// cursor state, composition planner, backend, and paint loop, all
// driven from one Waitable reactor blocked on the server's nudge
// eventfd and the scheduler's timerfd, grounded on steamcompmgr.cpp's
// main loop and vblankmanager.cpp's wake scheduling.
package compositorloop

import (
	"context"
	"fmt"

	"github.com/gamescopecore/compositor/internal/backend"
	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/gamescopecore/compositor/internal/focus"
	"github.com/gamescopecore/compositor/internal/logscope"
	"github.com/gamescopecore/compositor/internal/paint"
	"github.com/gamescopecore/compositor/internal/planner"
	"github.com/gamescopecore/compositor/internal/reactor"
	"github.com/gamescopecore/compositor/internal/scheduler"
	"github.com/gamescopecore/compositor/internal/server"
	"github.com/gamescopecore/compositor/internal/surface"
)

var log = logscope.New("compositorloop")

// Config bundles the tunables the compositor thread needs at startup.
type Config struct {
	RefreshHz      int
	FadeDurationNs int64
	FocusConfig    focus.Config
	PlannerConfig  planner.Config
}

// DefaultConfig mirrors the spec's default constants (§4.6, §4.8).
func DefaultConfig() Config {
	return Config{
		RefreshHz:      60,
		FadeDurationNs: 300_000_000,
		FocusConfig:    focus.DefaultConfig(),
		PlannerConfig:  planner.DefaultConfig(),
	}
}

// Loop owns the compositor thread's private reactor and every C5-C10
// component, plus a reference back to the server for window/registry
// access (§2: "surface registry and window list are the only state
// shared across the thread boundary").
type Loop struct {
	cfg Config

	reactor *reactor.Reactor
	timer   *reactor.TimerFD
	nudge   *reactor.EventFD

	sched  *scheduler.Scheduler
	cur    *cursor.State
	fade   *planner.FadeMachine
	planr  *planner.Planner
	engine *focus.Engine

	srv  *server.Server
	back backend.Backend

	paint *paint.Loop
}

// New builds the full compositor-thread wiring. srv is the server-thread
// collaborator implementing focus.RootControl and owning the surface
// registry; back is the chosen presentation backend (headless,
// sdlbackend, or nested).
func New(cfg Config, srv *server.Server, back backend.Backend) (*Loop, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("compositorloop: create reactor: %w", err)
	}

	timer, err := reactor.NewTimerFD()
	if err != nil {
		return nil, fmt.Errorf("compositorloop: create timerfd: %w", err)
	}
	if err := r.Add(timer); err != nil {
		return nil, fmt.Errorf("compositorloop: register timerfd: %w", err)
	}

	nudge := srv.NudgeFD()
	if err := r.Add(nudge); err != nil {
		return nil, fmt.Errorf("compositorloop: register nudge eventfd: %w", err)
	}

	sched := scheduler.New(cfg.RefreshHz, timer)
	cur := cursor.New()
	fade := planner.NewFadeMachine(cfg.FadeDurationNs)
	planr := planner.New(cfg.PlannerConfig, fade)
	engine := focus.NewEngine(cfg.FocusConfig, srv)
	engine.OnFocusChanged = func(prev, next *focus.Window) {
		if prev == nil {
			return
		}
		st, ok := srv.Registry().Get(surface.Handle(prev.Surface))
		if !ok {
			return
		}
		fade.OnFocusChanged(st.Current())
	}

	l := &Loop{
		cfg:     cfg,
		reactor: r,
		timer:   timer,
		nudge:   nudge,
		sched:   sched,
		cur:     cur,
		fade:    fade,
		planr:   planr,
		engine:  engine,
		srv:     srv,
		back:    back,
	}

	l.paint = paint.New(sched, engine, planr, back, cur, srv.Registry(), srv.OverrideTable(), l.resolveSource, nudge)

	timer.OnExpire = func() { l.onScheduledWake() }
	nudge.OnSignal = func() {}

	return l, nil
}

func (l *Loop) resolveSource(windowSurface uint64) (planner.WindowSource, bool) {
	st, ok := l.srv.Registry().Get(surface.Handle(windowSurface))
	if !ok {
		return planner.WindowSource{}, false
	}
	c := st.Current()
	if c == nil {
		return planner.WindowSource{}, false
	}
	buf := c.Buffer()
	if buf == nil {
		return planner.WindowSource{}, false
	}
	return planner.WindowSource{Commit: c, SourceWidth: buf.Width, SourceHeight: buf.Height}, true
}

// Init brings up the backend and arms the first scheduled wake.
func (l *Loop) Init(ctx context.Context) error {
	if err := l.back.Init(ctx); err != nil {
		return fmt.Errorf("compositorloop: backend init: %w", err)
	}
	if err := l.back.PostInit(); err != nil {
		return fmt.Errorf("compositorloop: backend post-init: %w", err)
	}
	if conn, ok := l.back.GetConnector(backend.ScreenInternal); ok && len(conn.Modes) > 0 {
		l.paint.SetOutputSize(conn.Modes[0].Width, conn.Modes[0].Height)
		l.sched.SetTargetRefreshHz(conn.Modes[0].RefreshHz)
	}
	return l.sched.Arm()
}

// onScheduledWake is the timerfd expiry handler: recompute the window
// list from the server, run one paint cycle, then re-arm for the next
// vblank-minus-draw-estimate deadline (§4.6).
func (l *Loop) onScheduledWake() {
	now := reactor.NowNanos()
	l.sched.Tick(now)
	l.cur.Tick(now)

	windows := l.srv.Windows()
	l.paint.SetWindows(windows)

	l.back.PollState()

	result, err := l.paint.RunOnce(context.Background(), now)
	if err != nil {
		log.Warnf("paint cycle failed: %v", err)
	}
	if result == backend.PresentBusy {
		// §7: KMS EBUSY/ENOSPC. No composition fallback is made here;
		// the frame is planned and presented again on the next
		// scheduled wake.
		log.Warnf("present busy, retrying next cycle")
	}

	l.sched.MarkVblank(now)
	if err := l.sched.Arm(); err != nil {
		log.Warnf("failed to arm frame timer: %v", err)
	}
}

// Run blocks servicing the compositor-thread reactor until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.reactor.Wait(100); err != nil {
			return fmt.Errorf("compositorloop: reactor wait: %w", err)
		}
	}
}

// RequestScreenshot forwards to the paint loop's screenshot slot (§6
// gamescope_control.take_screenshot).
func (l *Loop) RequestScreenshot(req *paint.ScreenshotRequest) {
	l.paint.RequestScreenshot(req)
}

// SetVTSwitched forwards VT-switch state to the paint loop (§7).
func (l *Loop) SetVTSwitched(v bool) { l.paint.SetVTSwitched(v) }

// Close tears down the compositor thread's owned resources.
func (l *Loop) Close() {
	l.timer.Close()
	l.reactor.Close()
}
