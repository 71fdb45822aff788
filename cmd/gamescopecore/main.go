// Command gamescopecore starts the two-thread compositor core (§2): a
// server thread servicing the Wayland/X11-facing surface registry and
// content-override table, and a compositor thread running the focus
// engine, frame scheduler, and paint loop, connected by the commit
// queue's ready-nudge eventfd. Grounded on main.hpp/main.cpp's process
// entrypoint and wlserver_run/steamcompmgr_main's thread split.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamescopecore/compositor/internal/backend"
	"github.com/gamescopecore/compositor/internal/backend/headless"
	"github.com/gamescopecore/compositor/internal/backend/nested"
	"github.com/gamescopecore/compositor/internal/backend/sdlbackend"
	"github.com/gamescopecore/compositor/internal/compositorloop"
	"github.com/gamescopecore/compositor/internal/cursor"
	"github.com/gamescopecore/compositor/internal/logscope"
	"github.com/gamescopecore/compositor/internal/reactor"
	"github.com/gamescopecore/compositor/internal/server"
	"github.com/gamescopecore/compositor/internal/surface"
)

var log = logscope.New("main")

func main() {
	backendName := flag.String("backend", "headless", "presentation backend: headless, sdl, nested")
	width := flag.Int("width", 1920, "output width (sdl/nested backends)")
	height := flag.Int("height", 1080, "output height (sdl/nested backends)")
	maxQueue := flag.Int("max-queue", surface.MaxQueueDefault, "max ready-but-unpresented commits per surface")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverReactor, err := reactor.New()
	if err != nil {
		log.Fatalf("create server reactor: %v", err)
	}
	defer serverReactor.Close()

	srv, err := server.New(serverReactor, *maxQueue)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}

	cur := cursor.New()
	back := selectBackend(*backendName, *width, *height, cur)

	cfg := compositorloop.DefaultConfig()
	loop, err := compositorloop.New(cfg, srv, back)
	if err != nil {
		log.Fatalf("create compositor loop: %v", err)
	}
	defer loop.Close()

	if err := loop.Init(ctx); err != nil {
		log.Fatalf("init compositor loop: %v", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Run(ctx) }()
	go func() { errCh <- loop.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Errorf("thread exited: %v", err)
		}
	}
}

func selectBackend(name string, width, height int, cur *cursor.State) backend.Backend {
	switch name {
	case "sdl":
		return sdlbackend.New("gamescope", width, height, cur)
	case "nested":
		return nested.New(width, height, cur)
	default:
		return headless.New()
	}
}
