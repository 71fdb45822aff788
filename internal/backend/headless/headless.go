// Package headless implements the headless Backend (C9): no real
// display, used for CI and testing, grounded on HeadlessBackend.cpp.
package headless

import (
	"context"

	"github.com/gamescopecore/compositor/internal/backend"
)

// Backend composites nothing onto a real screen; Present always
// succeeds immediately, matching the original HeadlessBackend's role as
// a minimal always-available target.
type Backend struct {
	connector backend.Connector
	refresh   int
}

// New creates a headless backend with a synthetic 1920x1080@60 output.
func New() *Backend {
	return &Backend{
		refresh: 60,
		connector: backend.Connector{
			ScreenType: backend.ScreenInternal,
			Modes:      []backend.Mode{{Width: 1920, Height: 1080, RefreshHz: 60}},
		},
	}
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		SupportsModifiers:   true,
		SupportsExplicitSync: true,
		PlaneCount:          1,
	}
}

func (b *Backend) Init(ctx context.Context) error { return nil }
func (b *Backend) PostInit() error                { return nil }

func (b *Backend) DirtyState(force, forceModeset bool) {}
func (b *Backend) PollState()                          {}

func (b *Backend) ImportDMABuf(buf any, attrs backend.DMABufAttrs) (*backend.Framebuffer, error) {
	return &backend.Framebuffer{Width: attrs.Width, Height: attrs.Height, Handle: buf}, nil
}

func (b *Backend) CreateBlob(data []byte) (*backend.Blob, error) {
	return &backend.Blob{Data: data}, nil
}

func (b *Backend) Present(ctx context.Context, frame backend.FrameInfo, async bool) (backend.PresentResult, error) {
	return backend.PresentOK, nil
}

func (b *Backend) GetConnector(screenType backend.ScreenType) (*backend.Connector, bool) {
	if screenType != b.connector.ScreenType {
		return nil, false
	}
	c := b.connector
	return &c, true
}

func (b *Backend) FrameSync() backend.FrameSync {
	return backend.FrameSync{}
}

func (b *Backend) NestedHints() backend.NestedHints { return nil }
