// Package backend defines the abstract presentation target (C9):
// direct KMS scan-out, Vulkan-swapchain window, nested Wayland surface,
// or headless, grounded on HeadlessBackend.cpp / SDLBackend.cpp.
package backend

import (
	"context"

	"github.com/gamescopecore/compositor/internal/planner"
)

// ScreenType distinguishes the internal panel from an external display.
type ScreenType int

const (
	ScreenInternal ScreenType = iota
	ScreenExternal
)

// Orientation is the connector's rotation, in degrees.
type Orientation int

const (
	Orientation0 Orientation = iota
	Orientation90
	Orientation180
	Orientation270
)

// Capabilities is the backend's static capability query (§4.9).
type Capabilities struct {
	InstanceExtensions []string
	DeviceExtensions   []string
	PreferredFormats   []uint32

	SupportsModifiers  bool
	SupportsTearing    bool
	SupportsPlaneCursor bool
	UsesVulkanSwapchain bool
	IsSessionBased      bool
	SupportsExplicitSync bool

	PlaneCount int
}

// Connector describes one display output (§4.9 last paragraph).
type Connector struct {
	ScreenType  ScreenType
	Orientation Orientation

	HDRSupported bool
	HDRActive    bool

	RawEDID []byte

	Modes         []Mode
	VRRSupported  bool
	PreferredMode int
	DynamicRefreshList []int
}

// Mode is one display mode.
type Mode struct {
	Width, Height int
	RefreshHz     int
}

// Blob is an opaque backend resource (e.g. an HDR metadata blob handle).
type Blob struct {
	Data []byte
}

// Framebuffer is an opaque backend-imported scan-out resource, the
// result of ImportDMABuf.
type Framebuffer struct {
	Width, Height int
	Handle        any
}

// DMABufAttrs describes a dma-buf import request.
type DMABufAttrs struct {
	Width, Height int
	Format        uint32
	Modifier      uint64
}

// FrameInfo is the planner's output for one frame, handed to Present.
type FrameInfo struct {
	Layers []planner.Layer
	Output Connector
}

// PresentResult reports the outcome of Present (§7 error taxonomy).
type PresentResult int

const (
	PresentOK PresentResult = iota
	PresentBusy   // KMS EBUSY/ENOSPC: fall back to Vulkan composition next frame
	PresentDenied // EACCES: VT-switched away, silent skip
	PresentFailed
)

// FrameSync is the {target_vblank, wakeup_point} pair returned by
// FrameSync (§4.9).
type FrameSync struct {
	TargetVblankNs int64
	WakeupPointNs  int64
}

// NestedHints is the sub-interface for telling a nested host compositor
// about the focus window's presentation metadata (§4.9).
type NestedHints interface {
	SetTitle(title string)
	SetIcon(icon []byte)
	SetCursor(pix []byte, w, h, hotspotX, hotspotY int)
	SetRelativeMouse(enabled bool)
	SetVisible(visible bool)
}

// Backend is the abstract presentation target (C9, §4.9).
type Backend interface {
	Capabilities() Capabilities

	Init(ctx context.Context) error
	PostInit() error

	DirtyState(force, forceModeset bool)
	PollState()

	ImportDMABuf(buf any, attrs DMABufAttrs) (*Framebuffer, error)
	CreateBlob(data []byte) (*Blob, error)

	Present(ctx context.Context, frame FrameInfo, async bool) (PresentResult, error)

	GetConnector(screenType ScreenType) (*Connector, bool)

	FrameSync() FrameSync

	NestedHints() NestedHints
}
