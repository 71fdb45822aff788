// Package wire models the custom Wayland globals of §6
// (gamescope_xwayland, gamescope_swapchain_factory_v2,
// gamescope_swapchain, gamescope_control) at the request/event API
// boundary. The XML-derived wire marshaling for these interfaces is
// generated code in the original project (and, like the teacher's own
// "proto" package, is not hand-written); protocol translation is
// explicitly out of scope (§1), so this package stops at the logical
// request/event shape a generated binding would expose, wired to the
// same Handlers-struct idiom the teacher uses for its own custom
// zwlr_layer_shell_v1 surface (wayland.go, menu.go).
package wire

import "github.com/gamescopecore/compositor/internal/surface"

// XWaylandGlobal has no events; it exposes one request.
type XWaylandGlobal struct {
	OverrideWindowContent func(surf surface.Handle, x11Window uint32)
}

// SwapchainFactoryGlobal has no events.
type SwapchainFactoryGlobal struct {
	CreateSwapchain func(surf surface.Handle) *SwapchainObject
}

// SwapchainEvents carries the gamescope_swapchain event callbacks (§6).
type SwapchainEvents struct {
	OnRetired            func()
	OnPastPresentTiming  func(id uint32, desired, actual, earliest, margin PresentTimingPair)
	OnRefreshCycle       func(cycleNs uint64)
}

// PresentTimingPair is a {hi, lo} 64-bit split, matching the protocol's
// wire encoding of 64-bit values as two 32-bit words.
type PresentTimingPair struct{ Hi, Lo uint32 }

// SwapchainObject is one gamescope_swapchain instance (§6).
type SwapchainObject struct {
	Surface surface.Handle
	Events  SwapchainEvents

	// Requests, modelled as plain methods rather than wire-encoded calls.
	OverrideWindowContent func(server surface.Handle, x11Window uint32)
	SetSwapchainFeedback  func(imageCount uint32, vkFormat, vkColorspace, vkCompositeAlpha, vkPreTransform uint32, vkClipped bool)
	SetHDRMetadata        func(meta InfoframeRaw)
	SetPresentMode        func(mode uint32)
	SetPresentTime        func(id uint32, hi, lo uint32)
}

// ControlFeature enumerates the feature_support event's feature ids the
// control global advertises at bind time.
type ControlFeature int

// ControlFlags mirrors the set_app_target_refresh_cycle flags bitmask.
type ControlFlags uint32

const (
	ControlFlagInternalDisplay ControlFlags = 1 << iota
	ControlFlagAllowRefreshSwitching
	ControlFlagOnlyChangeRefreshRate
)

// ActiveDisplayFlags mirrors active_display_info's flags bitmask.
type ActiveDisplayFlags uint32

const (
	ActiveDisplayInternal ActiveDisplayFlags = 1 << iota
	ActiveDisplayVRR
	ActiveDisplayHDR
)

// ScreenshotType mirrors gamescope_control_screenshot_type.
type ScreenshotType int

const (
	ScreenshotBasePlaneOnly ScreenshotType = iota
	ScreenshotFullComposite
)

// ControlEvents carries the gamescope_control event callbacks (§6).
type ControlEvents struct {
	OnFeatureSupport   func(feature ControlFeature, version uint32, flags uint32)
	OnActiveDisplayInfo func(name, make_, model string, flags ActiveDisplayFlags, rateList []int)
}

// ControlGlobal is the gamescope_control singleton (§6).
type ControlGlobal struct {
	Events ControlEvents

	SetAppTargetRefreshCycle func(fps int, flags ControlFlags)
	TakeScreenshot           func(path string, kind ScreenshotType, flags uint32)
}
