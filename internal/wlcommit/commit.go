// Package wlcommit implements the Commit object (C2): a ref-counted
// wrapper around an imported client buffer plus its acquire/release sync
// points and presentation-feedback list, grounded on commit.h/commit.cpp.
package wlcommit

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gamescopecore/compositor/internal/reactor"
)

// nextCommitID is the process-wide monotonic commit-id counter (§3:
// "Commit-ids are strictly monotonic across the process").
var nextCommitID uint64

// Buffer is the client-submitted pixel source. Identity (not value)
// determines texture-cache membership.
type Buffer struct {
	Width, Height int
	Stride        int
	Format        PixelFormat
	Pix           []byte

	// ImplicitFenceFD is the buffer's own implicit-sync fd, duplicated as
	// the acquire-fd when the surface does not use explicit linux-drm-syncobj.
	ImplicitFenceFD int

	// DMABuf reports whether this buffer can be imported directly as a
	// backend framebuffer for scan-out, bypassing Vulkan composition.
	DMABuf bool
}

// PixelFormat names the small set of formats the core cares about; the
// backend and the planner's blit stage swizzle channels as needed.
type PixelFormat int

const (
	FormatXRGB8888 PixelFormat = iota
	FormatARGB8888
	FormatXBGR8888
	FormatABGR8888
)

// FeedbackState is the lifecycle of a single presentation-feedback token.
type FeedbackState int

const (
	FeedbackPending FeedbackState = iota
	FeedbackPresented
	FeedbackDiscarded
)

// Feedback is one wp_presentation feedback token attached to a Commit at
// commit time (§4.2).
type Feedback struct {
	mu    sync.Mutex
	state FeedbackState
}

// MarkPresented transitions the token to Presented exactly once; a
// second call is a no-op, matching the round-trip law that presented is
// emitted at most once.
func (f *Feedback) MarkPresented() (fired bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FeedbackPending {
		return false
	}
	f.state = FeedbackPresented
	return true
}

// MarkDiscarded transitions the token to Discarded if still pending.
func (f *Feedback) MarkDiscarded() (fired bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FeedbackPending {
		return false
	}
	f.state = FeedbackDiscarded
	return true
}

func (f *Feedback) State() FeedbackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SyncPoint identifies a linux-drm-syncobj timeline + point. A Timeline
// of nil means "implicit sync" (acquire is the buffer's own fence fd).
type SyncPoint struct {
	Timeline *Timeline
	Point    uint64
}

// Timeline is a minimal drm_syncobj timeline: a monotonically
// increasing point counter with waiters that fire once the signalled
// point reaches or exceeds the point they are waiting on.
type Timeline struct {
	mu        sync.Mutex
	signalled uint64
	waiters   map[uint64][]chan struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{waiters: make(map[uint64][]chan struct{})}
}

// Signal advances the timeline to point (no-op if it would move
// backwards) and wakes any waiter whose point has now been reached.
func (t *Timeline) Signal(point uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if point <= t.signalled {
		return
	}
	t.signalled = point
	for p, chans := range t.waiters {
		if p <= point {
			for _, c := range chans {
				close(c)
			}
			delete(t.waiters, p)
		}
	}
}

// IsSignalled reports whether point has already been reached.
func (t *Timeline) IsSignalled(point uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return point <= t.signalled
}

// Wait returns a channel closed once point is signalled. If already
// signalled, the returned channel is already closed.
func (t *Timeline) Wait(point uint64) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := make(chan struct{})
	if point <= t.signalled {
		close(c)
		return c
	}
	t.waiters[point] = append(t.waiters[point], c)
	return c
}

// Status is the Commit lifecycle (§4.1 point 4, §3 Commit).
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusDisplayed
	StatusReleased
)

// Commit is an atomic buffer submission from a client surface.
type Commit struct {
	mu sync.Mutex

	id     uint64
	buffer *Buffer
	status Status

	// acquireEventFD is not set by New: an explicit-sync commit whose
	// point is not yet signalled is observed through acquireWait, which
	// Ready polls.
	acquireEventFD *reactor.EventFD
	acquireWait    <-chan struct{}

	release      *SyncPoint
	releaseTimes int32 // atomic guard: release signalled exactly once

	fifo  bool
	async bool

	presentID          uint64
	hasPresentID       bool
	desiredPresentTime uint64

	feedbacks []*Feedback

	refs int32

	discarded bool
}

// New constructs a Commit for buf with a fresh process-wide commit id.
// acquire, when non-nil, is the syncobj timeline point to wait on
// before the Commit becomes ready; pass nil for implicit sync, in
// which case the buffer's own ImplicitFenceFD is treated as the acquire
// condition (always-ready in this port, since there is no real GPU fence
// to poll without a DRM device).
func New(buf *Buffer, acquire *SyncPoint, release *SyncPoint, fifo, async bool) *Commit {
	c := &Commit{
		id:      atomic.AddUint64(&nextCommitID, 1),
		buffer:  buf,
		status:  StatusPending,
		release: release,
		fifo:    fifo,
		async:   async,
		refs:    1,
	}

	if acquire != nil && acquire.Timeline != nil {
		if acquire.Timeline.IsSignalled(acquire.Point) {
			c.status = StatusReady
		} else {
			c.acquireWait = acquire.Timeline.Wait(acquire.Point)
		}
	} else {
		// Implicit sync: no real fence to wait on here, the commit is
		// ready as soon as the buffer is attached.
		c.status = StatusReady
	}

	return c
}

func (c *Commit) ID() uint64 { return c.id }

func (c *Commit) Buffer() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

func (c *Commit) Fifo() bool { return c.fifo }
func (c *Commit) Async() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.async
}

// SetAsync overrides the tearing/async flag post-construction, used when
// the backend's tearing support is discovered after the commit was built
// (scenario 6: async=false unless the backend advertises tearing).
func (c *Commit) SetAsync(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.async = v
}

// SetPresentID / SetDesiredPresentTime record the wp_presentation timing
// request fields carried by set_present_time (§4.2).
func (c *Commit) SetPresentID(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presentID = id
	c.hasPresentID = true
}

func (c *Commit) PresentID() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presentID, c.hasPresentID
}

// AddFeedback registers a new presentation-feedback token against this
// commit, returning it so the caller can later resolve it to presented
// or discarded.
func (c *Commit) AddFeedback() *Feedback {
	f := &Feedback{}
	c.mu.Lock()
	c.feedbacks = append(c.feedbacks, f)
	c.mu.Unlock()
	return f
}

// Feedbacks returns a snapshot of the attached feedback tokens.
func (c *Commit) Feedbacks() []*Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Feedback, len(c.feedbacks))
	copy(out, c.feedbacks)
	return out
}

// Ready reports whether the acquire condition has been observed
// signalled (§4.1 point 4). A Commit that is not Ready must not be
// selected as a layer's source (testable property, §8).
func (c *Commit) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusReady || c.status == StatusDisplayed {
		return true
	}
	if c.acquireWait != nil {
		select {
		case <-c.acquireWait:
			c.status = StatusReady
			return true
		default:
			return false
		}
	}
	return false
}

// MarkDisplayed transitions a ready Commit to displayed (latched as the
// base layer for a painted frame).
func (c *Commit) MarkDisplayed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusReady {
		c.status = StatusDisplayed
	}
}

func (c *Commit) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Ref increments the Commit's reference count (fade slot, texture
// cache, pending/displayed slots may each hold one).
func (c *Commit) Ref() *Commit {
	atomic.AddInt32(&c.refs, 1)
	return c
}

// Discard marks every still-pending feedback as discarded. Safe to call
// more than once; only the first call per feedback has effect.
func (c *Commit) Discard() {
	c.mu.Lock()
	c.discarded = true
	feedbacks := c.feedbacks
	c.mu.Unlock()
	for _, f := range feedbacks {
		f.MarkDiscarded()
	}
}

// Present marks every still-pending feedback as presented. Exactly one
// of Discard/Present's effect survives per feedback (§8 round-trip law).
func (c *Commit) Present() {
	c.mu.Lock()
	feedbacks := c.feedbacks
	c.mu.Unlock()
	for _, f := range feedbacks {
		f.MarkPresented()
	}
}

// Release signals the release sync-point exactly once and drops this
// Commit's reference, returning an error if the count goes below zero;
// nothing else happens when the last reference drops. Calling Release
// twice is safe: only the first call signals.
func (c *Commit) Release() error {
	if !atomic.CompareAndSwapInt32(&c.releaseTimes, 0, 1) {
		return nil
	}
	c.mu.Lock()
	rel := c.release
	c.status = StatusReleased
	c.mu.Unlock()
	if rel != nil && rel.Timeline != nil {
		rel.Timeline.Signal(rel.Point)
	}
	if atomic.AddInt32(&c.refs, -1) < 0 {
		return fmt.Errorf("wlcommit: commit %d released more times than referenced", c.id)
	}
	return nil
}

// Unref drops one reference without signalling release (used when a
// secondary holder, e.g. the fade slot, is done with the commit but the
// owning surface already released it).
func (c *Commit) Unref() {
	atomic.AddInt32(&c.refs, -1)
}
