package surface

import (
	"fmt"
	"sync"

	"github.com/gamescopecore/compositor/internal/reactor"
	"github.com/gamescopecore/compositor/internal/wlcommit"
)

// MaxQueueDefault is config.max_queue's default (§8).
const MaxQueueDefault = 3

// PresentationFlags mirrors the wp_presentation flag bitmask (§4.2).
type PresentationFlags uint32

const (
	FlagVSync PresentationFlags = 1 << iota
	FlagHWClock
	FlagHWCompletion
	FlagZeroCopy
)

// PresentedTiming is the {tv_sec_hi, tv_sec_lo, tv_nsec, refresh_cycle,
// sequence_hi, sequence_lo, flags} tuple sent for a presented feedback
// token (§4.2). The compositor never sets HW_COMPLETION because it
// signals at latch-time rather than true scan-out completion.
type PresentedTiming struct {
	TvSecHi, TvSecLo uint32
	TvNsec           uint32
	RefreshCycleNs   uint32
	SequenceHi       uint32
	SequenceLo       uint32
	Flags            PresentationFlags
}

// ReadyNudge is called by Commit when the new Commit is already ready at
// commit time, so the owner can signal the compositor-thread eventfd
// (§4.1 point 4). A Commit that becomes ready later, when its acquire
// timeline point is signalled, does not trigger it.
type ReadyNudge func(h Handle)

// Registry implements commit/destroy/feedback bookkeeping for every
// live client surface. All mutating methods are server-thread only and
// expected to run under the caller's wlserver lock.
type Registry struct {
	mu       sync.Mutex
	surfaces map[Handle]*State
	maxQueue int
	nudge    ReadyNudge
	reactor  *reactor.Reactor
}

// New creates an empty Registry. r may be nil in tests that never
// exercise explicit-sync waiting.
func New(r *reactor.Reactor, maxQueue int, nudge ReadyNudge) *Registry {
	if maxQueue <= 0 {
		maxQueue = MaxQueueDefault
	}
	return &Registry{
		surfaces: make(map[Handle]*State),
		maxQueue: maxQueue,
		nudge:    nudge,
		reactor:  r,
	}
}

// Ensure returns the State for h, creating it if this is the first time
// h is seen (e.g. on CreateNotify-equivalent registration).
func (r *Registry) Ensure(h Handle) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[h]
	if !ok {
		s = newState(h)
		r.surfaces[h] = s
	}
	return s
}

func (r *Registry) Get(h Handle) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[h]
	return s, ok
}

// Commit builds a Commit for buf against surface h and enqueues it
// (§4.1, §4.2). acquire/release are nil for implicit sync. It enforces
// the duplicate-elimination rule: a pending commit referencing the same
// buffer is superseded and its feedbacks discarded.
func (r *Registry) Commit(h Handle, buf *wlcommit.Buffer, acquire, release *wlcommit.SyncPoint, fifo, async bool) (*wlcommit.Commit, error) {
	s := r.Ensure(h)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil, fmt.Errorf("surface: commit on destroyed surface %d", h)
	}
	prevPending := s.pending
	s.mu.Unlock()

	if prevPending != nil && prevPending.Buffer() == buf && prevPending.Status() != wlcommit.StatusDisplayed {
		prevPending.Discard()
	}

	c := wlcommit.New(buf, acquire, release, fifo, async)

	s.mu.Lock()
	s.pending = c
	s.doneQueue = append(s.doneQueue, c)
	if len(s.doneQueue) > r.maxQueue {
		// Drop the oldest unready/ready-but-unpresented entries beyond the
		// configured depth, discarding their feedback (§8 invariant).
		overflow := len(s.doneQueue) - r.maxQueue
		for i := 0; i < overflow; i++ {
			s.doneQueue[i].Discard()
		}
		s.doneQueue = s.doneQueue[overflow:]
	}
	s.mu.Unlock()

	if c.Ready() {
		if r.nudge != nil {
			r.nudge(h)
		}
	} else if r.reactor != nil {
		// A real explicit-sync deployment would register an eventfd waiter
		// with the reactor here (§4.1 point 4); the in-process Timeline
		// already wakes Commit.Ready() via its waiter channel, so no extra
		// registration is required in this port.
	}

	return c, nil
}

// SetSwapchainFeedback implements set_swapchain_feedback (§4.2, §6).
func (r *Registry) SetSwapchainFeedback(h Handle, f SwapchainFeedback) {
	s := r.Ensure(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = &f
}

// LastSwapchainFeedback implements the get_last_swapchain_feedback side
// of the round-trip law (§8).
func (r *Registry) LastSwapchainFeedback(h Handle) (SwapchainFeedback, bool) {
	s, ok := r.Get(h)
	if !ok {
		return SwapchainFeedback{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedback == nil {
		return SwapchainFeedback{}, false
	}
	return *s.feedback, true
}

// SetHDRMetadata implements set_hdr_metadata (§4.2).
func (r *Registry) SetHDRMetadata(h Handle, meta HDRMetadata) {
	s := r.Ensure(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedback == nil {
		s.feedback = &SwapchainFeedback{}
	}
	s.feedback.HDRMetadataBlob = &meta
}

// SetPresentMode implements set_present_mode (§4.2, §6).
func (r *Registry) SetPresentMode(h Handle, mode PresentMode) {
	s := r.Ensure(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentMode = mode
}

// PresentMode returns the surface's current present mode.
func (r *Registry) PresentMode(h Handle) PresentMode {
	s, ok := r.Get(h)
	if !ok {
		return PresentModeFifo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentMode
}

// Presented implements the presented() timing callback of §4.2: for
// each still-pending feedback of commit c, emit a PresentedTiming tuple
// and mark the token presented.
func (r *Registry) Presented(h Handle, c *wlcommit.Commit, lastVblankNs, refreshCycleNs uint64) []PresentedTiming {
	s, ok := r.Get(h)
	if !ok {
		return nil
	}
	s.mu.Lock()
	seq := s.nextPresentSeq()
	s.mu.Unlock()

	sec := lastVblankNs / 1_000_000_000
	nsec := uint32(lastVblankNs % 1_000_000_000)

	var out []PresentedTiming
	for _, f := range c.Feedbacks() {
		if !f.MarkPresented() {
			continue
		}
		out = append(out, PresentedTiming{
			TvSecHi:        uint32(sec >> 32),
			TvSecLo:        uint32(sec),
			TvNsec:         nsec,
			RefreshCycleNs: uint32(refreshCycleNs),
			SequenceHi:     uint32(seq >> 32),
			SequenceLo:     uint32(seq),
			Flags:          FlagVSync | FlagHWClock | FlagZeroCopy,
		})
	}
	return out
}

// Destroy tears down surface h: every still-locked buffer is unlocked
// (released), outstanding feedbacks are discarded, and the registry
// entry is removed (§4.2, §8 round-trip law).
func (r *Registry) Destroy(h Handle) {
	r.mu.Lock()
	s, ok := r.surfaces[h]
	if ok {
		delete(r.surfaces, h)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	s.destroyed = true
	pending := append([]*wlcommit.Commit{}, s.doneQueue...)
	current := s.current
	s.doneQueue = nil
	s.current = nil
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		c.Discard()
		c.Release()
	}
	if current != nil {
		current.Discard()
		current.Release()
	}
}
