// Package scheduler implements the frame scheduler / VBlank timer (C6):
// a rolling draw-time estimate and the paint-loop wake-up point,
// grounded on vblankmanager.cpp.
package scheduler

import "github.com/gamescopecore/compositor/internal/reactor"

// Estimate is the VBlank estimate record of §3: {last-vblank timestamp,
// rolling draw-time estimate, red-zone, decay percentage}.
type Estimate struct {
	LastVblankNs    int64
	DrawEstimateNs  int64
	RedZoneNs       int64
	DecayPercentage int // 0-100
}

// DefaultRedZoneNs matches the ~1ms default bias described in §4.5.
const DefaultRedZoneNs = 1_000_000

// DefaultDecayPercentage is a conservative EMA decay.
const DefaultDecayPercentage = 75

// DefaultSettleNs is the dynamic-refresh equality timer default (600ms, §4.5).
const DefaultSettleNs = 600_000_000

// Scheduler predicts the next vblank and schedules the paint wake-up at
// `last-vblank + cycle - (draw-estimate + red-zone)` (§3 invariant).
type Scheduler struct {
	est Estimate

	targetRefreshHz    int
	dynamicRefreshHz    int
	dynamicRequested    bool
	dynamicSince        int64
	settleNs            int64

	timer *reactor.TimerFD
}

// New creates a Scheduler targeting refreshHz, optionally backed by a
// TimerFD for real wake-ups (nil is fine for pure unit testing of the
// math).
func New(refreshHz int, timer *reactor.TimerFD) *Scheduler {
	return &Scheduler{
		est: Estimate{
			RedZoneNs:       DefaultRedZoneNs,
			DecayPercentage: DefaultDecayPercentage,
		},
		targetRefreshHz: refreshHz,
		settleNs:        DefaultSettleNs,
		timer:           timer,
	}
}

func (s *Scheduler) CycleNs() int64 {
	hz := s.effectiveRefreshHz()
	if hz <= 0 {
		hz = 60
	}
	return 1_000_000_000 / int64(hz)
}

func (s *Scheduler) effectiveRefreshHz() int {
	if s.dynamicRequested && s.dynamicRefreshHz > 0 {
		return s.dynamicRefreshHz
	}
	return s.targetRefreshHz
}

// MarkVblank records an observed (or synthesised) vblank timestamp.
func (s *Scheduler) MarkVblank(nowNs int64) {
	s.est.LastVblankNs = nowNs
}

// RecordDrawTime feeds one paint-loop iteration's measured draw time
// into the EMA: `estimate <- max(draw, estimate*decay% + draw*(100-decay%)/100)`.
func (s *Scheduler) RecordDrawTime(drawNs int64) {
	decayed := s.est.DrawEstimateNs*int64(s.est.DecayPercentage)/100 +
		drawNs*int64(100-s.est.DecayPercentage)/100
	if drawNs > decayed {
		s.est.DrawEstimateNs = drawNs
	} else {
		s.est.DrawEstimateNs = decayed
	}
}

// NextWakeNs computes the scheduled wake-up point for the next cycle.
func (s *Scheduler) NextWakeNs() int64 {
	return s.est.LastVblankNs + s.CycleNs() - (s.est.DrawEstimateNs + s.est.RedZoneNs)
}

// RequestDynamicRefresh asks the scheduler to consider reducing the
// target refresh to hz because the focus window is rate-limited. The
// switch only takes effect once the settle timer (default 600ms) has
// elapsed without the request changing, preventing rapid mode flapping
// (§4.5).
func (s *Scheduler) RequestDynamicRefresh(hz int, nowNs int64) {
	if hz == s.dynamicRefreshHz {
		return
	}
	s.dynamicRefreshHz = hz
	s.dynamicRequested = false
	s.dynamicSince = nowNs
}

// Tick lets the settle timer mature; call once per paint-loop iteration.
func (s *Scheduler) Tick(nowNs int64) {
	if s.dynamicRefreshHz > 0 && !s.dynamicRequested && nowNs-s.dynamicSince >= s.settleNs {
		s.dynamicRequested = true
	}
}

// CancelDynamicRefresh reverts to the backend's native target-refresh.
func (s *Scheduler) CancelDynamicRefresh() {
	s.dynamicRefreshHz = 0
	s.dynamicRequested = false
}

// ShouldSkip implements the cancellation rule of §4.5: a wake-up may be
// skipped if no surface produced a new ready commit, no overlay is
// animating, and the fade is inactive.
func (s *Scheduler) ShouldSkip(hasNewCommit, overlayAnimating, fadeActive bool) bool {
	return !hasNewCommit && !overlayAnimating && !fadeActive
}

// Arm schedules the underlying TimerFD (if any) for the next wake.
func (s *Scheduler) Arm() error {
	if s.timer == nil {
		return nil
	}
	return s.timer.ArmAbsoluteNanos(s.NextWakeNs())
}

func (s *Scheduler) Estimate() Estimate { return s.est }

// SetRedZoneNs / SetDecayPercentage expose the GAMESCOPE_TUNEABLE_*
// control properties of §6.
func (s *Scheduler) SetRedZoneNs(ns int64)      { s.est.RedZoneNs = ns }
func (s *Scheduler) SetDecayPercentage(pct int) { s.est.DecayPercentage = pct }
func (s *Scheduler) SetTargetRefreshHz(hz int)  { s.targetRefreshHz = hz }
