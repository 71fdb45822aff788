package planner

import "github.com/gamescopecore/compositor/internal/wlcommit"

// FadeState is the fade machine's state (§4.8).
type FadeState int

const (
	FadeIdle FadeState = iota
	FadePending
	FadeFading
)

// FadeMachine drives the cross-fade between the previous and new focus's
// base layers on a focus change (§4.8). Its slot is an owning handle to
// a Commit, not a pointer to a Window, so the previous focus's last
// frame survives even if its window is destroyed mid-fade (§9 design
// note).
type FadeMachine struct {
	state    FadeState
	durationNs int64

	prevCommit *wlcommit.Commit
	startNs    int64
}

// NewFadeMachine creates a machine with the configured fade duration (0
// disables fading entirely, per §4.4's "if ... a fade duration > 0 is
// configured").
func NewFadeMachine(durationNs int64) *FadeMachine {
	return &FadeMachine{durationNs: durationNs}
}

// Enabled reports whether fading is configured at all.
func (f *FadeMachine) Enabled() bool { return f.durationNs > 0 }

// OnFocusChanged transitions Idle -> Pending, capturing the previous
// focus's last-displayed Commit into the fade slot (§4.8). prevDisplayed
// may be nil if the previous focus never painted anything.
func (f *FadeMachine) OnFocusChanged(prevDisplayed *wlcommit.Commit) {
	if !f.Enabled() {
		return
	}
	if f.prevCommit != nil {
		f.prevCommit.Unref()
	}
	if prevDisplayed != nil {
		f.prevCommit = prevDisplayed.Ref()
	} else {
		f.prevCommit = nil
	}
	f.state = FadePending
}

// OnNewFocusReady transitions Pending -> Fading once the new focus
// produces its first ready commit, starting the timer from nowNs.
func (f *FadeMachine) OnNewFocusReady(nowNs int64) {
	if f.state == FadePending {
		f.state = FadeFading
		f.startNs = nowNs
	}
}

// Progress returns t/D clamped to [0,1] and whether the fade is still
// active at nowNs. Once t/D reaches 1, the machine returns to Idle and
// releases its captured slot.
func (f *FadeMachine) Progress(nowNs int64) (t float64, active bool) {
	if f.state != FadeFading {
		return 0, false
	}
	elapsed := nowNs - f.startNs
	if elapsed >= f.durationNs {
		f.reset()
		return 1, false
	}
	return float64(elapsed) / float64(f.durationNs), true
}

// Cancel aborts an in-progress fade (e.g. the new focus disappeared
// mid-fade, §5 Cancellation), releasing the captured slot.
func (f *FadeMachine) Cancel() {
	f.reset()
}

func (f *FadeMachine) reset() {
	if f.prevCommit != nil {
		f.prevCommit.Unref()
		f.prevCommit = nil
	}
	f.state = FadeIdle
}

func (f *FadeMachine) State() FadeState { return f.state }

// PreviousCommit returns the captured previous-focus commit, or nil.
func (f *FadeMachine) PreviousCommit() *wlcommit.Commit { return f.prevCommit }
