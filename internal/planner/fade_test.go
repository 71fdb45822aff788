package planner

import (
	"testing"

	"github.com/gamescopecore/compositor/internal/wlcommit"
)

func TestFadeDisabledWhenDurationZero(t *testing.T) {
	f := NewFadeMachine(0)
	if f.Enabled() {
		t.Fatal("a zero duration must disable fading")
	}
	f.OnFocusChanged(wlcommit.New(&wlcommit.Buffer{}, nil, nil, true, false))
	if f.State() != FadeIdle {
		t.Fatalf("expected a disabled fade machine to stay idle, got %v", f.State())
	}
}

func TestFadeLifecycleIdleToPendingToFadingToIdle(t *testing.T) {
	f := NewFadeMachine(100)
	prev := wlcommit.New(&wlcommit.Buffer{}, nil, nil, true, false)

	f.OnFocusChanged(prev)
	if f.State() != FadePending {
		t.Fatalf("expected Pending after a focus change, got %v", f.State())
	}
	if f.PreviousCommit() != prev {
		t.Fatal("expected the previous commit to be captured")
	}

	f.OnNewFocusReady(1000)
	if f.State() != FadeFading {
		t.Fatalf("expected Fading once the new focus is ready, got %v", f.State())
	}

	tMid, active := f.Progress(1050)
	if !active || tMid <= 0 || tMid >= 1 {
		t.Fatalf("expected partial progress mid-fade, got t=%v active=%v", tMid, active)
	}

	tEnd, active := f.Progress(1100)
	if active {
		t.Fatal("expected the fade to complete once elapsed reaches the duration")
	}
	if tEnd != 1 {
		t.Fatalf("expected t=1 on completion, got %v", tEnd)
	}
	if f.State() != FadeIdle {
		t.Fatalf("expected the machine to reset to Idle on completion, got %v", f.State())
	}
	if f.PreviousCommit() != nil {
		t.Fatal("expected the captured commit to be released on completion")
	}
}

func TestFadeCancelResetsToIdle(t *testing.T) {
	f := NewFadeMachine(100)
	prev := wlcommit.New(&wlcommit.Buffer{}, nil, nil, true, false)
	f.OnFocusChanged(prev)
	f.OnNewFocusReady(0)

	f.Cancel()

	if f.State() != FadeIdle {
		t.Fatalf("expected Cancel to reset to Idle, got %v", f.State())
	}
	if f.PreviousCommit() != nil {
		t.Fatal("expected Cancel to release the captured commit")
	}
}

func TestFadeOnFocusChangedReplacesPreviousCapture(t *testing.T) {
	f := NewFadeMachine(100)
	first := wlcommit.New(&wlcommit.Buffer{}, nil, nil, true, false)
	second := wlcommit.New(&wlcommit.Buffer{}, nil, nil, true, false)

	f.OnFocusChanged(first)
	f.OnFocusChanged(second)

	if f.PreviousCommit() != second {
		t.Fatalf("expected the latest focus change to own the capture slot, got %+v", f.PreviousCommit())
	}
}
