package reactor

import (
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"
)

// TimerFD wraps a Linux timerfd on CLOCK_MONOTONIC, used by the frame
// scheduler (C6) to wake the paint loop at an absolute nanosecond
// deadline rather than a relative sleep, so drift does not accumulate.
type TimerFD struct {
	fd int

	// OnExpire, if set, is invoked by OnPollIn after draining the expiry
	// counter.
	OnExpire func()
}

// NewTimerFD creates a non-blocking, close-on-exec monotonic timerfd.
func NewTimerFD() (*TimerFD, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &TimerFD{fd: fd}, nil
}

// GetFD implements Waitable.
func (t *TimerFD) GetFD() int { return t.fd }

// ArmAbsoluteNanos arms a one-shot expiry at the given CLOCK_MONOTONIC
// nanosecond timestamp. A deadline already in the past fires almost
// immediately rather than being silently dropped.
func (t *TimerFD) ArmAbsoluteNanos(deadline int64) error {
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(deadline),
	}
	return unix.TimerfdSettime(t.fd, unix.TFD_TIMER_ABSTIME, &spec, nil)
}

// ArmRelative arms a one-shot expiry d from now.
func (t *TimerFD) ArmRelative(d time.Duration) error {
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	return unix.TimerfdSettime(t.fd, 0, &spec, nil)
}

// Drain reads and discards the expiry counter, returning the number of
// expirations that have occurred since the last Drain.
func (t *TimerFD) Drain() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(t.fd, buf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if n != 8 {
		return 0, nil
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

// Close closes the underlying fd.
func (t *TimerFD) Close() error { return unix.Close(t.fd) }

// OnPollIn implements Waitable: drain the expiry counter and fire OnExpire.
func (t *TimerFD) OnPollIn() {
	if _, err := t.Drain(); err != nil {
		return
	}
	if t.OnExpire != nil {
		t.OnExpire()
	}
}

// OnPollHangUp implements Waitable; a timerfd never hangs up.
func (t *TimerFD) OnPollHangUp() {}

// NowNanos returns the current CLOCK_MONOTONIC time in nanoseconds,
// matching get_time_in_nanos() in the original vblank manager.
func NowNanos() int64 {
	var ts unix.Timespec
	unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	return ts.Nano()
}
