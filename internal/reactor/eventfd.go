package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// EventFD wraps a Linux eventfd used as a cross-thread nudge: the server
// thread signals it to wake the compositor thread without a shared
// condition variable.
type EventFD struct {
	fd int

	// OnSignal, if set, is invoked by OnPollIn after draining the
	// counter, letting a registered owner react to the nudge.
	OnSignal func()
}

// NewEventFD creates a non-blocking, close-on-exec eventfd initialised to 0.
func NewEventFD() (*EventFD, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &EventFD{fd: fd}, nil
}

// GetFD implements Waitable.
func (e *EventFD) GetFD() int { return e.fd }

// Signal increments the eventfd counter by one, waking anyone polling it.
func (e *EventFD) Signal() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(e.fd, buf[:])
	return err
}

// Drain reads and discards the pending counter value, re-arming the fd
// for level-triggered epoll.
func (e *EventFD) Drain() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(e.fd, buf[:])
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
func (e *EventFD) Close() error { return unix.Close(e.fd) }

// OnPollIn implements Waitable: drain the counter and fire OnSignal.
func (e *EventFD) OnPollIn() {
	if _, err := e.Drain(); err != nil {
		return
	}
	if e.OnSignal != nil {
		e.OnSignal()
	}
}

// OnPollHangUp implements Waitable; an eventfd never hangs up.
func (e *EventFD) OnPollHangUp() {}
