// Package reactor implements the epoll-based event loop primitive shared
// by the server thread, the compositor thread, and the commit-wait
// threads (gamescope's waitable.h IWaitable abstraction).
package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Waitable is anything that can be registered with a Reactor: it owns a
// pollable fd and reacts to readability or hang-up.
type Waitable interface {
	GetFD() int
	OnPollIn()
	OnPollHangUp()
}

// Reactor wraps a single epoll instance. It is not safe for concurrent
// Wait calls from multiple goroutines; each owning thread (server,
// compositor, commit-wait) runs its own Reactor.
type Reactor struct {
	epfd      int
	waitables map[int]Waitable
}

// New creates a Reactor backed by a fresh epoll instance.
func New() (*Reactor, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &Reactor{
		epfd:      fd,
		waitables: make(map[int]Waitable),
	}, nil
}

// Add registers w for readability and hang-up notifications.
func (r *Reactor) Add(w Waitable) error {
	fd := w.GetFD()
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLHUP | unix.EPOLLERR,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add fd %d: %w", fd, err)
	}
	r.waitables[fd] = w
	return nil
}

// Remove deregisters w. It is a no-op if w was never added.
func (r *Reactor) Remove(w Waitable) error {
	fd := w.GetFD()
	if _, ok := r.waitables[fd]; !ok {
		return nil
	}
	delete(r.waitables, fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("reactor: epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Wait blocks until at least one registered waitable is ready, or
// timeoutMs elapses (-1 blocks indefinitely), dispatching OnPollIn /
// OnPollHangUp for each ready fd.
func (r *Reactor) Wait(timeoutMs int) error {
	var events [32]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("reactor: epoll_wait: %w", err)
	}
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		w, ok := r.waitables[fd]
		if !ok {
			continue
		}
		if events[i].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			w.OnPollHangUp()
			continue
		}
		if events[i].Events&unix.EPOLLIN != 0 {
			w.OnPollIn()
		}
	}
	return nil
}

// Close releases the underlying epoll fd.
func (r *Reactor) Close() error {
	return unix.Close(r.epfd)
}
