// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epoll is the Linux implementation of Reactor, built directly on
// golang.org/x/sys/unix's epoll_create1/epoll_ctl/epoll_wait bindings —
// the same family of syscalls java.nio.channels.Selector wraps on Linux,
// kept here as a thin, allocation-light loop in the gnet/evio style rather
// than routing through Go's net poller (which hides the fd entirely).
type epoll struct {
	fd     int
	events []unix.EpollEvent
}

// New constructs a Reactor backed by Linux epoll. maxEvents bounds how
// many ready fds a single Wait call can report; 0 selects a sensible
// default.
func New(maxEvents int) (Reactor, error) {
	if maxEvents <= 0 {
		maxEvents = 256
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epoll{fd: fd, events: make([]unix.EpollEvent, maxEvents)}, nil
}

func interestMask(readable, writable bool) uint32 {
	var mask uint32
	if readable {
		mask |= unix.EPOLLIN
	}
	if writable {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func (e *epoll) Add(fd int, readable, writable bool) error {
	ev := unix.EpollEvent{Events: interestMask(readable, writable), Fd: int32(fd)}
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(ADD, %d): %w", fd, err)
	}
	return nil
}

func (e *epoll) Modify(fd int, readable, writable bool) error {
	ev := unix.EpollEvent{Events: interestMask(readable, writable), Fd: int32(fd)}
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(MOD, %d): %w", fd, err)
	}
	return nil
}

func (e *epoll) Remove(fd int) error {
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(DEL, %d): %w", fd, err)
	}
	return nil
}

func (e *epoll) Wait(h Handler, timeoutMillis int) error {
	n, err := unix.EpollWait(e.fd, e.events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("reactor: epoll_wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := e.events[i]
		h.OnEvent(Event{
			FD:       int(ev.Fd),
			Readable: ev.Events&(unix.EPOLLIN|unix.EPOLLHUP) != 0,
			Writable: ev.Events&unix.EPOLLOUT != 0,
			Err:      ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	return nil
}

func (e *epoll) Close() error {
	return unix.Close(e.fd)
}
