// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reactor implements the readiness-event loop that drives
// conn.Connection: a thin wrapper over Linux epoll. Each Reactor is
// single-threaded — one goroutine owns it, waits on it, and dispatches its
// events, so connections sharing a Reactor never need locking against each
// other — and reports readability/writability to a caller-supplied Handler
// rather than owning any connection state itself.
package reactor

// Event is the readiness notification the reactor reports for one
// registered file descriptor.
type Event struct {
	FD       int
	Readable bool
	Writable bool
	Err      bool // the descriptor hit an error condition (EPOLLERR/EPOLLHUP)
}

// Handler reacts to one fd's readiness. Reactor.Wait calls OnEvent once per
// reported Event per Wait cycle; it never calls two Handlers concurrently
// for the same shard, so a Handler implementation needs no locking of its
// own.
type Handler interface {
	OnEvent(ev Event)
}

// Reactor is the non-blocking readiness multiplexer this package's
// platform-specific file (epoll_linux.go) implements. Interest is
// level-triggered: a registered fd stays of interest until explicitly
// modified or removed, so a Handler re-registers interest after each event
// rather than relying on edge-triggered one-shot notifications.
type Reactor interface {
	// Add registers fd for the given interest (readable/writable). Events
	// for it carry only the fd; no user data is attached.
	Add(fd int, readable, writable bool) error
	// Modify changes fd's registered interest.
	Modify(fd int, readable, writable bool) error
	// Remove deregisters fd. The caller still owns closing the underlying
	// socket.
	Remove(fd int) error
	// Wait blocks (up to timeoutMillis, or indefinitely if negative) for at
	// least one ready fd, then calls h.OnEvent once per ready fd before
	// returning. Returns promptly with no error and no calls to h if the
	// wait times out.
	Wait(h Handler, timeoutMillis int) error
	// Close releases the underlying epoll descriptor.
	Close() error
}
