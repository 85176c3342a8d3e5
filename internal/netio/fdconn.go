// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package netio bridges net.TCPConn, which Go's runtime netpoller already
// owns, onto the raw non-blocking file descriptor conn.Connection and
// package reactor need so that readiness is driven by epoll directly,
// with one goroutine per reactor shard rather than one per connection.
package netio

import (
	"fmt"
	"io"
	"net"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

// FDConn is a conn.Conn backed directly by a raw, non-blocking socket
// file descriptor. FromTCPConn detaches it from Go's runtime
// netpoller so the reactor's epoll instance is the only thing watching it.
type FDConn struct {
	fd int
}

// FromTCPConn duplicates the file descriptor behind tc, puts the
// duplicate into non-blocking mode, and closes Go's managed copy — the
// standard technique non-blocking reactors use to take raw ownership of a
// socket net.Listener.Accept already handed to the runtime poller.
func FromTCPConn(tc *net.TCPConn) (*FDConn, error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("netio: SyscallConn: %w", err)
	}

	var dupFD int
	var dupErr error
	err = raw.Control(func(fd uintptr) {
		dupFD, dupErr = unix.Dup(int(fd))
	})
	if err != nil {
		return nil, fmt.Errorf("netio: Control: %w", err)
	}
	if dupErr != nil {
		return nil, fmt.Errorf("netio: dup: %w", dupErr)
	}

	if err := unix.SetNonblock(dupFD, true); err != nil {
		_ = unix.Close(dupFD)
		return nil, fmt.Errorf("netio: set nonblocking: %w", err)
	}

	_ = tc.Close() // the duplicate keeps the underlying socket alive

	return &FDConn{fd: dupFD}, nil
}

// FD returns the underlying descriptor for reactor registration.
func (c *FDConn) FD() int { return c.fd }

// Read implements conn.Conn: EAGAIN/EWOULDBLOCK surfaces as
// iox.ErrWouldBlock rather than blocking, the same contract
// code.hybscloud.com/framer's non-blocking transports give it.
func (c *FDConn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	if n == 0 {
		// An orderly shutdown on a stream socket reads 0 bytes with no
		// error; conn.Connection treats that the same as any other
		// io.Reader's EOF.
		return 0, io.EOF
	}
	return n, nil
}

// Write implements conn.Conn.
func (c *FDConn) Write(p []byte) (int, error) {
	n, err := unix.Write(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return n, iox.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

// Close implements conn.Conn.
func (c *FDConn) Close() error {
	return unix.Close(c.fd)
}
