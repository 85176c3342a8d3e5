// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conn implements the per-connection state machine: non-blocking
// read/handle/write driven entirely by a reactor's readiness notifications,
// never blocking the calling goroutine. It is a small state machine that
// resumes exactly where iox.ErrWouldBlock left off, rather than unwinding
// to re-derive state from scratch on the next readiness event.
package conn

import (
	"errors"
	"fmt"
	"io"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kvnode/bytebuf"
	"code.hybscloud.com/kvnode/framing"
	"code.hybscloud.com/kvnode/handler"
)

// State is the connection's externally-visible phase. A reactor consults
// State after every OnReadable/OnWritable call to decide which interest
// (read-ready or write-ready, never both) to register for next.
type State uint8

const (
	// Reading: the connection wants read-ready events. It has no response
	// pending and is accumulating bytes toward the next complete request.
	Reading State = iota
	// Writing: the connection wants write-ready events. A response (or a
	// partially-drained one) is queued and must be flushed before another
	// request is read, preserving per-connection request ordering:
	// responses are emitted in the order their requests completed.
	Writing
	// Closed: the connection is done. The reactor should deregister and
	// release it.
	Closed
)

// ErrClosed is returned by OnReadable/OnWritable once a Connection has
// transitioned to Closed; calling either again is a caller bug.
var ErrClosed = errors.New("conn: connection closed")

// Conn is the minimal non-blocking transport a Connection drives. A raw
// socket wrapped by code.hybscloud.com/iox (or any io.ReadWriteCloser that
// surfaces iox.ErrWouldBlock/iox.ErrMore instead of blocking) satisfies it.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Connection is one client socket's framing + handling state: a
// goroutine-free, single-threaded-per-shard state machine that the
// reactor drives by calling OnReadable/OnWritable whenever epoll reports
// this socket ready. It never blocks: every I/O call either makes progress
// or returns iox.ErrWouldBlock, at which point control returns to the
// reactor immediately.
type Connection struct {
	id     string
	raw    Conn
	h      *handler.Handler
	logger connLogger

	in  *bytebuf.Buffer
	out *bytebuf.Buffer

	state State

	// pending tracks a framed request already measured complete within in
	// but not yet handled, so a reactor retry after a short read never
	// re-runs framing.Frame over bytes it already measured.
	pendingLen int
	hasPending bool

	// eofSeen records that the peer half-closed its write side. The
	// connection still drains and responds to whatever was already
	// buffered before closing (see the eof handling in OnReadable).
	eofSeen bool
}

// connLogger is the narrow slice of zerolog's event-builder API Connection
// needs, kept as an interface so tests can assert on logged events without
// pulling in a real zerolog.Logger (see conn_test.go's stub).
type connLogger interface {
	Debug(id string, msg string)
	Warn(id string, msg string, err error)
}

// New constructs a Connection over raw, using h to handle each framed
// request. id is an opaque connection identifier (cmd/kvnode mints one
// per accepted socket via shortuuid).
func New(id string, raw Conn, h *handler.Handler, logger connLogger, opts ...Option) *Connection {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Connection{
		id:     id,
		raw:    raw,
		h:      h,
		logger: logger,
		in:     bytebuf.New(o.bufferCapacity),
		out:    bytebuf.New(o.bufferCapacity),
		state:  Reading,
	}
}

// ID returns this connection's identifier.
func (c *Connection) ID() string { return c.id }

// State reports the connection's current interest.
func (c *Connection) State() State { return c.state }

// OnReadable is called by the reactor when the socket is readable. It reads
// as many bytes as are immediately available into the input buffer (until
// iox.ErrWouldBlock or the buffer is full), then frames and handles at most
// one complete request, queuing its response and moving to Writing — a
// connection never holds more than one unflushed response at a time.
func (c *Connection) OnReadable() error {
	if c.state == Closed {
		return ErrClosed
	}
	if c.state != Reading {
		return nil
	}

	// Some peers signal EOF only after a final readable request, so closing
	// the moment EOF is observed would drop that request's response. Defer
	// the close until whatever was already buffered is fully drained, which
	// may span this call and the OnWritable call that follows it.
readLoop:
	for {
		n, err := c.raw.Read(c.in.WriteSpace())
		if n > 0 {
			c.in.Advance(n)
		}
		switch {
		case err == nil:
			if n == 0 {
				break readLoop
			}
		case errors.Is(err, iox.ErrWouldBlock), errors.Is(err, iox.ErrMore):
			break readLoop
		case errors.Is(err, io.EOF):
			c.eofSeen = true
			break readLoop
		default:
			c.logger.Warn(c.id, "read failed", err)
			c.close()
			return err
		}
		if c.in.Full() {
			if !c.hasPending && framing.Frame(c.in.Unread()).Status == framing.Incomplete {
				// No framed request fits in the configured buffer capacity.
				// Treated as a fatal per-connection condition rather than
				// silently growing the buffer — bytebuf never grows.
				c.logger.Warn(c.id, "request exceeds buffer capacity", io.ErrShortBuffer)
				c.close()
				return io.ErrShortBuffer
			}
			break readLoop
		}
	}

	if err := c.drainOneRequest(); err != nil {
		return err
	}
	c.closeIfDrainedAfterEOF()
	return nil
}

// closeIfDrainedAfterEOF closes the connection once the peer has half-closed
// and every request it sent has been fully handled and flushed.
func (c *Connection) closeIfDrainedAfterEOF() {
	if c.eofSeen && c.state == Reading && c.in.Len() == 0 {
		c.close()
	}
}

// drainOneRequest frames and handles at most one request from the bytes
// currently buffered in c.in, queuing its response and flipping to Writing.
// If no complete request is buffered yet, it leaves the connection in
// Reading for the next readiness event.
func (c *Connection) drainOneRequest() error {
	if c.state != Reading {
		return nil
	}

	if !c.hasPending {
		res := framing.Frame(c.in.Unread())
		switch res.Status {
		case framing.Incomplete:
			return nil
		case framing.Malformed:
			c.logger.Warn(c.id, "malformed frame", framing.ErrMalformed)
			c.close()
			return framing.ErrMalformed
		}
		c.pendingLen = res.N
		c.hasPending = true
	}

	frameBytes := make([]byte, c.pendingLen)
	if _, err := io.ReadFull(c.in, frameBytes); err != nil {
		return fmt.Errorf("conn: draining framed request: %w", err)
	}
	// Compact keeps any bytes pipelined after this frame instead of
	// discarding them, so a client that pipelines requests back-to-back
	// never has to retransmit.
	c.in.Compact()

	frame := bytebuf.New(len(frameBytes))
	if _, err := frame.Write(frameBytes); err != nil {
		return err
	}
	frame.Flip()

	c.out.Reset()
	if err := c.h.Handle(frame, c.out); err != nil {
		c.logger.Warn(c.id, "handler fault", err)
		c.close()
		return err
	}
	c.out.Flip()

	c.hasPending = false
	c.pendingLen = 0
	c.state = Writing
	c.logger.Debug(c.id, "request handled")
	return nil
}

// OnWritable is called by the reactor when the socket is writable. It
// flushes as much of the queued response as the socket accepts right now,
// returning to Reading once the whole response has been written so the
// next request (including one already pipelined in c.in) can be handled.
func (c *Connection) OnWritable() error {
	if c.state == Closed {
		return ErrClosed
	}
	if c.state != Writing {
		return nil
	}

	for c.out.Len() > 0 {
		n, err := c.raw.Write(c.out.Unread())
		if n > 0 {
			// Consume the n bytes just written from out's read side.
			_, _ = io.CopyN(io.Discard, c.out, int64(n))
		}
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) || errors.Is(err, iox.ErrMore) {
				return nil
			}
			c.logger.Warn(c.id, "write failed", err)
			c.close()
			return err
		}
		if n == 0 {
			return nil
		}
	}

	c.out.Reset()
	c.state = Reading
	// A pipelined request may already be sitting in c.in; drain it now
	// instead of waiting for another readiness event that may not come
	// soon under light load.
	if err := c.drainOneRequest(); err != nil {
		return err
	}
	c.closeIfDrainedAfterEOF()
	return nil
}

func (c *Connection) close() {
	if c.state == Closed {
		return
	}
	c.state = Closed
	if err := c.raw.Close(); err != nil {
		c.logger.Warn(c.id, "close failed", err)
	}
}

// Close tears the connection down from outside the reactor's readiness
// loop (idle timeout, shutdown).
func (c *Connection) Close() error {
	c.close()
	return nil
}
