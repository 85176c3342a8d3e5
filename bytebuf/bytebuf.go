// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bytebuf adapts a fixed-capacity byte slice to the sequential
// read/write surfaces the wire codec and request framer need.
//
// A Buffer is always in exactly one of two modes: write mode, where bytes
// accumulate at the write cursor and Bytes exposes the live tail for a
// socket read to fill; or read mode, entered by calling Flip, where the
// write cursor becomes a fixed limit and a separate read cursor walks the
// bytes written so far. Two explicit cursors, rather than a single mutable
// mode flag, so a caller can never observe a buffer that is in the wrong
// mode for what it is about to do with it.
package bytebuf

import "io"

// Buffer is a growable-free, fixed-capacity byte buffer with independent
// read and write cursors. The zero value is not usable; use New.
type Buffer struct {
	buf []byte
	r   int // read cursor, valid in read mode: buf[r:w] is unconsumed
	w   int // write cursor in write mode; read limit in read mode
}

// New returns a Buffer backed by a freshly allocated slice of the given
// capacity. capacity bounds any single request or response; growing past
// it is a protocol violation the caller (conn.Connection) must detect, not
// something Buffer silently accommodates.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Reset discards any buffered content and returns the Buffer to write mode
// starting at offset 0.
func (b *Buffer) Reset() {
	b.r = 0
	b.w = 0
}

// Flip switches the Buffer from write mode to read mode: the bytes written
// so far, buf[0:w), become exactly the readable region, and the read
// cursor starts at 0, so [position, limit) is exactly the bytes a caller
// just wrote — nothing stale and nothing missing.
func (b *Buffer) Flip() {
	b.r = 0
}

// Compact shifts the unconsumed tail buf[r:w) (bytes read by the socket but
// not yet claimed by a complete frame) down to offset 0 and returns the
// buffer to write mode with the write cursor positioned right after the
// shifted bytes. This is how a pipelined next request's bytes, read in the
// same socket read as the prior complete frame, survive instead of being
// discarded.
func (b *Buffer) Compact() {
	tail := b.w - b.r
	if tail > 0 && b.r > 0 {
		copy(b.buf[:tail], b.buf[b.r:b.w])
	}
	b.r = 0
	b.w = tail
}

// WriteSpace returns the unused tail of the backing slice available for a
// socket read to fill, b.buf[w:cap]. The caller advances the write cursor
// with Advance after consuming some of it.
func (b *Buffer) WriteSpace() []byte {
	return b.buf[b.w:]
}

// Advance moves the write cursor forward by n bytes just placed into
// WriteSpace(), e.g. by a socket Read call.
func (b *Buffer) Advance(n int) {
	b.w += n
}

// Unread returns the bytes not yet consumed from the read cursor onward:
// buf[r:w) in read mode, or the full written region in write mode — used by
// the request framer, which inspects the bytes accumulated so far starting
// at offset 0, before the buffer is ever flipped.
func (b *Buffer) Unread() []byte {
	return b.buf[b.r:b.w]
}

// Len reports the number of unconsumed bytes.
func (b *Buffer) Len() int { return b.w - b.r }

// Cap reports the fixed total capacity.
func (b *Buffer) Cap() int { return cap(b.buf) }

// Full reports whether the write cursor has reached capacity: a socket
// read can make no further progress until the buffer is reset or compacted.
func (b *Buffer) Full() bool { return b.w >= cap(b.buf) }

// Bytes exposes the live backing slice directly so the socket layer can
// read into or write from it with no intermediate copy.
func (b *Buffer) Bytes() []byte { return b.buf }

// Read implements io.Reader over the unconsumed region, yielding io.EOF
// (not a blocking wait) once the read cursor reaches the write cursor, so
// the wire codec can decode sequentially from a framed request with the
// same io.Reader contract it would get from any other in-memory reader.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.r >= b.w {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	if b.r >= b.w {
		return 0, io.EOF
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// Write implements io.Writer, appending to the write cursor. It fails with
// io.ErrShortWrite rather than growing the backing slice: capacity is fixed
// at construction and is assumed to bound any single request or response.
func (b *Buffer) Write(p []byte) (int, error) {
	space := cap(b.buf) - b.w
	if len(p) > space {
		n := copy(b.buf[b.w:], p)
		b.w += n
		return n, io.ErrShortWrite
	}
	n := copy(b.buf[b.w:], p)
	b.w += n
	return n, nil
}
