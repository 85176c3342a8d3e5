// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conn_test

import (
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kvnode/conn"
	"code.hybscloud.com/kvnode/handler"
	"code.hybscloud.com/kvnode/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), "\n", ""))
	require.NoError(t, err)
	return b
}

// scriptedConn is a hand-scripted conn.Conn fake: each Read call pops the
// next chunk off its queue, returning iox.ErrWouldBlock once the queue is
// drained, and each Write call accepts at most writeCap bytes, returning
// iox.ErrWouldBlock for the rest — the same contract a non-blocking socket
// gives a reactor.
// A small scripted fake is preferred here over a mock framework, one
// scripted io.Reader/io.Writer call at a time.
type scriptedConn struct {
	readQueue  [][]byte
	writeCount int
	writeCap   int // max bytes accepted per Write call; 0 = unlimited
	written    []byte
	closed     bool
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if len(c.readQueue) == 0 {
		return 0, iox.ErrWouldBlock
	}
	chunk := c.readQueue[0]
	c.readQueue = c.readQueue[1:]
	n := copy(p, chunk)
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.writeCount++
	n := len(p)
	if c.writeCap > 0 && n > c.writeCap {
		n = c.writeCap
	}
	c.written = append(c.written, p[:n]...)
	if n < len(p) {
		return n, iox.ErrWouldBlock
	}
	return n, nil
}

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, string)       {}
func (noopLogger) Warn(string, string, error) {}

func newTestHandler() *handler.Handler {
	repo := store.NewMemory(1)
	repo.CreateStore("s")
	return handler.New(repo, store.NewErrorCodeMapper())
}

func TestConnectionStartsInReadingState(t *testing.T) {
	c := conn.New("test-1", &scriptedConn{}, newTestHandler(), noopLogger{})
	assert.Equal(t, conn.Reading, c.State())
}

// A GET against an empty store produces a complete response in one
// OnReadable/OnWritable round trip, and the connection returns to Reading.
func TestRequestResponseRoundTrip(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 00000003 6B6579")
	raw := &scriptedConn{readQueue: [][]byte{req}}
	c := conn.New("test-2", raw, newTestHandler(), noopLogger{})

	require.NoError(t, c.OnReadable())
	assert.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	assert.Equal(t, conn.Reading, c.State())

	assert.Equal(t, hexBytes(t, "0000 00000000"), raw.written)
}

// A request split across two separate reads (the socket delivers the tail
// on a later readiness event) is still framed and handled correctly once
// complete.
func TestRequestSplitAcrossReads(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 00000003 6B6579")
	raw := &scriptedConn{readQueue: [][]byte{req[:5]}}
	c := conn.New("test-3", raw, newTestHandler(), noopLogger{})

	require.NoError(t, c.OnReadable())
	assert.Equal(t, conn.Reading, c.State(), "first chunk alone is incomplete")

	raw.readQueue = append(raw.readQueue, req[5:])
	require.NoError(t, c.OnReadable())
	assert.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	assert.Equal(t, hexBytes(t, "0000 00000000"), raw.written)
}

// Two requests pipelined into a single read are handled one at a time, in
// order, each producing its own flush before the next is drained —
// preserving per-connection response ordering.
func TestPipelinedRequestsHandledInOrder(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 00000003 6B6579")
	both := append(append([]byte(nil), req...), req...)
	raw := &scriptedConn{readQueue: [][]byte{both}}
	c := conn.New("test-4", raw, newTestHandler(), noopLogger{})

	require.NoError(t, c.OnReadable())
	assert.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	// OnWritable drains the pipelined second request immediately rather
	// than waiting for another readiness event.
	assert.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	assert.Equal(t, conn.Reading, c.State())

	oneResponse := hexBytes(t, "0000 00000000")
	assert.Equal(t, append(append([]byte(nil), oneResponse...), oneResponse...), raw.written)
}

// A write that the socket only partially accepts leaves the connection in
// Writing, and a subsequent OnWritable call finishes the flush.
func TestPartialWriteResumes(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 00000003 6B6579")
	raw := &scriptedConn{readQueue: [][]byte{req}, writeCap: 3}
	c := conn.New("test-5", raw, newTestHandler(), noopLogger{})

	require.NoError(t, c.OnReadable())
	require.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	assert.Equal(t, conn.Writing, c.State(), "only 3 of 6 response bytes accepted")

	raw.writeCap = 0
	require.NoError(t, c.OnWritable())
	assert.Equal(t, conn.Reading, c.State())
	assert.Equal(t, hexBytes(t, "0000 00000000"), raw.written)
}

// A structurally impossible frame (negative length prefix) closes the
// connection instead of waiting for bytes that can never arrive.
func TestMalformedFrameClosesConnection(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 FFFFFFFF")
	raw := &scriptedConn{readQueue: [][]byte{req}}
	c := conn.New("test-6", raw, newTestHandler(), noopLogger{})

	err := c.OnReadable()
	assert.Error(t, err)
	assert.Equal(t, conn.Closed, c.State())
	assert.True(t, raw.closed)
}

// An unknown opcode is a handler-level protocol violation: the handler
// returns an error, and the connection closes.
func TestUnknownOpcodeClosesConnection(t *testing.T) {
	req := hexBytes(t, "FF 0001 73 00")
	raw := &scriptedConn{readQueue: [][]byte{req}}
	c := conn.New("test-7", raw, newTestHandler(), noopLogger{})

	err := c.OnReadable()
	assert.Error(t, err)
	assert.Equal(t, conn.Closed, c.State())
}

// EOF observed only after a complete request was already buffered does not
// drop that request's response; the connection closes only after draining.
func TestEOFAfterCompleteRequestStillRespondsBeforeClosing(t *testing.T) {
	req := hexBytes(t, "01 0001 73 00 00000003 6B6579")
	raw := &eofAfterConn{scriptedConn: scriptedConn{readQueue: [][]byte{req}}}
	c := conn.New("test-8", raw, newTestHandler(), noopLogger{})

	require.NoError(t, c.OnReadable())
	assert.Equal(t, conn.Writing, c.State())

	require.NoError(t, c.OnWritable())
	assert.Equal(t, hexBytes(t, "0000 00000000"), raw.written)
	assert.Equal(t, conn.Closed, c.State(), "closes once the EOF'd request is fully drained")
	assert.True(t, raw.closed)
}

// eofAfterConn returns io.EOF as soon as its scripted queue is drained,
// instead of iox.ErrWouldBlock, modeling a peer that half-closes right
// after sending its final request.
type eofAfterConn struct{ scriptedConn }

func (c *eofAfterConn) Read(p []byte) (int, error) {
	if len(c.readQueue) == 0 {
		return 0, io.EOF
	}
	return c.scriptedConn.Read(p)
}

func TestOnReadableAfterCloseReturnsErrClosed(t *testing.T) {
	raw := &scriptedConn{}
	c := conn.New("test-9", raw, newTestHandler(), noopLogger{})
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.OnReadable(), conn.ErrClosed)
	assert.ErrorIs(t, c.OnWritable(), conn.ErrClosed)
}
