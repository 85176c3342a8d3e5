// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"code.hybscloud.com/kvnode/framing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), "\n", ""))
	require.NoError(t, err)
	return b
}

// GET request for store "s", not routed, key="key".
func getRequestHex() string { return "01 0001 73 00 00000003 6B6579" }

func TestFramerPrefixesAreIncomplete(t *testing.T) {
	full := hexBytes(t, getRequestHex())
	for n := 0; n < len(full); n++ {
		res := framing.Frame(full[:n])
		assert.Equalf(t, framing.Incomplete, res.Status, "prefix length %d", n)
	}
}

func TestFramerExactRequestIsComplete(t *testing.T) {
	full := hexBytes(t, getRequestHex())
	res := framing.Frame(full)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(full), res.N)
}

func TestFramerTrailingBytesStillReportExactLength(t *testing.T) {
	full := hexBytes(t, getRequestHex())
	withExtra := append(append([]byte(nil), full...), []byte("EXTRA")...)
	res := framing.Frame(withExtra)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(full), res.N)
}

func TestFramerGetAllMultipleKeys(t *testing.T) {
	// GET_ALL, store "s", not routed, n=2, key="a", key="bb"
	b := hexBytes(t, "02 0001 73 00  00000002  00000001 61  00000002 6262")
	res := framing.Frame(b)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(b), res.N)
}

func TestFramerPutFrame(t *testing.T) {
	// scenario #3: PUT key="key", dataSize=6, clock=3B, value="ABC"
	b := hexBytes(t, "03 0001 73 00  00000003 6B6579  00000006  0001FF  414243")
	res := framing.Frame(b)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(b), res.N)
}

func TestFramerDeleteFrame(t *testing.T) {
	// scenario #4: DELETE key="key", versionSize=3, version=0001FF
	b := hexBytes(t, "04 0001 73 00  00000003 6B6579  0003 0001FF")
	res := framing.Frame(b)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(b), res.N)
}

func TestFramerNegativeLengthIsMalformed(t *testing.T) {
	// GET with a negative key length (0xFFFFFFFF == -1 as i32).
	b := hexBytes(t, "01 0001 73 00  FFFFFFFF")
	res := framing.Frame(b)
	assert.Equal(t, framing.Malformed, res.Status)
}

func TestFramerUnknownOpcodeFramesAtCurrentPosition(t *testing.T) {
	// opcode 0xFF, store "s", not routed: framer has nothing more to
	// skip so it reports Complete at the current cursor; the handler
	// rejects the opcode itself.
	b := hexBytes(t, "FF 0001 73 00")
	res := framing.Frame(b)
	require.Equal(t, framing.Complete, res.Status)
	assert.Equal(t, len(b), res.N)
}

func TestFramerNeverReadsPastBounds(t *testing.T) {
	// Random/garbage byte strings never panic and always resolve to one
	// of the three statuses.
	garbage := [][]byte{
		nil,
		{0x01},
		{0x03, 0x00, 0x01},
		hexBytes(t, "02 00FF"),
		hexBytes(t, "01 0001 73 00 000000FF"),
	}
	for _, g := range garbage {
		res := framing.Frame(g)
		assert.Contains(t, []framing.Status{framing.Incomplete, framing.Complete, framing.Malformed}, res.Status)
	}
}

func TestFramerTwoConcatenatedGetsSplitInOrder(t *testing.T) {
	one := hexBytes(t, getRequestHex())
	two := append(append([]byte(nil), one...), one...)

	first := framing.Frame(two)
	require.Equal(t, framing.Complete, first.Status)
	require.Equal(t, len(one), first.N)

	second := framing.Frame(two[first.N:])
	require.Equal(t, framing.Complete, second.Status)
	assert.Equal(t, len(one), second.N)
}
