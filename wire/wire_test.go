// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire_test

import (
	"testing"

	"code.hybscloud.com/kvnode/bytebuf"
	"code.hybscloud.com/kvnode/store"
	"code.hybscloud.com/kvnode/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	b := bytebuf.New(32)
	require.NoError(t, wire.WriteU8(b, 0xAB))
	require.NoError(t, wire.WriteI16(b, -1))
	require.NoError(t, wire.WriteI32(b, 123456))
	b.Flip()

	u8, err := wire.ReadU8(b)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	i16, err := wire.ReadI16(b)
	require.NoError(t, err)
	assert.Equal(t, int16(-1), i16)

	i32, err := wire.ReadI32(b)
	require.NoError(t, err)
	assert.Equal(t, int32(123456), i32)
}

func TestUTFRoundTrip(t *testing.T) {
	b := bytebuf.New(32)
	require.NoError(t, wire.WriteUTF(b, "s"))
	b.Flip()
	s, err := wire.ReadUTF(b)
	require.NoError(t, err)
	assert.Equal(t, "s", s)
}

func TestKeyRoundTrip(t *testing.T) {
	b := bytebuf.New(32)
	key := store.NewKey([]byte("key"))
	require.NoError(t, wire.WriteKey(b, key))
	b.Flip()
	got, err := wire.ReadKey(b)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))
}

func TestShortBufferOnTruncatedRead(t *testing.T) {
	b := bytebuf.New(32)
	require.NoError(t, wire.WriteI32(b, 10)) // claims 10 bytes follow
	_, _ = b.Write([]byte("abc"))            // only 3 actually present
	b.Flip()
	_, err := wire.ReadBlob(b)
	assert.ErrorIs(t, err, wire.ErrShortBuffer)
}

func TestMalformedOnNegativeLength(t *testing.T) {
	b := bytebuf.New(32)
	require.NoError(t, wire.WriteI32(b, -1))
	b.Flip()
	_, err := wire.ReadBlob(b)
	assert.ErrorIs(t, err, wire.ErrMalformedFrame)
}

func TestVersionedValueRoundTrip(t *testing.T) {
	b := bytebuf.New(64)
	vc := store.NewVectorClock(1, 1, 1)
	vv := store.VersionedValue{Clock: vc, Value: store.NewValue([]byte("ABC"))}
	require.NoError(t, wire.WriteVersionedValue(b, vv))
	b.Flip()

	got, err := wire.ReadVersionedValue(b)
	require.NoError(t, err)
	assert.Equal(t, vc.Bytes(), got.Clock.Bytes())
	assert.Equal(t, []byte("ABC"), got.Value.Bytes())
}

func TestVersionedValueListRoundTrip(t *testing.T) {
	b := bytebuf.New(256)
	vc := store.NewVectorClock(1, 1, 1)
	list := []store.VersionedValue{
		{Clock: vc, Value: store.NewValue([]byte("A"))},
		{Clock: vc, Value: store.NewValue([]byte("BB"))},
	}
	require.NoError(t, wire.WriteVersionedValueList(b, list))
	b.Flip()

	got, err := wire.ReadVersionedValueList(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("A"), got[0].Value.Bytes())
	assert.Equal(t, []byte("BB"), got[1].Value.Bytes())
}

func TestEmptyVersionedValueList(t *testing.T) {
	b := bytebuf.New(16)
	require.NoError(t, wire.WriteVersionedValueList(b, nil))
	b.Flip()
	got, err := wire.ReadVersionedValueList(b)
	require.NoError(t, err)
	assert.Empty(t, got)
}
