// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the binary codec primitives the key-value
// protocol's wire format uses: fixed-width big-endian integers,
// length-prefixed byte blobs and UTF-8 strings, and versioned-value
// records. All primitives are big-endian only
// (encoding/binary.BigEndian) and operate over a *bytebuf.Buffer in read
// mode (decode) or write mode (encode). Decoding copies each field's bytes
// out of the buffer.
package wire

import (
	"io"

	"code.hybscloud.com/kvnode/bytebuf"
	"code.hybscloud.com/kvnode/store"
)

// readFull reads exactly n bytes from r, translating a short read into
// ErrShortBuffer: any decode that would read past the provided bounds
// fails this way.
func readFull(r *bytebuf.Buffer, n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrMalformedFrame
	}
	if r.Len() < n {
		return nil, ErrShortBuffer
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrShortBuffer
	}
	return buf, nil
}

// ReadU8 decodes a single unsigned byte.
func ReadU8(r *bytebuf.Buffer) (uint8, error) {
	b, err := readFull(r, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteU8 encodes a single unsigned byte.
func WriteU8(w *bytebuf.Buffer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadI16 decodes a big-endian 16-bit signed integer.
func ReadI16(r *bytebuf.Buffer) (int16, error) {
	b, err := readFull(r, 2)
	if err != nil {
		return 0, err
	}
	return int16(uint16(b[0])<<8 | uint16(b[1])), nil
}

// WriteI16 encodes a big-endian 16-bit signed integer.
func WriteI16(w *bytebuf.Buffer, v int16) error {
	u := uint16(v)
	_, err := w.Write([]byte{byte(u >> 8), byte(u)})
	return err
}

// ReadI32 decodes a big-endian 32-bit signed integer.
func ReadI32(r *bytebuf.Buffer) (int32, error) {
	b, err := readFull(r, 4)
	if err != nil {
		return 0, err
	}
	u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return int32(u), nil
}

// WriteI32 encodes a big-endian 32-bit signed integer.
func WriteI32(w *bytebuf.Buffer, v int32) error {
	u := uint32(v)
	_, err := w.Write([]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
	return err
}

// ReadUTF decodes an i16-length-prefixed UTF-8 string. Store names are the
// only realistic payload here, and they're ASCII in practice, so this
// never needs to distinguish strict UTF-8 from any looser encoding.
func ReadUTF(r *bytebuf.Buffer) (string, error) {
	n, err := ReadI16(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrMalformedFrame
	}
	b, err := readFull(r, int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteUTF encodes an i16-length-prefixed UTF-8 string.
func WriteUTF(w *bytebuf.Buffer, s string) error {
	if len(s) > 1<<15-1 {
		return ErrMalformedFrame
	}
	if err := WriteI16(w, int16(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// ReadKey decodes an i32-length-prefixed key.
func ReadKey(r *bytebuf.Buffer) (store.Key, error) {
	b, err := readBlob(r)
	if err != nil {
		return store.Key{}, err
	}
	return store.NewKey(b), nil
}

// WriteKey encodes an i32-length-prefixed key.
func WriteKey(w *bytebuf.Buffer, k store.Key) error {
	return WriteBlob(w, k.Bytes())
}

// ReadBlob decodes an i32-length-prefixed byte blob.
func ReadBlob(r *bytebuf.Buffer) ([]byte, error) {
	return readBlob(r)
}

// ReadRaw reads exactly n bytes with no length prefix of their own — used
// where an earlier field (e.g. DELETE's i16 versionSize) already supplied
// the count.
func ReadRaw(r *bytebuf.Buffer, n int) ([]byte, error) {
	return readFull(r, n)
}

func readBlob(r *bytebuf.Buffer) ([]byte, error) {
	n, err := ReadI32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrMalformedFrame
	}
	return readFull(r, int(n))
}

// WriteBlob encodes an i32-length-prefixed byte blob.
func WriteBlob(w *bytebuf.Buffer, b []byte) error {
	if err := WriteI32(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVersionedValue decodes one versioned value: i32 total_len followed by
// clock_bytes || value_bytes, where clock_bytes' length is reported by the
// decoded clock's own SizeInBytes.
func ReadVersionedValue(r *bytebuf.Buffer) (store.VersionedValue, error) {
	totalLen, err := ReadI32(r)
	if err != nil {
		return store.VersionedValue{}, err
	}
	if totalLen < 0 {
		return store.VersionedValue{}, ErrMalformedFrame
	}
	raw, err := readFull(r, int(totalLen))
	if err != nil {
		return store.VersionedValue{}, err
	}
	clock, n, err := store.DecodeVectorClock(raw)
	if err != nil {
		return store.VersionedValue{}, err
	}
	return store.VersionedValue{Clock: clock, Value: store.NewValue(raw[n:])}, nil
}

// WriteVersionedValue encodes one versioned value.
func WriteVersionedValue(w *bytebuf.Buffer, vv store.VersionedValue) error {
	clockBytes := vv.Clock.Bytes()
	valueBytes := vv.Value.Bytes()
	if err := WriteI32(w, int32(len(clockBytes)+len(valueBytes))); err != nil {
		return err
	}
	if _, err := w.Write(clockBytes); err != nil {
		return err
	}
	_, err := w.Write(valueBytes)
	return err
}

// ReadVersionedValueList decodes an i32 count followed by that many
// versioned values.
func ReadVersionedValueList(r *bytebuf.Buffer) ([]store.VersionedValue, error) {
	n, err := ReadI32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrMalformedFrame
	}
	list := make([]store.VersionedValue, 0, n)
	for i := int32(0); i < n; i++ {
		vv, err := ReadVersionedValue(r)
		if err != nil {
			return nil, err
		}
		list = append(list, vv)
	}
	return list, nil
}

// WriteVersionedValueList encodes an i32 count followed by that many
// versioned values.
func WriteVersionedValueList(w *bytebuf.Buffer, list []store.VersionedValue) error {
	if err := WriteI32(w, int32(len(list))); err != nil {
		return err
	}
	for _, vv := range list {
		if err := WriteVersionedValue(w, vv); err != nil {
			return err
		}
	}
	return nil
}
