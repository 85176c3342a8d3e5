// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedClock reports that a byte sequence does not decode to a
// structurally valid VectorClock.
var ErrMalformedClock = errors.New("store: malformed vector clock")

const clockEntrySize = 2 + 8 + 8 // nodeID:u16 | counter:i64 | timestamp:i64

// clockEntry is one node's contribution to a VectorClock.
type clockEntry struct {
	NodeID    uint16
	Counter   int64
	Timestamp int64
}

// VectorClock is an opaque, serializable version token with a
// self-describing byte length. Conflict resolution over VectorClocks
// beyond the server-side counter bump Put performs is a backing store's
// own concern; this type only serializes and reports its own size so a
// PUT payload's concatenated clock+value blob can be split.
//
// Wire form: u16 entryCount, followed by entryCount entries of
// (nodeID:u16, counter:i64, timestamp:i64). This is one conventional
// vector-clock shape; the handler and codec never interpret the entries
// themselves, only SizeInBytes and the raw bytes, so another clock
// implementation is a drop-in replacement as long as it validates
// structure on Decode and reports the bytes it consumed.
type VectorClock struct {
	entries []clockEntry
	raw     []byte // the exact encoded bytes, cached so SizeInBytes/Bytes never re-encode
}

// NewVectorClock builds a single-entry VectorClock, for use by a store
// implementation constructing a fresh version (e.g. on first PUT for a key).
func NewVectorClock(nodeID uint16, counter, timestamp int64) VectorClock {
	vc := VectorClock{entries: []clockEntry{{NodeID: nodeID, Counter: counter, Timestamp: timestamp}}}
	vc.raw = vc.encode()
	return vc
}

func (vc VectorClock) encode() []byte {
	buf := make([]byte, 2+len(vc.entries)*clockEntrySize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(vc.entries)))
	off := 2
	for _, e := range vc.entries {
		binary.BigEndian.PutUint16(buf[off:off+2], e.NodeID)
		binary.BigEndian.PutUint64(buf[off+2:off+10], uint64(e.Counter))
		binary.BigEndian.PutUint64(buf[off+10:off+18], uint64(e.Timestamp))
		off += clockEntrySize
	}
	return buf
}

// DecodeVectorClock parses a VectorClock from the prefix of b and returns
// it along with the number of bytes consumed. Construction from bytes
// validates internal structure; malformed bytes fail with
// ErrMalformedClock.
func DecodeVectorClock(b []byte) (VectorClock, int, error) {
	if len(b) < 2 {
		return VectorClock{}, 0, ErrMalformedClock
	}
	n := int(binary.BigEndian.Uint16(b[0:2]))
	need := 2 + n*clockEntrySize
	if n < 0 || len(b) < need {
		return VectorClock{}, 0, ErrMalformedClock
	}
	entries := make([]clockEntry, n)
	off := 2
	for i := 0; i < n; i++ {
		entries[i] = clockEntry{
			NodeID:    binary.BigEndian.Uint16(b[off : off+2]),
			Counter:   int64(binary.BigEndian.Uint64(b[off+2 : off+10])),
			Timestamp: int64(binary.BigEndian.Uint64(b[off+10 : off+18])),
		}
		off += clockEntrySize
	}
	vc := VectorClock{entries: entries, raw: append([]byte(nil), b[:need]...)}
	return vc, need, nil
}

// SizeInBytes reports the exact encoded length of this clock, letting a
// caller split a concatenated clock+value blob.
func (vc VectorClock) SizeInBytes() int { return len(vc.raw) }

// Bytes returns the clock's exact wire encoding.
func (vc VectorClock) Bytes() []byte { return vc.raw }

// Advance returns a new VectorClock with nodeID's counter incremented (or
// added if absent) and its timestamp updated. memoryStore.Put calls this
// on every write so the stored version always reflects which node last
// touched the key and how many times, regardless of what clock the client
// sent.
func (vc VectorClock) Advance(nodeID uint16, timestamp int64) VectorClock {
	next := make([]clockEntry, 0, len(vc.entries)+1)
	found := false
	for _, e := range vc.entries {
		if e.NodeID == nodeID {
			e.Counter++
			e.Timestamp = timestamp
			found = true
		}
		next = append(next, e)
	}
	if !found {
		next = append(next, clockEntry{NodeID: nodeID, Counter: 1, Timestamp: timestamp})
	}
	nvc := VectorClock{entries: next}
	nvc.raw = nvc.encode()
	return nvc
}
