// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store defines the key-value data model and its collaborator
// contracts: Key, Value, VectorClock, VersionedValue, and the
// Store/StoreRepository interfaces the request handler dispatches into.
// It also supplies Memory, a concrete in-memory implementation, so the
// rest of the module is testable end to end without a real storage
// engine.
package store

import "bytes"

// Key is an immutable byte sequence, equality and hashing byte-wise.
// Length is bounded by the i32 length prefix the wire codec uses
// (2^31-1); nothing in this package enforces that bound beyond what the
// codec already rejects on decode.
type Key struct {
	b []byte
}

// NewKey copies b into an immutable Key.
func NewKey(b []byte) Key {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Key{b: cp}
}

// Bytes returns the key's byte representation. Callers must not mutate it.
func (k Key) Bytes() []byte { return k.b }

// Equal reports byte-wise equality.
func (k Key) Equal(o Key) bool { return bytes.Equal(k.b, o.b) }

// String returns the key's bytes decoded as a string, for logging.
func (k Key) String() string { return string(k.b) }

// comparable is the string form used as the map key inside Memory's
// xsync.Map, since xsync.Map requires a comparable key type and a byte
// slice is not comparable. The conversion copies, same as the standard
// library's own map[string(b)] idiom.
func (k Key) comparable() string { return string(k.b) }

// Value is an immutable byte sequence.
type Value struct {
	b []byte
}

// NewValue copies b into an immutable Value.
func NewValue(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{b: cp}
}

// Bytes returns the value's byte representation. Callers must not mutate it.
func (v Value) Bytes() []byte { return v.b }

// VersionedValue pairs a VectorClock with the Value it versions.
type VersionedValue struct {
	Clock VectorClock
	Value Value
}
