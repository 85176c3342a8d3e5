// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package framing implements the request framer: a pure byte walker over
// the bytes already accumulated in a connection's input buffer that
// measures whether they contain one complete request, without ever
// calling into the store or validating semantics. Validation happens in
// package handler instead, which can turn a semantic problem into a
// structured error response rather than tearing the connection down.
package framing

// Status is the three-way outcome of a framing attempt.
type Status uint8

const (
	// Incomplete means the buffered bytes are a valid prefix of some
	// request but do not yet contain all of it.
	Incomplete Status = iota
	// Complete means the buffered bytes contain exactly one whole request;
	// N reports its length.
	Complete
	// Malformed means the buffered bytes can never form a valid request
	// regardless of how many more bytes arrive (e.g. a negative length
	// prefix).
	Malformed
)

// Result is the outcome of a Frame call.
type Result struct {
	Status Status
	N      int // valid when Status == Complete: the frame length in bytes
}

// walker advances a read cursor over b, tracking whether it has run past
// the buffered bytes (incomplete) versus decoded something structurally
// impossible (malformed). It never allocates and never reads b[pos] once
// pos reaches len(b).
type walker struct {
	b   []byte
	pos int
}

func (w *walker) u8() (uint8, bool) {
	if w.pos+1 > len(w.b) {
		return 0, false
	}
	v := w.b[w.pos]
	w.pos++
	return v, true
}

func (w *walker) i16() (int16, bool) {
	if w.pos+2 > len(w.b) {
		return 0, false
	}
	v := int16(uint16(w.b[w.pos])<<8 | uint16(w.b[w.pos+1]))
	w.pos += 2
	return v, true
}

func (w *walker) i32() (int32, bool) {
	if w.pos+4 > len(w.b) {
		return 0, false
	}
	v := int32(uint32(w.b[w.pos])<<24 | uint32(w.b[w.pos+1])<<16 | uint32(w.b[w.pos+2])<<8 | uint32(w.b[w.pos+3]))
	w.pos += 4
	return v, true
}

func (w *walker) skip(n int) bool {
	if w.pos+n > len(w.b) {
		return false
	}
	w.pos += n
	return true
}

// outcome reports incomplete/malformed for a length-prefixed field: a
// negative length is structurally impossible (malformed); running out of
// header or payload bytes is merely incomplete.
type outcome uint8

const (
	fieldOK outcome = iota
	fieldIncomplete
	fieldMalformed
)

func (w *walker) lenI16() (int, outcome) {
	v, got := w.i16()
	if !got {
		return 0, fieldIncomplete
	}
	if v < 0 {
		return 0, fieldMalformed
	}
	return int(v), fieldOK
}

func (w *walker) lenI32() (int, outcome) {
	v, got := w.i32()
	if !got {
		return 0, fieldIncomplete
	}
	if v < 0 {
		return 0, fieldMalformed
	}
	return int(v), fieldOK
}

// skipLenPrefixed16 skips an i16-length-prefixed field (a utf string).
func (w *walker) skipLenPrefixed16() outcome {
	n, oc := w.lenI16()
	if oc != fieldOK {
		return oc
	}
	if !w.skip(n) {
		return fieldIncomplete
	}
	return fieldOK
}

// skipLenPrefixed32 skips an i32-length-prefixed field (a key or blob).
func (w *walker) skipLenPrefixed32() outcome {
	n, oc := w.lenI32()
	if oc != fieldOK {
		return oc
	}
	if !w.skip(n) {
		return fieldIncomplete
	}
	return fieldOK
}

// Frame measures whether the contiguous bytes currently accumulated in a
// connection's input buffer, starting at offset 0, contain one complete
// request. It never reads past len(b) and never consults the store.
func Frame(b []byte) Result {
	w := &walker{b: b}

	// 1. Read u8 opCode.
	op, got := w.u8()
	if !got {
		return Result{Status: Incomplete}
	}

	// 2. Skip a utf (store name).
	if oc := w.skipLenPrefixed16(); oc != fieldOK {
		return fromOutcome(oc)
	}

	// 3. Skip one u8 (is_routed flag).
	if _, got := w.u8(); !got {
		return Result{Status: Incomplete}
	}

	// 4. Opcode-specific skip.
	switch OpCode(op) {
	case OpGet:
		if oc := w.skipLenPrefixed32(); oc != fieldOK {
			return fromOutcome(oc)
		}
	case OpGetAll:
		n, oc := w.lenI32()
		if oc != fieldOK {
			return fromOutcome(oc)
		}
		for i := 0; i < n; i++ {
			if oc := w.skipLenPrefixed32(); oc != fieldOK {
				return fromOutcome(oc)
			}
		}
	case OpPut:
		if oc := w.skipLenPrefixed32(); oc != fieldOK {
			return fromOutcome(oc)
		}
		if oc := w.skipLenPrefixed32(); oc != fieldOK {
			return fromOutcome(oc)
		}
	case OpDelete:
		if oc := w.skipLenPrefixed32(); oc != fieldOK {
			return fromOutcome(oc)
		}
		if oc := w.skipLenPrefixed16(); oc != fieldOK {
			return fromOutcome(oc)
		}
	default:
		// Unknown opcode: framed at the current position; the handler
		// rejects it once dispatched.
	}

	// 5. Decide completeness from where the cursor landed.
	switch {
	case w.pos == len(b):
		return Result{Status: Complete, N: w.pos}
	case w.pos > len(b):
		// Unreachable: walker methods never advance pos past len(b).
		return Result{Status: Incomplete}
	default:
		// Cursor didn't reach the end: more bytes are buffered than this
		// one request needs. That only happens if the caller handed Frame
		// more than one frame's worth of bytes; Frame itself only ever
		// measures the first one, so this is still Complete at w.pos.
		return Result{Status: Complete, N: w.pos}
	}
}

func fromOutcome(oc outcome) Result {
	if oc == fieldMalformed {
		return Result{Status: Malformed}
	}
	return Result{Status: Incomplete}
}
