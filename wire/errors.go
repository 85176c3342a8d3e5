// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "errors"

// Decode sentinel errors: one for "ran out of bytes" and one for "the
// bytes don't even describe a valid length," kept as two narrow sentinels
// rather than a richer exception hierarchy since callers only ever need to
// distinguish those two cases.
var (
	// ErrShortBuffer reports a decode that would read past the bytes
	// available.
	ErrShortBuffer = errors.New("wire: short buffer")

	// ErrMalformedFrame reports a negative length prefix.
	ErrMalformedFrame = errors.New("wire: malformed frame")
)
