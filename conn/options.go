// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conn

// options configures a Connection via the functional-options pattern, so
// New can take a variadic list of named overrides instead of a growing
// positional parameter list.
type options struct {
	bufferCapacity int
}

// defaultBufferCapacity is the fixed per-connection buffer size, large
// enough for any single request or response this node accepts without
// growing.
const defaultBufferCapacity = 64000

var defaultOptions = options{
	bufferCapacity: defaultBufferCapacity,
}

// Option configures a Connection constructed by New.
type Option func(*options)

// WithBufferCapacity overrides the fixed input/output buffer capacity.
func WithBufferCapacity(n int) Option {
	return func(o *options) { o.bufferCapacity = n }
}
