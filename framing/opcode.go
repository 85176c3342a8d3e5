// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

// OpCode identifies a request's operation, the first byte on the wire.
// The framer only uses these values to pick an opcode-specific skip rule;
// it never validates that a request is semantically sensible — that is
// the handler's job.
type OpCode uint8

// Values match the client/server wire protocol's operation codes; the
// framer's own logic does not depend on the specific byte values, only the
// dispatcher (package handler) does.
const (
	OpGet    OpCode = 0x01
	OpGetAll OpCode = 0x02
	OpPut    OpCode = 0x03
	OpDelete OpCode = 0x04
)
