// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import "errors"

// ErrMalformed is the sentinel a caller compares against when Frame
// reports Malformed, for use with errors.Is up the call stack (package
// conn closes the connection over it).
var ErrMalformed = errors.New("framing: malformed request")
