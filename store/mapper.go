// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "errors"

// Error code constants, the stable i16 wire values ErrorCodeMapper maps
// known error categories to. Modeled on the magic-byte/status-code table
// idiom of a binary KV protocol (status constants such as a
// memcached-style binary handler's CodeKeyNotFound), re-expressed here as
// named categories rather than raw protocol opcodes.
const (
	CodeSuccess          int16 = 0
	CodeStoreUnavailable int16 = 1
	CodeObsoleteVersion  int16 = 2
	CodeInvalidMetadata  int16 = 3
	CodeInconsistentData int16 = 4
	CodeUnreachableStore int16 = 5
	CodeNoSuchStore      int16 = 6
	CodeGenericFailure   int16 = 99
)

// ErrorCodeMapper maps a categorized store/protocol error to its stable
// wire code.
type ErrorCodeMapper struct{}

// NewErrorCodeMapper returns the default mapper. It holds no state; a
// constructor exists only so callers inject a mapper value rather than
// reaching for a package-level singleton.
func NewErrorCodeMapper() *ErrorCodeMapper { return &ErrorCodeMapper{} }

// Code returns the stable wire code for err. Unknown failures map to
// CodeGenericFailure rather than failing the lookup, since the handler
// must always be able to serialize some error response.
func (m *ErrorCodeMapper) Code(err error) int16 {
	switch {
	case errors.Is(err, ErrNoSuchStore):
		return CodeNoSuchStore
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	case errors.Is(err, ErrObsoleteVersion):
		return CodeObsoleteVersion
	case errors.Is(err, ErrInvalidMetadata):
		return CodeInvalidMetadata
	case errors.Is(err, ErrInconsistentData):
		return CodeInconsistentData
	case errors.Is(err, ErrUnreachableStore):
		return CodeUnreachableStore
	default:
		return CodeGenericFailure
	}
}
