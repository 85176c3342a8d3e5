// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "errors"

// Categorized store errors, mapped to stable wire codes by ErrorCodeMapper.
// A Store implementation returns one of these (or wraps one with
// errors.Is compatibility) from Get/GetAll/Put/Delete; any other error is
// mapped to CodeGenericFailure.
var (
	ErrStoreUnavailable = errors.New("store: unavailable")
	ErrObsoleteVersion  = errors.New("store: obsolete version")
	ErrInvalidMetadata  = errors.New("store: invalid metadata")
	ErrInconsistentData = errors.New("store: inconsistent data")
	ErrUnreachableStore = errors.New("store: unreachable")

	// ErrNoSuchStore categorizes a request naming a store that
	// StoreRepository.Get reports as absent (ok=false).
	ErrNoSuchStore = errors.New("store: no such store")
)
