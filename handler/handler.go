// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package handler implements the request handler: parse an
// already-framed request, invoke the store, and serialize the response or
// a structured error — synchronous on the caller's thread, one request in,
// exactly one response out. A single concrete type with a
// constructor-injected repository and mapper, rather than a class
// hierarchy keyed by opcode: the connection state machine is
// handler-agnostic and only ever calls Handle.
package handler

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kvnode/bytebuf"
	"code.hybscloud.com/kvnode/framing"
	"code.hybscloud.com/kvnode/store"
	"code.hybscloud.com/kvnode/wire"
)

// ErrUnknownOpcode is returned by Handle when the request names an opcode
// this handler does not recognize. This is a protocol violation the
// caller (package conn) closes the connection over, not something
// serialized as a response.
var ErrUnknownOpcode = errors.New("handler: unknown opcode")

// ErrHandlerFault wraps a panic or malformed-despite-complete-framing
// condition recovered inside Handle. Silently swallowing such a fault
// would leave the connection's interest set never flipped to write,
// wedging it forever; Handle instead returns this error so the caller
// closes the connection rather than hanging it.
var ErrHandlerFault = errors.New("handler: unexpected fault")

// Handler dispatches one framed request at a time against a
// store.StoreRepository, using a store.ErrorCodeMapper to translate
// categorized store errors into stable wire codes.
type Handler struct {
	Repo   store.StoreRepository
	Mapper *store.ErrorCodeMapper
}

// New constructs a Handler. repo and mapper are shared across every
// connection on every reactor shard; Handler itself holds no
// per-connection state, so one Handler value is reused everywhere.
func New(repo store.StoreRepository, mapper *store.ErrorCodeMapper) *Handler {
	return &Handler{Repo: repo, Mapper: mapper}
}

// Handle consumes exactly one framed request from in (already flipped to
// read mode by the caller — in's readable bytes are exactly one request,
// as measured by package framing) and writes exactly one response into
// out. It never partially writes a response: the status word is chosen
// only once the success/failure branch is decided, so a caller never
// observes a half-written reply.
func (h *Handler) Handle(in, out *bytebuf.Buffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerFault, r)
		}
	}()

	opByte, rerr := wire.ReadU8(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading opcode: %v", ErrHandlerFault, rerr)
	}
	storeName, rerr := wire.ReadUTF(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading store name: %v", ErrHandlerFault, rerr)
	}
	routedByte, rerr := wire.ReadU8(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading routed flag: %v", ErrHandlerFault, rerr)
	}
	isRouted := routedByte != 0

	op := framing.OpCode(opByte)
	switch op {
	case framing.OpGet, framing.OpGetAll, framing.OpPut, framing.OpDelete:
	default:
		return ErrUnknownOpcode
	}

	st, ok := h.Repo.Get(storeName, isRouted)
	if !ok {
		return h.writeError(out, store.ErrNoSuchStore, fmt.Sprintf("No store named '%s'.", storeName))
	}

	switch op {
	case framing.OpGet:
		return h.handleGet(in, out, st)
	case framing.OpGetAll:
		return h.handleGetAll(in, out, st)
	case framing.OpPut:
		return h.handlePut(in, out, st)
	case framing.OpDelete:
		return h.handleDelete(in, out, st)
	default:
		// Unreachable: filtered above.
		return ErrUnknownOpcode
	}
}

func (h *Handler) handleGet(in, out *bytebuf.Buffer, st store.Store) error {
	key, rerr := wire.ReadKey(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading key: %v", ErrHandlerFault, rerr)
	}
	versions, serr := st.Get(key)
	if serr != nil {
		return h.writeStoreError(out, serr)
	}
	if err := wire.WriteI16(out, store.CodeSuccess); err != nil {
		return err
	}
	return wire.WriteVersionedValueList(out, versions)
}

func (h *Handler) handleGetAll(in, out *bytebuf.Buffer, st store.Store) error {
	n, rerr := wire.ReadI32(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading key count: %v", ErrHandlerFault, rerr)
	}
	keys := make([]store.Key, 0, n)
	for i := int32(0); i < n; i++ {
		key, kerr := wire.ReadKey(in)
		if kerr != nil {
			return fmt.Errorf("%w: reading key %d: %v", ErrHandlerFault, i, kerr)
		}
		keys = append(keys, key)
	}

	results, serr := st.GetAll(keys)
	if serr != nil {
		return h.writeStoreError(out, serr)
	}
	if err := wire.WriteI16(out, store.CodeSuccess); err != nil {
		return err
	}
	if err := wire.WriteI32(out, int32(len(results))); err != nil {
		return err
	}
	for _, kv := range results {
		if err := wire.WriteKey(out, kv.Key); err != nil {
			return err
		}
		if err := wire.WriteVersionedValueList(out, kv.Versions); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handlePut(in, out *bytebuf.Buffer, st store.Store) error {
	key, rerr := wire.ReadKey(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading key: %v", ErrHandlerFault, rerr)
	}
	blob, rerr := wire.ReadBlob(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading value blob: %v", ErrHandlerFault, rerr)
	}
	clock, n, cerr := store.DecodeVectorClock(blob)
	if cerr != nil {
		return h.writeStoreError(out, store.ErrInvalidMetadata)
	}
	value := store.NewValue(blob[n:])

	serr := st.Put(key, store.VersionedValue{Clock: clock, Value: value})
	if serr != nil {
		return h.writeStoreError(out, serr)
	}
	return wire.WriteI16(out, store.CodeSuccess)
}

func (h *Handler) handleDelete(in, out *bytebuf.Buffer, st store.Store) error {
	key, rerr := wire.ReadKey(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading key: %v", ErrHandlerFault, rerr)
	}
	versionSize, rerr := wire.ReadI16(in)
	if rerr != nil {
		return fmt.Errorf("%w: reading version size: %v", ErrHandlerFault, rerr)
	}
	versionBytes, rerr := wire.ReadRaw(in, int(versionSize))
	if rerr != nil {
		return fmt.Errorf("%w: reading version bytes: %v", ErrHandlerFault, rerr)
	}
	clock, n, cerr := store.DecodeVectorClock(versionBytes)
	if cerr != nil || n != len(versionBytes) {
		return h.writeStoreError(out, store.ErrInvalidMetadata)
	}

	deleted, serr := st.Delete(key, clock)
	if serr != nil {
		return h.writeStoreError(out, serr)
	}
	if err := wire.WriteI16(out, store.CodeSuccess); err != nil {
		return err
	}
	succeeded := uint8(0)
	if deleted {
		succeeded = 1
	}
	return wire.WriteU8(out, succeeded)
}

// writeStoreError serializes a categorized store error using the mapper's
// code and the error's own message.
func (h *Handler) writeStoreError(out *bytebuf.Buffer, serr error) error {
	return h.writeError(out, serr, serr.Error())
}

func (h *Handler) writeError(out *bytebuf.Buffer, serr error, message string) error {
	code := h.Mapper.Code(serr)
	if err := wire.WriteI16(out, code); err != nil {
		return err
	}
	return wire.WriteUTF(out, message)
}
