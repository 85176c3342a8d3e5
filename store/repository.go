// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Store is the synchronous key-value capability the request handler
// dispatches to. A real store may block briefly; the handler runs it on
// the reactor shard's own goroutine, on the assumption that backing
// stores are fast and in-memory (or that the deployment offloads slow
// stores to a worker pool, which is this package's caller's choice, not
// this package's).
type Store interface {
	Get(key Key) ([]VersionedValue, error)
	GetAll(keys []Key) ([]KeyedVersions, error)
	Put(key Key, value VersionedValue) error
	Delete(key Key, version VectorClock) (bool, error)
}

// KeyedVersions pairs a key with its versioned values, the shape GetAll's
// result takes on the wire: for each entry, the key bytes followed by its
// versioned value list. A slice, not a map, because the handler needs the
// exact original key bytes on the way back out, and the wire format only
// requires that each requested key appears at most once in the reply, not
// any particular in-memory representation.
type KeyedVersions struct {
	Key      Key
	Versions []VersionedValue
}

// StoreRepository resolves a store by name. Get(name, isRouted) returns
// the named Store, or ok=false if none is registered; isRouted selects
// between directly-addressed and routed (replica-aware) access in a real
// cluster deployment. Memory treats both the same way since it has no
// replication of its own: the bool is threaded through so a caller wiring
// a routing-aware repository has somewhere to plug it in.
type StoreRepository interface {
	Get(name string, isRouted bool) (Store, bool)
}

// Memory is an in-memory, multi-store StoreRepository and the Store
// implementation each named store uses. Internal synchronization is its
// own responsibility: it is backed by xsync.Map, a lock-striped concurrent
// map (the same approach oy3o/codec uses for its own concurrent lookup
// tables), so every reactor shard can share one Memory without a
// handler-visible mutex.
type Memory struct {
	stores *xsync.Map[string, *memoryStore]
	nodeID uint16
}

// NewMemory returns an empty multi-store repository. nodeID identifies
// this node's contribution to vector clocks minted on Put.
func NewMemory(nodeID uint16) *Memory {
	return &Memory{stores: xsync.NewMap[string, *memoryStore](), nodeID: nodeID}
}

// Get implements StoreRepository. isRouted is accepted but not
// distinguished by Memory, consistent with routing being out of scope.
func (m *Memory) Get(name string, isRouted bool) (Store, bool) {
	_ = isRouted
	s, ok := m.stores.Load(name)
	if !ok {
		return nil, false
	}
	return s, true
}

// CreateStore registers an empty store under name if one does not already
// exist, returning the (possibly pre-existing) Store. Test and cmd/kvnode
// wiring use this; the wire protocol itself never creates stores.
func (m *Memory) CreateStore(name string) Store {
	s, _ := m.stores.LoadOrStore(name, newMemoryStore(m.nodeID))
	return s
}

type versionedEntry struct {
	values []VersionedValue
}

type memoryStore struct {
	data   *xsync.Map[string, versionedEntry]
	nodeID uint16
}

func newMemoryStore(nodeID uint16) *memoryStore {
	return &memoryStore{data: xsync.NewMap[string, versionedEntry](), nodeID: nodeID}
}

func (s *memoryStore) Get(key Key) ([]VersionedValue, error) {
	e, ok := s.data.Load(key.comparable())
	if !ok {
		return nil, nil
	}
	return e.values, nil
}

func (s *memoryStore) GetAll(keys []Key) ([]KeyedVersions, error) {
	result := make([]KeyedVersions, 0, len(keys))
	for _, k := range keys {
		e, ok := s.data.Load(k.comparable())
		if !ok {
			continue
		}
		result = append(result, KeyedVersions{Key: k, Versions: e.values})
	}
	return result, nil
}

func (s *memoryStore) Put(key Key, value VersionedValue) error {
	advanced := value.Clock.Advance(s.nodeID, time.Now().UnixNano())
	versioned := VersionedValue{Clock: advanced, Value: value.Value}
	s.data.Store(key.comparable(), versionedEntry{values: []VersionedValue{versioned}})
	return nil
}

func (s *memoryStore) Delete(key Key, version VectorClock) (bool, error) {
	_, existed := s.data.LoadAndDelete(key.comparable())
	return existed, nil
}
