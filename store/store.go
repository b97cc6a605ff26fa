package store

import (
	"sync"
	"sync/atomic"

	"github.com/krisalay/isr-cache/types"
)

/*
This file defines where cached values live. This is NOT a normal map.
- Reads happen on every request and must not take a lock
- Writes only happen on a cold start or when a revalidation completes

To achieve this, we use a technique called: "Copy-On-Write" (COW)
*/

// Store is the interface the cache uses to keep one value per key.
type Store interface {

	// Get retrieves the current value for key.
	Get(string) (*types.CachedValue, bool)

	// CompareAndSwap replaces the value for key with fresh only if the
	// current value is exactly old (pointer identity). A nil old means
	// the key must be absent. It reports whether the swap happened.
	CompareAndSwap(key string, old, fresh *types.CachedValue) bool

	// Delete removes the value for key.
	Delete(string)

	// Size returns how many keys are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of Store.

- Readers always see an immutable snapshot of the map
- Writers build a NEW map and swap it in atomically
- Values are immutable records, so a reader can never see a half-written one

Writers are serialized by mu so that two writers never lose each other's
update and CompareAndSwap can check-then-write as one step.
*/
type cowStore struct {

	// data holds a map[string]*types.CachedValue
	data atomic.Value

	// mu protects write operations. Reads are lock-free.
	mu sync.Mutex

	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.data.Store(make(map[string]*types.CachedValue))
	return s
}

func (s *cowStore) load() map[string]*types.CachedValue {
	return s.data.Load().(map[string]*types.CachedValue)
}

// Get retrieves a value from the current snapshot.
func (s *cowStore) Get(key string) (*types.CachedValue, bool) {
	ent, ok := s.load()[key]
	return ent, ok
}

func (s *cowStore) CompareAndSwap(key string, old, fresh *types.CachedValue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.load()[key]; cur != old {
		return false
	}
	s.write(key, fresh)
	return true
}

// Delete removes an entry. Just like CompareAndSwap, this uses copy-on-write.
func (s *cowStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]*types.CachedValue, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}

// write copies the current map, sets key and swaps the copy in.
// Caller holds mu.
func (s *cowStore) write(key string, ent *types.CachedValue) {
	old := s.load()

	n := make(map[string]*types.CachedValue, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}
