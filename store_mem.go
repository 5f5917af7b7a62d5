package victionary

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"sync"
)

type memStore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[string]*memStoreBucket
	closed  bool
	writer  bool
}

// NewMemStore returns a transient in-memory Store intended for tests. The
// collection buckets are pre-created.
func NewMemStore() Store {
	s := &memStore{buckets: make(map[string]*memStoreBucket)}
	s.cond = sync.NewCond(&s.mu)
	for _, name := range []string{bucketProperties, bucketColumns, bucketExtensions} {
		s.buckets[name] = &memStoreBucket{}
	}
	return s
}

func (s *memStore) BeginTx(writable bool) (StoreTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("store closed")
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, fmt.Errorf("store closed")
		}
		s.writer = true
	}

	// Snapshot everything for transactional isolation (simplicity over
	// efficiency).
	snap := make(map[string]*memStoreBucket, len(s.buckets))
	for k, b := range s.buckets {
		snap[k] = b.clone()
	}
	return &memStoreTx{base: s, writable: writable, buckets: snap}, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

type memStoreTx struct {
	base     *memStore
	writable bool
	buckets  map[string]*memStoreBucket
	closed   bool
}

func (tx *memStoreTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memStoreTx) Bucket(name string) StoreBucket {
	if tx.closed {
		panic("tx is closed")
	}
	b := tx.buckets[name]
	if b == nil {
		return nil
	}
	return memStoreBucketHandle{tx: tx, b: b}
}

func (tx *memStoreTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return fmt.Errorf("store closed")
	}
	tx.base.buckets = tx.buckets
	tx.closeLocked()
	return nil
}

func (tx *memStoreTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

type memStoreBucket struct {
	items []memKV // sorted by key
}

type memKV struct {
	key   []byte
	value []byte
}

func (b *memStoreBucket) clone() *memStoreBucket {
	if b == nil {
		return nil
	}
	out := &memStoreBucket{items: make([]memKV, len(b.items))}
	for i, kv := range b.items {
		out.items[i] = memKV{
			key:   slices.Clone(kv.key),
			value: slices.Clone(kv.value),
		}
	}
	return out
}

type memStoreBucketHandle struct {
	tx *memStoreTx
	b  *memStoreBucket
}

func (b memStoreBucketHandle) Get(key []byte) []byte {
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	return b.b.items[i].value
}

func (b memStoreBucketHandle) Put(key, value []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	key = slices.Clone(key)
	value = slices.Clone(value)

	i, ok := b.find(key)
	if ok {
		b.b.items[i].value = value
		return nil
	}
	b.b.items = slices.Insert(b.b.items, i, memKV{key: key, value: value})
	return nil
}

func (b memStoreBucketHandle) Delete(key []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	b.b.items = slices.Delete(b.b.items, i, i+1)
	return nil
}

func (b memStoreBucketHandle) ForEach(fn func(key, value []byte) error) error {
	for _, kv := range b.b.items {
		if err := fn(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}

func (b memStoreBucketHandle) find(key []byte) (idx int, ok bool) {
	items := b.b.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}
