package victionary

import (
	"sort"
	"strings"
	"sync/atomic"
)

// entry is satisfied by every collection entry type. The key string is the
// normalized identity used for map lookups and persisted row keys.
type entry interface {
	keyString() string
}

func (e *PropertyEntry) keyString() string  { return e.key.String() }
func (e *ColumnEntry) keyString() string    { return e.key.String() }
func (e *ExtensionEntry) keyString() string { return e.key.String() }

func (d *TypeDescriptor) keyString() string      { return d.key.String() }
func (d *ExtensionDescriptor) keyString() string { return d.key.String() }
func (c *TypeContext) keyString() string         { return c.key.String() }

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

// pendingOp is one buffered write. For updates, oldKey is the key the entry
// had before the update; it differs from the entry's key when the update
// renames. For deletes the entry is nil and oldKey is the deleted key.
type pendingOp[E entry] struct {
	kind   opKind
	entry  E
	oldKey string
}

// Collection is one transaction-aware map of the metadata cache: a
// committed snapshot plus per-transaction lists of buffered operations.
// Reads within a transaction see that transaction's buffered writes
// (newest-op-wins) layered over the committed snapshot; other transactions
// see only the snapshot until commit.
//
// Collection does no locking of its own. The owning Client serializes
// access; see the lock discipline on Client.
type Collection[E entry] struct {
	name      string
	committed map[string]E
	pending   map[*Txn][]pendingOp[E]

	hits   atomic.Int64
	misses atomic.Int64
}

func newCollection[E entry](name string) *Collection[E] {
	return &Collection[E]{
		name:      name,
		committed: make(map[string]E),
		pending:   make(map[*Txn][]pendingOp[E]),
	}
}

func (c *Collection[E]) Name() string { return c.name }

// Get looks up key, honoring the transaction's buffered writes.
func (c *Collection[E]) Get(tx *Tx, key string) (E, bool) {
	ops := c.pending[tx.txn]
	for i := len(ops) - 1; i >= 0; i-- {
		op := &ops[i]
		switch op.kind {
		case opDelete:
			if op.oldKey == key {
				return c.miss()
			}
		case opInsert, opUpdate:
			if op.entry.keyString() == key {
				return c.hit(op.entry)
			}
			if op.kind == opUpdate && op.oldKey == key {
				// renamed away within this transaction
				return c.miss()
			}
		}
	}
	return c.GetCommitted(key)
}

// GetCommitted looks up key in the committed snapshot only.
func (c *Collection[E]) GetCommitted(key string) (E, bool) {
	if e, ok := c.committed[key]; ok {
		return c.hit(e)
	}
	return c.miss()
}

func (c *Collection[E]) hit(e E) (E, bool) {
	c.hits.Add(1)
	return e, true
}

func (c *Collection[E]) miss() (E, bool) {
	c.misses.Add(1)
	var zero E
	return zero, false
}

// Prefix returns every entry visible to the transaction whose key starts
// with prefix, sorted by key.
func (c *Collection[E]) Prefix(tx *Tx, prefix string) []E {
	visible := make(map[string]E)
	for k, e := range c.committed {
		if strings.HasPrefix(k, prefix) {
			visible[k] = e
		}
	}
	for _, op := range c.pending[tx.txn] {
		switch op.kind {
		case opDelete:
			delete(visible, op.oldKey)
		case opInsert, opUpdate:
			if op.kind == opUpdate {
				delete(visible, op.oldKey)
			}
			k := op.entry.keyString()
			if strings.HasPrefix(k, prefix) {
				visible[k] = op.entry
			} else {
				delete(visible, k)
			}
		}
	}
	return sortedValues(visible)
}

// HasPrefix reports whether any entry visible to the transaction matches
// prefix.
func (c *Collection[E]) HasPrefix(tx *Tx, prefix string) bool {
	return len(c.Prefix(tx, prefix)) > 0
}

// AllCommitted returns the committed snapshot, sorted by key.
func (c *Collection[E]) AllCommitted() []E {
	return sortedValues(c.committed)
}

// Len is the committed entry count.
func (c *Collection[E]) Len() int { return len(c.committed) }

// Insert buffers an insert of e in the transaction.
func (c *Collection[E]) Insert(tx *Tx, e E) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	c.pending[tx.txn] = append(c.pending[tx.txn], pendingOp[E]{kind: opInsert, entry: e})
	return nil
}

// Update buffers an update of the entry at oldKey to e. Pass the entry's
// own key as oldKey when the update does not rename.
func (c *Collection[E]) Update(tx *Tx, oldKey string, e E) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	c.pending[tx.txn] = append(c.pending[tx.txn], pendingOp[E]{kind: opUpdate, entry: e, oldKey: oldKey})
	return nil
}

// Delete buffers a delete of key.
func (c *Collection[E]) Delete(tx *Tx, key string) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	c.pending[tx.txn] = append(c.pending[tx.txn], pendingOp[E]{kind: opDelete, oldKey: key})
	return nil
}

// HasUncommitted reports whether the transaction has buffered writes in
// this collection.
func (c *Collection[E]) HasUncommitted(txn *Txn) bool {
	return len(c.pending[txn]) > 0
}

// putCommitted installs an entry directly into the committed snapshot,
// bypassing transaction buffering. Used by acquire-style operations on
// memory-only collections.
func (c *Collection[E]) putCommitted(e E) {
	c.committed[e.keyString()] = e
}

// pendingOps returns the transaction's buffered writes in order.
func (c *Collection[E]) pendingOps(txn *Txn) []pendingOp[E] {
	return c.pending[txn]
}

// commit applies the transaction's buffered writes to the committed
// snapshot, in order.
func (c *Collection[E]) commit(txn *Txn) {
	for _, op := range c.pending[txn] {
		switch op.kind {
		case opDelete:
			delete(c.committed, op.oldKey)
		case opInsert:
			c.committed[op.entry.keyString()] = op.entry
		case opUpdate:
			k := op.entry.keyString()
			if op.oldKey != "" && op.oldKey != k {
				delete(c.committed, op.oldKey)
			}
			c.committed[k] = op.entry
		}
	}
	delete(c.pending, txn)
}

// rollback discards the transaction's buffered writes.
func (c *Collection[E]) rollback(txn *Txn) {
	delete(c.pending, txn)
}

// clear drops everything, committed and pending.
func (c *Collection[E]) clear() {
	c.committed = make(map[string]E)
	c.pending = make(map[*Txn][]pendingOp[E])
}

// CollectionStats is a point-in-time snapshot of one collection's counters.
type CollectionStats struct {
	Name      string
	Committed int
	Hits      int64
	Misses    int64
}

func (c *Collection[E]) Stats() CollectionStats {
	return CollectionStats{
		Name:      c.name,
		Committed: len(c.committed),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}

func sortedValues[E entry](m map[string]E) []E {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]E, 0, len(keys))
	for _, k := range keys {
		result = append(result, m[k])
	}
	return result
}
