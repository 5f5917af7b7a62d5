package victionary

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Options configures a Client.
type Options struct {
	// Logf sinks diagnostics; nil silences them.
	Logf func(format string, args ...any)

	// Verbose enables per-operation logging.
	Verbose bool
}

// Txn identifies one host transaction. Buffered cache writes are keyed by
// the Txn until CommitAll or RollbackAll resolves them. The UUID gives the
// transaction a stable identity in logs.
type Txn struct {
	id uuid.UUID
}

// NewTxn mints a transaction token.
func NewTxn() *Txn {
	return &Txn{id: uuid.New()}
}

func (t *Txn) ID() uuid.UUID { return t.id }

func (t *Txn) String() string {
	if t == nil {
		return "txn(none)"
	}
	return "txn(" + t.id.String() + ")"
}

// Client is the in-process metadata cache: six keyed collections behind one
// reader/writer lock. The properties, custom columns and extensions
// collections are backed by the Store and survive restarts; type
// descriptors, extension descriptors and type contexts are rebuilt from
// loaded modules and live in memory only.
//
// All collection access goes through Read/ReadErr/Write closures, which
// scope the lock. Entries returned from a closure remain safe to use after
// it returns (they are immutable once committed), but their membership in
// the cache is only guaranteed while the lock is held.
type Client struct {
	logf    func(format string, args ...any)
	verbose bool

	initialized  atomic.Bool
	initializing atomic.Bool

	mu    sync.RWMutex
	store Store

	properties           *Collection[*PropertyEntry]
	columns              *Collection[*ColumnEntry]
	extensions           *Collection[*ExtensionEntry]
	typeDescriptors      *Collection[*TypeDescriptor]
	extensionDescriptors *Collection[*ExtensionDescriptor]
	typeContexts         *Collection[*TypeContext]
}

// New creates an empty client. Call Init before anything else.
func New(opt Options) *Client {
	return &Client{
		logf:                 opt.Logf,
		verbose:              opt.Verbose,
		properties:           newCollection[*PropertyEntry]("properties"),
		columns:              newCollection[*ColumnEntry]("custom_columns"),
		extensions:           newCollection[*ExtensionEntry]("extensions"),
		typeDescriptors:      newCollection[*TypeDescriptor]("type_descriptors"),
		extensionDescriptors: newCollection[*ExtensionDescriptor]("extension_descriptors"),
		typeContexts:         newCollection[*TypeContext]("type_contexts"),
	}
}

func (c *Client) log(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

func (c *Client) vlog(format string, args ...any) {
	if c.verbose {
		c.log(format, args...)
	}
}

// Initialized reports whether Init has completed.
func (c *Client) Initialized() bool {
	return c.initialized.Load()
}

// Init loads the replicable collections from store and adopts it as the
// durable backend. Init runs at most once; concurrent and repeated calls
// fail without touching the loaded state. On a load failure every
// collection that could be read stays loaded and the aggregate error
// reports the rest; the client still comes up, matching server startup
// behavior where partial metadata beats refusing to start.
func (c *Client) Init(store Store) error {
	if !c.initializing.CompareAndSwap(false, true) {
		return fmt.Errorf("victionary: %w: initialization in progress", ErrAlreadyInitialized)
	}
	defer c.initializing.Store(false)

	if c.initialized.Load() {
		c.log("victionary: duplicate initialization attempt ignored")
		return ErrAlreadyInitialized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = store
	err := c.reloadLocked()
	c.initialized.Store(true)
	if err != nil {
		c.log("victionary: initialized with load errors: %v", err)
	} else {
		c.vlog("victionary: initialized (%d properties, %d columns, %d extensions)",
			c.properties.Len(), c.columns.Len(), c.extensions.Len())
	}
	return err
}

// Reload re-reads the replicable collections from the store, replacing the
// committed snapshots. Memory-only collections are untouched. Collections
// that fail to load keep their previous contents; the errors aggregate.
func (c *Client) Reload() error {
	if !c.initialized.Load() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked()
}

func (c *Client) reloadLocked() error {
	stx, err := c.store.BeginTx(false)
	if err != nil {
		return storeErrf("reload", err)
	}
	defer stx.Rollback()

	// Each collection loads independently; one bad bucket must not take
	// down the rest.
	return errors.Join(
		reloadCollection(stx, bucketProperties, c.properties, decodePropertyRow),
		reloadCollection(stx, bucketColumns, c.columns, decodeColumnRow),
		reloadCollection(stx, bucketExtensions, c.extensions, decodeExtensionRow),
	)
}

func reloadCollection[E entry](stx StoreTx, bucket string, col *Collection[E], decode func([]byte) (E, error)) error {
	b := stx.Bucket(bucket)
	if b == nil {
		return collectionErrf(col.name, "", ErrStoreBucketMissing, "reload")
	}
	loaded := make(map[string]E)
	err := b.ForEach(func(key, value []byte) error {
		e, err := decode(value)
		if err != nil {
			return collectionErrf(col.name, string(key), err, "reload")
		}
		loaded[e.keyString()] = e
		return nil
	})
	if err != nil {
		return err
	}
	col.committed = loaded
	return nil
}

// Tx is a lock-scoped handle to the collections. It is only valid within
// the Read/ReadErr/Write closure that produced it.
type Tx struct {
	c        *Client
	txn      *Txn
	writable bool
}

func (tx *Tx) Txn() *Txn      { return tx.txn }
func (tx *Tx) Writable() bool { return tx.writable }

func (tx *Tx) requireWritable() error {
	if !tx.writable {
		return ErrReadOnlyTx
	}
	return nil
}

func (tx *Tx) Properties() *Collection[*PropertyEntry]       { return tx.c.properties }
func (tx *Tx) Columns() *Collection[*ColumnEntry]            { return tx.c.columns }
func (tx *Tx) Extensions() *Collection[*ExtensionEntry]      { return tx.c.extensions }
func (tx *Tx) TypeDescriptors() *Collection[*TypeDescriptor] { return tx.c.typeDescriptors }
func (tx *Tx) ExtensionDescriptors() *Collection[*ExtensionDescriptor] {
	return tx.c.extensionDescriptors
}
func (tx *Tx) TypeContexts() *Collection[*TypeContext] { return tx.c.typeContexts }

// Read runs f under the shared lock.
func (c *Client) Read(txn *Txn, f func(tx *Tx)) error {
	return c.ReadErr(txn, func(tx *Tx) error {
		f(tx)
		return nil
	})
}

// ReadErr runs f under the shared lock, propagating its error.
func (c *Client) ReadErr(txn *Txn, f func(tx *Tx) error) error {
	if !c.initialized.Load() {
		return ErrNotInitialized
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return f(&Tx{c: c, txn: txn, writable: false})
}

// Write runs f under the exclusive lock with a writable handle. Writes made
// through the handle are buffered against txn until CommitAll or
// RollbackAll.
func (c *Client) Write(txn *Txn, f func(tx *Tx) error) error {
	if !c.initialized.Load() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return f(&Tx{c: c, txn: txn, writable: true})
}

// CommitAll applies every buffered write of txn to the committed snapshots,
// across all six collections. A no-op before initialization, because commit
// hooks can fire during early startup.
func (c *Client) CommitAll(txn *Txn) {
	if !c.initialized.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vlog("victionary: commit %v", txn)
	c.properties.commit(txn)
	c.columns.commit(txn)
	c.extensions.commit(txn)
	c.typeDescriptors.commit(txn)
	c.extensionDescriptors.commit(txn)
	c.typeContexts.commit(txn)
}

// RollbackAll discards every buffered write of txn. A no-op before
// initialization.
func (c *Client) RollbackAll(txn *Txn) {
	if !c.initialized.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vlog("victionary: rollback %v", txn)
	c.properties.rollback(txn)
	c.columns.rollback(txn)
	c.extensions.rollback(txn)
	c.typeDescriptors.rollback(txn)
	c.extensionDescriptors.rollback(txn)
	c.typeContexts.rollback(txn)
}

// HasUncommitted reports whether txn has buffered writes in any collection.
func (c *Client) HasUncommitted(txn *Txn) bool {
	if !c.initialized.Load() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.properties.HasUncommitted(txn) ||
		c.columns.HasUncommitted(txn) ||
		c.extensions.HasUncommitted(txn) ||
		c.typeDescriptors.HasUncommitted(txn) ||
		c.extensionDescriptors.HasUncommitted(txn) ||
		c.typeContexts.HasUncommitted(txn)
}

// WriteUncommitted persists txn's buffered writes of the replicable
// collections to the store, in one store transaction, ahead of CommitAll.
// Runs under the shared lock: it reads only txn's own pending lists, and
// concurrent readers of the committed snapshots are unaffected. The
// collections persist independently; errors aggregate and the store
// transaction only commits when all three succeeded.
func (c *Client) WriteUncommitted(txn *Txn) error {
	if !c.initialized.Load() {
		return ErrNotInitialized
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	stx, err := c.store.BeginTx(true)
	if err != nil {
		return storeErrf("write uncommitted", err)
	}
	defer stx.Rollback()

	err = errors.Join(
		persistPending(stx, bucketProperties, c.properties, txn, encodePropertyRow),
		persistPending(stx, bucketColumns, c.columns, txn, encodeColumnRow),
		persistPending(stx, bucketExtensions, c.extensions, txn, encodeExtensionRow),
	)
	if err != nil {
		return err
	}
	if err := stx.Commit(); err != nil {
		return storeErrf("write uncommitted", err)
	}
	c.vlog("victionary: persisted pending writes of %v", txn)
	return nil
}

func persistPending[E entry](stx StoreTx, bucket string, col *Collection[E], txn *Txn, encode func(E) ([]byte, error)) error {
	ops := col.pendingOps(txn)
	if len(ops) == 0 {
		return nil
	}
	b := stx.Bucket(bucket)
	if b == nil {
		return collectionErrf(col.name, "", ErrStoreBucketMissing, "persist")
	}
	for _, op := range ops {
		switch op.kind {
		case opDelete:
			if err := b.Delete([]byte(op.oldKey)); err != nil {
				return collectionErrf(col.name, op.oldKey, err, "delete row")
			}
		case opInsert, opUpdate:
			k := op.entry.keyString()
			if op.kind == opUpdate && op.oldKey != "" && op.oldKey != k {
				if err := b.Delete([]byte(op.oldKey)); err != nil {
					return collectionErrf(col.name, op.oldKey, err, "delete renamed row")
				}
			}
			value, err := encode(op.entry)
			if err != nil {
				return collectionErrf(col.name, k, err, "encode row")
			}
			if err := b.Put([]byte(k), value); err != nil {
				return collectionErrf(col.name, k, err, "put row")
			}
		}
	}
	return nil
}

// AcquireTypeContext returns the cached context for key, creating it from
// desc on first use. Creation bypasses transaction buffering: a context
// carries no data of its own, so it is installed directly into the
// committed snapshot and shared by all transactions from then on. Requires
// a writable handle.
func (tx *Tx) AcquireTypeContext(key TypeContextKey, desc *TypeDescriptor) (*TypeContext, error) {
	if err := tx.requireWritable(); err != nil {
		return nil, err
	}
	if tc, ok := tx.c.typeContexts.GetCommitted(key.String()); ok {
		return tc, nil
	}
	if desc == nil {
		return nil, ErrNilDescriptor
	}
	if desc.Key() != key.DescriptorKey() {
		return nil, collectionErrf("type_contexts", key.String(), nil,
			"descriptor %s does not match", desc.Key().String())
	}
	tc := &TypeContext{key: key, desc: desc}
	tx.c.typeContexts.putCommitted(tc)
	tx.c.vlog("victionary: created type context %s", key.String())
	return tc, nil
}

// InvalidateTypeContexts drops every cached context backed by the given
// descriptor. Called when the descriptor's extension is unloaded.
func (tx *Tx) InvalidateTypeContexts(descKey TypeDescriptorKey) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	for k, tc := range tx.c.typeContexts.committed {
		if tc.key.DescriptorKey() == descKey {
			delete(tx.c.typeContexts.committed, k)
		}
	}
	return nil
}

// Stats snapshots the counters of all six collections.
func (c *Client) Stats() []CollectionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []CollectionStats{
		c.properties.Stats(),
		c.columns.Stats(),
		c.extensions.Stats(),
		c.typeDescriptors.Stats(),
		c.extensionDescriptors.Stats(),
		c.typeContexts.Stats(),
	}
}

// ClearAll drops every collection, committed and pending. The client stays
// initialized; Reload can repopulate from the store.
func (c *Client) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties.clear()
	c.columns.clear()
	c.extensions.clear()
	c.typeDescriptors.clear()
	c.extensionDescriptors.clear()
	c.typeContexts.clear()
}

// Close clears the cache and closes the store. The client cannot be
// reinitialized afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties.clear()
	c.columns.clear()
	c.extensions.clear()
	c.typeDescriptors.clear()
	c.extensionDescriptors.clear()
	c.typeContexts.clear()
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
