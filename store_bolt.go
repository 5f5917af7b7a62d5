package victionary

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"go.etcd.io/bbolt"
)

type boltStore struct {
	bdb *bbolt.DB
}

// BoltOptions tunes OpenBolt.
type BoltOptions struct {
	// FileMode for a newly created file, 0o644 when zero.
	FileMode os.FileMode

	// IsTesting trades durability for speed (NoSync).
	IsTesting bool
}

// OpenBolt opens (creating if needed) a Bolt file and ensures the
// collection buckets exist.
func OpenBolt(path string, opt BoltOptions) (Store, error) {
	mode := opt.FileMode
	if mode == 0 {
		mode = 0o644
	}
	bopt := &bbolt.Options{
		Timeout:      10 * time.Second,
		FreelistType: bbolt.FreelistMapType,
		NoSync:       opt.IsTesting,
	}
	bdb, err := bbolt.Open(path, mode, bopt)
	if err != nil {
		return nil, fmt.Errorf("victionary: open %s: %w", path, err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		for _, name := range []string{bucketProperties, bucketColumns, bucketExtensions} {
			if _, err := btx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("victionary: init %s: %w", path, err)
	}
	return &boltStore{bdb: bdb}, nil
}

// NewBoltStore wraps an already-open Bolt handle. The collection buckets
// must already exist.
func NewBoltStore(bdb *bbolt.DB) Store {
	return &boltStore{bdb: bdb}
}

func (s *boltStore) BeginTx(writable bool) (StoreTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltStoreTx{btx: btx}, nil
}

func (s *boltStore) Close() error {
	return s.bdb.Close()
}

type boltStoreTx struct {
	btx *bbolt.Tx
}

func (tx *boltStoreTx) BoltTx() *bbolt.Tx { return tx.btx }

func (tx *boltStoreTx) Bucket(name string) StoreBucket {
	b := tx.btx.Bucket(unsafeBytesFromString(name))
	if b == nil {
		return nil
	}
	return boltStoreBucket{b: b}
}

func (tx *boltStoreTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStoreTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

type boltStoreBucket struct {
	b *bbolt.Bucket
}

func (b boltStoreBucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b boltStoreBucket) Put(key, value []byte) error { return b.b.Put(key, value) }

func (b boltStoreBucket) Delete(key []byte) error { return b.b.Delete(key) }

func (b boltStoreBucket) ForEach(fn func(key, value []byte) error) error {
	return b.b.ForEach(fn)
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
