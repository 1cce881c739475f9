package chunks

import (
	"sync/atomic"

	"github.com/dgraph-io/badger"

	"github.com/vaultnet/vaultnode/src/routing"
)

// Store persists chunks in a Badger database keyed by content address. Writes
// are idempotent: a chunk address fully determines its bytes, so storing an
// already-held chunk is a no-op.
type Store struct {
	db   *badger.DB
	path string
	used uint64
}

// NewStore opens (or creates) the chunk database at path.
func NewStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &Store{
		db:   db,
		path: path,
	}

	// Rebuild the used-space counter from what is already on disk.
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var used uint64
		for it.Rewind(); it.Valid(); it.Next() {
			used += uint64(it.Item().EstimatedSize())
		}
		store.used = used
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Put stores a chunk's bytes under its address.
func (s *Store) Put(name routing.XorName, value []byte) error {
	has, err := s.Has(name)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(name[:], value)
	})
	if err != nil {
		return err
	}
	atomic.AddUint64(&s.used, uint64(len(value)))
	return nil
}

// Get returns the bytes stored under an address.
func (s *Store) Get(name routing.XorName) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(name[:])
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, NewStoreErr(ChunkNotFound, name.Hex())
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has reports whether an address is stored.
func (s *Store) Has(name routing.XorName) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(name[:])
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UsedSpace returns the approximate number of bytes stored.
func (s *Store) UsedSpace() uint64 {
	return atomic.LoadUint64(&s.used)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
