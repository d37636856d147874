package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerOptions contains configuration options for the Badger backend.
type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Used by tests.
	InMemory bool

	// SyncWrites ensures durability by syncing writes to disk.
	SyncWrites bool

	// Compression enables Snappy compression for values.
	Compression bool

	// Logger receives Badger's internal log output.
	// If nil, logging is disabled.
	Logger badger.Logger
}

// DefaultBadgerOptions returns durable defaults for path.
func DefaultBadgerOptions(path string) BadgerOptions {
	return BadgerOptions{
		Path:        path,
		SyncWrites:  true,
		Compression: true,
	}
}

// OpenBadger opens a Badger-backed store.
func OpenBadger(opts BadgerOptions) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithSyncWrites(opts.SyncWrites)

	if opts.Compression {
		badgerOpts = badgerOpts.WithCompression(options.Snappy)
	} else {
		badgerOpts = badgerOpts.WithCompression(options.None)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badgerdb: %w", err)
	}
	return newStore("badger", &badgerEngine{db: db}), nil
}

type badgerEngine struct {
	db *badger.DB
}

func (e *badgerEngine) view(fn func(r reader) error) error {
	return e.db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
}

func (e *badgerEngine) update(fn func(w writer) error) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
}

func (e *badgerEngine) close() error {
	return e.db.Close()
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (t badgerTxn) scan(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(value []byte) error {
			return fn(item.Key(), value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (t badgerTxn) set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t badgerTxn) delete(key []byte) error {
	return t.txn.Delete(key)
}
