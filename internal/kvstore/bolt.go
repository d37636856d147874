package kvstore

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("stateview")

// OpenBolt opens a bbolt-backed store at path.
func OpenBolt(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ensure root bucket exists: %w", err)
	}

	return newStore("bbolt", &boltEngine{db: db}), nil
}

type boltEngine struct {
	db *bolt.DB
}

func (e *boltEngine) view(fn func(r reader) error) error {
	return e.db.View(func(tx *bolt.Tx) error {
		return fn(boltTxn{bucket: tx.Bucket(boltBucket)})
	})
}

func (e *boltEngine) update(fn func(w writer) error) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTxn{bucket: tx.Bucket(boltBucket)})
	})
}

func (e *boltEngine) close() error {
	return e.db.Close()
}

type boltTxn struct {
	bucket *bolt.Bucket
}

func (t boltTxn) get(key []byte) ([]byte, bool, error) {
	value := t.bucket.Get(key)
	if value == nil {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

func (t boltTxn) scan(prefix []byte, fn func(key, value []byte) error) error {
	c := t.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t boltTxn) set(key, value []byte) error {
	return t.bucket.Put(key, value)
}

func (t boltTxn) delete(key []byte) error {
	return t.bucket.Delete(key)
}
