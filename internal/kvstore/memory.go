package kvstore

import (
	"bytes"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// NewMemory returns a store kept in an in-memory sorted map. Data is lost
// on Close.
func NewMemory() *Store {
	return newStore("memory", &memoryEngine{kvs: treemap.NewWith(utils.StringComparator)})
}

type memoryEngine struct {
	mu  sync.RWMutex
	kvs *treemap.Map
}

func (e *memoryEngine) view(fn func(r reader) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(&memoryTxn{kvs: e.kvs})
}

// update stages writes and applies them only when fn succeeds.
func (e *memoryEngine) update(fn func(w writer) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	txn := &memoryTxn{kvs: e.kvs, staged: map[string][]byte{}}
	if err := fn(txn); err != nil {
		return err
	}
	for _, key := range txn.order {
		value := txn.staged[key]
		if value == nil {
			e.kvs.Remove(key)
			continue
		}
		e.kvs.Put(key, value)
	}
	return nil
}

func (e *memoryEngine) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kvs.Clear()
	return nil
}

// memoryTxn reads the committed map. Inside an update, get also sees the
// transaction's own staged writes; scan does not.
type memoryTxn struct {
	kvs    *treemap.Map
	staged map[string][]byte // nil value marks a delete
	order  []string
}

func (t *memoryTxn) get(key []byte) ([]byte, bool, error) {
	if value, ok := t.staged[string(key)]; ok {
		if value == nil {
			return nil, false, nil
		}
		return bytes.Clone(value), true, nil
	}
	value, ok := t.kvs.Get(string(key))
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value.([]byte)), true, nil
}

func (t *memoryTxn) scan(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	it := t.kvs.Iterator()
	for it.Next() {
		key := it.Key().(string)
		if key < p {
			continue
		}
		if !strings.HasPrefix(key, p) {
			break
		}
		if err := fn([]byte(key), it.Value().([]byte)); err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryTxn) set(key, value []byte) error {
	t.stage(string(key), bytes.Clone(value))
	return nil
}

func (t *memoryTxn) delete(key []byte) error {
	t.stage(string(key), nil)
	return nil
}

func (t *memoryTxn) stage(key string, value []byte) {
	if _, seen := t.staged[key]; !seen {
		t.order = append(t.order, key)
	}
	t.staged[key] = value
}
