package kvstore

// engine is an ordered key-value store with transactions.
type engine interface {
	view(fn func(r reader) error) error
	update(fn func(w writer) error) error
	close() error
}

type reader interface {
	// get returns a copy of the value at key.
	get(key []byte) ([]byte, bool, error)
	// scan calls fn for every key with prefix, in byte order. The slices
	// are only valid during the call.
	scan(prefix []byte, fn func(key, value []byte) error) error
}

type writer interface {
	reader
	set(key, value []byte) error
	delete(key []byte) error
}
