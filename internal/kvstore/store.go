package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/queryir"
)

// Store is a document backend over a key-value engine.
type Store struct {
	name   string
	engine engine
}

func newStore(name string, e engine) *Store {
	return &Store{name: name, engine: e}
}

// Name returns the engine name ("badger", "bbolt" or "memory").
func (s *Store) Name() string {
	return s.name
}

// Upsert replaces the stored record of rec's document and moves its origin
// index entry to the current reference.
func (s *Store) Upsert(ctx context.Context, rec document.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: encode: %w", rec.Type, rec.ID, err)
	}

	err = s.engine.update(func(w writer) error {
		prev, err := getRecord(w, rec.Type, rec.ID)
		if err != nil {
			return err
		}
		if prev != nil && prev.Reference.StateTransitionHash != rec.Reference.StateTransitionHash {
			if err := w.delete(originKey(prev.Reference.StateTransitionHash, rec.Type, rec.ID)); err != nil {
				return err
			}
		}
		if err := w.set(docKey(rec.Type, rec.ID), value); err != nil {
			return err
		}
		return w.set(originKey(rec.Reference.StateTransitionHash, rec.Type, rec.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", rec.Type, rec.ID, err)
	}
	return nil
}

// Get returns the stored record, soft-deleted or not.
// Returns (nil, nil) when the document does not exist.
func (s *Store) Get(ctx context.Context, docType, id string) (*document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *document.Record
	err := s.engine.view(func(r reader) error {
		var err error
		rec, err = getRecord(r, docType, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", docType, id, err)
	}
	return rec, nil
}

// Query scans every record of the plan's type in id order and applies the
// plan in process.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, plan queryir.Plan) ([]document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []document.Record
	err := s.engine.view(func(r reader) error {
		return r.scan(typePrefix(plan.DocumentType), func(_, value []byte) error {
			rec, err := decodeRecord(value)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.DocumentType, err)
	}

	byID := make(map[string]document.Record, len(recs))
	targets := make([]queryir.Target, len(recs))
	for i, rec := range recs {
		byID[rec.ID] = rec
		targets[i] = queryir.Target{
			Type:    rec.Type,
			ID:      rec.ID,
			UserID:  rec.UserID,
			Data:    rec.Data,
			Deleted: rec.Deleted,
		}
	}

	matched := queryir.Apply(plan, targets)
	out := make([]document.Record, len(matched))
	for i, t := range matched {
		out[i] = byID[t.ID]
	}
	return out, nil
}

// FindByOrigin returns the documents of docType whose current revision was
// produced by stHash, soft-deleted ones included, ordered by id.
func (s *Store) FindByOrigin(ctx context.Context, docType, stHash string) ([]document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []document.Record{}
	prefix := originTypePrefix(stHash, docType)
	err := s.engine.view(func(r reader) error {
		var ids []string
		err := r.scan(prefix, func(key, _ []byte) error {
			ids = append(ids, string(key[len(prefix):]))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := getRecord(r, docType, id)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("origin index points at missing document %s/%s", docType, id)
			}
			out = append(out, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find by origin %s: %w", stHash, err)
	}
	return out, nil
}

// Remove deletes a document and its origin entry. Removing a missing
// document is not an error.
func (s *Store) Remove(ctx context.Context, docType, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.engine.update(func(w writer) error {
		prev, err := getRecord(w, docType, id)
		if err != nil || prev == nil {
			return err
		}
		if err := w.delete(originKey(prev.Reference.StateTransitionHash, docType, id)); err != nil {
			return err
		}
		return w.delete(docKey(docType, id))
	})
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", docType, id, err)
	}
	return nil
}

// SyncState returns the stored sync state, or (nil, nil) before the first
// SaveSyncState.
func (s *Store) SyncState(ctx context.Context) (*document.SyncState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var state *document.SyncState
	err := s.engine.view(func(r reader) error {
		value, ok, err := r.get(syncKey)
		if err != nil || !ok {
			return err
		}
		state = &document.SyncState{}
		return json.Unmarshal(value, state)
	})
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return state, nil
}

// SaveSyncState replaces the stored sync state.
func (s *Store) SaveSyncState(ctx context.Context, state document.SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	err = s.engine.update(func(w writer) error {
		return w.set(syncKey, value)
	})
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

// Close releases the engine.
func (s *Store) Close() error {
	return s.engine.close()
}

func getRecord(r reader, docType, id string) (*document.Record, error) {
	value, ok, err := r.get(docKey(docType, id))
	if err != nil || !ok {
		return nil, err
	}
	rec, err := decodeRecord(value)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeRecord(value []byte) (document.Record, error) {
	var rec document.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return document.Record{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.Data == nil {
		rec.Data = ir.IRObject{}
	}
	return rec, nil
}
