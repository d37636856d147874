package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/stateview/internal/config"
	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/kvstore"
	"github.com/roach88/stateview/internal/logging"
	"github.com/roach88/stateview/internal/queryir"
	"github.com/roach88/stateview/internal/store"
)

// Backend is the storage a Repository runs on. Implemented by
// store.Store (SQLite) and kvstore.Store (Badger, bbolt, memory).
type Backend interface {
	// Upsert replaces the record of (rec.Type, rec.ID).
	Upsert(ctx context.Context, rec document.Record) error

	// Get returns the record including soft-deleted ones.
	// Returns (nil, nil) when absent.
	Get(ctx context.Context, docType, id string) (*document.Record, error)

	// Query executes a plan. Results are in plan order.
	Query(ctx context.Context, plan queryir.Plan) ([]document.Record, error)

	// FindByOrigin returns records whose current reference carries stHash.
	FindByOrigin(ctx context.Context, docType, stHash string) ([]document.Record, error)

	// Remove deletes the record and its history.
	Remove(ctx context.Context, docType, id string) error

	SyncStore

	Close() error
}

// SyncStore persists how far the backend has been synced.
type SyncStore interface {
	// SyncState returns (nil, nil) before the first SaveSyncState.
	SyncState(ctx context.Context) (*document.SyncState, error)
	SaveSyncState(ctx context.Context, state document.SyncState) error
}

var (
	_ Backend = (*store.Store)(nil)
	_ Backend = (*kvstore.Store)(nil)
)

// OpenBackend opens the backend selected by cfg.
func OpenBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := store.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBadger:
		opts := kvstore.DefaultBadgerOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
		if logger != nil {
			opts.Logger = logging.NewBadgerLogger(logger)
		}
		s, err := kvstore.OpenBadger(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBolt:
		s, err := kvstore.OpenBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMemory:
		return kvstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
