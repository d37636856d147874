package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/stateview/internal/document"
)

// SyncState returns the stored sync state, or (nil, nil) before the first
// SaveSyncState.
func (s *Store) SyncState(ctx context.Context) (*document.SyncState, error) {
	var (
		blocks          string
		lastSync        string
		lastInitialSync string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT recent_blocks, last_sync_at, last_initial_sync_at
		FROM sync_state WHERE id = 1
	`).Scan(&blocks, &lastSync, &lastInitialSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	state := &document.SyncState{}
	if err := json.Unmarshal([]byte(blocks), &state.Blocks); err != nil {
		return nil, fmt.Errorf("get sync state: decode blocks: %w", err)
	}
	if state.LastSyncAt, err = time.Parse(time.RFC3339Nano, lastSync); err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	if state.LastInitialSyncAt, err = time.Parse(time.RFC3339Nano, lastInitialSync); err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return state, nil
}

// SaveSyncState replaces the stored sync state.
func (s *Store) SaveSyncState(ctx context.Context, state document.SyncState) error {
	blocks, err := json.Marshal(state.Blocks)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	last, _ := state.LastBlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_state
		(id, block_height, block_hash, recent_blocks, last_sync_at, last_initial_sync_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			block_height = excluded.block_height,
			block_hash = excluded.block_hash,
			recent_blocks = excluded.recent_blocks,
			last_sync_at = excluded.last_sync_at,
			last_initial_sync_at = excluded.last_initial_sync_at
	`,
		last.Height,
		last.Hash,
		string(blocks),
		state.LastSyncAt.UTC().Format(time.RFC3339Nano),
		state.LastInitialSyncAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}
