package document

import "time"

// Sync statuses reported for a store.
const (
	SyncStatusInitial = "initialSync"
	SyncStatusSyncing = "syncing"
)

// MaxRecentBlocks bounds SyncState.Blocks.
const MaxRecentBlocks = 100

// BlockRef identifies an applied block.
type BlockRef struct {
	Height int64  `json:"height"`
	Hash   string `json:"hash"`
}

// SyncState records how far a store has been synced. Blocks holds the
// most recently applied blocks, oldest first, so that reverting the last
// block can fall back to the one before it.
type SyncState struct {
	Blocks            []BlockRef `json:"blocks"`
	LastSyncAt        time.Time  `json:"lastSyncAt"`
	LastInitialSyncAt time.Time  `json:"lastInitialSyncAt"`
}

// LastBlock returns the last applied block, or false when none is known.
func (s *SyncState) LastBlock() (BlockRef, bool) {
	if s == nil || len(s.Blocks) == 0 {
		return BlockRef{}, false
	}
	return s.Blocks[len(s.Blocks)-1], true
}

// Push records b as the last applied block at now. The first push also
// sets LastInitialSyncAt.
func (s *SyncState) Push(b BlockRef, now time.Time) {
	s.Blocks = append(s.Blocks, b)
	if n := len(s.Blocks) - MaxRecentBlocks; n > 0 {
		s.Blocks = append([]BlockRef(nil), s.Blocks[n:]...)
	}
	s.LastSyncAt = now
	if s.LastInitialSyncAt.IsZero() {
		s.LastInitialSyncAt = now
	}
}

// Pop drops the last applied block when it is b and reports whether it
// did. An unknown hash on either side matches. When b was the oldest block
// remembered, the block below it is kept with an unknown hash so the
// height still resumes one lower.
func (s *SyncState) Pop(b BlockRef, now time.Time) bool {
	last, ok := s.LastBlock()
	if !ok || last.Height != b.Height || (b.Hash != "" && last.Hash != "" && last.Hash != b.Hash) {
		return false
	}
	s.Blocks = s.Blocks[:len(s.Blocks)-1]
	if len(s.Blocks) == 0 && b.Height > 0 {
		s.Blocks = []BlockRef{{Height: b.Height - 1}}
	}
	s.LastSyncAt = now
	return true
}

// Status returns SyncStatusInitial before the first block and
// SyncStatusSyncing after.
func (s *SyncState) Status() string {
	if _, ok := s.LastBlock(); !ok {
		return SyncStatusInitial
	}
	return SyncStatusSyncing
}
