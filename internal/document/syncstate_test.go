package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncState(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	var nilState *SyncState
	assert.Equal(t, SyncStatusInitial, nilState.Status())

	s := &SyncState{}
	assert.Equal(t, SyncStatusInitial, s.Status())
	_, ok := s.LastBlock()
	assert.False(t, ok)

	s.Push(BlockRef{Height: 1, Hash: "b1"}, t0)
	s.Push(BlockRef{Height: 2, Hash: "b2"}, t1)
	assert.Equal(t, SyncStatusSyncing, s.Status())
	last, ok := s.LastBlock()
	require.True(t, ok)
	assert.Equal(t, BlockRef{Height: 2, Hash: "b2"}, last)
	assert.Equal(t, t0, s.LastInitialSyncAt)
	assert.Equal(t, t1, s.LastSyncAt)

	assert.False(t, s.Pop(BlockRef{Height: 1, Hash: "b1"}, t1), "not the last block")
	assert.False(t, s.Pop(BlockRef{Height: 2, Hash: "other"}, t1), "hash mismatch")

	require.True(t, s.Pop(BlockRef{Height: 2, Hash: "b2"}, t1))
	last, _ = s.LastBlock()
	assert.Equal(t, BlockRef{Height: 1, Hash: "b1"}, last)

	require.True(t, s.Pop(BlockRef{Height: 1, Hash: "b1"}, t1))
	last, ok = s.LastBlock()
	require.True(t, ok)
	assert.Equal(t, BlockRef{Height: 0}, last, "height below the oldest block with unknown hash")
}

func TestSyncStateKeepsRecentBlocks(t *testing.T) {
	s := &SyncState{}
	now := time.Now()
	for h := int64(1); h <= MaxRecentBlocks+5; h++ {
		s.Push(BlockRef{Height: h, Hash: "b"}, now)
	}
	require.Len(t, s.Blocks, MaxRecentBlocks)
	assert.Equal(t, int64(6), s.Blocks[0].Height)
	last, _ := s.LastBlock()
	assert.Equal(t, int64(MaxRecentBlocks+5), last.Height)
}
