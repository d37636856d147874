package testutil

import "sync"

// HeightClock hands out increasing block heights for tests.
//
// The same scenario run with a fresh HeightClock sees identical heights, so
// revision references and golden output stay stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type HeightClock struct {
	mu     sync.Mutex
	height int64
}

// NewHeightClock creates a clock whose first Next() returns start+1.
func NewHeightClock(start int64) *HeightClock {
	return &HeightClock{height: start}
}

// Next increments and returns the next block height.
//
// Monotonic: always returns height+1, never decreases.
func (c *HeightClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	return c.height
}

// Current returns the last height handed out without incrementing.
func (c *HeightClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Reset rewinds the clock to start.
func (c *HeightClock) Reset(start int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = start
}
