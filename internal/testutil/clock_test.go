package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeightClock_StartsAfterStart(t *testing.T) {
	clock := NewHeightClock(10)

	assert.Equal(t, int64(10), clock.Current())
	assert.Equal(t, int64(11), clock.Next())
	assert.Equal(t, int64(12), clock.Next())
	assert.Equal(t, int64(12), clock.Current())
}

func TestHeightClock_Reset(t *testing.T) {
	clock := NewHeightClock(0)
	clock.Next()
	clock.Next()

	clock.Reset(0)
	assert.Equal(t, int64(1), clock.Next())
}

func TestHeightClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewHeightClock(0)

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := clock.Next()
				mu.Lock()
				seen[h] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
	assert.Equal(t, int64(1000), clock.Current())
}
