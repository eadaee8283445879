package shared

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex[int64]()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(7)
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.Len())
}

func TestKeyedMutex_DistinctKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex[int64]()
	unlockA := m.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_LockAllDeduplicatesAndOrders(t *testing.T) {
	m := NewKeyedMutex[int64]()
	var wg sync.WaitGroup

	// opposite orders would deadlock without sorted acquisition
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := []int64{1, 2, 3, 3}
			if i%2 == 0 {
				keys = []int64{3, 2, 1}
			}
			unlock := m.LockAll(keys)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}
