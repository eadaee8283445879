package cache

import (
	"context"
	"sync"
	"time"

	"github.com/carconfig/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps request keys in process memory. It serves a
// single instance; multi-instance deployments use RedisIdempotencyStore.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time

	stop    context.CancelFunc
	stopped chan struct{}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore starts a sweeper that drops expired keys every
// interval until Close.
func NewInMemoryIdempotencyStore(interval time.Duration) *InMemoryIdempotencyStore {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		stop:    cancel,
		stopped: make(chan struct{}),
	}
	go s.sweepEvery(ctx, interval)
	return s
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.expires[key]; ok && now.Before(until) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	until, ok := s.expires[key]
	s.mu.RUnlock()
	return ok && time.Now().Before(until), nil
}

// Close stops the sweeper and waits for it. Later calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stop()
	<-s.stopped
	return nil
}

// Size is the number of keys held, expired ones included until swept.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) sweepEvery(ctx context.Context, interval time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, until := range s.expires {
		if !now.Before(until) {
			delete(s.expires, key)
		}
	}
}
