package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestRateLimiter_Reserve(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 3, Window: 3 * time.Second})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.Zero(t, rl.Reserve("a"), "request %d", i)
	}
	wait := rl.Reserve("a")
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Second)

	// A rejected request does not consume a token
	assert.InDelta(t, wait.Seconds(), rl.Reserve("a").Seconds(), 0.05)
}

func TestRateLimiter_ConcurrentClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 10, Window: time.Hour})
	defer rl.Stop()

	var g errgroup.Group
	allowed := make([]int, 4)
	for i := range allowed {
		g.Go(func() error {
			key := string(rune('a' + i))
			for j := 0; j < 25; j++ {
				if rl.Reserve(key) == 0 {
					allowed[i]++
				}
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	for i, n := range allowed {
		assert.Equal(t, 10, n, "client %d", i)
	}
	assert.Equal(t, 4, rl.Len())
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute, IdleTTL: time.Millisecond})
	defer rl.Stop()

	rl.Reserve("idle")
	assert.Equal(t, 1, rl.Len())

	rl.evictIdle(time.Now().Add(time.Second))
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiter_StopReleasesSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Millisecond, CleanupInterval: time.Millisecond})
	rl.Reserve("a")
	time.Sleep(5 * time.Millisecond)
	rl.Stop()
	rl.Stop()
}
