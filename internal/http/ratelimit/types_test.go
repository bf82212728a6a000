package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleDisabled(t *testing.T) {
	limiter := NewRateLimiter(Config{RequestsPerMinute: 0})

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Throttle())
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottleEnforcesInterval(t *testing.T) {
	// 6000 requests per minute is a 10ms minimum interval.
	limiter := NewRateLimiter(Config{RequestsPerMinute: 6000})

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Throttle())
	}
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestThrottleConcurrent(t *testing.T) {
	limiter := NewRateLimiter(Config{RequestsPerMinute: 6000})

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				assert.NoError(t, limiter.Throttle())
			}
		}()
	}
	wg.Wait()

	// 12 calls sharing one limiter leave at least 11 full intervals.
	assert.GreaterOrEqual(t, time.Since(start), 110*time.Millisecond)
}

func TestReset(t *testing.T) {
	limiter := NewRateLimiter(Config{RequestsPerMinute: 60})
	require.NoError(t, limiter.Throttle())
	limiter.Reset()

	start := time.Now()
	require.NoError(t, limiter.Throttle())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
