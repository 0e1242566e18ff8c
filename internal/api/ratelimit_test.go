package api

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Construction(t *testing.T) {
	t.Run("keeps configured values", func(t *testing.T) {
		rl := NewRateLimiter(2, 5)

		assert.Equal(t, 2.0, rl.requestsPerSecond)
		assert.Equal(t, 5, rl.burstSize)
	})

	t.Run("repairs non-positive values", func(t *testing.T) {
		rl := NewRateLimiter(0, 0)

		assert.Equal(t, 1.0, rl.requestsPerSecond)
		assert.Equal(t, 1, rl.burstSize)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows within burst", func(t *testing.T) {
		rl := NewRateLimiter(10, 10)

		for i := 0; i < 10; i++ {
			assert.True(t, rl.Allow("client"))
		}
	})

	t.Run("blocks over burst", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)

		assert.True(t, rl.Allow("client"))
		assert.True(t, rl.Allow("client"))
		assert.False(t, rl.Allow("client"))
	})

	t.Run("isolates clients", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)

		assert.True(t, rl.Allow("first"))
		assert.False(t, rl.Allow("first"))
		assert.True(t, rl.Allow("second"))
	})
}

func TestRateLimiter_MemoryBounds(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	for i := 0; i < 10001; i++ {
		rl.Allow(fmt.Sprintf("client-%d", i))
	}

	rl.mu.RLock()
	count := len(rl.limiters)
	rl.mu.RUnlock()

	assert.LessOrEqual(t, count, 10000)
}
