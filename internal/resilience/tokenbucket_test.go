package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_ConsumesWithinCapacity(t *testing.T) {
	b := NewTokenBucket(TokenBucketConfig{Capacity: 3, RefillRatePerMs: 0.001})
	assert.True(t, b.TryConsume(3))
}

func TestTokenBucket_RefusesBeyondCapacity(t *testing.T) {
	b := NewTokenBucket(TokenBucketConfig{Capacity: 2, RefillRatePerMs: 0.0001})
	assert.True(t, b.TryConsume(2))
	assert.False(t, b.TryConsume(1), "bucket should be empty immediately after draining capacity")
}
