package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_DefaultsToMemory(t *testing.T) {
	b, err := NewBackend(FactoryConfig{})
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.(*MemoryBackend)
	assert.True(t, ok)
}

func TestNewBackend_ExplicitMemory(t *testing.T) {
	b, err := NewBackend(FactoryConfig{Provider: ProviderMemory, MaxEntries: 10})
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.(*MemoryBackend)
	assert.True(t, ok)
}

func TestNewBackend_UnknownProvider(t *testing.T) {
	_, err := NewBackend(FactoryConfig{Provider: "bogus"})
	assert.Error(t, err)
}

func TestNewBackend_RemoteWithoutServer_ConstructsDegraded(t *testing.T) {
	b, err := NewBackend(FactoryConfig{Provider: ProviderRemote, RedisAddr: "127.0.0.1:1"})
	require.NoError(t, err, "an unreachable cache host degrades, it does not fail startup")
	defer b.Close()

	assert.False(t, b.HealthCheck(context.Background()))
}
