package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/esign/cache"
)

func TestMemoryTokenStore_SetGet(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	defer store.Close()
	ctx := context.Background()

	key := cache.CredentialKey("ik", "user", "signature impersonation")
	entry := &cache.TokenEntry{Key: key, TokenValue: "tok", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Set(ctx, entry, time.Hour))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.TokenValue)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrTokenNotFound)
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	store := cache.NewMemoryTokenStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &cache.TokenEntry{Key: "k", TokenValue: "v"}, 20*time.Millisecond))
	require.NoError(t, store.Set(ctx, &cache.TokenEntry{Key: "skip", TokenValue: "v"}, 0))

	_, err := store.Get(ctx, "skip")
	assert.ErrorIs(t, err, cache.ErrTokenNotFound)

	time.Sleep(50 * time.Millisecond)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrTokenNotFound)
}

func TestCredentialKey_Stable(t *testing.T) {
	a := cache.CredentialKey("ik", "user", "signature")
	assert.Equal(t, a, cache.CredentialKey("ik", "user", "signature"))
	assert.NotEqual(t, a, cache.CredentialKey("ik", "other", "signature"))
	assert.Len(t, a, 64)
}
