package revocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_BlacklistThenRevoked(t *testing.T) {
	t.Parallel()

	store := NewStore(NewMemoryKV(), "")
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Blacklist(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStore_Blacklist_Idempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(NewMemoryKV(), "")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, store.Blacklist(ctx, "jti-2", exp))
	require.NoError(t, store.Blacklist(ctx, "jti-2", exp))

	revoked, err := store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStore_Blacklist_PastExpiryStillHeld(t *testing.T) {
	t.Parallel()

	store := NewStore(NewMemoryKV(), "")
	ctx := context.Background()

	// exp in the past still gets a short hold, never a negative TTL
	require.NoError(t, store.Blacklist(ctx, "jti-3", time.Now().Add(-time.Hour)))

	revoked, err := store.IsRevoked(ctx, "jti-3")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewStore(NewMemoryKV(), "")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, store.Blacklist(ctx, "jti-4", exp))
			_, err := store.IsRevoked(ctx, "jti-4")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	revoked, err := store.IsRevoked(ctx, "jti-4")
	require.NoError(t, err)
	assert.True(t, revoked)
}
