package idempotency

import (
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestStore_ClaimCompleteReplay(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	rec, err := store.Claim(ctx, "payments", "key-1", "fp-1")
	require.NoError(t, err)
	assert.Nil(t, rec, "first claim owns the key")

	_, err = store.Claim(ctx, "payments", "key-1", "fp-1")
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, store.Complete(ctx, "payments", "key-1", "fp-1", 201, []byte(`{"success":true}`)))

	rec, err = store.Claim(ctx, "payments", "key-1", "fp-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Done())
	assert.Equal(t, 201, rec.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(rec.Body))
}

func TestStore_KeyReusedWithDifferentRequest(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	_, err := store.Claim(ctx, "payments", "key-3", "fp-a")
	require.NoError(t, err)

	_, err = store.Claim(ctx, "payments", "key-3", "fp-b")
	assert.ErrorIs(t, err, ErrKeyReused, "pending claim")

	require.NoError(t, store.Complete(ctx, "payments", "key-3", "fp-a", 201, []byte(`{"success":true}`)))

	_, err = store.Claim(ctx, "payments", "key-3", "fp-b")
	assert.ErrorIs(t, err, ErrKeyReused, "completed claim")

	rec, err := store.Claim(ctx, "payments", "key-3", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, "fp-a", rec.Fingerprint)
}

func TestStore_Release(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	_, err := store.Claim(ctx, "payments", "key-2", "fp-2")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "payments", "key-2"))

	rec, err := store.Claim(ctx, "payments", "key-2", "fp-2")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	_, err := store.Claim(ctx, "payments", "same", "fp")
	require.NoError(t, err)

	rec, err := store.Claim(ctx, "admin", "same", "fp")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ConcurrentClaims(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		owners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := store.Claim(ctx, "payments", "race", "fp")
			if err == nil && rec == nil {
				mu.Lock()
				owners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, owners)
}

func TestBuildKey(t *testing.T) {
	s := &Store{}
	assert.Equal(t, "idempotency:payments:abc", s.buildKey("payments", "abc"))
}
