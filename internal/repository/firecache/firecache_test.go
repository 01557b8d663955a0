package firecache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// setupCache returns a cache over a miniredis instance.
func setupCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Cache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, New(client, ttl)
}

// TestRememberAndRecall verifies the round trip of a fired definition.
func TestRememberAndRecall(t *testing.T) {
	t.Parallel()

	_, cache := setupCache(t, time.Minute)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:    42,
		Time:  alarm.TimeOfDay{Hour: 9},
		Label: "Work",
		Challenge: alarm.ChallengeSpec{
			Kind:       alarm.ChallengeMath,
			Difficulty: 2,
		},
	}

	require.NoError(t, cache.Remember(ctx, def))

	got, err := cache.Recall(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, def, got)
}

// TestRecallMiss verifies the sentinel error for unknown ids.
func TestRecallMiss(t *testing.T) {
	t.Parallel()

	_, cache := setupCache(t, time.Minute)

	_, err := cache.Recall(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestRecallAfterExpiry verifies the TTL is applied.
func TestRecallAfterExpiry(t *testing.T) {
	t.Parallel()

	mr, cache := setupCache(t, time.Second)
	ctx := context.Background()

	def := &alarm.Definition{ID: 7, Time: alarm.TimeOfDay{Hour: 8}}
	require.NoError(t, cache.Remember(ctx, def))

	mr.FastForward(2 * time.Second)

	_, err := cache.Recall(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)
}
