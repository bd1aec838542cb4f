package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_SetGetDelete(t *testing.T) {
	client, _ := testutil.SetupRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	name := "Push Day"
	in := []*domain.Workout{{ID: "w1", UserID: "u1", Name: &name}}
	require.NoError(t, cache.Set(ctx, domain.WorkoutListCacheKey("u1"), in, time.Minute))

	var out []*domain.Workout
	require.NoError(t, cache.Get(ctx, domain.WorkoutListCacheKey("u1"), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "w1", out[0].ID)
	assert.Equal(t, "Push Day", *out[0].Name)

	require.NoError(t, cache.Delete(ctx, domain.WorkoutListCacheKey("u1")))
	assert.ErrorIs(t, cache.Get(ctx, domain.WorkoutListCacheKey("u1"), &out), ErrCacheMiss)
}

func TestRedisCache_TTLExpires(t *testing.T) {
	client, mr := testutil.SetupRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var v string
	assert.ErrorIs(t, cache.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestRedisCache_DeleteByPattern(t *testing.T) {
	client, mr := testutil.SetupRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, domain.WorkoutDetailCacheKey("a"), 1, time.Minute))
	require.NoError(t, cache.Set(ctx, domain.WorkoutDetailCacheKey("b"), 2, time.Minute))
	require.NoError(t, cache.Set(ctx, domain.WorkoutListCacheKey("u1"), 3, time.Minute))

	require.NoError(t, cache.DeleteByPattern(ctx, domain.WorkoutDetailCachePattern))

	assert.False(t, mr.Exists(domain.WorkoutDetailCacheKey("a")))
	assert.False(t, mr.Exists(domain.WorkoutDetailCacheKey("b")))
	assert.True(t, mr.Exists(domain.WorkoutListCacheKey("u1")))
}

func TestRedisCache_InvalidateWorkout(t *testing.T) {
	client, mr := testutil.SetupRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, domain.WorkoutDetailCacheKey("w1"), 1, time.Minute))
	require.NoError(t, cache.Set(ctx, domain.WorkoutListCacheKey("u1"), 2, time.Minute))

	require.NoError(t, cache.InvalidateWorkout(ctx, "u1", "w1"))
	assert.False(t, mr.Exists(domain.WorkoutDetailCacheKey("w1")))
	assert.False(t, mr.Exists(domain.WorkoutListCacheKey("u1")))
}
