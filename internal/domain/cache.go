package domain

import (
	"context"
	"time"
)

// CacheRepository defines the generic caching operations used by services.
// Get returns an error on a miss; callers treat any Get error as a miss.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	workoutListCachePrefix   = "workouts:user:"
	workoutDetailCachePrefix = "workout:detail:"

	// Glob patterns matching every cached library or detail entry
	WorkoutListCachePattern   = workoutListCachePrefix + "*"
	WorkoutDetailCachePattern = workoutDetailCachePrefix + "*"
)

// WorkoutListCacheKey is the key of a user's unfiltered workout library
func WorkoutListCacheKey(userID string) string {
	return workoutListCachePrefix + userID
}

// WorkoutDetailCacheKey is the key of a workout with its exercises
func WorkoutDetailCacheKey(workoutID string) string {
	return workoutDetailCachePrefix + workoutID
}
