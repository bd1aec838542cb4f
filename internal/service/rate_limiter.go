package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
)

// RateLimitWindow is the trailing window the daily quota is counted over
const RateLimitWindow = 24 * time.Hour

// DefaultDailyLimit is the number of workouts a user may generate per window
const DefaultDailyLimit = 100

// RequestRateLimiter decides whether a user may start another generation
type RequestRateLimiter interface {
	Check(ctx context.Context, userID string, now time.Time) error
}

// WorkoutCountLimiter counts persisted workouts in the trailing window. The check
// and the later insert are not atomic, so concurrent requests can overshoot by a few.
type WorkoutCountLimiter struct {
	workouts domain.WorkoutRepository
	limit    int
	window   time.Duration
}

func NewWorkoutCountLimiter(workouts domain.WorkoutRepository, limit int) *WorkoutCountLimiter {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &WorkoutCountLimiter{
		workouts: workouts,
		limit:    limit,
		window:   RateLimitWindow,
	}
}

// Check returns a *domain.RateLimitError once the user has reached the limit
func (l *WorkoutCountLimiter) Check(ctx context.Context, userID string, now time.Time) error {
	count, err := l.workouts.CountCreatedSince(ctx, userID, now.Add(-l.window))
	if err != nil {
		return fmt.Errorf("count recent workouts: %w", err)
	}
	if count >= int64(l.limit) {
		return &domain.RateLimitError{Limit: l.limit}
	}
	return nil
}
