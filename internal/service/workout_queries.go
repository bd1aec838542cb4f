package service

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/sirupsen/logrus"
)

// List returns the user's workouts, newest first, narrowed by filter.
// The unfiltered library is cached per user; filters run in memory.
func (s *WorkoutService) List(ctx context.Context, userID string, filter domain.WorkoutFilter) ([]*domain.Workout, error) {
	workouts, err := s.library(ctx, userID)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return workouts, nil
	}

	matched := make([]*domain.Workout, 0, len(workouts))
	for _, w := range workouts {
		if filter.Matches(w) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

func (s *WorkoutService) library(ctx context.Context, userID string) ([]*domain.Workout, error) {
	key := domain.WorkoutListCacheKey(userID)
	if s.cache != nil {
		var cached []*domain.Workout
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	workouts, err := s.workouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, workouts, s.ttl)
	}
	return workouts, nil
}

// Get returns a workout the user owns together with its ordered exercises
func (s *WorkoutService) Get(ctx context.Context, userID, workoutID string) (*domain.WorkoutDetail, error) {
	key := domain.WorkoutDetailCacheKey(workoutID)
	if s.cache != nil {
		var cached domain.WorkoutDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Workout != nil {
			if cached.Workout.UserID != userID {
				return nil, domain.ErrForbidden
			}
			return &cached, nil
		}
	}

	workout, err := s.owned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListByWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("list workout exercises: %w", err)
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ExerciseID)
	}
	exercises, err := s.exercises.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	byID := make(map[string]*domain.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	views := make([]*domain.WorkoutExerciseView, 0, len(links))
	for _, l := range links {
		views = append(views, &domain.WorkoutExerciseView{WorkoutExercise: l, Exercise: byID[l.ExerciseID]})
	}

	detail := &domain.WorkoutDetail{Workout: workout, Exercises: views}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, detail, s.ttl)
	}
	return detail, nil
}

// Rename sets or clears (nil) the display name. The name must already be normalized.
func (s *WorkoutService) Rename(ctx context.Context, userID, workoutID string, name *string) (*domain.Workout, error) {
	if _, err := s.owned(ctx, userID, workoutID); err != nil {
		return nil, err
	}

	updated, err := s.workouts.UpdateName(ctx, workoutID, name)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, workoutID)
	s.logger.WithFields(logrus.Fields{"user_id": userID, "workout_id": workoutID}).Info("workout renamed")
	return updated, nil
}

// Delete removes a workout the user owns along with its exercise links
func (s *WorkoutService) Delete(ctx context.Context, userID, workoutID string) error {
	if _, err := s.owned(ctx, userID, workoutID); err != nil {
		return err
	}

	if err := s.workouts.Delete(ctx, workoutID); err != nil {
		return err
	}

	s.invalidate(ctx, userID, workoutID)
	s.logger.WithFields(logrus.Fields{"user_id": userID, "workout_id": workoutID}).Info("workout deleted")
	return nil
}

func (s *WorkoutService) owned(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	workout, err := s.workouts.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return workout, nil
}

func (s *WorkoutService) invalidate(ctx context.Context, userID, workoutID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, domain.WorkoutListCacheKey(userID), domain.WorkoutDetailCacheKey(workoutID)); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to invalidate workout cache")
	}
}
