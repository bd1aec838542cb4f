package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/sirupsen/logrus"
)

// ExerciseResolver finds or creates catalog entries keyed by SearchKey
type ExerciseResolver struct {
	repo   domain.ExerciseRepository
	onNew  func(ctx context.Context)
	logger *logrus.Entry
}

func NewExerciseResolver(repo domain.ExerciseRepository) *ExerciseResolver {
	return &ExerciseResolver{
		repo:   repo,
		logger: logrus.WithField("component", "exercise_resolver"),
	}
}

// OnCreate registers a hook run after a new catalog entry is inserted
func (r *ExerciseResolver) OnCreate(fn func(ctx context.Context)) {
	r.onNew = fn
}

// Resolve returns the catalog entry for input.Name, creating it when absent.
// created is false when the entry already existed, including when a concurrent
// caller inserted it first. Existing entries are never modified.
func (r *ExerciseResolver) Resolve(ctx context.Context, input domain.ExerciseInput) (*domain.Exercise, bool, error) {
	key := SearchKey(input.Name)
	if key == "" {
		return nil, false, &domain.ValidationError{Field: "name", Message: "exercise name is empty"}
	}

	existing, err := r.repo.GetBySearchKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrExerciseNotFound) {
		return nil, false, fmt.Errorf("lookup exercise %q: %w", key, err)
	}

	equipment := strings.TrimSpace(input.Equipment)
	if equipment == "" {
		equipment = InferEquipment(input.Name)
	}
	movement := strings.ToLower(strings.TrimSpace(input.MovementType))
	if movement != domain.MovementCompound && movement != domain.MovementIsolation {
		movement = InferMovementType(input.Name, input.PrimaryMuscles)
	}

	ex := &domain.Exercise{
		Name:             strings.TrimSpace(input.Name),
		SearchKey:        key,
		PrimaryMuscles:   lowerAll(input.PrimaryMuscles),
		SecondaryMuscles: lowerAll(input.SecondaryMuscles),
		Equipment:        strings.ToLower(equipment),
		MovementType:     movement,
	}

	if err := r.repo.Create(ctx, ex); err != nil {
		if errors.Is(err, domain.ErrDuplicateExercise) {
			winner, lookupErr := r.repo.GetBySearchKey(ctx, key)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("re-read exercise %q after duplicate: %w", key, lookupErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create exercise %q: %w", key, err)
	}

	r.logger.WithFields(logrus.Fields{"exercise_id": ex.ID, "search_key": key}).Debug("created exercise")
	if r.onNew != nil {
		r.onNew(ctx)
	}
	return ex, true, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
