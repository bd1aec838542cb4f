package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/telemetry"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListCacheTTL = 5 * time.Minute
	rollbackTimeout     = 10 * time.Second
)

// WorkoutService runs the generation pipeline and the workout library use cases
type WorkoutService struct {
	workouts  domain.WorkoutRepository
	links     domain.WorkoutExerciseRepository
	exercises domain.ExerciseRepository
	resolver  *ExerciseResolver
	limiter   RequestRateLimiter
	generator domain.WorkoutGenerator

	cache   domain.CacheRepository
	ttl     time.Duration
	archive domain.ResponseArchive
	metrics *telemetry.Metrics
	now     func() time.Time
	logger  *logrus.Entry
}

func NewWorkoutService(
	workouts domain.WorkoutRepository,
	links domain.WorkoutExerciseRepository,
	exercises domain.ExerciseRepository,
	resolver *ExerciseResolver,
	limiter RequestRateLimiter,
	generator domain.WorkoutGenerator,
) *WorkoutService {
	return &WorkoutService{
		workouts:  workouts,
		links:     links,
		exercises: exercises,
		resolver:  resolver,
		limiter:   limiter,
		generator: generator,
		ttl:       defaultListCacheTTL,
		now:       time.Now,
		logger:    logrus.WithField("component", "workout_service"),
	}
}

// WithCache enables caching of workout libraries and details
func (s *WorkoutService) WithCache(cache domain.CacheRepository, ttl time.Duration) *WorkoutService {
	s.cache = cache
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithArchive stores every raw AI response before it is persisted
func (s *WorkoutService) WithArchive(archive domain.ResponseArchive) *WorkoutService {
	s.archive = archive
	return s
}

func (s *WorkoutService) WithMetrics(m *telemetry.Metrics) *WorkoutService {
	s.metrics = m
	if m != nil && s.resolver != nil {
		s.resolver.OnCreate(m.ExerciseCreated)
	}
	return s
}

// generateULID creates a new ULID string
func generateULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Generate enforces the quota, validates the request, calls the generator and
// persists the result. Validation and quota failures never reach the generator.
func (s *WorkoutService) Generate(ctx context.Context, userID string, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	ctx, span := otel.Tracer("workout-service").Start(ctx, "WorkoutService.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	log := s.logger.WithField("user_id", userID)

	if err := s.limiter.Check(ctx, userID, s.now()); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.metrics.GenerationFailed(ctx, "ai")
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		log.WithError(err).Error("workout generation failed")
		if !errors.Is(err, domain.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"model":              generated.Model,
		"exercises":          len(generated.Exercises),
		"generation_time_ms": generated.GenerationTimeMS,
	}).Info("workout generated")

	rawKey := s.archiveRawResponse(ctx, userID, generated)

	result, err := s.Persist(ctx, userID, req, generated, rawKey)
	if err != nil {
		var perr *domain.PersistenceError
		stage := "persist"
		if errors.As(err, &perr) {
			stage = perr.Stage
		}
		s.metrics.GenerationFailed(ctx, stage)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		log.WithError(err).WithField("stage", stage).Error("failed to persist generated workout")
		return nil, err
	}

	s.metrics.WorkoutGenerated(ctx, generated.Model, generated.GenerationTimeMS)
	s.invalidate(ctx, userID, result.Workout.ID)
	span.SetAttributes(attribute.String("workout.id", result.Workout.ID))
	return result, nil
}

// archiveRawResponse is best-effort; an archive failure never fails the request
func (s *WorkoutService) archiveRawResponse(ctx context.Context, userID string, generated *domain.GeneratedWorkout) string {
	if s.archive == nil || generated.RawResponse == "" {
		return ""
	}
	key := fmt.Sprintf("generations/%s/%s.json", userID, generateULID(s.now()))
	stored, err := s.archive.Store(ctx, key, []byte(generated.RawResponse), "application/json")
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to archive raw AI response")
		return ""
	}
	return stored
}

// Persist writes a generated workout: the workout row, then every exercise link
// concurrently, then the summary. If any link or the summary fails the workout is
// deleted again, so a stored workout always has its full exercise list. Catalog
// entries created along the way are kept.
func (s *WorkoutService) Persist(ctx context.Context, userID string, req *domain.GenerationRequest, generated *domain.GeneratedWorkout, rawResponseKey string) (*domain.GenerationResult, error) {
	equipment := generated.EquipmentRequired
	if equipment == nil {
		equipment = []string{}
	}

	workout := &domain.Workout{
		UserID:              userID,
		Name:                generatedName(generated.Name),
		Description:         generated.Description,
		DurationMinutes:     generated.TotalDurationMinutes,
		MuscleGroups:        req.MuscleFocus,
		Focus:               req.WorkoutFocus,
		Difficulty:          req.Difficulty,
		EquipmentRequired:   equipment,
		SpecialInstructions: req.SpecialInstructions,
		ExerciseCount:       req.NormalizedExerciseCount(),
		AIModel:             generated.Model,
		PromptTokens:        generated.PromptTokens,
		CompletionTokens:    generated.CompletionTokens,
		GenerationTimeMS:    generated.GenerationTimeMS,
		RawResponseKey:      rawResponseKey,
		CreatedAt:           s.now().UTC(),
	}

	if err := s.workouts.Create(ctx, workout); err != nil {
		return nil, &domain.PersistenceError{Stage: domain.StageWorkout, Err: err}
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "workout_id": workout.ID})

	resolved := make([]*domain.Exercise, len(generated.Exercises))
	g, gCtx := errgroup.WithContext(ctx)
	for i, ex := range generated.Exercises {
		i, ex := i, ex
		g.Go(func() error {
			catalog, created, err := s.resolver.Resolve(gCtx, domain.ExerciseInput{
				Name:             ex.Name,
				PrimaryMuscles:   ex.PrimaryMuscles,
				SecondaryMuscles: ex.SecondaryMuscles,
				Equipment:        deref(ex.Equipment),
				MovementType:     deref(ex.MovementType),
			})
			if err != nil {
				return fmt.Errorf("resolve exercise %d (%s): %w", i, ex.Name, err)
			}
			resolved[i] = catalog
			log.WithFields(logrus.Fields{"exercise_id": catalog.ID, "created": created}).Debug("resolved exercise")

			link := &domain.WorkoutExercise{
				WorkoutID:       workout.ID,
				ExerciseID:      catalog.ID,
				OrderIndex:      i,
				Sets:            ex.Sets,
				Reps:            ex.Reps,
				Weight:          ex.Weight,
				RestSeconds:     ex.RestTimeSeconds,
				DurationSeconds: ex.DurationSeconds,
				Notes:           ex.Notes,
				Rationale:       domain.TruncateRationale(ex.Rationale),
			}
			if err := s.links.Create(gCtx, link); err != nil {
				return fmt.Errorf("link exercise %d (%s): %w", i, ex.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.rollback(ctx, userID, workout.ID, log)
		return nil, &domain.PersistenceError{Stage: domain.StageExercises, Err: err}
	}

	links, err := s.links.ListByWorkout(ctx, workout.ID)
	if err != nil {
		s.rollback(ctx, userID, workout.ID, log)
		return nil, &domain.PersistenceError{Stage: domain.StageSummary, Err: err}
	}
	catalog := make(map[string]*domain.Exercise, len(resolved))
	for _, ex := range resolved {
		catalog[ex.ID] = ex
	}
	summary := domain.CalculateSummary(links, catalog)
	if err := s.workouts.UpdateSummary(ctx, workout.ID, summary); err != nil {
		s.rollback(ctx, userID, workout.ID, log)
		return nil, &domain.PersistenceError{Stage: domain.StageSummary, Err: err}
	}
	workout.WorkoutSummary = summary

	log.WithField("total_sets", summary.TotalSets).Info("workout saved")

	return &domain.GenerationResult{
		Workout:   workout,
		Exercises: generated.Exercises,
	}, nil
}

// rollback deletes a partially saved workout and drops any library read that
// cached it in the meantime. It runs on a context detached from the request so a
// cancelled client cannot leave the workout behind.
func (s *WorkoutService) rollback(ctx context.Context, userID, workoutID string, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := s.workouts.Delete(ctx, workoutID); err != nil {
		log.WithError(err).Error("failed to delete partially saved workout")
		return
	}
	s.invalidate(ctx, userID, workoutID)
	log.Warn("deleted partially saved workout")
}

// generatedName keeps at most MaxWorkoutNameLength characters of the model's title
func generatedName(name string) *string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > domain.MaxWorkoutNameLength {
		name = string([]rune(name)[:domain.MaxWorkoutNameLength])
	}
	normalized, err := domain.NormalizeWorkoutName(name)
	if err != nil {
		return nil
	}
	return normalized
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
