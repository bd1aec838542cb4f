package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoExerciseRepository_UniqueSearchKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMongoExerciseRepository(db)
	ctx := context.Background()

	ex := &domain.Exercise{Name: "Bench Press", SearchKey: "bench press", PrimaryMuscles: []string{"chest"}, Equipment: "barbell"}
	require.NoError(t, repo.Create(ctx, ex))
	assert.NotEmpty(t, ex.ID)

	dup := &domain.Exercise{Name: "Bench-Press", SearchKey: "bench press"}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateExercise)

	got, err := repo.GetBySearchKey(ctx, "bench press")
	require.NoError(t, err)
	assert.Equal(t, ex.ID, got.ID)

	_, err = repo.GetBySearchKey(ctx, "deadlift")
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)

	byIDs, err := repo.GetByIDs(ctx, []string{ex.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}

func TestMongoExerciseRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMongoExerciseRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, dups := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &domain.Exercise{Name: "Squat", SearchKey: "squat"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, domain.ErrDuplicateExercise) {
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, dups)
}

func TestMongoExerciseRepository_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMongoExerciseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Exercise{Name: "Bench Press", SearchKey: "bench press", PrimaryMuscles: []string{"chest", "triceps"}}))
	require.NoError(t, repo.Create(ctx, &domain.Exercise{Name: "Push Up", SearchKey: "push up", PrimaryMuscles: []string{"chest"}}))
	require.NoError(t, repo.Create(ctx, &domain.Exercise{Name: "Squat", SearchKey: "squat", PrimaryMuscles: []string{"quads"}}))

	chest, err := repo.List(ctx, domain.ExerciseFilter{Muscles: []string{"Chest"}})
	require.NoError(t, err)
	assert.Len(t, chest, 2)

	both, err := repo.List(ctx, domain.ExerciseFilter{Muscles: []string{"chest", "triceps"}})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Bench Press", both[0].Name)

	byName, err := repo.List(ctx, domain.ExerciseFilter{Name: "push"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Push Up", byName[0].Name)
}

func TestMongoWorkoutRepository_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workouts := NewMongoWorkoutRepository(db)
	links := NewMongoWorkoutExerciseRepository(db)
	ctx := context.Background()

	w := &domain.Workout{UserID: "u1", Description: "legs", MuscleGroups: []string{"quads"}}
	require.NoError(t, workouts.Create(ctx, w))
	require.NotEmpty(t, w.ID)

	require.NoError(t, links.Create(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: "e2", OrderIndex: 1, Sets: 3, Reps: domain.RepText("to failure")}))
	require.NoError(t, links.Create(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: "e1", OrderIndex: 0, Sets: 4, Reps: domain.RepCount(8)}))
	assert.Error(t, links.Create(ctx, &domain.WorkoutExercise{WorkoutID: w.ID, ExerciseID: "e3", OrderIndex: 0}))

	got, err := links.ListByWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ExerciseID)
	require.NotNil(t, got[0].Reps.Count)
	assert.Equal(t, 8, *got[0].Reps.Count)
	assert.Equal(t, "to failure", got[1].Reps.Text)

	summary := domain.WorkoutSummary{TotalSets: 7, TotalExercises: 2, EstimatedDurationMinutes: 12,
		PrimaryMusclesTargeted: []string{"quads"}, EquipmentNeeded: []string{"barbell"}}
	require.NoError(t, workouts.UpdateSummary(ctx, w.ID, summary))

	name := "Leg Day"
	renamed, err := workouts.UpdateName(ctx, w.ID, &name)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", *renamed.Name)
	assert.Equal(t, 7, renamed.TotalSets)

	cleared, err := workouts.UpdateName(ctx, w.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Name)

	count, err := workouts.CountCreatedSince(ctx, "u1", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, workouts.Delete(ctx, w.ID))
	_, err = workouts.GetByID(ctx, w.ID)
	assert.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	remaining, err := links.ListByWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.ErrorIs(t, workouts.Delete(ctx, w.ID), domain.ErrWorkoutNotFound)
}

func TestMongoWorkoutRepository_CountWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workouts := NewMongoWorkoutRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, workouts.Create(ctx, &domain.Workout{UserID: "u1", CreatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, workouts.Create(ctx, &domain.Workout{UserID: "u1", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, workouts.Create(ctx, &domain.Workout{UserID: "u2", CreatedAt: now}))

	count, err := workouts.CountCreatedSince(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	list, err := workouts.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestMongoProfileRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewMongoProfileRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	p := &domain.Profile{ID: "u1", FullName: "Ada"}
	require.NoError(t, repo.Upsert(ctx, p))
	created := p.CreatedAt

	p2 := &domain.Profile{ID: "u1", FullName: "Ada L."}
	require.NoError(t, repo.Upsert(ctx, p2))
	assert.Equal(t, "Ada L.", p2.FullName)
	assert.WithinDuration(t, created, p2.CreatedAt, time.Millisecond)
}
