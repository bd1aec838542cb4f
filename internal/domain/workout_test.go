package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalizeWorkoutName(t *testing.T) {
	name, err := NormalizeWorkoutName("  Push Day  ")
	require.NoError(t, err)
	assert.Equal(t, "Push Day", *name)

	name, err = NormalizeWorkoutName("   ")
	require.NoError(t, err)
	assert.Nil(t, name)

	name, err = NormalizeWorkoutName(strings.Repeat("ü", MaxWorkoutNameLength))
	require.NoError(t, err)
	assert.Len(t, []rune(*name), MaxWorkoutNameLength)

	_, err = NormalizeWorkoutName(strings.Repeat("a", MaxWorkoutNameLength+1))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name cannot exceed 50 characters", verr.Message)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestWorkout_DisplayName(t *testing.T) {
	w := &Workout{CreatedAt: time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Workout 2025-01-15", w.DisplayName())

	name := "Leg Day"
	w.Name = &name
	assert.Equal(t, "Leg Day", w.DisplayName())
}

func TestWorkoutFilter(t *testing.T) {
	name := "Upper Body Blast"
	w := &Workout{Name: &name, MuscleGroups: []string{"Chest", "back"}, Focus: []string{"strength"}}

	assert.True(t, WorkoutFilter{}.IsEmpty())
	assert.True(t, WorkoutFilter{Search: "  "}.IsEmpty())
	assert.True(t, WorkoutFilter{}.Matches(w))
	assert.True(t, WorkoutFilter{Search: "body"}.Matches(w))
	assert.False(t, WorkoutFilter{Search: "legs"}.Matches(w))
	assert.True(t, WorkoutFilter{Muscles: []string{"chest", "quads"}}.Matches(w))
	assert.False(t, WorkoutFilter{Muscles: []string{"quads"}}.Matches(w))
	assert.True(t, WorkoutFilter{Focus: []string{"STRENGTH"}}.Matches(w))
	assert.False(t, WorkoutFilter{Search: "upper", Focus: []string{"endurance"}}.Matches(w))
}

func TestGenerationRequest_Validate(t *testing.T) {
	req := &GenerationRequest{MuscleFocus: []string{"chest"}, WorkoutFocus: []string{"strength"}}
	assert.NoError(t, req.Validate())

	req = &GenerationRequest{MuscleFocus: []string{" "}, WorkoutFocus: []string{"strength"}}
	var verr *ValidationError
	require.ErrorAs(t, req.Validate(), &verr)
	assert.Equal(t, "muscleFocus", verr.Field)

	req = &GenerationRequest{MuscleFocus: []string{"chest"}}
	require.ErrorAs(t, req.Validate(), &verr)
	assert.Equal(t, "workoutFocus", verr.Field)
	assert.Equal(t, "At least one workout focus must be selected", verr.Error())
}

func TestGenerationRequest_NormalizedExerciseCount(t *testing.T) {
	assert.Equal(t, DefaultExerciseCount, (&GenerationRequest{}).NormalizedExerciseCount())
	assert.Equal(t, DefaultExerciseCount, (&GenerationRequest{ExerciseCount: -3}).NormalizedExerciseCount())
	assert.Equal(t, 1, (&GenerationRequest{ExerciseCount: 1}).NormalizedExerciseCount())
	assert.Equal(t, MaxExerciseCount, (&GenerationRequest{ExerciseCount: 99}).NormalizedExerciseCount())
}

func TestGenerationRequest_JSONFieldNames(t *testing.T) {
	var req GenerationRequest
	body := `{"muscleFocus":["chest"],"workoutFocus":["power"],"difficulty":"beginner","specialInstructions":"no jumping","exerciseCount":8}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, []string{"chest"}, req.MuscleFocus)
	assert.Equal(t, []string{"power"}, req.WorkoutFocus)
	assert.Equal(t, "no jumping", req.SpecialInstructions)
	assert.Equal(t, 8, req.ExerciseCount)
}

func TestErrors(t *testing.T) {
	rl := &RateLimitError{Limit: 100}
	assert.ErrorIs(t, rl, ErrRateLimited)
	assert.Equal(t, "Rate limit exceeded. You can generate up to 100 workouts per day.", rl.Error())

	cause := errors.New("duplicate key")
	perr := &PersistenceError{Stage: StageExercises, Err: cause}
	assert.ErrorIs(t, perr, ErrPersistenceFailed)
	assert.ErrorIs(t, perr, cause)
	assert.Equal(t, "persist exercises: duplicate key", perr.Error())
}

func TestWorkoutSummaryInlineBSON(t *testing.T) {
	w := Workout{ID: "w1", WorkoutSummary: WorkoutSummary{TotalSets: 12, EquipmentNeeded: []string{"barbell"}}}
	raw, err := bson.Marshal(w)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.EqualValues(t, 12, doc["total_sets"])
	assert.NotContains(t, doc, "workoutsummary")
}
