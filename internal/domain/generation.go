package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Exercise count bounds for a single generated workout
const (
	DefaultExerciseCount = 6
	MaxExerciseCount     = 20
)

// GenerationRequest is the body of POST /v1/workouts/generate
type GenerationRequest struct {
	MuscleFocus         []string `json:"muscleFocus"`
	WorkoutFocus        []string `json:"workoutFocus"`
	Difficulty          string   `json:"difficulty"`
	SpecialInstructions string   `json:"specialInstructions"`
	ExerciseCount       int      `json:"exerciseCount"`
}

// Validate rejects requests that cannot produce a useful workout.
// It runs before the generator is called.
func (r *GenerationRequest) Validate() error {
	if len(nonBlank(r.MuscleFocus)) == 0 {
		return &ValidationError{Field: "muscleFocus", Message: "At least one muscle group must be selected"}
	}
	if len(nonBlank(r.WorkoutFocus)) == 0 {
		return &ValidationError{Field: "workoutFocus", Message: "At least one workout focus must be selected"}
	}
	return nil
}

// NormalizedExerciseCount applies the default and clamps to the allowed range.
func (r *GenerationRequest) NormalizedExerciseCount() int {
	switch {
	case r.ExerciseCount <= 0:
		return DefaultExerciseCount
	case r.ExerciseCount > MaxExerciseCount:
		return MaxExerciseCount
	default:
		return r.ExerciseCount
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// GeneratedExercise is one exercise as returned by the generator
type GeneratedExercise struct {
	Name             string   `json:"name"`
	Sets             int      `json:"sets"`
	Reps             Reps     `json:"reps"`
	RestTimeSeconds  int      `json:"rest_time_seconds"`
	DurationSeconds  *int     `json:"duration_seconds,omitempty"`
	Weight           *string  `json:"weight,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	Rationale        *string  `json:"rationale,omitempty"`
	PrimaryMuscles   []string `json:"primary_muscles,omitempty"`
	SecondaryMuscles []string `json:"secondary_muscles,omitempty"`
	Equipment        *string  `json:"equipment,omitempty"`
	MovementType     *string  `json:"movement_type,omitempty"`
}

// UnmarshalJSON accepts sets as a number or a numeric string
func (e *GeneratedExercise) UnmarshalJSON(data []byte) error {
	type plain GeneratedExercise
	aux := struct {
		*plain
		Sets json.RawMessage `json:"sets"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	sets, err := wholeNumber(aux.Sets)
	if err != nil {
		return fmt.Errorf("sets: %w", err)
	}
	e.Sets = sets
	return nil
}

// GeneratedWorkout is the structured plan returned by the generator
type GeneratedWorkout struct {
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	TotalDurationMinutes int                 `json:"total_duration_minutes"`
	EquipmentRequired    []string            `json:"equipment_required"`
	Exercises            []GeneratedExercise `json:"exercises"`

	// Filled in by the client, not by the model
	Model            string `json:"-"`
	RawResponse      string `json:"-"`
	PromptTokens     int    `json:"-"`
	CompletionTokens int    `json:"-"`
	GenerationTimeMS int64  `json:"-"`
}

// WorkoutGenerator turns user preferences into a structured workout.
// Implementations handle the AI provider communication.
type WorkoutGenerator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GeneratedWorkout, error)
}

// ResponseArchive stores raw generator output for later inspection
type ResponseArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
