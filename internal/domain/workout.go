package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
)

// MaxWorkoutNameLength is the longest display name a workout may carry, in characters.
const MaxWorkoutNameLength = 50

// Workout is one generated plan owned by a single user
type Workout struct {
	ID                  string   `json:"id" bson:"_id,omitempty"`
	UserID              string   `json:"user_id" bson:"user_id"`
	Name                *string  `json:"name" bson:"name"`
	Description         string   `json:"description" bson:"description"`
	DurationMinutes     int      `json:"duration_minutes" bson:"duration_minutes"`
	MuscleGroups        []string `json:"muscle_groups" bson:"muscle_groups"`
	Focus               []string `json:"focus" bson:"focus"`
	Difficulty          string   `json:"difficulty" bson:"difficulty"`
	EquipmentRequired   []string `json:"equipment_required" bson:"equipment_required"`
	SpecialInstructions string   `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	ExerciseCount       int      `json:"exercise_count" bson:"exercise_count"`

	WorkoutSummary `bson:",inline"`

	// Generation metadata
	AIModel          string `json:"ai_model,omitempty" bson:"ai_model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty" bson:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty" bson:"completion_tokens,omitempty"`
	GenerationTimeMS int64  `json:"generation_time_ms,omitempty" bson:"generation_time_ms,omitempty"`
	RawResponseKey   string `json:"raw_response_key,omitempty" bson:"raw_response_key,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DisplayName is the name shown in listings, falling back to the creation date.
func (w *Workout) DisplayName() string {
	if w.Name != nil && *w.Name != "" {
		return *w.Name
	}
	return "Workout " + w.CreatedAt.Format("2006-01-02")
}

// NormalizeWorkoutName trims a user supplied name. Empty names become nil.
// Returns a ValidationError when the trimmed name is too long.
func NormalizeWorkoutName(name string) (*string, error) {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) > MaxWorkoutNameLength {
		return nil, &ValidationError{Field: "name", Message: "Name cannot exceed 50 characters"}
	}
	if trimmed == "" {
		return nil, nil
	}
	return &trimmed, nil
}

// WorkoutFilter mirrors the filters offered on the workout library page
type WorkoutFilter struct {
	Search  string
	Muscles []string
	Focus   []string
}

// IsEmpty reports whether the filter matches every workout
func (f WorkoutFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.Muscles) == 0 && len(f.Focus) == 0
}

// Matches applies the search term (substring of display name) and the any-match
// muscle and focus filters, all case-insensitive.
func (f WorkoutFilter) Matches(w *Workout) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(w.DisplayName()), term) {
			return false
		}
	}
	if len(f.Muscles) > 0 && !containsAny(w.MuscleGroups, f.Muscles) {
		return false
	}
	if len(f.Focus) > 0 && !containsAny(w.Focus, f.Focus) {
		return false
	}
	return true
}

func containsAny(values, wanted []string) bool {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, w := range wanted {
			if v == strings.ToLower(strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

// WorkoutRepository persists workouts. Delete cascades to the workout's exercise links.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *Workout) error
	GetByID(ctx context.Context, id string) (*Workout, error)
	ListByUser(ctx context.Context, userID string) ([]*Workout, error)
	ListAll(ctx context.Context) ([]*Workout, error)
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int64, error)
	UpdateName(ctx context.Context, id string, name *string) (*Workout, error)
	UpdateSummary(ctx context.Context, id string, summary WorkoutSummary) error
	Delete(ctx context.Context, id string) error
}

// WorkoutDetail is a workout with its ordered exercise prescriptions
type WorkoutDetail struct {
	Workout   *Workout               `json:"workout"`
	Exercises []*WorkoutExerciseView `json:"exercises"`
}

// GenerationResult is returned after a successful generate call. Exercises is the
// list exactly as generated so the caller can render without a second read.
type GenerationResult struct {
	Workout   *Workout            `json:"workout"`
	Exercises []GeneratedExercise `json:"exercises"`
}

// WorkoutService defines the workout use cases exposed over HTTP
type WorkoutService interface {
	Generate(ctx context.Context, userID string, req *GenerationRequest) (*GenerationResult, error)
	List(ctx context.Context, userID string, filter WorkoutFilter) ([]*Workout, error)
	Get(ctx context.Context, userID, workoutID string) (*WorkoutDetail, error)
	Rename(ctx context.Context, userID, workoutID string, name *string) (*Workout, error)
	Delete(ctx context.Context, userID, workoutID string) error
}
