package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MaxRationaleLength is the number of characters of rationale kept on a link.
const MaxRationaleLength = 1000

// Reps is either a rep count or a free-text prescription such as "30 seconds" or "to failure".
type Reps struct {
	Count *int
	Text  string
}

// RepCount builds a numeric prescription
func RepCount(n int) Reps { return Reps{Count: &n} }

// RepText builds a free-text prescription
func RepText(s string) Reps { return Reps{Text: s} }

func (r Reps) String() string {
	if r.Count != nil {
		return strconv.Itoa(*r.Count)
	}
	return r.Text
}

func (r Reps) MarshalJSON() ([]byte, error) {
	if r.Count != nil {
		return json.Marshal(*r.Count)
	}
	return json.Marshal(r.Text)
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reps{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RepText(s)
		return nil
	}
	n, err := wholeNumber(data)
	if err != nil {
		return fmt.Errorf("reps must be a number or a string: %w", err)
	}
	*r = RepCount(n)
	return nil
}

// wholeNumber decodes a JSON number, or a string holding one, rounded to the
// nearest integer. Model output mixes all three forms. null decodes as 0.
func wholeNumber(data []byte) (int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	var f float64
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		f = parsed
	} else if err := json.Unmarshal(data, &f); err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(math.Round(f)), nil
}

func (r Reps) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r.Count != nil {
		return bson.MarshalValue(int32(*r.Count))
	}
	return bson.MarshalValue(r.Text)
}

func (r *Reps) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*r = RepCount(int(raw.Int32()))
	case bsontype.Int64:
		*r = RepCount(int(raw.Int64()))
	case bsontype.Double:
		*r = RepCount(int(math.Round(raw.Double())))
	case bsontype.String:
		*r = RepText(raw.StringValue())
	case bsontype.Null, bsontype.Undefined:
		*r = Reps{}
	default:
		return fmt.Errorf("cannot decode %s into reps", t)
	}
	return nil
}

// WorkoutExercise links one catalog exercise to one position of one workout.
// Links are immutable and removed together with their workout.
type WorkoutExercise struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	WorkoutID       string    `json:"workout_id" bson:"workout_id"`
	ExerciseID      string    `json:"exercise_id" bson:"exercise_id"`
	OrderIndex      int       `json:"order_index" bson:"order_index"` // 0-based
	Sets            int       `json:"sets" bson:"sets"`
	Reps            Reps      `json:"reps" bson:"reps"`
	Weight          *string   `json:"weight,omitempty" bson:"weight,omitempty"`
	RestSeconds     int       `json:"rest_seconds" bson:"rest_seconds"`
	DurationSeconds *int      `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
	Notes           *string   `json:"notes,omitempty" bson:"notes,omitempty"`
	Rationale       *string   `json:"rationale,omitempty" bson:"rationale,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// WorkoutExerciseView is a link joined with its catalog entry for display
type WorkoutExerciseView struct {
	*WorkoutExercise
	Exercise *Exercise `json:"exercise"`
}

type WorkoutExerciseRepository interface {
	Create(ctx context.Context, link *WorkoutExercise) error
	ListByWorkout(ctx context.Context, workoutID string) ([]*WorkoutExercise, error)
}

// TruncateRationale keeps at most MaxRationaleLength characters. A nil rationale stays nil.
func TruncateRationale(rationale *string) *string {
	if rationale == nil {
		return nil
	}
	s := *rationale
	if utf8.RuneCountInString(s) > MaxRationaleLength {
		s = string([]rune(s)[:MaxRationaleLength])
	}
	return &s
}
