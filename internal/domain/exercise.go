package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrDuplicateExercise = errors.New("exercise search key already exists")
)

// Movement types
const (
	MovementCompound  = "compound"
	MovementIsolation = "isolation"
)

// Exercise is a canonical entry in the global exercise catalog, shared by all users
type Exercise struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	Name             string    `json:"name" bson:"name"`
	SearchKey        string    `json:"search_key" bson:"search_key"` // Unique Index
	PrimaryMuscles   []string  `json:"primary_muscles" bson:"primary_muscles"`
	SecondaryMuscles []string  `json:"secondary_muscles" bson:"secondary_muscles"`
	Equipment        string    `json:"equipment" bson:"equipment"` // always lower-case
	MovementType     string    `json:"movement_type" bson:"movement_type"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// ExerciseFilter narrows catalog listings. Muscles must all be present in PrimaryMuscles.
type ExerciseFilter struct {
	Name    string
	Muscles []string
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *Exercise) error
	GetByID(ctx context.Context, id string) (*Exercise, error)
	GetBySearchKey(ctx context.Context, searchKey string) (*Exercise, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]*Exercise, error)
}

// ExerciseInput is what the resolver needs to find or create a catalog entry.
type ExerciseInput struct {
	Name             string
	PrimaryMuscles   []string
	SecondaryMuscles []string
	Equipment        string
	MovementType     string
}
