package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrForbidden         = errors.New("access forbidden: you don't own this resource")
	ErrUnauthorized      = errors.New("user not authenticated")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrValidation        = errors.New("validation failed")
	ErrGenerationFailed  = errors.New("workout generation failed")
	ErrPersistenceFailed = errors.New("workout persistence failed")
)

// RateLimitError is returned when a user has used up their daily generations.
type RateLimitError struct {
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. You can generate up to %d workouts per day.", e.Limit)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ValidationError identifies the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Persistence stages reported by PersistenceError
const (
	StageWorkout   = "workout"
	StageExercises = "exercises"
	StageSummary   = "summary"
)

// PersistenceError reports which step of saving a generated workout failed.
type PersistenceError struct {
	Stage string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistenceFailed, e.Err} }
