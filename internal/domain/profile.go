package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// MaxFullNameLength bounds Profile.FullName, in characters
const MaxFullNameLength = 100

// Profile holds user-editable account details. ID is the auth provider's user ID.
type Profile struct {
	ID        string    `json:"id" bson:"_id"`
	FullName  string    `json:"full_name" bson:"full_name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}

// NormalizeFullName trims name and enforces MaxFullNameLength. Empty is allowed.
func NormalizeFullName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) > MaxFullNameLength {
		return "", &ValidationError{Field: "full_name", Message: "Full name cannot exceed 100 characters"}
	}
	return trimmed, nil
}
