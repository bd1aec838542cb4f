package service

import (
	"strings"
	"unicode"

	"github.com/mansoorceksport/workoutgen/internal/domain"
)

// DefaultEquipment is used when no keyword in the exercise name identifies the equipment
const DefaultEquipment = "bodyweight"

// equipmentKeywords is checked in order; more specific terms come first so that
// "smith machine squat" maps to smith machine rather than machine.
var equipmentKeywords = []struct {
	keyword   string
	equipment string
}{
	{"smith machine", "smith machine"},
	{"smith", "smith machine"},
	{"trap bar", "trap bar"},
	{"hex bar", "trap bar"},
	{"ez bar", "ez bar"},
	{"barbell", "barbell"},
	{"dumbbell", "dumbbell"},
	{"db", "dumbbell"},
	{"kettlebell", "kettlebell"},
	{"kb", "kettlebell"},
	{"cable", "cable"},
	{"resistance band", "resistance band"},
	{"band", "resistance band"},
	{"machine", "machine"},
	{"leg press", "machine"},
	{"lat pulldown", "cable"},
	{"trx", "suspension trainer"},
	{"medicine ball", "medicine ball"},
	{"med ball", "medicine ball"},
	{"stability ball", "stability ball"},
	{"swiss ball", "stability ball"},
	{"bench press", "barbell"},
	{"bench", "bench"},
	{"pull up bar", "pull-up bar"},
	{"box", "plyo box"},
	{"rower", "rowing machine"},
	{"treadmill", "treadmill"},
	{"bike", "stationary bike"},
	{"jump rope", "jump rope"},
}

// compoundKeywords mark multi-joint movements regardless of muscle count
var compoundKeywords = []string{
	"squat", "deadlift", "press", "row", "pull up", "pullup", "chin up", "chinup",
	"lunge", "dip", "clean", "snatch", "thruster", "burpee", "push up", "pushup",
	"step up", "hip thrust", "swing", "jerk",
}

// isolationKeywords mark single-joint movements
var isolationKeywords = []string{
	"curl", "extension", "raise", "fly", "flye", "kickback", "shrug", "crunch",
	"calf", "pullover", "pushdown", "pec deck",
}

// SearchKey normalizes an exercise name into its catalog identity: lower-case,
// hyphens and underscores become spaces, other non-alphanumerics are dropped and
// whitespace is collapsed.
func SearchKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == '-' || r == '_':
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// InferEquipment guesses equipment from the exercise name. Always lower-case.
func InferEquipment(name string) string {
	padded := " " + SearchKey(name) + " "
	for _, kw := range equipmentKeywords {
		if strings.Contains(padded, " "+kw.keyword+" ") {
			return kw.equipment
		}
	}
	return DefaultEquipment
}

// InferMovementType classifies an exercise as compound or isolation. Name keywords
// win; otherwise two or more primary muscles count as compound.
func InferMovementType(name string, primaryMuscles []string) string {
	padded := " " + SearchKey(name) + " "
	for _, kw := range isolationKeywords {
		if containsWordPrefix(padded, kw) {
			return domain.MovementIsolation
		}
	}
	for _, kw := range compoundKeywords {
		if containsWordPrefix(padded, kw) {
			return domain.MovementCompound
		}
	}
	if len(primaryMuscles) >= 2 {
		return domain.MovementCompound
	}
	return domain.MovementIsolation
}

// containsWordPrefix matches kw at a word boundary, allowing plural suffixes
// ("squats", "curls").
func containsWordPrefix(padded, kw string) bool {
	return strings.Contains(padded, " "+kw+" ") ||
		strings.Contains(padded, " "+kw+"s ") ||
		strings.Contains(padded, " "+kw+"es ")
}
