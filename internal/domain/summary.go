package domain

import "strings"

// defaultWorkSeconds is the assumed time under tension for a set without an explicit duration
const defaultWorkSeconds = 40

// WorkoutSummary holds aggregates derived from a workout's exercise links.
// It is a cache of CalculateSummary and must be recomputed when the links change.
type WorkoutSummary struct {
	TotalSets                int      `json:"total_sets" bson:"total_sets"`
	TotalExercises           int      `json:"total_exercises" bson:"total_exercises"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes" bson:"estimated_duration_minutes"`
	PrimaryMusclesTargeted   []string `json:"primary_muscles_targeted" bson:"primary_muscles_targeted"`
	EquipmentNeeded          []string `json:"equipment_needed" bson:"equipment_needed"`
}

// CalculateSummary aggregates links in order. catalog maps exercise ID to its entry;
// links whose exercise is missing from the catalog still count toward sets and duration.
func CalculateSummary(links []*WorkoutExercise, catalog map[string]*Exercise) WorkoutSummary {
	summary := WorkoutSummary{
		PrimaryMusclesTargeted: []string{},
		EquipmentNeeded:        []string{},
	}
	seenMuscle := make(map[string]bool)
	seenEquipment := make(map[string]bool)
	totalSeconds := 0

	for _, link := range links {
		summary.TotalExercises++
		summary.TotalSets += link.Sets

		work := defaultWorkSeconds
		if link.DurationSeconds != nil && *link.DurationSeconds > 0 {
			work = *link.DurationSeconds
		}
		totalSeconds += link.Sets * (work + link.RestSeconds)

		ex, ok := catalog[link.ExerciseID]
		if !ok || ex == nil {
			continue
		}
		for _, m := range ex.PrimaryMuscles {
			m = strings.ToLower(strings.TrimSpace(m))
			if m != "" && !seenMuscle[m] {
				seenMuscle[m] = true
				summary.PrimaryMusclesTargeted = append(summary.PrimaryMusclesTargeted, m)
			}
		}
		if eq := ex.Equipment; eq != "" && !seenEquipment[eq] {
			seenEquipment[eq] = true
			summary.EquipmentNeeded = append(summary.EquipmentNeeded, eq)
		}
	}

	summary.EstimatedDurationMinutes = (totalSeconds + 59) / 60
	return summary
}
