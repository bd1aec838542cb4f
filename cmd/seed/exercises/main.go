package main

import (
	"context"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/config"
	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/repository"
	"github.com/mansoorceksport/workoutgen/internal/service"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds the catalog with common exercises. Entries go through the same resolver
// as generation, so names that are already known are left alone and equipment
// and movement type are inferred the same way.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	resolver := service.NewExerciseResolver(repository.NewMongoExerciseRepository(db))

	exercises := []domain.ExerciseInput{
		// Legs
		{Name: "Barbell Squat", PrimaryMuscles: []string{"quads", "glutes"}, SecondaryMuscles: []string{"hamstrings", "core"}},
		{Name: "Leg Press", PrimaryMuscles: []string{"quads"}, SecondaryMuscles: []string{"glutes"}},
		{Name: "Walking Lunge", PrimaryMuscles: []string{"quads", "glutes"}, SecondaryMuscles: []string{"hamstrings"}},
		{Name: "Leg Extension", PrimaryMuscles: []string{"quads"}},
		{Name: "Lying Leg Curl", PrimaryMuscles: []string{"hamstrings"}},
		{Name: "Romanian Deadlift", PrimaryMuscles: []string{"hamstrings", "glutes"}, SecondaryMuscles: []string{"back"}, Equipment: "barbell"},
		{Name: "Standing Calf Raise", PrimaryMuscles: []string{"calves"}, Equipment: "machine"},
		{Name: "Goblet Squat", PrimaryMuscles: []string{"quads", "glutes"}, Equipment: "dumbbell"},
		{Name: "Glute Bridge", PrimaryMuscles: []string{"glutes"}, SecondaryMuscles: []string{"hamstrings"}},

		// Chest
		{Name: "Barbell Bench Press", PrimaryMuscles: []string{"chest"}, SecondaryMuscles: []string{"triceps", "shoulders"}},
		{Name: "Incline Dumbbell Press", PrimaryMuscles: []string{"chest"}, SecondaryMuscles: []string{"shoulders", "triceps"}},
		{Name: "Push Up", PrimaryMuscles: []string{"chest"}, SecondaryMuscles: []string{"triceps", "core"}},
		{Name: "Cable Fly", PrimaryMuscles: []string{"chest"}},
		{Name: "Dips", PrimaryMuscles: []string{"chest", "triceps"}},

		// Back
		{Name: "Pull Up", PrimaryMuscles: []string{"back"}, SecondaryMuscles: []string{"biceps"}},
		{Name: "Lat Pulldown", PrimaryMuscles: []string{"back"}, SecondaryMuscles: []string{"biceps"}},
		{Name: "Barbell Row", PrimaryMuscles: []string{"back"}, SecondaryMuscles: []string{"biceps", "forearms"}},
		{Name: "Seated Cable Row", PrimaryMuscles: []string{"back"}, SecondaryMuscles: []string{"biceps"}},
		{Name: "Deadlift", PrimaryMuscles: []string{"back", "hamstrings", "glutes"}, Equipment: "barbell"},
		{Name: "Face Pull", PrimaryMuscles: []string{"shoulders"}, SecondaryMuscles: []string{"back"}},

		// Shoulders
		{Name: "Overhead Press", PrimaryMuscles: []string{"shoulders"}, SecondaryMuscles: []string{"triceps"}, Equipment: "barbell"},
		{Name: "Dumbbell Lateral Raise", PrimaryMuscles: []string{"shoulders"}},
		{Name: "Barbell Shrug", PrimaryMuscles: []string{"neck"}, SecondaryMuscles: []string{"back"}},

		// Arms
		{Name: "Barbell Curl", PrimaryMuscles: []string{"biceps"}, SecondaryMuscles: []string{"forearms"}},
		{Name: "Dumbbell Hammer Curl", PrimaryMuscles: []string{"biceps", "forearms"}, MovementType: domain.MovementIsolation},
		{Name: "Cable Tricep Pushdown", PrimaryMuscles: []string{"triceps"}},
		{Name: "Dumbbell Wrist Curl", PrimaryMuscles: []string{"forearms"}},

		// Core and conditioning
		{Name: "Plank", PrimaryMuscles: []string{"core"}},
		{Name: "Hanging Leg Raise", PrimaryMuscles: []string{"core"}},
		{Name: "Russian Twist", PrimaryMuscles: []string{"core"}},
		{Name: "Mountain Climber", PrimaryMuscles: []string{"core", "full_body"}},
		{Name: "Burpee", PrimaryMuscles: []string{"full_body"}},
		{Name: "Box Jump", PrimaryMuscles: []string{"quads", "glutes"}, SecondaryMuscles: []string{"calves"}},
		{Name: "Kettlebell Swing", PrimaryMuscles: []string{"glutes", "hamstrings"}, SecondaryMuscles: []string{"core"}},
	}

	created, existing := 0, 0
	for _, input := range exercises {
		ex, isNew, err := resolver.Resolve(ctx, input)
		if err != nil {
			log.WithError(err).WithField("name", input.Name).Error("failed to seed exercise")
			continue
		}
		fields := log.Fields{"name": ex.Name, "equipment": ex.Equipment, "movement_type": ex.MovementType}
		if isNew {
			created++
			log.WithFields(fields).Info("created")
		} else {
			existing++
			log.WithFields(fields).Info("already in catalog")
		}
	}
	log.Printf("Seeding exercises complete: %d created, %d already present", created, existing)
}
