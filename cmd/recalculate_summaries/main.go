package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/repository"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Recomputes the cached summary of stored workouts from their exercise links.
// Use after changing the duration estimate or fixing catalog entries.
func main() {
	userID := flag.String("user", "", "Only recalculate workouts owned by this user")
	mongoURI := flag.String("mongo", envOr("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	dbName := flag.String("db", envOr("MONGODB_DATABASE", "workoutgen"), "Database name")
	redisAddr := flag.String("redis", os.Getenv("REDIS_ADDR"), "Redis address for cache invalidation (empty skips it)")
	dryRun := flag.Bool("dry-run", false, "Show what would be done without making changes")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(*dbName)
	workoutRepo := repository.NewMongoWorkoutRepository(db)
	linkRepo := repository.NewMongoWorkoutExerciseRepository(db)
	exerciseRepo := repository.NewMongoExerciseRepository(db)

	var workouts []*domain.Workout
	if *userID != "" {
		fmt.Printf("🔍 Finding workouts for user: %s\n", *userID)
		workouts, err = workoutRepo.ListByUser(ctx, *userID)
	} else {
		fmt.Println("🔍 Finding all workouts")
		workouts, err = workoutRepo.ListAll(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to list workouts: %v", err)
	}

	fmt.Printf("📋 Found %d workouts\n\n", len(workouts))
	if len(workouts) == 0 {
		os.Exit(0)
	}

	var cache *repository.RedisCacheRepository
	if *redisAddr != "" && !*dryRun {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
		defer rdb.Close()
		cache = repository.NewRedisCacheRepository(rdb)
	}

	var changed, failed int
	for _, w := range workouts {
		summary, err := recalculate(ctx, w.ID, linkRepo, exerciseRepo)
		if err != nil {
			fmt.Printf("   ⚠️  %s: %v\n", w.ID, err)
			failed++
			continue
		}

		if reflect.DeepEqual(summary, w.WorkoutSummary) {
			continue
		}
		changed++
		fmt.Printf("📅 %s (%s): sets %d→%d, minutes %d→%d\n", w.ID, w.DisplayName(),
			w.TotalSets, summary.TotalSets,
			w.EstimatedDurationMinutes, summary.EstimatedDurationMinutes)

		if *dryRun {
			continue
		}
		if err := workoutRepo.UpdateSummary(ctx, w.ID, summary); err != nil {
			fmt.Printf("   ❌ Failed to update: %v\n", err)
			failed++
			continue
		}
		if cache != nil && *userID != "" {
			if err := cache.InvalidateWorkout(ctx, w.UserID, w.ID); err != nil {
				log.WithError(err).WithField("workout_id", w.ID).Warn("failed to invalidate cache")
			}
		}
	}

	// A full run touches every library, so drop them wholesale
	if cache != nil && *userID == "" && changed > 0 {
		for _, pattern := range []string{domain.WorkoutListCachePattern, domain.WorkoutDetailCachePattern} {
			if err := cache.DeleteByPattern(ctx, pattern); err != nil {
				log.WithError(err).WithField("pattern", pattern).Warn("failed to clear cache")
			}
		}
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✅ Summary:\n")
	fmt.Printf("   Workouts checked: %d\n", len(workouts))
	fmt.Printf("   Summaries changed: %d\n", changed)
	fmt.Printf("   Failures: %d\n", failed)

	if *dryRun {
		fmt.Println("\n⚠️  This was a dry run. No changes were made.")
		fmt.Println("   Run without -dry-run to apply changes.")
	}
}

func recalculate(ctx context.Context, workoutID string, links domain.WorkoutExerciseRepository, exercises domain.ExerciseRepository) (domain.WorkoutSummary, error) {
	items, err := links.ListByWorkout(ctx, workoutID)
	if err != nil {
		return domain.WorkoutSummary{}, fmt.Errorf("list links: %w", err)
	}

	ids := make([]string, 0, len(items))
	for _, l := range items {
		ids = append(ids, l.ExerciseID)
	}
	found, err := exercises.GetByIDs(ctx, ids)
	if err != nil {
		return domain.WorkoutSummary{}, fmt.Errorf("load exercises: %w", err)
	}

	catalog := make(map[string]*domain.Exercise, len(found))
	for _, ex := range found {
		catalog[ex.ID] = ex
	}
	return domain.CalculateSummary(items, catalog), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
