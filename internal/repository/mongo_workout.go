package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutsCollection = "workouts"

// MongoWorkoutRepository implements domain.WorkoutRepository using MongoDB
type MongoWorkoutRepository struct {
	collection *mongo.Collection
	links      *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) *MongoWorkoutRepository {
	collection := db.Collection(workoutsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Serves both the library listing and the trailing-window quota count
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}
	_, _ = collection.Indexes().CreateOne(ctx, indexModel)

	return &MongoWorkoutRepository{
		collection: collection,
		links:      db.Collection(workoutExercisesCollection),
	}
}

func (r *MongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == "" {
		workout.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = now
	}
	workout.UpdatedAt = now
	if workout.PrimaryMusclesTargeted == nil {
		workout.PrimaryMusclesTargeted = []string{}
	}
	if workout.EquipmentNeeded == nil {
		workout.EquipmentNeeded = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

func (r *MongoWorkoutRepository) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to find workout: %w", err)
	}
	return &workout, nil
}

// ListByUser returns a user's workouts, newest first
func (r *MongoWorkoutRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Workout, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// ListAll is used by maintenance commands
func (r *MongoWorkoutRepository) ListAll(ctx context.Context) ([]*domain.Workout, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoWorkoutRepository) find(ctx context.Context, filter bson.M) ([]*domain.Workout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find workouts: %w", err)
	}
	defer cursor.Close(ctx)

	workouts := []*domain.Workout{}
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts: %w", err)
	}
	return workouts, nil
}

func (r *MongoWorkoutRepository) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}

// UpdateName sets or clears the display name and returns the updated workout
func (r *MongoWorkoutRepository) UpdateName(ctx context.Context, id string, name *string) (*domain.Workout, error) {
	update := bson.M{
		"$set": bson.M{
			"name":       name,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var workout domain.Workout
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to update workout name: %w", err)
	}
	return &workout, nil
}

func (r *MongoWorkoutRepository) UpdateSummary(ctx context.Context, id string, summary domain.WorkoutSummary) error {
	update := bson.M{
		"$set": bson.M{
			"total_sets":                 summary.TotalSets,
			"total_exercises":            summary.TotalExercises,
			"estimated_duration_minutes": summary.EstimatedDurationMinutes,
			"primary_muscles_targeted":   summary.PrimaryMusclesTargeted,
			"equipment_needed":           summary.EquipmentNeeded,
			"updated_at":                 time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update workout summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

// Delete removes the workout's exercise links and then the workout itself
func (r *MongoWorkoutRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.links.DeleteMany(ctx, bson.M{"workout_id": id}); err != nil {
		return fmt.Errorf("failed to delete workout exercises: %w", err)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}
