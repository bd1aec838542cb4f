package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutExercisesCollection = "workout_exercises"

type MongoWorkoutExerciseRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutExerciseRepository(db *mongo.Database) *MongoWorkoutExerciseRepository {
	coll := db.Collection(workoutExercisesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One link per position
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "workout_id", Value: 1},
			{Key: "order_index", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})

	return &MongoWorkoutExerciseRepository{collection: coll}
}

func (r *MongoWorkoutExerciseRepository) Create(ctx context.Context, link *domain.WorkoutExercise) error {
	if link.ID == "" {
		link.ID = primitive.NewObjectID().Hex()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, link); err != nil {
		return fmt.Errorf("failed to insert workout exercise: %w", err)
	}
	return nil
}

// ListByWorkout returns links ordered by position
func (r *MongoWorkoutExerciseRepository) ListByWorkout(ctx context.Context, workoutID string) ([]*domain.WorkoutExercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workout_id": workoutID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find workout exercises: %w", err)
	}
	defer cursor.Close(ctx)

	links := []*domain.WorkoutExercise{}
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode workout exercises: %w", err)
	}
	return links, nil
}
