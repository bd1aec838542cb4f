package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
)

const (
	exerciseByIDKeyPrefix        = "exercise:id:"
	exerciseBySearchKeyKeyPrefix = "exercise:key:"
)

// CachedExerciseRepository wraps an exercise repository with Redis caching.
// Catalog entries are never modified after creation, so only reads are cached
// and nothing needs invalidating. Misses are not cached, so a newly created
// exercise is visible on the next lookup.
type CachedExerciseRepository struct {
	domain.ExerciseRepository
	cache domain.CacheRepository
	ttl   time.Duration
}

func NewCachedExerciseRepository(inner domain.ExerciseRepository, cache domain.CacheRepository, ttl time.Duration) *CachedExerciseRepository {
	return &CachedExerciseRepository{
		ExerciseRepository: inner,
		cache:              cache,
		ttl:                ttl,
	}
}

func (r *CachedExerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	key := exerciseByIDKeyPrefix + id

	var ex domain.Exercise
	if err := r.cache.Get(ctx, key, &ex); err == nil {
		return &ex, nil
	}

	result, err := r.ExerciseRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

func (r *CachedExerciseRepository) GetBySearchKey(ctx context.Context, searchKey string) (*domain.Exercise, error) {
	key := exerciseBySearchKeyKeyPrefix + searchKey

	var ex domain.Exercise
	if err := r.cache.Get(ctx, key, &ex); err == nil {
		return &ex, nil
	}

	result, err := r.ExerciseRepository.GetBySearchKey(ctx, searchKey)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, r.ttl)
	_ = r.cache.Set(ctx, exerciseByIDKeyPrefix+result.ID, result, r.ttl)
	return result, nil
}

func (r *CachedExerciseRepository) Create(ctx context.Context, ex *domain.Exercise) error {
	if err := r.ExerciseRepository.Create(ctx, ex); err != nil {
		return err
	}
	_ = r.cache.Set(ctx, exerciseByIDKeyPrefix+ex.ID, ex, r.ttl)
	_ = r.cache.Set(ctx, exerciseBySearchKeyKeyPrefix+ex.SearchKey, ex, r.ttl)
	return nil
}
