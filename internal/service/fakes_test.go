package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/workoutgen/internal/domain"
)

type fakeWorkoutRepo struct {
	mu         sync.Mutex
	seq        int
	items      map[string]*domain.Workout
	links      *fakeLinkRepo
	createErr  error
	countErr   error
	summaryErr error
	deleted    []string
}

func newFakeWorkoutRepo(links *fakeLinkRepo) *fakeWorkoutRepo {
	return &fakeWorkoutRepo{items: map[string]*domain.Workout{}, links: links}
}

func (r *fakeWorkoutRepo) Create(ctx context.Context, w *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	w.ID = fmt.Sprintf("w%d", r.seq)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *fakeWorkoutRepo) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, domain.ErrWorkoutNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkoutRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Workout{}
	for _, w := range r.items {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeWorkoutRepo) ListAll(ctx context.Context) ([]*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Workout{}
	for _, w := range r.items {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeWorkoutRepo) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, w := range r.items {
		if w.UserID == userID && !w.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeWorkoutRepo) UpdateName(ctx context.Context, id string, name *string) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, domain.ErrWorkoutNotFound
	}
	w.Name = name
	cp := *w
	return &cp, nil
}

func (r *fakeWorkoutRepo) UpdateSummary(ctx context.Context, id string, s domain.WorkoutSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summaryErr != nil {
		return r.summaryErr
	}
	w, ok := r.items[id]
	if !ok {
		return domain.ErrWorkoutNotFound
	}
	w.WorkoutSummary = s
	return nil
}

// Delete fails on a cancelled context like a real driver would
func (r *fakeWorkoutRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.links != nil {
		r.links.deleteByWorkout(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrWorkoutNotFound
	}
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeWorkoutRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeLinkRepo struct {
	mu      sync.Mutex
	items   []*domain.WorkoutExercise
	failOn  map[int]error // order index -> error
	onFail  func()
	listErr error
}

func (r *fakeLinkRepo) Create(ctx context.Context, l *domain.WorkoutExercise) error {
	r.mu.Lock()
	err := r.failOn[l.OrderIndex]
	r.mu.Unlock()
	if err != nil {
		if r.onFail != nil {
			r.onFail()
		}
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = fmt.Sprintf("l-%s-%d", l.WorkoutID, l.OrderIndex)
	cp := *l
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeLinkRepo) ListByWorkout(ctx context.Context, workoutID string) ([]*domain.WorkoutExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []*domain.WorkoutExercise{}
	for _, l := range r.items {
		if l.WorkoutID == workoutID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *fakeLinkRepo) deleteByWorkout(workoutID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, l := range r.items {
		if l.WorkoutID != workoutID {
			kept = append(kept, l)
		}
	}
	r.items = kept
}

func (r *fakeLinkRepo) countFor(workoutID string) int {
	links, _ := r.ListByWorkout(context.Background(), workoutID)
	return len(links)
}

// fakeExerciseRepo enforces search key uniqueness the way the unique index does
type fakeExerciseRepo struct {
	mu        sync.Mutex
	seq       int
	byKey     map[string]*domain.Exercise
	lookupErr error
	creates   int
	// beforeCreate runs without the lock, letting tests interleave a competing insert
	beforeCreate func(ex *domain.Exercise)
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{byKey: map[string]*domain.Exercise{}}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, ex *domain.Exercise) error {
	if r.beforeCreate != nil {
		r.beforeCreate(ex)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[ex.SearchKey]; ok {
		return domain.ErrDuplicateExercise
	}
	r.seq++
	r.creates++
	ex.ID = fmt.Sprintf("e%d", r.seq)
	cp := *ex
	r.byKey[ex.SearchKey] = &cp
	return nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.byKey {
		if ex.ID == id {
			cp := *ex
			return &cp, nil
		}
	}
	return nil, domain.ErrExerciseNotFound
}

func (r *fakeExerciseRepo) GetBySearchKey(ctx context.Context, key string) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	ex, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrExerciseNotFound
	}
	cp := *ex
	return &cp, nil
}

func (r *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Exercise, error) {
	out := []*domain.Exercise{}
	for _, id := range ids {
		if ex, err := r.GetByID(ctx, id); err == nil {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) List(ctx context.Context, f domain.ExerciseFilter) ([]*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Exercise{}
	for _, ex := range r.byKey {
		cp := *ex
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeExerciseRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	result *domain.GeneratedWorkout
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GeneratedWorkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return key, nil
}

// memCache is a map-backed domain.CacheRepository that stores values by reference
type memCache struct {
	mu    sync.Mutex
	items map[string]interface{}
	gets  int
	hits  int
}

func newMemCache() *memCache { return &memCache{items: map[string]interface{}{}} }

var errMiss = errors.New("miss")

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.items[key]
	if !ok {
		return errMiss
	}
	c.hits++
	switch d := dest.(type) {
	case *[]*domain.Workout:
		*d = v.([]*domain.Workout)
	case *domain.WorkoutDetail:
		*d = *v.(*domain.WorkoutDetail)
	default:
		return fmt.Errorf("unsupported type %T", dest)
	}
	return nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
