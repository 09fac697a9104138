package todos

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and dev mode.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[int64]*Todo
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*Todo), nextID: 1}
}

func (r *MemoryRepository) List(_ context.Context, userID int64) ([]Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Todo{}
	for _, t := range r.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Todo{}
	for _, t := range r.byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, userID, id int64) (*Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Create(_ context.Context, userID int64, title string) (*Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	now := time.Now().UTC()
	t := &Todo{
		ID:        id,
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[id] = t
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Update(_ context.Context, userID, id int64, update Update) (*Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	switch u := update.(type) {
	case FullUpdate:
		t.Title = u.Title
		t.Completed = u.Completed
	case PartialUpdate:
		if u.Title != nil {
			t.Title = *u.Title
		}
		if u.Completed != nil {
			t.Completed = *u.Completed
		}
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
