package users

import (
	"context"
	"sync"
	"time"

	"github.com/tasklight/tasklight/internal/models"
)

// MemoryRepository is an in-memory Repository for tests and dev mode.
// Constructed per process or per test; not a package-level singleton.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*models.User), nextID: 1}
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	normalized := NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == normalized {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(_ context.Context, email, passwordHash string, role models.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	now := time.Now().UTC()
	r.byID[id] = &models.User{
		ID:           id,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return id, nil
}
