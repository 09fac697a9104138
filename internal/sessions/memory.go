package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is a mutex-guarded in-memory Repository used for tests and
// single-process deployments. Instances are constructed explicitly and scoped
// to their owner; there is no package-level store.
type MemoryRepository struct {
	mu       sync.Mutex
	byJTI    map[string]*RefreshSession
	families map[string][]string
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byJTI:    make(map[string]*RefreshSession),
		families: make(map[string][]string),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, s *RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.now().UTC()
	}
	r.byJTI[cp.JTI] = &cp
	r.families[cp.FamilyID] = append(r.families[cp.FamilyID], cp.JTI)
	return nil
}

func (r *MemoryRepository) GetByJTI(_ context.Context, jti string) (*RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byJTI[jti]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) MarkRotated(_ context.Context, jti, replacedByJTI string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byJTI[jti]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	now := r.now().UTC()
	s.RevokedAt = &now
	s.RevokedReason = ReasonRotated
	s.ReplacedByJTI = replacedByJTI
	return true, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, jti string, reason RevokeReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokeLocked(jti, reason)
	return nil
}

func (r *MemoryRepository) RevokeFamily(_ context.Context, familyID string, reason RevokeReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, jti := range r.families[familyID] {
		r.revokeLocked(jti, reason)
	}
	return nil
}

func (r *MemoryRepository) revokeLocked(jti string, reason RevokeReason) {
	s, ok := r.byJTI[jti]
	if !ok || s.RevokedAt != nil {
		return
	}
	now := r.now().UTC()
	s.RevokedAt = &now
	s.RevokedReason = reason
}
