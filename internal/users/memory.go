package users

import (
	"context"
	"sync"
	"time"

	"github.com/invisibility-inc/echo-backend/internal/models"
)

// MemoryRepository is a simple in-memory Repository used for unit tests and
// local development without a MongoDB instance.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.User)}
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.store[u.ID]; ok {
		if existing.Email == u.Email && existing.FullName == u.FullName {
			cp := *existing
			return &cp, nil
		}
		existing.Email = u.Email
		existing.FullName = u.FullName
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	created := &models.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store[u.ID] = created
	cp := *created
	return &cp, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.store))
	for _, u := range m.store {
		out = append(out, *u)
	}
	return out, nil
}

func (m *MemoryRepository) BatchSetLinked(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range ids {
		if u, ok := m.store[id]; ok {
			u.LinkedToKeywords = true
			u.UpdatedAt = now
		}
	}
	return nil
}
