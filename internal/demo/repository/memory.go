package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/a2developers/website/backend/go-services/internal/demo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used by tests and local tooling.
type MemoryRepo struct {
	mu    sync.RWMutex
	store []demo.DemoRequest
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Create(ctx context.Context, d *demo.DemoRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = primitive.NewObjectID().Hex()
	}
	m.store = append(m.store, *d)
	return nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]*demo.DemoRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*demo.DemoRequest, 0, len(m.store))
	for i := range m.store {
		d := m.store[i]
		out = append(out, &d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
