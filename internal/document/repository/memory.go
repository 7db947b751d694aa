package repository

import (
	"context"
	"sync"

	"github.com/Nikola31267/food-management/internal/document"
)

// MemoryRepo is an in-process document source with the same read contract
// as MongoRepo. Used by tests and for exporting fixture data.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string][]document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string][]document.Document)}
}

// Insert appends documents to a collection, creating it when absent.
func (m *MemoryRepo) Insert(collection string, docs ...document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[collection] = append(m.store[collection], docs...)
}

func (m *MemoryRepo) Each(ctx context.Context, collection string, fn func(document.Document) error) error {
	m.mu.RLock()
	docs := append([]document.Document(nil), m.store[collection]...)
	m.mu.RUnlock()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryRepo) List(ctx context.Context, collection string) ([]document.Document, error) {
	return list(ctx, m, collection)
}
