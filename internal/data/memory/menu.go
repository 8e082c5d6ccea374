package memory

import (
	"context"
	"sync"

	"pizza-service/internal/data/entity"
)

type MenuRepository struct {
	mu    sync.RWMutex
	items []entity.MenuItem
}

func NewMenuRepository() *MenuRepository {
	return &MenuRepository{}
}

func (r *MenuRepository) FindAll(ctx context.Context) ([]*entity.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entity.MenuItem, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items[i] = &item
	}
	return items, nil
}

func (r *MenuRepository) Create(ctx context.Context, item *entity.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, *item)
	return nil
}
