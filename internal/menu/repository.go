package menu

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrItemNotFound is returned when a menu item id is unknown.
var ErrItemNotFound = errors.New("menu item not found")

// Repository persists menu items.
type Repository interface {
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (Item, error)
	UpsertItem(ctx context.Context, item Item) error
}

// StaticRepository keeps menu items in memory in insertion order.
type StaticRepository struct {
	mu    sync.RWMutex
	order []uuid.UUID
	items map[uuid.UUID]Item
}

// NewStaticRepository seeds a repository with items.
func NewStaticRepository(items []Item) *StaticRepository {
	repo := &StaticRepository{items: make(map[uuid.UUID]Item, len(items))}
	for _, it := range items {
		_ = repo.UpsertItem(context.Background(), it)
	}
	return repo
}

// ListItems implements Repository.
func (r *StaticRepository) ListItems(_ context.Context) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

// GetItem implements Repository.
func (r *StaticRepository) GetItem(_ context.Context, id uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

// UpsertItem implements Repository.
func (r *StaticRepository) UpsertItem(_ context.Context, item Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = item
	return nil
}
