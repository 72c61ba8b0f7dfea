package todo

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepository keeps todos in insertion order in process memory
type MemoryRepository struct {
	mu    sync.RWMutex
	todos []Todo
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, t *Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.todos = append(r.todos, copyTodo(*t))
	return nil
}

func (r *MemoryRepository) ListByCreator(ctx context.Context, creatorID string) ([]Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Todo, 0)
	for _, t := range r.todos {
		if t.CreatorID == creatorID {
			out = append(out, copyTodo(t))
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id, creatorID string) (*Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id, creatorID)
	if i < 0 {
		return nil, ErrNotFound
	}
	t := copyTodo(r.todos[i])
	return &t, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id, creatorID string, changes Changes) (*Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id, creatorID)
	if i < 0 {
		return nil, ErrNotFound
	}
	r.todos[i] = changes.Apply(r.todos[i])
	t := copyTodo(r.todos[i])
	return &t, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id, creatorID string) (*Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id, creatorID)
	if i < 0 {
		return nil, ErrNotFound
	}
	t := r.todos[i]
	r.todos = slices.Delete(r.todos, i, i+1)
	return &t, nil
}

// index must be called with the lock held
func (r *MemoryRepository) index(id, creatorID string) int {
	return slices.IndexFunc(r.todos, func(t Todo) bool {
		return t.ID == id && (creatorID == "" || t.CreatorID == creatorID)
	})
}

func copyTodo(t Todo) Todo {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
