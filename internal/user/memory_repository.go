package user

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepository keeps users in process memory. Used by DB_DRIVER=memory
// and by tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users []*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	r.users = append(r.users, clone(u))
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.find(id); u != nil {
		return clone(u), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetByToken(ctx context.Context, id, access, token string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.find(id)
	if u == nil || !u.HasToken(access, token) {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) PushToken(ctx context.Context, id string, token Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(id)
	if u == nil {
		return ErrNotFound
	}
	u.Tokens = append(u.Tokens, token)
	return nil
}

func (r *MemoryRepository) PullToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(id)
	if u == nil {
		return ErrNotFound
	}
	u.Tokens = slices.DeleteFunc(u.Tokens, func(t Token) bool { return t.Token == token })
	return nil
}

// find must be called with the lock held
func (r *MemoryRepository) find(id string) *User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func clone(u *User) *User {
	c := *u
	c.Tokens = slices.Clone(u.Tokens)
	return &c
}
