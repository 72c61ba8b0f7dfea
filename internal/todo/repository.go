package todo

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("todo not found")

// Repository handles todo persistence.
//
// The creatorID argument of the by-id methods scopes the lookup to one
// owner. An empty creatorID matches any owner.
type Repository interface {
	Create(ctx context.Context, t *Todo) error
	ListByCreator(ctx context.Context, creatorID string) ([]Todo, error)
	GetByID(ctx context.Context, id, creatorID string) (*Todo, error)
	Update(ctx context.Context, id, creatorID string, changes Changes) (*Todo, error)
	Delete(ctx context.Context, id, creatorID string) (*Todo, error)
}
