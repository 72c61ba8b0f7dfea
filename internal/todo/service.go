package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/singleflight"

	"github.com/redmonkez12/go-todo-api/internal/logging"
)

var ErrTextRequired = errors.New("text is required")

// listFillTimeout bounds a shared list fill once it no longer follows the
// request that started it
const listFillTimeout = 5 * time.Second

// UpdateInput is the set of fields a PATCH may carry. Nil means untouched.
type UpdateInput struct {
	Text      *string
	Completed *bool
}

// Service holds the todo rules: trimmed non-empty text, owner scoping and
// the completed/completedAt pairing.
type Service struct {
	repo   Repository
	cache  ListCache
	logger *logging.Logger
	now    func() time.Time
	sf     singleflight.Group
}

// NewService creates a Service. A nil cache disables list caching.
func NewService(repo Repository, cache ListCache, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores a new open todo owned by creatorID
func (s *Service) Create(ctx context.Context, creatorID, text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	t := &Todo{
		ID:        bson.NewObjectID().Hex(),
		Text:      text,
		CreatorID: creatorID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.invalidate(ctx, creatorID)
	return t, nil
}

// List returns the creator's todos in insertion order
func (s *Service) List(ctx context.Context, creatorID string) ([]Todo, error) {
	if s.cache == nil {
		return s.repo.ListByCreator(ctx, creatorID)
	}

	// The generation is read before the store so a write that lands during
	// the fill moves readers past the entry it produces
	gen, err := s.cache.Generation(ctx, creatorID)
	if err != nil {
		s.logger.Warn("todo list cache generation read failed", "user_id", creatorID, "error", err)
		return s.repo.ListByCreator(ctx, creatorID)
	}

	// The shared fill runs detached from any one caller so a caller that
	// goes away does not fail the others waiting on it
	ch := s.sf.DoChan(fmt.Sprintf("%s:%d", creatorID, gen), func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listFillTimeout)
		defer cancel()
		return s.fillList(fillCtx, creatorID, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Todo), nil
	}
}

func (s *Service) fillList(ctx context.Context, creatorID string, gen int64) ([]Todo, error) {
	if list, err := s.cache.GetList(ctx, creatorID, gen); err == nil && list != nil {
		return list, nil
	} else if err != nil {
		s.logger.Warn("todo list cache read failed", "user_id", creatorID, "error", err)
	}

	list, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, creatorID, gen, list); err != nil {
		s.logger.Warn("todo list cache write failed", "user_id", creatorID, "error", err)
	}
	return list, nil
}

// Get returns the todo with id. A non-empty scope restricts the lookup to
// that owner. Malformed ids are reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id, scope string) (*Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id, scope)
}

// Update applies the supplied fields. Completing a todo stamps completedAt
// with the current time in epoch milliseconds; reopening it clears the stamp.
func (s *Service) Update(ctx context.Context, id, scope string, in UpdateInput) (*Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	var changes Changes
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, ErrTextRequired
		}
		changes.Text = &text
	}
	if in.Completed != nil {
		completed := *in.Completed
		changes.Completed = &completed
		if completed {
			at := s.now().UnixMilli()
			changes.CompletedAt = &at
		}
	}

	t, err := s.repo.Update(ctx, id, scope, changes)
	if err != nil {
		return nil, err
	}

	if !changes.IsEmpty() {
		s.invalidate(ctx, t.CreatorID)
	}
	return t, nil
}

// Delete removes the todo with id. A non-empty scope restricts it to that owner.
func (s *Service) Delete(ctx context.Context, id, scope string) (*Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	t, err := s.repo.Delete(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, t.CreatorID)
	return t, nil
}

func (s *Service) invalidate(ctx context.Context, creatorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, creatorID); err != nil {
		s.logger.Warn("todo list cache invalidation failed", "user_id", creatorID, "error", err)
	}
}

// canonicalID parses id as an ObjectID and returns its lowercase hex form,
// which is how ids are stored
func canonicalID(id string) (string, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}
