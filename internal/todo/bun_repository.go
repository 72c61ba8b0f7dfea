package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-todo-api/internal/database"
)

// BunRepository stores todos in PostgreSQL through bun
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new todo row
func (r *BunRepository) Create(ctx context.Context, t *Todo) error {
	dbTodo := &database.Todo{
		ID:          t.ID,
		Text:        t.Text,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatorID:   t.CreatorID,
	}

	if _, err := r.db.NewInsert().Model(dbTodo).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// ListByCreator returns the creator's todos in insertion order. ObjectIDs
// sort by creation time, so ordering by id keeps insertion order.
func (r *BunRepository) ListByCreator(ctx context.Context, creatorID string) ([]Todo, error) {
	var rows []database.Todo
	err := r.db.NewSelect().
		Model(&rows).
		Where("creator_id = ?", creatorID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	todos := make([]Todo, 0, len(rows))
	for i := range rows {
		todos = append(todos, mapDBTodoToModel(&rows[i]))
	}
	return todos, nil
}

// GetByID retrieves a todo by ID
func (r *BunRepository) GetByID(ctx context.Context, id, creatorID string) (*Todo, error) {
	dbTodo := new(database.Todo)
	q := r.db.NewSelect().Model(dbTodo).Where("id = ?", id)
	if creatorID != "" {
		q = q.Where("creator_id = ?", creatorID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, notFoundOrWrap(err, "failed to get todo")
	}

	t := mapDBTodoToModel(dbTodo)
	return &t, nil
}

// Update applies changes and returns the updated row
func (r *BunRepository) Update(ctx context.Context, id, creatorID string, changes Changes) (*Todo, error) {
	if changes.IsEmpty() {
		return r.GetByID(ctx, id, creatorID)
	}

	dbTodo := new(database.Todo)
	q := r.db.NewUpdate().Model(dbTodo).Where("id = ?", id)
	if creatorID != "" {
		q = q.Where("creator_id = ?", creatorID)
	}
	if changes.Text != nil {
		q = q.Set("text = ?", *changes.Text)
	}
	if changes.Completed != nil {
		q = q.Set("completed = ?", *changes.Completed)
		if *changes.Completed && changes.CompletedAt != nil {
			q = q.Set("completed_at = ?", *changes.CompletedAt)
		} else {
			q = q.Set("completed_at = NULL")
		}
	}

	if err := q.Returning("*").Scan(ctx); err != nil {
		return nil, notFoundOrWrap(err, "failed to update todo")
	}

	t := mapDBTodoToModel(dbTodo)
	return &t, nil
}

// Delete removes a todo and returns it
func (r *BunRepository) Delete(ctx context.Context, id, creatorID string) (*Todo, error) {
	dbTodo := new(database.Todo)
	q := r.db.NewDelete().Model(dbTodo).Where("id = ?", id)
	if creatorID != "" {
		q = q.Where("creator_id = ?", creatorID)
	}

	if err := q.Returning("*").Scan(ctx); err != nil {
		return nil, notFoundOrWrap(err, "failed to delete todo")
	}

	t := mapDBTodoToModel(dbTodo)
	return &t, nil
}

func notFoundOrWrap(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// mapDBTodoToModel converts database model to domain model
func mapDBTodoToModel(dbt *database.Todo) Todo {
	return Todo{
		ID:          dbt.ID,
		Text:        dbt.Text,
		Completed:   dbt.Completed,
		CompletedAt: dbt.CompletedAt,
		CreatorID:   dbt.CreatorID,
	}
}
