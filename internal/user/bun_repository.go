package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-todo-api/internal/database"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// BunRepository stores users in PostgreSQL through bun
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new user row
func (r *BunRepository) Create(ctx context.Context, u *User) error {
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *BunRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.selectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// GetByEmail retrieves a user by email
func (r *BunRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.selectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

// GetByToken retrieves a user whose tokens array contains the token
func (r *BunRepository) GetByToken(ctx context.Context, id, access, token string) (*User, error) {
	needle, err := json.Marshal([]database.Token{{Access: access, Token: token}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token filter: %w", err)
	}

	return r.selectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id).Where("tokens @> ?::jsonb", string(needle))
	})
}

// PushToken appends a token to the user's tokens array
func (r *BunRepository) PushToken(ctx context.Context, id string, token Token) error {
	entry, err := json.Marshal([]database.Token{{Access: token.Access, Token: token.Token}})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("tokens = tokens || ?::jsonb", string(entry)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to push token: %w", err)
	}

	return requireAffected(result)
}

// PullToken removes the token from the user's tokens array
func (r *BunRepository) PullToken(ctx context.Context, id, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set(`tokens = COALESCE(
			(SELECT jsonb_agg(elem) FROM jsonb_array_elements(tokens) AS elem WHERE elem->>'token' <> ?),
			'[]'::jsonb)`, token).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull token: %w", err)
	}

	return requireAffected(result)
}

func (r *BunRepository) selectOne(ctx context.Context, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	err := where(r.db.NewSelect().Model(dbUser)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapModelToDBUser(u *User) *database.User {
	tokens := make([]database.Token, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		tokens = append(tokens, database.Token{Access: t.Access, Token: t.Token})
	}

	return &database.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Tokens:       tokens,
	}
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	tokens := make([]Token, 0, len(dbu.Tokens))
	for _, t := range dbu.Tokens {
		tokens = append(tokens, Token{Access: t.Access, Token: t.Token})
	}

	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		Tokens:       tokens,
	}
}
