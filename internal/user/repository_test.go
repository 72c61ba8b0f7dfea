package user

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-todo-api/internal/database"
)

func TestMemoryRepository(t *testing.T) {
	testRepositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.ConnectMongo(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	testRepositoryContract(t, func(t *testing.T) Repository {
		db := client.Database("TodoAppTest_" + NewID())
		require.NoError(t, database.EnsureMongoIndexes(ctx, db))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		return NewMongoRepository(db)
	})
}

func TestBunRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	db := database.NewBunDB(sqlDB)
	t.Cleanup(func() { _ = db.Close() })

	testRepositoryContract(t, func(t *testing.T) Repository {
		ctx := context.Background()
		require.NoError(t, database.CreateSchema(ctx, db))
		_, err := db.NewTruncateTable().Model((*database.User)(nil)).Exec(ctx)
		require.NoError(t, err)
		return NewBunRepository(db)
	})
}

func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	seed := func(t *testing.T, repo Repository, email string) *User {
		u := &User{
			ID:           NewID(),
			Email:        email,
			PasswordHash: "hash-of-" + email,
			Tokens:       []Token{{Access: AccessAuth, Token: "tok-" + email}},
		}
		require.NoError(t, repo.Create(ctx, u))
		return u
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		u := seed(t, repo, "andrew@example.com")

		byID, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
		assert.Equal(t, u.PasswordHash, byID.PasswordHash)
		assert.Equal(t, u.Tokens, byID.Tokens)

		byEmail, err := repo.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo, "jen@example.com")

		err := repo.Create(ctx, &User{ID: NewID(), Email: "jen@example.com", PasswordHash: "x", Tokens: []Token{}})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, NewID())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.PushToken(ctx, NewID(), Token{Access: AccessAuth, Token: "t"}), ErrNotFound)
	})

	t.Run("token lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		u := seed(t, repo, "tokens@example.com")

		_, err := repo.GetByToken(ctx, u.ID, AccessAuth, "tok-tokens@example.com")
		require.NoError(t, err)

		_, err = repo.GetByToken(ctx, u.ID, "other", "tok-tokens@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, repo.PushToken(ctx, u.ID, Token{Access: AccessAuth, Token: "second"}))
		got, err := repo.GetByToken(ctx, u.ID, AccessAuth, "second")
		require.NoError(t, err)
		assert.Len(t, got.Tokens, 2)

		require.NoError(t, repo.PullToken(ctx, u.ID, "tok-tokens@example.com"))
		_, err = repo.GetByToken(ctx, u.ID, AccessAuth, "tok-tokens@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err = repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []Token{{Access: AccessAuth, Token: "second"}}, got.Tokens)
	})

	t.Run("token belongs to another user", func(t *testing.T) {
		repo := newRepo(t)
		a := seed(t, repo, "a@example.com")
		b := seed(t, repo, "b@example.com")

		_, err := repo.GetByToken(ctx, b.ID, AccessAuth, "tok-"+a.Email)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
