package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the users table row. Tokens live in a jsonb array so the record
// keeps the same shape as the Mongo document.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Tokens       []Token   `bun:"tokens,type:jsonb,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Token struct {
	Access string `json:"access"`
	Token  string `json:"token"`
}

// Todo is the todos table row. CompletedAt holds epoch milliseconds and is
// NULL while the todo is open.
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:t"`

	ID          string    `bun:"id,pk"`
	Text        string    `bun:"text,notnull"`
	Completed   bool      `bun:"completed,notnull,default:false"`
	CompletedAt *int64    `bun:"completed_at"`
	CreatorID   string    `bun:"creator_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
