package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/redmonkez12/go-todo-api/internal/database"
)

type userDocument struct {
	ID       bson.ObjectID   `bson:"_id"`
	Email    string          `bson:"email"`
	Password string          `bson:"password"`
	Tokens   []tokenDocument `bson:"tokens"`
}

type tokenDocument struct {
	Access string `bson:"access"`
	Token  string `bson:"token"`
}

// MongoRepository stores users in the users collection
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(database.UsersCollection)}
}

// Create inserts a new user document
func (r *MongoRepository) Create(ctx context.Context, u *User) error {
	doc, err := toDocument(u)
	if err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail retrieves a user by email
func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByToken retrieves a user that still holds the given token
func (r *MongoRepository) GetByToken(ctx context.Context, id, access, token string) (*User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{
		"_id": oid,
		"tokens": bson.M{"$elemMatch": bson.M{
			"token":  token,
			"access": access,
		}},
	})
}

// PushToken appends a token to the user's tokens
func (r *MongoRepository) PushToken(ctx context.Context, id string, token Token) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"tokens": tokenDocument{Access: token.Access, Token: token.Token}},
	})
}

// PullToken removes every copy of token from the user's tokens
func (r *MongoRepository) PullToken(ctx context.Context, id, token string) error {
	return r.updateByID(ctx, id, bson.M{
		"$pull": bson.M{"tokens": bson.M{"token": token}},
	})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return fromDocument(&doc), nil
}

func (r *MongoRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update user tokens: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func toDocument(u *User) (*userDocument, error) {
	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", u.ID, err)
	}

	tokens := make([]tokenDocument, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		tokens = append(tokens, tokenDocument{Access: t.Access, Token: t.Token})
	}

	return &userDocument{
		ID:       oid,
		Email:    u.Email,
		Password: u.PasswordHash,
		Tokens:   tokens,
	}, nil
}

func fromDocument(doc *userDocument) *User {
	tokens := make([]Token, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		tokens = append(tokens, Token{Access: t.Access, Token: t.Token})
	}

	return &User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Tokens:       tokens,
	}
}
