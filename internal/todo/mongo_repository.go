package todo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/redmonkez12/go-todo-api/internal/database"
)

type todoDocument struct {
	ID          bson.ObjectID `bson:"_id"`
	Text        string        `bson:"text"`
	Completed   bool          `bson:"completed"`
	CompletedAt *int64        `bson:"completedAt,omitempty"`
	Creator     bson.ObjectID `bson:"_creator"`
}

// MongoRepository stores todos in the todos collection
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(database.TodosCollection)}
}

// Create inserts a new todo document
func (r *MongoRepository) Create(ctx context.Context, t *Todo) error {
	id, err := bson.ObjectIDFromHex(t.ID)
	if err != nil {
		return fmt.Errorf("invalid todo id %q: %w", t.ID, err)
	}
	creator, err := bson.ObjectIDFromHex(t.CreatorID)
	if err != nil {
		return fmt.Errorf("invalid creator id %q: %w", t.CreatorID, err)
	}

	doc := todoDocument{
		ID:          id,
		Text:        t.Text,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		Creator:     creator,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// ListByCreator returns the creator's todos in insertion order
func (r *MongoRepository) ListByCreator(ctx context.Context, creatorID string) ([]Todo, error) {
	creator, err := bson.ObjectIDFromHex(creatorID)
	if err != nil {
		return []Todo{}, nil
	}

	cursor, err := r.coll.Find(ctx,
		bson.M{"_creator": creator},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	todos := make([]Todo, 0, len(docs))
	for i := range docs {
		todos = append(todos, docs[i].model())
	}
	return todos, nil
}

// GetByID retrieves a todo by ID
func (r *MongoRepository) GetByID(ctx context.Context, id, creatorID string) (*Todo, error) {
	filter, err := byIDFilter(id, creatorID)
	if err != nil {
		return nil, err
	}

	var doc todoDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "failed to get todo")
	}
	t := doc.model()
	return &t, nil
}

// Update applies changes and returns the updated todo
func (r *MongoRepository) Update(ctx context.Context, id, creatorID string, changes Changes) (*Todo, error) {
	if changes.IsEmpty() {
		return r.GetByID(ctx, id, creatorID)
	}

	filter, err := byIDFilter(id, creatorID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	update := bson.M{}
	if changes.Text != nil {
		set["text"] = *changes.Text
	}
	if changes.Completed != nil {
		set["completed"] = *changes.Completed
		if *changes.Completed && changes.CompletedAt != nil {
			set["completedAt"] = *changes.CompletedAt
		} else {
			update["$unset"] = bson.M{"completedAt": ""}
		}
	}
	update["$set"] = set

	var doc todoDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "failed to update todo")
	}
	t := doc.model()
	return &t, nil
}

// Delete removes a todo and returns it
func (r *MongoRepository) Delete(ctx context.Context, id, creatorID string) (*Todo, error) {
	filter, err := byIDFilter(id, creatorID)
	if err != nil {
		return nil, err
	}

	var doc todoDocument
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "failed to delete todo")
	}
	t := doc.model()
	return &t, nil
}

// byIDFilter builds the _id (and optional _creator) filter. Malformed ids
// are reported as not found.
func byIDFilter(id, creatorID string) (bson.M, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid}
	if creatorID != "" {
		creator, err := bson.ObjectIDFromHex(creatorID)
		if err != nil {
			return nil, ErrNotFound
		}
		filter["_creator"] = creator
	}
	return filter, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (d *todoDocument) model() Todo {
	return Todo{
		ID:          d.ID.Hex(),
		Text:        d.Text,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatorID:   d.Creator.Hex(),
	}
}
