package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type findOneCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

type findManyCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type findCollection interface {
	findOneCollection
	findManyCollection
}

type crudCollection interface {
	findCollection
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

var (
	newestFirst = bson.D{{Key: "created_at", Value: -1}}

	// newID is overridable for tests.
	newID = func() string { return uuid.NewString() }
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func checkCall(ctx context.Context, initialized bool, name string) error {
	if !initialized {
		return fmt.Errorf("%s repository is not initialized", name)
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}

// containsFold matches values containing needle, ignoring case. The needle is
// quoted so user-entered labels never act as patterns.
func containsFold(needle string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}
}

func findOne[T any](ctx context.Context, coll findOneCollection, filter interface{}, what string, opts ...*options.FindOneOptions) (T, error) {
	var out T

	result := coll.FindOne(ctx, filter, opts...)
	if result == nil {
		return out, fmt.Errorf("find %s returned no result", what)
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, ErrNotFound
		}
		return out, fmt.Errorf("find %s: %w", what, err)
	}

	if err := result.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", what, err)
	}

	return out, nil
}

func findAll[T any](ctx context.Context, coll findManyCollection, filter interface{}, what string, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", what, err)
	}

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}

	return out, nil
}

func updateByID(ctx context.Context, coll crudCollection, id string, set bson.M, what string) error {
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if result == nil || result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll crudCollection, id string, what string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if result == nil || result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("id is required")
	}
	return nil
}
