package domain

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type insertFindManyCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// InteractionRepository appends to and reads the user_interactions log.
type InteractionRepository struct {
	collection insertFindManyCollection
}

// NewInteractionRepository constructs an InteractionRepository.
func NewInteractionRepository(collection insertFindManyCollection) *InteractionRepository {
	return &InteractionRepository{collection: collection}
}

// Insert appends one interaction, stamping created_at when unset.
func (r *InteractionRepository) Insert(ctx context.Context, interaction Interaction) (Interaction, error) {
	if err := checkCall(ctx, r != nil && r.collection != nil, "interaction"); err != nil {
		return Interaction{}, err
	}
	if interaction.Action == "" {
		return Interaction{}, errors.New("action is required")
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = now()
	}

	if _, err := r.collection.InsertOne(ctx, interaction); err != nil {
		return Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}

	return interaction, nil
}

// Recent returns the newest interactions, at most limit of them.
func (r *InteractionRepository) Recent(ctx context.Context, limit int64) ([]Interaction, error) {
	if err := checkCall(ctx, r != nil && r.collection != nil, "interaction"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	return findAll[Interaction](ctx, r.collection, bson.M{}, "interactions",
		options.Find().SetSort(newestFirst).SetLimit(limit),
	)
}
