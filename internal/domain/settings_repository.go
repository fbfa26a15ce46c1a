package domain

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type settingsCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// SettingsRepository reads and upserts bot_settings rows keyed by name.
type SettingsRepository struct {
	collection settingsCollection
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(collection settingsCollection) *SettingsRepository {
	return &SettingsRepository{collection: collection}
}

// All returns every row ordered by updated_at ascending, so folding them in
// order leaves the most recent value for each key.
func (r *SettingsRepository) All(ctx context.Context) ([]Setting, error) {
	if err := checkCall(ctx, r != nil && r.collection != nil, "settings"); err != nil {
		return nil, err
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}

	rows := make([]Setting, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	return rows, nil
}

// Upsert stores value under key.
func (r *SettingsRepository) Upsert(ctx context.Context, key, value string) error {
	if err := checkCall(ctx, r != nil && r.collection != nil, "settings"); err != nil {
		return err
	}
	if !IsSettingKey(key) {
		return invalid("unknown setting %q", key)
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{
			"key":        key,
			"value":      value,
			"updated_at": now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}

	return nil
}
