// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"edu_coupon_bot/internal/config"
)

// Collection names used across the bot.
const (
	CollectionCategories    = "categories"
	CollectionCoupons       = "coupons"
	CollectionReferrals     = "referrals"
	CollectionBotSettings   = "bot_settings"
	CollectionInteractions  = "user_interactions"
	CollectionAdminUsers    = "admin_users"
	CollectionAdminSessions = "admin_sessions"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Categories returns the categories collection handle.
func (m *Manager) Categories() *mongo.Collection { return m.Collection(CollectionCategories) }

// Coupons returns the coupons collection handle.
func (m *Manager) Coupons() *mongo.Collection { return m.Collection(CollectionCoupons) }

// Referrals returns the referrals collection handle.
func (m *Manager) Referrals() *mongo.Collection { return m.Collection(CollectionReferrals) }

// BotSettings returns the bot_settings collection handle.
func (m *Manager) BotSettings() *mongo.Collection { return m.Collection(CollectionBotSettings) }

// Interactions returns the user_interactions collection handle.
func (m *Manager) Interactions() *mongo.Collection { return m.Collection(CollectionInteractions) }

// AdminUsers returns the admin_users collection handle.
func (m *Manager) AdminUsers() *mongo.Collection { return m.Collection(CollectionAdminUsers) }

// AdminSessions returns the admin_sessions collection handle.
func (m *Manager) AdminSessions() *mongo.Collection { return m.Collection(CollectionAdminSessions) }

// Ping checks the primary is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: CollectionCategories,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "sort_order", Value: 1}},
				Options: options.Index().SetName("parent_sort"),
			}},
		},
		{
			collection: CollectionCoupons,
			models: []mongo.IndexModel{{
				Keys: bson.D{
					{Key: "category_id", Value: 1},
					{Key: "is_active", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("category_active_latest"),
			}},
		},
		{
			collection: CollectionReferrals,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("active_latest"),
			}},
		},
		{
			collection: CollectionBotSettings,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetName("key_unique").SetUnique(true),
			}},
		},
		{
			collection: CollectionInteractions,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "created_at", Value: -1}},
					Options: options.Index().SetName("created_at_desc"),
				},
				{
					Keys:    bson.D{{Key: "telegram_id", Value: 1}},
					Options: options.Index().SetName("telegram_id"),
				},
			},
		},
		{
			collection: CollectionAdminUsers,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName("username_unique").SetUnique(true),
			}},
		},
		{
			collection: CollectionAdminSessions,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "token", Value: 1}},
					Options: options.Index().SetName("token_unique").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "expires_at", Value: 1}},
					Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
				},
			},
		},
	}
}

// EnsureIndexes creates the indexes every collection relies on. Collections are
// created implicitly if they do not already exist. The first failure stops the
// run.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	for _, plan := range indexPlan() {
		if _, err := createIndexes(ctx, m.Collection(plan.collection), plan.models); err != nil {
			return fmt.Errorf("create %s indexes: %w", plan.collection, err)
		}
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
