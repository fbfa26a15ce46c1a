// Package adminuser seeds the management API account configured through the
// environment.
package adminuser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"edu_coupon_bot/internal/logging"
)

type adminCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// hashPassword is overridable for tests.
var hashPassword = func(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Registrar bootstraps the configured admin account.
type Registrar struct {
	admins adminCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the admin_users collection.
func NewRegistrar(admins adminCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		admins: admins,
		logger: logger,
	}
}

// EnsureAdmin upserts username with a fresh bcrypt hash of password and marks
// the account active. Re-running it rotates the stored hash.
func (r *Registrar) EnsureAdmin(ctx context.Context, username, password string) error {
	if r == nil || r.admins == nil {
		return errors.New("admin registrar is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("admin username is required")
	}
	if password == "" {
		return errors.New("admin password is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.admins.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$set": bson.M{
				"username":      username,
				"password_hash": string(hash),
				"is_active":     true,
				"updated_at":    now,
			},
			"$setOnInsert": bson.M{
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":          "admin_bootstrap",
		"admin":          username,
		"matched_admin":  matchedCount(result),
		"upserted_admin": upsertedCount(result),
	}).Info("ensured admin account")

	return nil
}

func matchedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.MatchedCount
}

func upsertedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.UpsertedCount
}
