package domain

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type insertFindCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

type sessionCollection interface {
	insertFindCollection
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// AdminRepository looks up admin accounts and their sessions.
type AdminRepository struct {
	users    insertFindCollection
	sessions sessionCollection
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(users insertFindCollection, sessions sessionCollection) *AdminRepository {
	return &AdminRepository{users: users, sessions: sessions}
}

func (r *AdminRepository) check(ctx context.Context) error {
	return checkCall(ctx, r != nil && r.users != nil && r.sessions != nil, "admin")
}

// FindActive fetches an active admin account by username.
func (r *AdminRepository) FindActive(ctx context.Context, username string) (AdminUser, error) {
	if err := r.check(ctx); err != nil {
		return AdminUser{}, err
	}
	if username == "" {
		return AdminUser{}, invalid("username is required")
	}

	return findOne[AdminUser](ctx, r.users, bson.M{"username": username, "is_active": true}, "admin user")
}

// CreateSession stores a session token for username valid for ttl.
func (r *AdminRepository) CreateSession(ctx context.Context, token, username string, ttl time.Duration) (AdminSession, error) {
	if err := r.check(ctx); err != nil {
		return AdminSession{}, err
	}
	if token == "" || username == "" {
		return AdminSession{}, invalid("token and username are required")
	}

	session := AdminSession{Token: token, Username: username, ExpiresAt: now().Add(ttl)}
	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		return AdminSession{}, fmt.Errorf("insert session: %w", err)
	}

	return session, nil
}

// SessionUsername resolves an unexpired session token to its username.
func (r *AdminRepository) SessionUsername(ctx context.Context, token string) (string, error) {
	if err := r.check(ctx); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}

	session, err := findOne[AdminSession](ctx, r.sessions,
		bson.M{"token": token, "expires_at": bson.M{"$gt": now()}},
		"session",
	)
	if err != nil {
		return "", err
	}

	return session.Username, nil
}

// DeleteSession removes a session token. Unknown tokens are not an error.
func (r *AdminRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.check(ctx); err != nil {
		return err
	}

	if _, err := r.sessions.DeleteOne(ctx, bson.M{"token": token}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
