package domain

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReferralRepository persists and retrieves referral offers in MongoDB.
type ReferralRepository struct {
	collection crudCollection
}

// NewReferralRepository constructs a ReferralRepository.
func NewReferralRepository(collection crudCollection) *ReferralRepository {
	return &ReferralRepository{collection: collection}
}

func (r *ReferralRepository) check(ctx context.Context) error {
	return checkCall(ctx, r != nil && r.collection != nil, "referral")
}

// Active lists active referrals, newest first.
func (r *ReferralRepository) Active(ctx context.Context) ([]Referral, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	return findAll[Referral](ctx, r.collection, bson.M{"is_active": true}, "referrals", options.Find().SetSort(newestFirst))
}

// List returns every referral, newest first.
func (r *ReferralRepository) List(ctx context.Context) ([]Referral, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	return findAll[Referral](ctx, r.collection, bson.M{}, "referrals", options.Find().SetSort(newestFirst))
}

// Get fetches one referral by id.
func (r *ReferralRepository) Get(ctx context.Context, id string) (Referral, error) {
	if err := r.check(ctx); err != nil {
		return Referral{}, err
	}
	if err := requireID(id); err != nil {
		return Referral{}, err
	}

	return findOne[Referral](ctx, r.collection, bson.M{"_id": id}, "referral")
}

// Create inserts a referral with a generated id.
func (r *ReferralRepository) Create(ctx context.Context, referral Referral) (Referral, error) {
	if err := r.check(ctx); err != nil {
		return Referral{}, err
	}
	if referral.Name == "" || referral.ReferralCode == "" {
		return Referral{}, invalid("name and referral_code are required")
	}

	ts := now()
	referral.ID = newID()
	referral.CreatedAt = ts
	referral.UpdatedAt = ts

	if _, err := r.collection.InsertOne(ctx, referral); err != nil {
		return Referral{}, fmt.Errorf("insert referral: %w", err)
	}

	return referral, nil
}

// Update replaces the editable fields of a referral.
func (r *ReferralRepository) Update(ctx context.Context, id string, referral Referral) (Referral, error) {
	if err := r.check(ctx); err != nil {
		return Referral{}, err
	}
	if err := requireID(id); err != nil {
		return Referral{}, err
	}

	err := updateByID(ctx, r.collection, id, bson.M{
		"name":          referral.Name,
		"emoji":         referral.Emoji,
		"app_name":      referral.AppName,
		"referral_code": referral.ReferralCode,
		"instructions":  referral.Instructions,
		"link":          referral.Link,
		"is_active":     referral.IsActive,
		"updated_at":    now(),
	}, "referral")
	if err != nil {
		return Referral{}, err
	}

	return r.Get(ctx, id)
}

// Delete removes a referral.
func (r *ReferralRepository) Delete(ctx context.Context, id string) error {
	if err := r.check(ctx); err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}

	return deleteByID(ctx, r.collection, id, "referral")
}
