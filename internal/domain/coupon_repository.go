package domain

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CouponRepository persists and retrieves coupons in MongoDB.
type CouponRepository struct {
	collection crudCollection
}

// NewCouponRepository constructs a CouponRepository.
func NewCouponRepository(collection crudCollection) *CouponRepository {
	return &CouponRepository{collection: collection}
}

func (r *CouponRepository) check(ctx context.Context) error {
	return checkCall(ctx, r != nil && r.collection != nil, "coupon")
}

// LatestActive returns the newest active coupon in the category. When
// descriptionContains is set the description must contain it, ignoring case.
func (r *CouponRepository) LatestActive(ctx context.Context, categoryID, descriptionContains string) (Coupon, error) {
	if err := r.check(ctx); err != nil {
		return Coupon{}, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return Coupon{}, invalid("category_id is required")
	}

	filter := bson.M{"category_id": categoryID, "is_active": true}
	if descriptionContains != "" {
		filter["description"] = containsFold(descriptionContains)
	}

	return findOne[Coupon](ctx, r.collection, filter, "coupon", options.FindOne().SetSort(newestFirst))
}

// ActiveByCategory lists every active coupon in the category, newest first.
func (r *CouponRepository) ActiveByCategory(ctx context.Context, categoryID string) ([]Coupon, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, invalid("category_id is required")
	}

	return findAll[Coupon](ctx, r.collection,
		bson.M{"category_id": categoryID, "is_active": true},
		"coupons",
		options.Find().SetSort(newestFirst),
	)
}

// List returns all coupons, active or not, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]Coupon, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	return findAll[Coupon](ctx, r.collection, bson.M{}, "coupons", options.Find().SetSort(newestFirst))
}

// Get fetches one coupon by id.
func (r *CouponRepository) Get(ctx context.Context, id string) (Coupon, error) {
	if err := r.check(ctx); err != nil {
		return Coupon{}, err
	}
	if err := requireID(id); err != nil {
		return Coupon{}, err
	}

	return findOne[Coupon](ctx, r.collection, bson.M{"_id": id}, "coupon")
}

// Create inserts a coupon with a generated id and fresh timestamps.
func (r *CouponRepository) Create(ctx context.Context, coupon Coupon) (Coupon, error) {
	if err := r.check(ctx); err != nil {
		return Coupon{}, err
	}
	if coupon.CategoryID == "" || coupon.Code == "" {
		return Coupon{}, invalid("category_id and code are required")
	}

	ts := now()
	coupon.ID = newID()
	coupon.CreatedAt = ts
	coupon.UpdatedAt = ts

	if _, err := r.collection.InsertOne(ctx, coupon); err != nil {
		return Coupon{}, fmt.Errorf("insert coupon: %w", err)
	}

	return coupon, nil
}

// Update replaces the editable fields of a coupon and returns the stored result.
func (r *CouponRepository) Update(ctx context.Context, id string, coupon Coupon) (Coupon, error) {
	if err := r.check(ctx); err != nil {
		return Coupon{}, err
	}
	if err := requireID(id); err != nil {
		return Coupon{}, err
	}

	err := updateByID(ctx, r.collection, id, bson.M{
		"category_id": coupon.CategoryID,
		"code":        coupon.Code,
		"discount":    coupon.Discount,
		"description": coupon.Description,
		"validity":    coupon.Validity,
		"is_active":   coupon.IsActive,
		"updated_at":  now(),
	}, "coupon")
	if err != nil {
		return Coupon{}, err
	}

	return r.Get(ctx, id)
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	if err := r.check(ctx); err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}

	return deleteByID(ctx, r.collection, id, "coupon")
}

// CountByCategory counts coupons, active or not, filed under categoryID.
func (r *CouponRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	if err := requireID(categoryID); err != nil {
		return 0, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return count, nil
}
