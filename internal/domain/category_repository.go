package domain

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxCategoryIDLength keeps "cat:<id>" inside Telegram's 64-byte callback limit.
const MaxCategoryIDLength = 60

var menuOrder = bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}

// CategoryRepository persists and retrieves categories in MongoDB.
type CategoryRepository struct {
	collection crudCollection
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(collection crudCollection) *CategoryRepository {
	return &CategoryRepository{collection: collection}
}

func (r *CategoryRepository) check(ctx context.Context) error {
	return checkCall(ctx, r != nil && r.collection != nil, "category")
}

// ValidateCategoryID rejects ids that cannot round-trip through callback data.
func ValidateCategoryID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return invalid("category id is required")
	case len(id) > MaxCategoryIDLength:
		return invalid("category id must be at most %d bytes", MaxCategoryIDLength)
	case strings.ContainsAny(id, ": "):
		return invalid("category id must not contain ':' or spaces")
	}
	return nil
}

// ActiveChildren lists active categories under parentID in display order. An
// empty parentID selects top-level categories.
func (r *CategoryRepository) ActiveChildren(ctx context.Context, parentID string) ([]Category, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	filter := bson.M{"is_active": true, "parent_id": nil}
	if parentID != "" {
		filter["parent_id"] = parentID
	}

	return findAll[Category](ctx, r.collection, filter, "categories", options.Find().SetSort(menuOrder))
}

// List returns every category in display order.
func (r *CategoryRepository) List(ctx context.Context) ([]Category, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	return findAll[Category](ctx, r.collection, bson.M{}, "categories", options.Find().SetSort(menuOrder))
}

// Get fetches one category by id regardless of its active flag.
func (r *CategoryRepository) Get(ctx context.Context, id string) (Category, error) {
	if err := r.check(ctx); err != nil {
		return Category{}, err
	}
	if err := requireID(id); err != nil {
		return Category{}, err
	}

	return findOne[Category](ctx, r.collection, bson.M{"_id": id}, "category")
}

// Create inserts a category. A missing id is replaced with a generated one.
func (r *CategoryRepository) Create(ctx context.Context, category Category) (Category, error) {
	if err := r.check(ctx); err != nil {
		return Category{}, err
	}
	if strings.TrimSpace(category.Name) == "" {
		return Category{}, invalid("name is required")
	}
	if category.ID == "" {
		category.ID = newID()
	}
	if err := ValidateCategoryID(category.ID); err != nil {
		return Category{}, err
	}
	if category.ParentID != nil && *category.ParentID == category.ID {
		return Category{}, invalid("category cannot be its own parent")
	}

	category.CreatedAt = now()

	if _, err := r.collection.InsertOne(ctx, category); err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}

	return category, nil
}

// Update replaces the editable fields of a category.
func (r *CategoryRepository) Update(ctx context.Context, id string, category Category) (Category, error) {
	if err := r.check(ctx); err != nil {
		return Category{}, err
	}
	if err := requireID(id); err != nil {
		return Category{}, err
	}
	if category.ParentID != nil && *category.ParentID == id {
		return Category{}, invalid("category cannot be its own parent")
	}

	err := updateByID(ctx, r.collection, id, bson.M{
		"name":       category.Name,
		"emoji":      category.Emoji,
		"parent_id":  category.ParentID,
		"sort_order": category.SortOrder,
		"is_active":  category.IsActive,
	}, "category")
	if err != nil {
		return Category{}, err
	}

	return r.Get(ctx, id)
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.check(ctx); err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}

	return deleteByID(ctx, r.collection, id, "category")
}

// CountChildren counts categories, active or not, whose parent is id.
func (r *CategoryRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	if err := requireID(id); err != nil {
		return 0, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"parent_id": id})
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return count, nil
}
