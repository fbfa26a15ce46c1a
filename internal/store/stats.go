package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edu_coupon_bot/internal/domain"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type interactionCollection interface {
	countCollection
	Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

// Summary is the headline dashboard numbers.
type Summary struct {
	TotalCoupons      int64 `json:"total_coupons"`
	ActiveCoupons     int64 `json:"active_coupons"`
	TotalUsers        int64 `json:"total_users"`
	TodayInteractions int64 `json:"today_interactions"`
}

// StatsProvider exposes aggregate counts over coupons and the interaction log
// without leaking MongoDB internals to callers.
type StatsProvider struct {
	coupons      countCollection
	interactions interactionCollection
}

// NewStatsProvider constructs a StatsProvider backed by the coupons and
// user_interactions collections.
func NewStatsProvider(coupons countCollection, interactions interactionCollection) *StatsProvider {
	return &StatsProvider{
		coupons:      coupons,
		interactions: interactions,
	}
}

func (p *StatsProvider) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if p == nil || p.coupons == nil || p.interactions == nil {
		return errors.New("stats provider is not initialized")
	}
	return nil
}

// CountCoupons returns the number of coupons, optionally only active ones.
func (p *StatsProvider) CountCoupons(ctx context.Context, activeOnly bool) (int64, error) {
	if err := p.check(ctx); err != nil {
		return 0, err
	}

	filter := bson.D{}
	if activeOnly {
		filter = bson.D{{Key: "is_active", Value: true}}
	}

	count, err := p.coupons.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}

	return count, nil
}

// CountUniqueUsers returns the number of distinct Telegram users that have
// interacted with the bot.
func (p *StatsProvider) CountUniqueUsers(ctx context.Context) (int64, error) {
	if err := p.check(ctx); err != nil {
		return 0, err
	}

	ids, err := p.interactions.Distinct(ctx, "telegram_id", bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$ne", Value: 0}}}})
	if err != nil {
		return 0, fmt.Errorf("distinct users: %w", err)
	}

	return int64(len(ids)), nil
}

// CountInteractionsSince returns the number of interactions at or after since.
func (p *StatsProvider) CountInteractionsSince(ctx context.Context, since time.Time) (int64, error) {
	if err := p.check(ctx); err != nil {
		return 0, err
	}

	count, err := p.interactions.CountDocuments(ctx, bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}})
	if err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}

	return count, nil
}

// TopActions ranks action labels by frequency, ties broken alphabetically.
func (p *StatsProvider) TopActions(ctx context.Context, limit int64) ([]domain.ActionCount, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$action"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := p.interactions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate actions: %w", err)
	}

	out := make([]domain.ActionCount, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}

	return out, nil
}

// Summarize gathers the dashboard numbers. "Today" starts at midnight UTC of now.
func (p *StatsProvider) Summarize(ctx context.Context, now time.Time) (Summary, error) {
	var (
		summary Summary
		err     error
	)

	if summary.TotalCoupons, err = p.CountCoupons(ctx, false); err != nil {
		return Summary{}, err
	}
	if summary.ActiveCoupons, err = p.CountCoupons(ctx, true); err != nil {
		return Summary{}, err
	}
	if summary.TotalUsers, err = p.CountUniqueUsers(ctx); err != nil {
		return Summary{}, err
	}
	if summary.TodayInteractions, err = p.CountInteractionsSince(ctx, startOfDay(now)); err != nil {
		return Summary{}, err
	}

	return summary, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
